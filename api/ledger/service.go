package ledger

import (
	ledgereng "BizBooks/internal/ledger"
	"BizBooks/internal/serviceiface"
)

type LedgerService struct {
	config map[string]interface{}
	engine *ledgereng.Engine
}

func NewLedgerService(cfg map[string]interface{}, engine *ledgereng.Engine) serviceiface.Service {
	return &LedgerService{config: cfg, engine: engine}
}

func (s *LedgerService) Name() string {
	return "ledger"
}

func (s *LedgerService) Start() error {
	go StartLedgerService(s.config, s.engine)
	return nil
}

func (s *LedgerService) Stop() error {
	return nil
}
