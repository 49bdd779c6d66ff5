package stock

import (
	"BizBooks/internal/serviceiface"
	stockeng "BizBooks/internal/stock"
)

type StockService struct {
	config    map[string]interface{}
	dated     *stockeng.DatedEngine
	weekly    *stockeng.WeeklyEngine
	companies *stockeng.Companies
}

func NewStockService(cfg map[string]interface{}, dated *stockeng.DatedEngine, weekly *stockeng.WeeklyEngine, companies *stockeng.Companies) serviceiface.Service {
	return &StockService{config: cfg, dated: dated, weekly: weekly, companies: companies}
}

func (s *StockService) Name() string {
	return "stock"
}

func (s *StockService) Start() error {
	go StartStockService(s.config, s.dated, s.weekly, s.companies)
	return nil
}

func (s *StockService) Stop() error {
	return nil
}
