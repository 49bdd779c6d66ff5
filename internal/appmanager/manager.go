package appmanager

import (
	"database/sql"
	"fmt"
	"os"
	"sort"
	"sync"

	"github.com/jackc/pgx/v5/pgxpool"
	"gopkg.in/yaml.v3"

	"BizBooks/api"
	"BizBooks/api/auth"
	ledgerapi "BizBooks/api/ledger"
	stockapi "BizBooks/api/stock"
	"BizBooks/internal/config"
	"BizBooks/internal/jobs"
	"BizBooks/internal/ledger"
	"BizBooks/internal/logger"
	"BizBooks/internal/serviceiface"
	"BizBooks/internal/stock"
	"BizBooks/internal/store"
)

var (
	authDB       *sql.DB
	pgxPool      *pgxpool.Pool
	rowStore     store.Store
	workbookPath string
)

// SetDB wires the auth database connection (nil is allowed; auth then
// falls back to the shared admin credential pair).
func SetDB(db *sql.DB) {
	authDB = db
}

func SetPgxPool(pool *pgxpool.Pool) {
	pgxPool = pool
}

// SetStore wires the row store every engine runs against. Must be called
// before AutoRegisterServices.
func SetStore(s store.Store) {
	rowStore = s
}

// SetWorkbookPath records the workbook location for the backup job; ""
// for non-file backends.
func SetWorkbookPath(path string) {
	workbookPath = path
}

func GetStore() store.Store {
	return rowStore
}

func GetPgxPool() *pgxpool.Pool {
	return pgxPool
}

var serviceConstructors = map[string]func(map[string]interface{}) serviceiface.Service{
	"logger": func(cfg map[string]interface{}) serviceiface.Service {
		return logger.NewLoggerService(cfg)
	},
	"auth": func(cfg map[string]interface{}) serviceiface.Service {
		return auth.NewAuthService(authDB, intOption(cfg, "max_users"), intOption(cfg, "session_timeout"))
	},
	"ledger": func(cfg map[string]interface{}) serviceiface.Service {
		var opts []ledger.Option
		if boolOption(cfg, "cumulative_balance") {
			opts = append(opts, ledger.WithCumulativeBalance())
		}
		return ledgerapi.NewLedgerService(cfg, ledger.NewEngine(rowStore, opts...))
	},
	"stock": func(cfg map[string]interface{}) serviceiface.Service {
		var weeklyOpts []stock.WeeklyOption
		if boolOption(cfg, "unique_items") {
			weeklyOpts = append(weeklyOpts, stock.WithUniqueItems())
		}
		return stockapi.NewStockService(cfg,
			stock.NewDatedEngine(rowStore),
			stock.NewWeeklyEngine(rowStore, weeklyOpts...),
			stock.NewCompanies(rowStore, config.LedgerPartition))
	},
	"jobs": func(cfg map[string]interface{}) serviceiface.Service {
		return jobs.NewBackupService(cfg, workbookPath)
	},
	"gateway": func(cfg map[string]interface{}) serviceiface.Service {
		return api.NewGatewayService(cfg)
	},
}

func intOption(cfg map[string]interface{}, key string) int {
	if cfg == nil {
		return 0
	}
	switch v := cfg[key].(type) {
	case int:
		return v
	case int64:
		return int(v)
	case float64:
		return int(v)
	case string:
		var parsed int
		if _, err := fmt.Sscanf(v, "%d", &parsed); err == nil {
			return parsed
		}
	}
	return 0
}

func boolOption(cfg map[string]interface{}, key string) bool {
	if cfg == nil {
		return false
	}
	b, _ := cfg[key].(bool)
	return b
}

// ------------------- MANAGER -------------------

type AppManager struct {
	services []serviceiface.Service
	mu       sync.Mutex
}

func NewAppManager() *AppManager {
	return &AppManager{
		services: make([]serviceiface.Service, 0),
	}
}

func (am *AppManager) RegisterService(s serviceiface.Service) {
	am.mu.Lock()
	defer am.mu.Unlock()
	am.services = append(am.services, s)
}

func (am *AppManager) StartAll() error {
	am.mu.Lock()
	defer am.mu.Unlock()
	for _, service := range am.services {
		fmt.Println("Starting service:", service.Name())
		if err := service.Start(); err != nil {
			return fmt.Errorf("failed to start service %s: %w", service.Name(), err)
		}
	}
	return nil
}

func (am *AppManager) StopAll() error {
	am.mu.Lock()
	defer am.mu.Unlock()
	for i := len(am.services) - 1; i >= 0; i-- {
		svc := am.services[i]
		if err := svc.Stop(); err != nil {
			return fmt.Errorf("failed to stop service %s: %w", svc.Name(), err)
		}
	}
	return nil
}

func (am *AppManager) GetServiceByName(name string) serviceiface.Service {
	for _, svc := range am.services {
		if svc.Name() == name {
			return svc
		}
	}
	return nil
}

// ------------------- YAML CONFIG -------------------

type ServiceSequencer struct {
	Services []ServiceConfig `yaml:"services"`
}

type ServiceConfig struct {
	Name       string                 `yaml:"name"`
	StartOrder int                    `yaml:"start_order"`
	Config     map[string]interface{} `yaml:"config"`
}

func LoadServiceSequence(path string) ([]ServiceConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var seq ServiceSequencer
	if err := yaml.Unmarshal(data, &seq); err != nil {
		return nil, err
	}

	// sort by start_order
	sort.Slice(seq.Services, func(i, j int) bool {
		return seq.Services[i].StartOrder < seq.Services[j].StartOrder
	})

	return seq.Services, nil
}

func (am *AppManager) AutoRegisterServices(configs []ServiceConfig) {
	for _, svc := range configs {
		constructor, ok := serviceConstructors[svc.Name]
		if !ok {
			continue
		}
		service := constructor(svc.Config)
		am.RegisterService(service)
		if svc.Name == "auth" {
			if realAuthSvc, ok := service.(*auth.AuthService); ok {
				api.SetAuthService(realAuthSvc)
				auth.SetGlobalAuthService(realAuthSvc)
			}
		}
	}

	for _, svc := range am.services {
		if l, ok := svc.(*logger.LoggerService); ok {
			logger.SetGlobalLogger(l)
			break
		}
	}
}
