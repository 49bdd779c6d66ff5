package main

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
	_ "github.com/lib/pq"

	"BizBooks/internal/appmanager"
	"BizBooks/internal/config"
	"BizBooks/internal/ledger"
	"BizBooks/internal/store"
	"BizBooks/internal/store/memstore"
	"BizBooks/internal/store/pgstore"
	"BizBooks/internal/store/sheetstore"
)

// InitDB loads DB config from env vars
func InitDB() (*sql.DB, error) {
	user := os.Getenv("DB_USER")
	pass := os.Getenv("DB_PASSWORD")
	host := os.Getenv("DB_HOST")
	port := os.Getenv("DB_PORT")
	name := os.Getenv("DB_NAME")
	connStr := fmt.Sprintf(
		"user=%s password=%s host=%s port=%s dbname=%s sslmode=disable",
		user, pass, host, port, name,
	)
	return sql.Open("postgres", connStr)
}

func pgConnString() string {
	if dsn := os.Getenv("DATABASE_URL"); dsn != "" {
		return dsn
	}
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%s/%s?sslmode=disable",
		os.Getenv("DB_USER"), os.Getenv("DB_PASSWORD"),
		os.Getenv("DB_HOST"), os.Getenv("DB_PORT"), os.Getenv("DB_NAME"),
	)
}

// initStore builds the row store selected by STORE_BACKEND and wraps it
// with the write retry policy.
func initStore(ctx context.Context) (store.Store, error) {
	backend := os.Getenv("STORE_BACKEND")
	switch backend {
	case "postgres":
		pool, err := pgxpool.New(ctx, pgConnString())
		if err != nil {
			return nil, fmt.Errorf("connect row store database: %w", err)
		}
		appmanager.SetPgxPool(pool)
		pg := pgstore.New(pool)
		if err := pg.Init(ctx); err != nil {
			return nil, err
		}
		return store.WithRetry(pg, config.RetryAttempts, config.RetryDelay), nil
	case "memory":
		return store.WithRetry(memstore.New(), config.RetryAttempts, config.RetryDelay), nil
	case "sheet", "":
		path := os.Getenv("WORKBOOK_PATH")
		if path == "" {
			path = config.DefaultWorkbookPath
		}
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			return nil, err
		}
		appmanager.SetWorkbookPath(path)
		return store.WithRetry(sheetstore.New(path), config.RetryAttempts, config.RetryDelay), nil
	default:
		return nil, fmt.Errorf("unknown STORE_BACKEND %q", backend)
	}
}

func main() {
	// Load .env for local dev (ignored in deployment)
	_ = godotenv.Load(".env")

	ctx := context.Background()

	// Auth database is optional; without it the auth service uses the
	// shared admin credential pair from the environment.
	if os.Getenv("DB_HOST") != "" {
		db, err := InitDB()
		if err != nil {
			log.Fatal("failed to connect to DB:", err)
		}
		appmanager.SetDB(db)
	}

	rowStore, err := initStore(ctx)
	if err != nil {
		log.Fatal("failed to initialize row store: ", err)
	}
	appmanager.SetStore(rowStore)

	// The ledger partition always exists; stock companies are created on
	// demand through the API.
	if err := store.EnsurePartition(ctx, rowStore, config.LedgerPartition, ledger.Header); err != nil {
		log.Fatal("failed to prepare ledger partition: ", err)
	}

	manager := appmanager.NewAppManager()

	// Load service configs from YAML
	servicesCfg, err := appmanager.LoadServiceSequence("services.yaml")
	if err != nil {
		log.Fatal("failed to load service sequence:", err)
	}

	// Automatically register all services
	manager.AutoRegisterServices(servicesCfg)

	// Start all services
	if err := manager.StartAll(); err != nil {
		log.Fatal("failed to start:", err)
	}

	// Graceful shutdown handling
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)
	<-sigs

	// Stop all services
	if err := manager.StopAll(); err != nil {
		log.Fatal("failed to stop:", err)
	}
}
