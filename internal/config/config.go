package config

import "time"

const (
	// LedgerPartition is the distinguished, non-deletable partition holding
	// party transactions. Every other partition is a stock company.
	LedgerPartition = "BusinessRecord"

	// Write retry policy against the backend store.
	RetryAttempts = 3
	RetryDelay    = 2 * time.Second

	DefaultWorkbookPath = "./data/bizbooks.xlsx"
	DefaultBackupDir    = "./backups"

	// DefaultBackupSchedule snapshots the workbook nightly at 02:00.
	DefaultBackupSchedule = "0 2 * * *"
	BackupRetentionDays   = 30
)
