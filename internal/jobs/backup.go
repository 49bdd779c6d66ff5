// Package jobs holds the scheduled background work: periodic snapshots of
// the workbook backend and pruning of old snapshots. The jobs are inert
// when the store is not file-backed.
package jobs

import (
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/robfig/cron/v3"

	"BizBooks/internal/checksum"
	"BizBooks/internal/config"
	"BizBooks/internal/logger"
	"BizBooks/internal/serviceiface"
)

type BackupService struct {
	config       Config
	cron         *cron.Cron
	workbookPath string
}

type Config struct {
	Schedule      string
	BackupDir     string
	RetentionDays int
}

// NewBackupService builds the backup job service. workbookPath may be ""
// (non-file backend), in which case Start is a no-op.
func NewBackupService(cfg map[string]interface{}, workbookPath string) serviceiface.Service {
	c := Config{
		Schedule:      config.DefaultBackupSchedule,
		BackupDir:     config.DefaultBackupDir,
		RetentionDays: config.BackupRetentionDays,
	}
	if cfg != nil {
		if v, ok := cfg["schedule"].(string); ok && v != "" {
			c.Schedule = v
		}
		if v, ok := cfg["backup_dir"].(string); ok && v != "" {
			c.BackupDir = v
		}
		if v, ok := cfg["retention_days"].(int); ok && v > 0 {
			c.RetentionDays = v
		}
	}
	return &BackupService{config: c, workbookPath: workbookPath}
}

func (s *BackupService) Name() string { return "jobs" }

func (s *BackupService) Start() error {
	if s.workbookPath == "" {
		log.Println("[INFO] backup jobs disabled (store is not file-backed)")
		return nil
	}
	s.cron = cron.New()
	if _, err := s.cron.AddFunc(s.config.Schedule, s.runBackup); err != nil {
		return fmt.Errorf("bad backup schedule %q: %w", s.config.Schedule, err)
	}
	s.cron.Start()
	log.Printf("[INFO] backup job scheduled (%s) for %s", s.config.Schedule, s.workbookPath)
	return nil
}

func (s *BackupService) Stop() error {
	if s.cron != nil {
		s.cron.Stop()
	}
	return nil
}

func (s *BackupService) runBackup() {
	if err := s.snapshotWorkbook(); err != nil {
		log.Printf("[ERROR] workbook backup failed: %v", err)
		return
	}
	s.pruneOldSnapshots()
	if logger.GlobalLogger != nil {
		logger.GlobalLogger.LogAudit("Workbook snapshot completed")
	}
}

func (s *BackupService) snapshotWorkbook() error {
	src, err := os.Open(s.workbookPath)
	if os.IsNotExist(err) {
		return nil // nothing written yet
	}
	if err != nil {
		return err
	}
	defer src.Close()

	if err := os.MkdirAll(s.config.BackupDir, 0755); err != nil {
		return err
	}
	name := fmt.Sprintf("%s_%s.xlsx",
		strings.TrimSuffix(filepath.Base(s.workbookPath), filepath.Ext(s.workbookPath)),
		time.Now().Format("20060102_150405"))
	snapshot := filepath.Join(s.config.BackupDir, name)
	dst, err := os.Create(snapshot)
	if err != nil {
		return err
	}
	if _, err := io.Copy(dst, src); err != nil {
		dst.Close()
		return err
	}
	if err := dst.Close(); err != nil {
		return err
	}
	if _, err := checksum.WriteSidecar(snapshot); err != nil {
		log.Printf("[WARN] could not write checksum for %s: %v", snapshot, err)
	}
	return nil
}

func (s *BackupService) pruneOldSnapshots() {
	cutoff := time.Now().AddDate(0, 0, -s.config.RetentionDays)
	entries, err := os.ReadDir(s.config.BackupDir)
	if err != nil {
		return
	}
	for _, entry := range entries {
		if entry.IsDir() || filepath.Ext(entry.Name()) != ".xlsx" {
			continue
		}
		info, err := entry.Info()
		if err != nil || info.ModTime().After(cutoff) {
			continue
		}
		os.Remove(filepath.Join(s.config.BackupDir, entry.Name()))
		os.Remove(filepath.Join(s.config.BackupDir, entry.Name()+".sha256"))
	}
}
