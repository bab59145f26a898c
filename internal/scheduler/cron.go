package scheduler

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"

	"github.com/amaumene/focusflow/internal/history"
)

// How many timestamped backup files to keep around.
const backupKeep = 14

// Scheduler manages scheduled tasks
type Scheduler struct {
	cron      *cron.Cron
	store     *history.Store
	backupDir string
	schedule  string
	logger    *logrus.Logger
}

// NewScheduler creates a new scheduler
func NewScheduler(store *history.Store, backupDir, schedule string, logger *logrus.Logger) *Scheduler {
	return &Scheduler{
		cron:      cron.New(),
		store:     store,
		backupDir: backupDir,
		schedule:  schedule,
		logger:    logger,
	}
}

// Start starts the scheduler
func (s *Scheduler) Start() error {
	s.logger.Info("Starting scheduler")

	_, err := s.cron.AddFunc(s.schedule, func() {
		s.runBackup()
	})
	if err != nil {
		return fmt.Errorf("failed to add backup job: %w", err)
	}

	s.cron.Start()
	s.logger.WithField("schedule", s.schedule).Info("Scheduler started")
	return nil
}

// Stop stops the scheduler
func (s *Scheduler) Stop() {
	s.logger.Info("Stopping scheduler")
	s.cron.Stop()
}

// runBackup writes a timestamped export of the history collection and
// prunes old backup files
func (s *Scheduler) runBackup() {
	s.logger.Info("Running scheduled history backup")

	data, err := s.store.Serialize()
	if err != nil {
		s.logger.WithError(err).Error("Backup job failed to serialize history")
		return
	}

	if err := os.MkdirAll(s.backupDir, 0755); err != nil {
		s.logger.WithError(err).Error("Backup job failed to create backup directory")
		return
	}

	name := fmt.Sprintf("history-%s.json", time.Now().Format("2006-01-02"))
	path := filepath.Join(s.backupDir, name)
	if err := os.WriteFile(path, data, 0644); err != nil {
		s.logger.WithError(err).Error("Backup job failed to write file")
		return
	}

	s.logger.WithFields(logrus.Fields{
		"path":  path,
		"count": s.store.Len(),
	}).Info("Backup job completed successfully")

	s.pruneBackups()
}

// pruneBackups deletes the oldest backups beyond the retention count
func (s *Scheduler) pruneBackups() {
	matches, err := filepath.Glob(filepath.Join(s.backupDir, "history-*.json"))
	if err != nil || len(matches) <= backupKeep {
		return
	}

	// Glob returns sorted names; the date format sorts oldest first.
	for _, path := range matches[:len(matches)-backupKeep] {
		if err := os.Remove(path); err != nil {
			s.logger.WithError(err).Warn("Failed to prune old backup")
		} else {
			s.logger.WithField("path", path).Debug("Pruned old backup")
		}
	}
}
