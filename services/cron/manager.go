package cron

import (
	"log"

	"github.com/robfig/cron/v3"
	"gorm.io/gorm"
)

// CronManager manages all scheduled cron jobs
type CronManager struct {
	cron *cron.Cron
	db   *gorm.DB
}

// NewCronManager creates a new cron manager
func NewCronManager(db *gorm.DB) *CronManager {
	// Create cron with seconds precision
	c := cron.New(cron.WithSeconds())

	return &CronManager{
		cron: c,
		db:   db,
	}
}

// Start starts all cron jobs
func (m *CronManager) Start() error {
	log.Println("Starting cron jobs...")

	if err := m.registerJobs(); err != nil {
		return err
	}

	m.cron.Start()

	log.Println("Cron jobs started successfully")
	return nil
}

// Stop stops all cron jobs
func (m *CronManager) Stop() {
	log.Println("Stopping cron jobs...")
	ctx := m.cron.Stop()
	<-ctx.Done()
	log.Println("Cron jobs stopped")
}

// registerJobs registers all cron jobs with their schedules
func (m *CronManager) registerJobs() error {
	// 1. Hourly: reconcile enrolled_count against live enrollments. The
	// per-write recount is race-prone under concurrent writers; this job is
	// the safety net that repairs any drift.
	_, err := m.cron.AddFunc("0 0 * * * *", func() {
		m.runJob("reconcile_enrolled_counts", m.ReconcileEnrolledCounts)
	})
	if err != nil {
		return err
	}

	// 2. Daily at 03:00: purge expired blacklisted tokens
	_, err = m.cron.AddFunc("0 0 3 * * *", func() {
		m.runJob("cleanup_expired_tokens", m.CleanupExpiredTokens)
	})
	if err != nil {
		return err
	}

	return nil
}
