package cron

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/kunalverma/coursedeck/model"
	"github.com/kunalverma/coursedeck/services"
	"github.com/kunalverma/coursedeck/utils/auth"
)

// runJob executes a job and records its outcome in cron_job_logs
func (m *CronManager) runJob(name string, job func(ctx context.Context) (string, error)) {
	started := time.Now()
	log.Printf("[CRON] Starting job: %s", name)

	entry := model.CronJobLog{
		JobName:   name,
		Status:    "started",
		StartedAt: started,
	}
	if err := m.db.Create(&entry).Error; err != nil {
		log.Printf("[CRON] Failed to log job start for %s: %v", name, err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
	defer cancel()

	message, err := job(ctx)

	completed := time.Now()
	entry.CompletedAt = &completed
	entry.Duration = int(completed.Sub(started).Milliseconds())
	entry.Message = message

	if err != nil {
		entry.Status = "failed"
		entry.ErrorMsg = err.Error()
		log.Printf("[CRON] Job %s failed: %v", name, err)
	} else {
		entry.Status = "completed"
		log.Printf("[CRON] Job %s completed in %dms", name, entry.Duration)
	}

	if entry.ID != 0 {
		if err := m.db.Save(&entry).Error; err != nil {
			log.Printf("[CRON] Failed to log job completion for %s: %v", name, err)
		}
	}
}

// ReconcileEnrolledCounts repairs any drift between Course.EnrolledCount and
// the live enrollment rows
func (m *CronManager) ReconcileEnrolledCounts(ctx context.Context) (string, error) {
	enrollmentService := services.NewEnrollmentService(m.db)

	fixed, err := enrollmentService.ReconcileEnrolledCounts(ctx)
	if err != nil {
		return "", err
	}

	if fixed > 0 {
		log.Printf("[CRON] Corrected enrolled_count on %d courses", fixed)
	}
	return fmt.Sprintf("corrected %d courses", fixed), nil
}

// CleanupExpiredTokens purges expired entries from the JWT blacklist
func (m *CronManager) CleanupExpiredTokens(ctx context.Context) (string, error) {
	blacklistService := auth.NewBlacklistService(m.db)

	if err := blacklistService.CleanupExpiredTokens(ctx); err != nil {
		return "", err
	}
	return "expired blacklist entries purged", nil
}
