package cron

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/skillbridge/skillbridge-api/model"
)

// DeactivateExpiredJobs marks job listings past their expiry as inactive.
// Runs every hour so expired listings drop out of search promptly.
func (m *CronManager) DeactivateExpiredJobs() {
	jobName := "deactivate_expired_jobs"

	result := m.db.Model(&model.Job{}).
		Where("is_active = ? AND expires_at IS NOT NULL AND expires_at < ?", true, time.Now()).
		Update("is_active", false)
	if result.Error != nil {
		m.logJobError(jobName, fmt.Errorf("failed to deactivate expired jobs: %w", result.Error))
		return
	}

	m.logJobComplete(jobName, fmt.Sprintf("Deactivated %d expired job listings", result.RowsAffected))
}

// FollowUpStaleLeads emails a checkout reminder to leads that filled the
// enrollment form more than 24 hours ago but never paid. Each lead gets at
// most one reminder.
func (m *CronManager) FollowUpStaleLeads() {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
	defer cancel()

	jobName := "follow_up_stale_leads"
	cutoff := time.Now().Add(-24 * time.Hour)

	var leads []model.EnrollmentLead
	err := m.db.
		Where("converted_at IS NULL AND follow_up_sent_at IS NULL AND updated_at < ?", cutoff).
		Limit(200).
		Find(&leads).Error
	if err != nil {
		m.logJobError(jobName, fmt.Errorf("failed to query stale leads: %w", err))
		return
	}

	if len(leads) == 0 {
		m.logJobComplete(jobName, "No stale leads found")
		return
	}

	sent := 0
	failed := 0
	for _, lead := range leads {
		if m.email == nil {
			break
		}
		if err := m.email.SendLeadFollowUp(ctx, &lead); err != nil {
			log.Printf("[CRON] Failed to send follow-up for lead %d: %v", lead.ID, err)
			failed++
			continue
		}

		now := time.Now()
		if err := m.db.Model(&lead).Update("follow_up_sent_at", now).Error; err != nil {
			log.Printf("[CRON] Failed to stamp follow-up for lead %d: %v", lead.ID, err)
			failed++
			continue
		}
		sent++
	}

	m.logJobComplete(jobName, fmt.Sprintf("Found %d stale leads, sent %d reminders, failed %d", len(leads), sent, failed))
}

// CleanupExpiredTokens removes blacklist entries for tokens that have
// expired on their own. Runs daily.
func (m *CronManager) CleanupExpiredTokens() {
	jobName := "cleanup_expired_tokens"

	result := m.db.Unscoped().
		Where("expires_at < ?", time.Now()).
		Delete(&model.JWTTokenBlacklist{})
	if result.Error != nil {
		m.logJobError(jobName, fmt.Errorf("failed to delete expired tokens: %w", result.Error))
		return
	}

	m.logJobComplete(jobName, fmt.Sprintf("Removed %d expired blacklist entries", result.RowsAffected))
}

// CleanupOldCronLogs deletes cron job logs older than 30 days
func (m *CronManager) CleanupOldCronLogs() {
	jobName := "cleanup_old_cron_logs"
	cutoff := time.Now().AddDate(0, 0, -30)

	result := m.db.Unscoped().
		Where("started_at < ?", cutoff).
		Delete(&model.CronJobLog{})
	if result.Error != nil {
		m.logJobError(jobName, fmt.Errorf("failed to delete old cron logs: %w", result.Error))
		return
	}

	m.logJobComplete(jobName, fmt.Sprintf("Removed %d old cron log entries", result.RowsAffected))
}
