package jobs

import (
	"log"
	"time"

	"cleaning-service-server/config"
	"cleaning-service-server/database"
	"cleaning-service-server/models"
	"cleaning-service-server/services"
)

// DraftCleanupJob removes stale guest drafts and expired refresh tokens.
// Guest drafts have no account behind them, so a draft older than the
// session cookie TTL can never be resumed and just occupies the partial
// unique index slot.
type DraftCleanupJob struct {
	jwtService *services.JWTService
	stopChan   chan bool
}

// NewDraftCleanupJob creates a new draft cleanup job
func NewDraftCleanupJob() *DraftCleanupJob {
	return &DraftCleanupJob{
		jwtService: services.NewJWTService(),
		stopChan:   make(chan bool),
	}
}

// Start begins the cleanup job
func (j *DraftCleanupJob) Start() {
	go j.run()
	log.Println("🚀 Draft cleanup job started")
}

// Stop stops the cleanup job
func (j *DraftCleanupJob) Stop() {
	j.stopChan <- true
	log.Println("🛑 Draft cleanup job stopped")
}

func (j *DraftCleanupJob) run() {
	ticker := time.NewTicker(1 * time.Hour)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			j.cleanupStaleDrafts()
			j.cleanupExpiredTokens()
		case <-j.stopChan:
			return
		}
	}
}

// cleanupStaleDrafts deletes guest drafts older than the session TTL.
// Customer drafts are kept: the account can always come back for them.
func (j *DraftCleanupJob) cleanupStaleDrafts() {
	ttl := time.Duration(config.AppConfig.Session.TTLDays) * 24 * time.Hour
	cutoff := time.Now().Add(-ttl)

	result := database.DB.
		Where("status = ? AND customer_id IS NULL AND updated_at < ?",
			models.BookingStatusDraft, cutoff).
		Delete(&models.Booking{})
	if result.Error != nil {
		log.Printf("❌ Error cleaning up stale drafts: %v", result.Error)
		return
	}

	if result.RowsAffected > 0 {
		log.Printf("🧹 Removed %d stale guest drafts", result.RowsAffected)
	}
}

func (j *DraftCleanupJob) cleanupExpiredTokens() {
	if err := j.jwtService.CleanupExpiredTokens(); err != nil {
		log.Printf("❌ Error cleaning up expired refresh tokens: %v", err)
	}
}
