package services

import (
	"errors"
	"log"

	"gorm.io/gorm"

	"cleaning-service-server/models"
)

// ErrNoCleanerAvailable is returned when no cleaner serving the booking's
// area is free at the requested date and time. Not fatal for confirmation:
// the booking stays READY_FOR_PAYMENT and admin can assign manually.
var ErrNoCleanerAvailable = errors.New("no cleaner available for auto-assignment")

// TryAutoAssign picks an available cleaner for the booking and claims it.
// Candidates must serve the booking's area, be marked available, and have no
// other active booking at the same date and start time. The least-loaded
// candidate wins. The claim itself is a conditional update on cleaner_id so
// two concurrent confirmations cannot assign the same booking twice.
func TryAutoAssign(db *gorm.DB, booking *models.Booking) (*models.CleanerProfile, error) {
	if booking.AreaID == nil {
		return nil, ErrNoCleanerAvailable
	}

	var assigned *models.CleanerProfile

	err := db.Transaction(func(tx *gorm.DB) error {
		var candidates []models.CleanerProfile
		if err := tx.
			Joins("JOIN cleaner_areas ON cleaner_areas.cleaner_profile_id = cleaner_profiles.id").
			Where("cleaner_areas.area_id = ? AND cleaner_profiles.is_available = ?", *booking.AreaID, true).
			Order("cleaner_profiles.jobs_done ASC, cleaner_profiles.id ASC").
			Find(&candidates).Error; err != nil {
			return err
		}

		for i := range candidates {
			candidate := &candidates[i]

			var clashes int64
			if err := tx.Model(&models.Booking{}).
				Where("cleaner_id = ? AND booking_date = ? AND start_time = ? AND status IN ?",
					candidate.ID, booking.BookingDate, booking.StartTime,
					[]models.BookingStatus{
						models.BookingStatusConfirmed,
						models.BookingStatusPaid,
						models.BookingStatusInProgress,
					}).
				Count(&clashes).Error; err != nil {
				return err
			}
			if clashes > 0 {
				continue
			}

			// Conditional update: claims the booking only if still unassigned
			res := tx.Model(&models.Booking{}).
				Where("id = ? AND cleaner_id IS NULL", booking.ID).
				Update("cleaner_id", candidate.ID)
			if res.Error != nil {
				return res.Error
			}
			if res.RowsAffected == 0 {
				// Someone else assigned it first; treat as already handled
				return ErrNoCleanerAvailable
			}

			assigned = candidate
			return nil
		}

		return ErrNoCleanerAvailable
	})

	if err != nil {
		return nil, err
	}

	booking.CleanerID = &assigned.ID
	log.Printf("🧹 Booking %d auto-assigned to cleaner %d", booking.ID, assigned.ID)
	return assigned, nil
}
