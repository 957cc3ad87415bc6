package services

import (
	"fmt"

	"cleaning-service-server/models"
)

// ValidationResult is what a booking validation returns: whether the booking
// may move to the target status, and if not, exactly which fields or rules
// failed so the client can render them against the form.
type ValidationResult struct {
	IsValid       bool     `json:"isValid"`
	MissingFields []string `json:"missingFields"`
	Errors        []string `json:"errors"`
	Warnings      []string `json:"warnings"`
}

// ErrInvalidStatus is reported when the booking's current status is not
// allowed to transition to the requested target at all. Field completeness
// is not consulted in that case.
const ErrInvalidStatus = "INVALID_STATUS"

// statusTransitions is the allow-list of source statuses per target status.
// Transitions only ever move forward; terminal states are set by the cleaner
// portal / admin, never here.
var statusTransitions = map[models.BookingStatus][]models.BookingStatus{
	models.BookingStatusReadyForPayment: {
		models.BookingStatusDraft,
		models.BookingStatusPending,
		models.BookingStatusReadyForPayment,
	},
	models.BookingStatusConfirmed: {
		models.BookingStatusDraft,
		models.BookingStatusPending,
		models.BookingStatusReadyForPayment,
	},
	models.BookingStatusPaid: {
		models.BookingStatusReadyForPayment,
		models.BookingStatusConfirmed,
	},
	models.BookingStatusInProgress: {
		models.BookingStatusConfirmed,
		models.BookingStatusPaid,
	},
	models.BookingStatusCompleted: {
		models.BookingStatusInProgress,
	},
	models.BookingStatusCancelled: {
		models.BookingStatusDraft,
		models.BookingStatusPending,
		models.BookingStatusReadyForPayment,
		models.BookingStatusConfirmed,
		models.BookingStatusPaid,
		models.BookingStatusInProgress,
	},
}

// CanTransition reports whether a booking in status `from` may move to `to`.
func CanTransition(from, to models.BookingStatus) bool {
	for _, allowed := range statusTransitions[to] {
		if from == allowed {
			return true
		}
	}
	return false
}

// ValidateForStatus checks a booking against the field requirements of the
// target status. It is pure: no database access, no mutation.
func ValidateForStatus(b *models.Booking, target models.BookingStatus) ValidationResult {
	result := ValidationResult{
		MissingFields: []string{},
		Errors:        []string{},
		Warnings:      []string{},
	}

	if !CanTransition(b.Status, target) {
		result.Errors = append(result.Errors,
			fmt.Sprintf("%s: cannot transition from %s to %s", ErrInvalidStatus, b.Status, target))
		return result
	}

	switch target {
	case models.BookingStatusReadyForPayment, models.BookingStatusConfirmed:
		if b.Address == "" {
			result.MissingFields = append(result.MissingFields, "address")
		}
		if b.Postcode == "" {
			result.MissingFields = append(result.MissingFields, "postcode")
		}
		if b.BookingDate.IsZero() {
			result.MissingFields = append(result.MissingFields, "booking_date")
		}
		if b.StartTime == "" {
			result.MissingFields = append(result.MissingFields, "start_time")
		}
		if b.ServiceID == nil {
			result.MissingFields = append(result.MissingFields, "service_id")
		}
		if b.AreaID == nil {
			result.MissingFields = append(result.MissingFields, "area_id")
		}
		if b.Bedrooms < 0 {
			result.Errors = append(result.Errors, "bedrooms must be zero or greater")
		}
		if b.Bathrooms < 0 {
			result.Errors = append(result.Errors, "bathrooms must be zero or greater")
		}
		if b.TotalPrice <= 0 {
			result.Warnings = append(result.Warnings, "total_price is not set and will be recalculated")
		}

	case models.BookingStatusPaid:
		if b.TotalPrice <= 0 {
			result.Errors = append(result.Errors, "total_price must be positive before payment")
		}
	}

	result.IsValid = len(result.MissingFields) == 0 && len(result.Errors) == 0
	return result
}
