package services

import (
	"errors"
	"fmt"
	"log"
	"math"

	"gorm.io/gorm"

	"cleaning-service-server/models"
)

// ErrPriceCalculation is returned when the booking's service or area cannot
// be resolved, so no meaningful total can be produced.
var ErrPriceCalculation = errors.New("PRICE_CALCULATION_FAILED")

// Quote computes a booking total deterministically:
//
//	(base + bedrooms*perBedroom + bathrooms*perBathroom + sum(extras))
//	  * (1 + areaAdjustmentPct/100)
//
// rounded half-up to cents. Same inputs always yield the same total.
func Quote(service *models.Service, area *models.Area, bedrooms, bathrooms int, extras []models.ServiceExtra) float64 {
	subtotal := service.BaseFee +
		float64(bedrooms)*service.PricePerBedroom +
		float64(bathrooms)*service.PricePerBathroom

	for _, extra := range extras {
		subtotal += extra.Price
	}

	total := subtotal * (1 + area.PriceAdjustmentPct/100)

	return math.Round(total*100) / 100
}

// Reprice recomputes a booking's total from its current service, area and
// extras, and persists the new value. Called by the confirmation handler
// when the stored total fails validation.
func Reprice(db *gorm.DB, booking *models.Booking) (float64, error) {
	if booking.ServiceID == nil || booking.AreaID == nil {
		return 0, fmt.Errorf("%w: booking %d has no service or area", ErrPriceCalculation, booking.ID)
	}

	var service models.Service
	if err := db.First(&service, *booking.ServiceID).Error; err != nil {
		return 0, fmt.Errorf("%w: service %d: %v", ErrPriceCalculation, *booking.ServiceID, err)
	}

	var area models.Area
	if err := db.First(&area, *booking.AreaID).Error; err != nil {
		return 0, fmt.Errorf("%w: area %d: %v", ErrPriceCalculation, *booking.AreaID, err)
	}

	var extras []models.ServiceExtra
	if err := db.Model(booking).Association("Extras").Find(&extras); err != nil {
		return 0, fmt.Errorf("%w: extras for booking %d: %v", ErrPriceCalculation, booking.ID, err)
	}

	total := Quote(&service, &area, booking.Bedrooms, booking.Bathrooms, extras)
	if total <= 0 {
		return 0, fmt.Errorf("%w: computed total %.2f is not positive", ErrPriceCalculation, total)
	}

	if err := db.Model(booking).Update("total_price", total).Error; err != nil {
		return 0, err
	}
	booking.TotalPrice = total

	log.Printf("💰 Booking %d repriced to %.2f", booking.ID, total)
	return total, nil
}

// ToMinorUnits converts a decimal price to currency minor units (cents)
func ToMinorUnits(price float64) int64 {
	return int64(math.Round(price * 100))
}
