package services

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cleaning-service-server/models"
)

func TestQuoteArithmetic(t *testing.T) {
	service := models.Service{BaseFee: 89, PricePerBedroom: 15, PricePerBathroom: 20}
	area := models.Area{PriceAdjustmentPct: 10}
	extras := []models.ServiceExtra{{Price: 45}, {Price: 35}}

	// (89 + 2*15 + 1*20 + 45 + 35) * 1.10 = 219 * 1.10 = 240.90
	total := Quote(&service, &area, 2, 1, extras)
	assert.Equal(t, 240.90, total)
}

func TestQuoteIsDeterministic(t *testing.T) {
	service := models.Service{BaseFee: 159, PricePerBedroom: 25, PricePerBathroom: 35}
	area := models.Area{PriceAdjustmentPct: 5}

	first := Quote(&service, &area, 3, 2, nil)
	for i := 0; i < 10; i++ {
		assert.Equal(t, first, Quote(&service, &area, 3, 2, nil))
	}
}

func TestQuoteRoundsToCents(t *testing.T) {
	service := models.Service{BaseFee: 99.99}
	area := models.Area{PriceAdjustmentPct: 7.5}

	// 99.99 * 1.075 = 107.48925 -> 107.49
	assert.Equal(t, 107.49, Quote(&service, &area, 0, 0, nil))
}

func TestQuoteNoAdjustment(t *testing.T) {
	service := models.Service{BaseFee: 100, PricePerBedroom: 10}
	area := models.Area{PriceAdjustmentPct: 0}

	assert.Equal(t, 120.0, Quote(&service, &area, 2, 0, nil))
}

func TestRepricePersistsTotal(t *testing.T) {
	db := newTestDB(t)

	service := models.Service{Name: "Deep Clean", Slug: "deep-clean", BaseFee: 159, PricePerBedroom: 25, PricePerBathroom: 35, IsActive: true}
	require.NoError(t, db.Create(&service).Error)
	area := models.Area{Name: "Inner West", Suburb: "Newtown", State: "NSW", PriceAdjustmentPct: 0, IsActive: true}
	require.NoError(t, db.Create(&area).Error)
	extra := models.ServiceExtra{Name: "Inside Oven", Price: 45, IsActive: true}
	require.NoError(t, db.Create(&extra).Error)

	booking := models.Booking{
		SessionID:   strPtr("a-session"),
		ServiceID:   &service.ID,
		AreaID:      &area.ID,
		Status:      models.BookingStatusDraft,
		BookingDate: time.Date(2026, 9, 15, 0, 0, 0, 0, time.UTC),
		Bedrooms:    2,
		Bathrooms:   1,
		Extras:      []models.ServiceExtra{extra},
	}
	require.NoError(t, db.Create(&booking).Error)

	total, err := Reprice(db, &booking)
	require.NoError(t, err)

	// 159 + 2*25 + 1*35 + 45 = 289
	assert.Equal(t, 289.0, total)
	assert.Equal(t, 289.0, booking.TotalPrice)

	var stored models.Booking
	require.NoError(t, db.First(&stored, booking.ID).Error)
	assert.Equal(t, 289.0, stored.TotalPrice)
}

func TestRepriceFailsWithoutServiceOrArea(t *testing.T) {
	db := newTestDB(t)

	booking := models.Booking{SessionID: strPtr("b-session"), Status: models.BookingStatusDraft}
	require.NoError(t, db.Create(&booking).Error)

	_, err := Reprice(db, &booking)
	assert.ErrorIs(t, err, ErrPriceCalculation)
}

func TestRepriceFailsForUnknownService(t *testing.T) {
	db := newTestDB(t)

	area := models.Area{Name: "Bayside", Suburb: "St Kilda", State: "VIC", IsActive: true}
	require.NoError(t, db.Create(&area).Error)

	missing := uint(999)
	booking := models.Booking{
		SessionID: strPtr("c-session"),
		ServiceID: &missing,
		AreaID:    &area.ID,
		Status:    models.BookingStatusDraft,
	}
	require.NoError(t, db.Create(&booking).Error)

	_, err := Reprice(db, &booking)
	assert.ErrorIs(t, err, ErrPriceCalculation)
}

func TestToMinorUnits(t *testing.T) {
	assert.Equal(t, int64(24090), ToMinorUnits(240.90))
	assert.Equal(t, int64(100), ToMinorUnits(1.00))
	assert.Equal(t, int64(9999), ToMinorUnits(99.99))
	// Float representation noise must not lose a cent
	assert.Equal(t, int64(1010), ToMinorUnits(10.1))
}

func strPtr(s string) *string { return &s }
