package routes

import (
	"net/http"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cleaning-service-server/database"
	"cleaning-service-server/models"
	"cleaning-service-server/services"
)

const testSession = "ab12cd34ab12cd34ab12cd34ab12cd34ab12cd34ab12cd34ab12cd34ab12cd34"

func TestInitializePaymentForGuestBooking(t *testing.T) {
	router, _ := setupRouter(t)
	service, area, _ := seedTestCatalog(t)

	session := testSession
	booking := readyBooking(t, nil, &session, service.ID, area.ID, 139)

	w, body := doJSON(t, router, "POST", "/api/v1/payments/initialize",
		map[string]interface{}{"bookingId": booking.ID}, "", session)
	require.Equal(t, http.StatusOK, w.Code)

	data := body["data"].(map[string]interface{})
	assert.Equal(t, float64(13900), data["amountMinor"])
	assert.Equal(t, "AUD", data["currency"])
	assert.True(t, strings.HasPrefix(data["token"].(string), "mock-"))
	assert.NotEmpty(t, data["redirectUrl"])

	var payment models.Payment
	require.NoError(t, database.DB.Where("booking_id = ?", booking.ID).First(&payment).Error)
	assert.Equal(t, models.PaymentStatusInitialized, payment.Status)
	assert.Equal(t, int64(13900), payment.AmountMinor)
}

func TestInitializeReusesOpenPayment(t *testing.T) {
	router, _ := setupRouter(t)
	service, area, _ := seedTestCatalog(t)

	session := testSession
	booking := readyBooking(t, nil, &session, service.ID, area.ID, 139)

	_, body1 := doJSON(t, router, "POST", "/api/v1/payments/initialize",
		map[string]interface{}{"bookingId": booking.ID}, "", session)
	_, body2 := doJSON(t, router, "POST", "/api/v1/payments/initialize",
		map[string]interface{}{"bookingId": booking.ID}, "", session)

	ref1 := body1["data"].(map[string]interface{})["reference"]
	ref2 := body2["data"].(map[string]interface{})["reference"]
	assert.Equal(t, ref1, ref2, "a retry must land on the same gateway order")

	var count int64
	database.DB.Model(&models.Payment{}).Where("booking_id = ?", booking.ID).Count(&count)
	assert.Equal(t, int64(1), count)
}

func TestInitializeRejectsDraft(t *testing.T) {
	router, _ := setupRouter(t)
	service, area, _ := seedTestCatalog(t)

	session := testSession
	booking := readyBooking(t, nil, &session, service.ID, area.ID, 139)
	require.NoError(t, database.DB.Model(&booking).Update("status", models.BookingStatusDraft).Error)

	w, body := doJSON(t, router, "POST", "/api/v1/payments/initialize",
		map[string]interface{}{"bookingId": booking.ID}, "", session)
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	assert.Equal(t, "INVALID_STATUS", body["error"])
}

func TestInitializeHidesForeignBooking(t *testing.T) {
	router, _ := setupRouter(t)
	service, area, _ := seedTestCatalog(t)

	owner := "cd34ab12cd34ab12cd34ab12cd34ab12cd34ab12cd34ab12cd34ab12cd34ab12"
	booking := readyBooking(t, nil, &owner, service.ID, area.ID, 139)

	w, _ := doJSON(t, router, "POST", "/api/v1/payments/initialize",
		map[string]interface{}{"bookingId": booking.ID}, "", testSession)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestVerifySettlesPaymentAndBooking(t *testing.T) {
	router, _ := setupRouter(t)
	service, area, _ := seedTestCatalog(t)

	session := testSession
	booking := readyBooking(t, nil, &session, service.ID, area.ID, 139)

	_, initBody := doJSON(t, router, "POST", "/api/v1/payments/initialize",
		map[string]interface{}{"bookingId": booking.ID}, "", session)
	reference := initBody["data"].(map[string]interface{})["reference"].(string)

	// Unscripted references verify successfully with the initialized amount
	w, body := doJSON(t, router, "GET", "/api/v1/payments/verify?reference="+reference, nil, "", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, true, body["success"])
	assert.Equal(t, string(models.BookingStatusPaid), body["status"])

	shortID := body["shortId"].(string)
	assert.True(t, strings.HasPrefix(shortID, "CS-"), "short id should carry the CS- prefix")
	assert.Len(t, shortID, 11)

	var payment models.Payment
	require.NoError(t, database.DB.Where("reference = ?", reference).First(&payment).Error)
	assert.Equal(t, models.PaymentStatusPaid, payment.Status)
	assert.NotEmpty(t, payment.TransactionID)

	var stored models.Booking
	require.NoError(t, database.DB.First(&stored, booking.ID).Error)
	assert.Equal(t, models.BookingStatusPaid, stored.Status)
	require.NotNil(t, stored.ShortID)
	assert.Equal(t, shortID, *stored.ShortID)
}

func TestVerifyIsIdempotent(t *testing.T) {
	router, _ := setupRouter(t)
	service, area, _ := seedTestCatalog(t)

	session := testSession
	booking := readyBooking(t, nil, &session, service.ID, area.ID, 139)

	_, initBody := doJSON(t, router, "POST", "/api/v1/payments/initialize",
		map[string]interface{}{"bookingId": booking.ID}, "", session)
	reference := initBody["data"].(map[string]interface{})["reference"].(string)

	_, first := doJSON(t, router, "GET", "/api/v1/payments/verify?reference="+reference, nil, "", "")
	w, second := doJSON(t, router, "GET", "/api/v1/payments/verify?reference="+reference, nil, "", "")

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "Payment already verified", second["message"])
	assert.Equal(t, first["shortId"], second["shortId"], "re-verify must not mint a new short id")
}

func TestVerifyAbandonedPaymentFails(t *testing.T) {
	router, mock := setupRouter(t)
	service, area, _ := seedTestCatalog(t)

	session := testSession
	booking := readyBooking(t, nil, &session, service.ID, area.ID, 139)

	_, initBody := doJSON(t, router, "POST", "/api/v1/payments/initialize",
		map[string]interface{}{"bookingId": booking.ID}, "", session)
	reference := initBody["data"].(map[string]interface{})["reference"].(string)

	mock.Script(reference, &services.VerifyResult{
		Status:  services.GatewayStatusFailed,
		Message: "customer abandoned checkout",
	})

	w, body := doJSON(t, router, "GET", "/api/v1/payments/verify?reference="+reference, nil, "", "")
	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "PAYMENT_NOT_SETTLED", body["error"])
	assert.Equal(t, "customer abandoned checkout", body["message"])
	assert.Equal(t, false, body["retryable"])

	var payment models.Payment
	require.NoError(t, database.DB.Where("reference = ?", reference).First(&payment).Error)
	assert.Equal(t, models.PaymentStatusFailed, payment.Status)

	// The booking never moved
	var stored models.Booking
	require.NoError(t, database.DB.First(&stored, booking.ID).Error)
	assert.Equal(t, models.BookingStatusReadyForPayment, stored.Status)
	assert.Nil(t, stored.ShortID)
}

func TestVerifyPendingKeepsPaymentOpen(t *testing.T) {
	router, mock := setupRouter(t)
	service, area, _ := seedTestCatalog(t)

	session := testSession
	booking := readyBooking(t, nil, &session, service.ID, area.ID, 139)

	_, initBody := doJSON(t, router, "POST", "/api/v1/payments/initialize",
		map[string]interface{}{"bookingId": booking.ID}, "", session)
	reference := initBody["data"].(map[string]interface{})["reference"].(string)

	mock.Script(reference, &services.VerifyResult{Status: services.GatewayStatusPending})

	w, body := doJSON(t, router, "GET", "/api/v1/payments/verify?reference="+reference, nil, "", "")
	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, true, body["retryable"])

	// Pending is not failure: the payment stays open for a later verify
	var payment models.Payment
	require.NoError(t, database.DB.Where("reference = ?", reference).First(&payment).Error)
	assert.Equal(t, models.PaymentStatusInitialized, payment.Status)
}

func TestVerifyAmountMismatchNeverMarksPaid(t *testing.T) {
	router, mock := setupRouter(t)
	service, area, _ := seedTestCatalog(t)

	session := testSession
	booking := readyBooking(t, nil, &session, service.ID, area.ID, 139)

	_, initBody := doJSON(t, router, "POST", "/api/v1/payments/initialize",
		map[string]interface{}{"bookingId": booking.ID}, "", session)
	reference := initBody["data"].(map[string]interface{})["reference"].(string)

	mock.Script(reference, &services.VerifyResult{
		Status:      services.GatewayStatusSuccess,
		AmountMinor: 100, // gateway settled a different amount
		Currency:    "AUD",
	})

	w, body := doJSON(t, router, "GET", "/api/v1/payments/verify?reference="+reference, nil, "", "")
	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "PAYMENT_MISMATCH", body["error"])

	var payment models.Payment
	require.NoError(t, database.DB.Where("reference = ?", reference).First(&payment).Error)
	assert.Equal(t, models.PaymentStatusInitialized, payment.Status)

	var stored models.Booking
	require.NoError(t, database.DB.First(&stored, booking.ID).Error)
	assert.Equal(t, models.BookingStatusReadyForPayment, stored.Status)
}

func TestVerifyUnknownReference(t *testing.T) {
	router, _ := setupRouter(t)

	w, body := doJSON(t, router, "GET", "/api/v1/payments/verify?reference=pay-nope", nil, "", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "PAYMENT_NOT_FOUND", body["error"])
}

func TestVerifyRequiresReference(t *testing.T) {
	router, _ := setupRouter(t)

	w, _ := doJSON(t, router, "GET", "/api/v1/payments/verify", nil, "", "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}
