package routes

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cleaning-service-server/database"
	"cleaning-service-server/models"
)

func TestGuestDraftIsMintedOnceAndReused(t *testing.T) {
	router, _ := setupRouter(t)

	// First call: no cookie, no token. A guest session is minted and a
	// fresh draft created.
	w, body := doJSON(t, router, "POST", "/api/v1/bookings/draft", nil, "", "")
	require.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, "Draft booking created", body["message"])

	cookie := sessionCookieFrom(t, w)
	require.Len(t, cookie, 64, "guest session should be 256 bits hex encoded")

	booking := body["booking"].(map[string]interface{})
	draftID := booking["id"].(float64)
	assert.Equal(t, string(models.BookingStatusDraft), booking["status"])
	assert.Equal(t, cookie, booking["session_id"])
	assert.Nil(t, booking["customer_id"])

	// Second call with the cookie: same draft, not a new one
	w2, body2 := doJSON(t, router, "POST", "/api/v1/bookings/draft", nil, "", cookie)
	require.Equal(t, http.StatusOK, w2.Code)
	assert.Equal(t, "Existing draft booking found", body2["message"])
	booking2 := body2["booking"].(map[string]interface{})
	assert.Equal(t, draftID, booking2["id"])

	var count int64
	database.DB.Model(&models.Booking{}).Count(&count)
	assert.Equal(t, int64(1), count)
}

func TestCustomerDraftIsIdempotent(t *testing.T) {
	router, _ := setupRouter(t)
	_, token := createUser(t, "customer@example.com", models.RoleCustomer)

	w, body := doJSON(t, router, "POST", "/api/v1/bookings/draft", nil, token, "")
	require.Equal(t, http.StatusCreated, w.Code)
	booking := body["booking"].(map[string]interface{})
	assert.NotNil(t, booking["customer_id"])
	assert.Nil(t, booking["session_id"])

	// No session cookie is minted for authenticated callers
	assert.Empty(t, sessionCookieFrom(t, w))

	w2, body2 := doJSON(t, router, "POST", "/api/v1/bookings/draft", nil, token, "")
	require.Equal(t, http.StatusOK, w2.Code)
	assert.Equal(t, "Existing draft booking found", body2["message"])
}

func TestInvalidBearerNeverFallsBackToGuest(t *testing.T) {
	router, _ := setupRouter(t)

	req, body := doJSON(t, router, "POST", "/api/v1/bookings/draft", nil, "not-a-real-token", "")
	require.Equal(t, http.StatusUnauthorized, req.Code)
	assert.Equal(t, "AUTH_INVALID_TOKEN", body["error"])
	assert.Empty(t, sessionCookieFrom(t, req), "an invalid token must not mint a guest session")

	var count int64
	database.DB.Model(&models.Booking{}).Count(&count)
	assert.Equal(t, int64(0), count)
}

func TestDraftCreateAppliesInitialFields(t *testing.T) {
	router, _ := setupRouter(t)
	service, area, _ := seedTestCatalog(t)

	patch := map[string]interface{}{
		"serviceId":   service.ID,
		"areaId":      area.ID,
		"bookingDate": "2026-10-01",
		"startTime":   "10:00",
		"bedrooms":    3,
	}
	w, body := doJSON(t, router, "POST", "/api/v1/bookings/draft", patch, "", "")
	require.Equal(t, http.StatusCreated, w.Code)

	booking := body["booking"].(map[string]interface{})
	assert.Equal(t, float64(service.ID), booking["service_id"])
	assert.Equal(t, float64(area.ID), booking["area_id"])
	assert.Equal(t, "10:00", booking["start_time"])
	assert.Equal(t, float64(3), booking["bedrooms"])
	assert.NotContains(t, body, "warnings")
}

func TestDraftCreateWarnsWhenExtrasCannotAttach(t *testing.T) {
	router, _ := setupRouter(t)
	_, _, extra := seedTestCatalog(t)

	// Break the join table so attaching extras fails after the draft row
	// is already committed
	require.NoError(t, database.DB.Exec("DROP TABLE booking_extras").Error)

	patch := map[string]interface{}{"extraIds": []uint{extra.ID}}
	w, body := doJSON(t, router, "POST", "/api/v1/bookings/draft", patch, "", "")
	require.Equal(t, http.StatusCreated, w.Code)

	warnings, ok := body["warnings"].([]interface{})
	require.True(t, ok, "201 body must carry a warnings list when extras were dropped")
	require.Len(t, warnings, 1)
	assert.Contains(t, warnings[0], "extras")

	// The draft itself still exists
	cookie := sessionCookieFrom(t, w)
	var count int64
	require.NoError(t, database.DB.Model(&models.Booking{}).Where("session_id = ?", cookie).Count(&count).Error)
	assert.EqualValues(t, 1, count)
}

func TestPatchDraftUpdatesAndResetsPrice(t *testing.T) {
	router, _ := setupRouter(t)
	service, area, extra := seedTestCatalog(t)

	w, _ := doJSON(t, router, "POST", "/api/v1/bookings/draft", nil, "", "")
	require.Equal(t, http.StatusCreated, w.Code)
	cookie := sessionCookieFrom(t, w)

	// Pretend a price was computed earlier
	var draft models.Booking
	require.NoError(t, database.DB.Where("session_id = ?", cookie).First(&draft).Error)
	require.NoError(t, database.DB.Model(&draft).Update("total_price", 199.0).Error)

	patch := map[string]interface{}{
		"serviceId": service.ID,
		"areaId":    area.ID,
		"address":   "5 Patch Lane",
		"postcode":  "2000",
		"extraIds":  []uint{extra.ID},
	}
	w2, body := doJSON(t, router, "PATCH", "/api/v1/bookings/draft", patch, "", cookie)
	require.Equal(t, http.StatusOK, w2.Code)

	booking := body["booking"].(map[string]interface{})
	assert.Equal(t, "5 Patch Lane", booking["address"])
	assert.Equal(t, float64(0), booking["total_price"], "a patched draft must be repriced")

	extras := booking["extras"].([]interface{})
	require.Len(t, extras, 1)
}

func TestPatchDraftRejectsBadDate(t *testing.T) {
	router, _ := setupRouter(t)

	w, _ := doJSON(t, router, "POST", "/api/v1/bookings/draft", nil, "", "")
	cookie := sessionCookieFrom(t, w)

	patch := map[string]interface{}{"bookingDate": "01/10/2026"}
	w2, _ := doJSON(t, router, "PATCH", "/api/v1/bookings/draft", patch, "", cookie)
	assert.Equal(t, http.StatusBadRequest, w2.Code)
}

func TestPatchDraftWithoutDraft(t *testing.T) {
	router, _ := setupRouter(t)

	patch := map[string]interface{}{"address": "nowhere"}
	w, body := doJSON(t, router, "PATCH", "/api/v1/bookings/draft", patch, "", "ab12cd34ab12cd34ab12cd34ab12cd34ab12cd34ab12cd34ab12cd34ab12cd34")
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "DRAFT_NOT_FOUND", body["error"])
}

func TestConfirmRequiresAuth(t *testing.T) {
	router, _ := setupRouter(t)

	w, _ := doJSON(t, router, "POST", "/api/v1/bookings/confirm",
		map[string]interface{}{"bookingId": 1}, "", "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestConfirmReportsMissingFields(t *testing.T) {
	router, _ := setupRouter(t)
	user, token := createUser(t, "incomplete@example.com", models.RoleCustomer)

	draft := models.Booking{
		CustomerID: &user.ID,
		Status:     models.BookingStatusDraft,
	}
	require.NoError(t, database.DB.Create(&draft).Error)

	w, body := doJSON(t, router, "POST", "/api/v1/bookings/confirm",
		map[string]interface{}{"bookingId": draft.ID}, token, "")
	require.Equal(t, http.StatusUnprocessableEntity, w.Code)
	assert.Equal(t, "VALIDATION_FAILED", body["error"])

	details := body["details"].(map[string]interface{})
	missing := details["missingFields"].([]interface{})
	assert.Contains(t, missing, "address")
	assert.Contains(t, missing, "service_id")

	// The booking did not move
	var stored models.Booking
	require.NoError(t, database.DB.First(&stored, draft.ID).Error)
	assert.Equal(t, models.BookingStatusDraft, stored.Status)
}

func TestConfirmAssignsCleanerAndConfirms(t *testing.T) {
	router, _ := setupRouter(t)
	service, area, _ := seedTestCatalog(t)
	user, token := createUser(t, "ready@example.com", models.RoleCustomer)

	cleanerUser, _ := createUser(t, "cleaner@example.com", models.RoleCleaner)
	profile := models.CleanerProfile{UserID: cleanerUser.ID, IsAvailable: true, Areas: []models.Area{area}}
	require.NoError(t, database.DB.Create(&profile).Error)

	draft := readyBooking(t, &user.ID, nil, service.ID, area.ID, 0)
	require.NoError(t, database.DB.Model(&draft).Update("status", models.BookingStatusDraft).Error)

	w, body := doJSON(t, router, "POST", "/api/v1/bookings/confirm",
		map[string]interface{}{"bookingId": draft.ID}, token, "")
	require.Equal(t, http.StatusOK, w.Code)

	data := body["data"].(map[string]interface{})
	assert.Equal(t, string(models.BookingStatusConfirmed), data["status"])
	assert.Equal(t, float64(profile.ID), data["cleanerId"])
	assert.Equal(t, false, data["isReadyForPayment"])

	// Price was computed server side: 89 + 2*15 + 1*20 = 139
	assert.Equal(t, 139.0, data["totalPrice"])
}

func TestConfirmWithoutCleanerStaysReadyForPayment(t *testing.T) {
	router, _ := setupRouter(t)
	service, area, _ := seedTestCatalog(t)
	user, token := createUser(t, "nocleaner@example.com", models.RoleCustomer)

	draft := readyBooking(t, &user.ID, nil, service.ID, area.ID, 0)
	require.NoError(t, database.DB.Model(&draft).Update("status", models.BookingStatusDraft).Error)

	w, body := doJSON(t, router, "POST", "/api/v1/bookings/confirm",
		map[string]interface{}{"bookingId": draft.ID}, token, "")
	require.Equal(t, http.StatusOK, w.Code)

	data := body["data"].(map[string]interface{})
	assert.Equal(t, string(models.BookingStatusReadyForPayment), data["status"])
	assert.Equal(t, true, data["isReadyForPayment"])
	assert.Nil(t, data["cleanerId"])
}

func TestConfirmRejectsTerminalBooking(t *testing.T) {
	router, _ := setupRouter(t)
	service, area, _ := seedTestCatalog(t)
	user, token := createUser(t, "done@example.com", models.RoleCustomer)

	booking := readyBooking(t, &user.ID, nil, service.ID, area.ID, 139)
	require.NoError(t, database.DB.Model(&booking).Update("status", models.BookingStatusCompleted).Error)

	w, body := doJSON(t, router, "POST", "/api/v1/bookings/confirm",
		map[string]interface{}{"bookingId": booking.ID}, token, "")
	require.Equal(t, http.StatusUnprocessableEntity, w.Code)
	assert.Equal(t, "INVALID_STATUS", body["error"])
}

func TestConfirmSomeoneElsesBookingIs404(t *testing.T) {
	router, _ := setupRouter(t)
	service, area, _ := seedTestCatalog(t)
	owner, _ := createUser(t, "owner@example.com", models.RoleCustomer)
	_, otherToken := createUser(t, "other@example.com", models.RoleCustomer)

	booking := readyBooking(t, &owner.ID, nil, service.ID, area.ID, 139)

	w, _ := doJSON(t, router, "POST", "/api/v1/bookings/confirm",
		map[string]interface{}{"bookingId": booking.ID}, otherToken, "")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestListMyBookings(t *testing.T) {
	router, _ := setupRouter(t)
	service, area, _ := seedTestCatalog(t)
	user, token := createUser(t, "lister@example.com", models.RoleCustomer)
	other, _ := createUser(t, "unrelated@example.com", models.RoleCustomer)

	readyBooking(t, &user.ID, nil, service.ID, area.ID, 139)
	readyBooking(t, &other.ID, nil, service.ID, area.ID, 139)

	w, body := doJSON(t, router, "GET", "/api/v1/bookings/my", nil, token, "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, float64(1), body["count"])
}
