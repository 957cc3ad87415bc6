package routes

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"cleaning-service-server/config"
	"cleaning-service-server/database"
	"cleaning-service-server/models"
	"cleaning-service-server/services"
)

// setupRouter builds a fresh test database and an API router wired with a
// scriptable mock payment gateway. No AMQP publisher and no websocket hub:
// both are optional and the handlers treat them as best-effort.
func setupRouter(t *testing.T) (*gin.Engine, *services.MockGateway) {
	t.Helper()

	gin.SetMode(gin.TestMode)
	config.Load()

	db, err := gorm.Open(sqlite.Open(t.TempDir()+"/test.db"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&models.User{},
		&models.RefreshToken{},
		&models.Area{},
		&models.Service{},
		&models.ServiceExtra{},
		&models.CleanerProfile{},
		&models.Booking{},
		&models.Payment{},
	))
	database.DB = db

	mock := services.NewMockGateway()
	gateway = mock
	publisher = nil
	wsHub = nil

	router := gin.New()
	api := router.Group("/api/v1")
	{
		authRoutes := api.Group("/auth")
		RegisterAuthRoutes(authRoutes)
		RegisterCatalogRoutes(api)
		RegisterBookingRoutes(api)
		RegisterPaymentRoutes(api)
		RegisterCleanerRoutes(api)
		RegisterAdminRoutes(api)
	}

	return router, mock
}

// createUser inserts a user and returns a bearer token for it
func createUser(t *testing.T, email string, role models.UserRole) (models.User, string) {
	t.Helper()

	js := services.NewJWTService()
	hash, err := js.HashPassword("hunter2-hunter2")
	require.NoError(t, err)

	user := models.User{
		FullName:     "Test " + email,
		Email:        email,
		PasswordHash: hash,
		Role:         role,
		IsActive:     true,
	}
	require.NoError(t, database.DB.Create(&user).Error)

	pair, err := js.GenerateTokenPair(&user, "go-test", "127.0.0.1")
	require.NoError(t, err)

	return user, pair.AccessToken
}

// seedCatalog inserts one service, one area and one extra for booking tests
func seedTestCatalog(t *testing.T) (models.Service, models.Area, models.ServiceExtra) {
	t.Helper()

	service := models.Service{
		Name: "Regular Clean", Slug: "regular-clean",
		BaseFee: 89, PricePerBedroom: 15, PricePerBathroom: 20,
		DurationMinutes: 120, IsActive: true,
	}
	require.NoError(t, database.DB.Create(&service).Error)

	area := models.Area{
		Name: "Inner West", Suburb: "Newtown", State: "NSW",
		PriceAdjustmentPct: 0, IsActive: true,
	}
	require.NoError(t, database.DB.Create(&area).Error)

	extra := models.ServiceExtra{Name: "Inside Oven", Price: 45, IsActive: true}
	require.NoError(t, database.DB.Create(&extra).Error)

	return service, area, extra
}

// doJSON performs a request with an optional JSON body, bearer token and
// guest session cookie, and returns the recorder plus the decoded body.
func doJSON(t *testing.T, router *gin.Engine, method, path string, body interface{}, token, sessionCookie string) (*httptest.ResponseRecorder, map[string]interface{}) {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	if sessionCookie != "" {
		req.AddCookie(&http.Cookie{
			Name:  config.AppConfig.Session.CookieName,
			Value: sessionCookie,
		})
	}

	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	decoded := map[string]interface{}{}
	if w.Body.Len() > 0 {
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &decoded))
	}
	return w, decoded
}

// sessionCookieFrom extracts the guest session cookie minted by a response
func sessionCookieFrom(t *testing.T, w *httptest.ResponseRecorder) string {
	t.Helper()

	for _, cookie := range w.Result().Cookies() {
		if cookie.Name == config.AppConfig.Session.CookieName {
			return cookie.Value
		}
	}
	return ""
}

// readyBooking creates a booking one step from payment for a customer
func readyBooking(t *testing.T, customerID *uint, sessionID *string, serviceID, areaID uint, price float64) models.Booking {
	t.Helper()

	booking := models.Booking{
		CustomerID:  customerID,
		SessionID:   sessionID,
		ServiceID:   &serviceID,
		AreaID:      &areaID,
		Status:      models.BookingStatusReadyForPayment,
		BookingDate: time.Date(2026, 9, 20, 0, 0, 0, 0, time.UTC),
		StartTime:   "09:00",
		EndTime:     "11:00",
		Address:     "12 Example St",
		Postcode:    "2042",
		Bedrooms:    2,
		Bathrooms:   1,
		TotalPrice:  price,
	}
	require.NoError(t, database.DB.Create(&booking).Error)
	return booking
}
