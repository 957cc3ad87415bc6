package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"cleaning-service-server/config"
	"cleaning-service-server/database"
	"cleaning-service-server/models"
	"cleaning-service-server/services"
)

func identityRouter(t *testing.T) *gin.Engine {
	t.Helper()

	gin.SetMode(gin.TestMode)
	config.Load()

	db, err := gorm.Open(sqlite.Open(t.TempDir()+"/test.db"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&models.User{}, &models.RefreshToken{}))
	database.DB = db

	router := gin.New()
	router.GET("/probe", BookingIdentity(), func(c *gin.Context) {
		customerID, sessionID := IdentityFromContext(c)
		c.JSON(http.StatusOK, gin.H{
			"customerId": customerID,
			"sessionId":  sessionID,
		})
	})
	return router
}

func TestGuestSessionIsMinted(t *testing.T) {
	router := identityRouter(t)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest("GET", "/probe", nil))

	require.Equal(t, http.StatusOK, w.Code)

	cookies := w.Result().Cookies()
	require.Len(t, cookies, 1)
	cookie := cookies[0]

	assert.Equal(t, config.AppConfig.Session.CookieName, cookie.Name)
	assert.Len(t, cookie.Value, 64)
	assert.True(t, cookie.HttpOnly, "guest session must not be readable from scripts")
	assert.Equal(t, http.SameSiteLaxMode, cookie.SameSite)
	assert.Equal(t, config.AppConfig.Session.TTLDays*24*60*60, cookie.MaxAge)
}

func TestGuestSessionIsReused(t *testing.T) {
	router := identityRouter(t)

	first := httptest.NewRecorder()
	router.ServeHTTP(first, httptest.NewRequest("GET", "/probe", nil))
	minted := first.Result().Cookies()[0]

	req := httptest.NewRequest("GET", "/probe", nil)
	req.AddCookie(&http.Cookie{Name: minted.Name, Value: minted.Value})
	second := httptest.NewRecorder()
	router.ServeHTTP(second, req)

	require.Equal(t, http.StatusOK, second.Code)
	assert.Empty(t, second.Result().Cookies(), "a valid session cookie must not be re-minted")
	assert.Contains(t, second.Body.String(), minted.Value)
}

func TestMalformedCookieIsReplaced(t *testing.T) {
	router := identityRouter(t)

	req := httptest.NewRequest("GET", "/probe", nil)
	req.AddCookie(&http.Cookie{Name: config.AppConfig.Session.CookieName, Value: "too-short"})
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	cookies := w.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Len(t, cookies[0].Value, 64)
	assert.NotEqual(t, "too-short", cookies[0].Value)
}

func TestValidBearerResolvesCustomer(t *testing.T) {
	router := identityRouter(t)

	user := models.User{
		FullName:     "Jamie Customer",
		Email:        "jamie@example.com",
		PasswordHash: "x",
		Role:         models.RoleCustomer,
		IsActive:     true,
	}
	require.NoError(t, database.DB.Create(&user).Error)

	pair, err := services.NewJWTService().GenerateTokenPair(&user, "go-test", "127.0.0.1")
	require.NoError(t, err)

	req := httptest.NewRequest("GET", "/probe", nil)
	req.Header.Set("Authorization", "Bearer "+pair.AccessToken)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, w.Result().Cookies(), "authenticated callers get no guest cookie")
	assert.Contains(t, w.Body.String(), `"customerId":1`)
	assert.Contains(t, w.Body.String(), `"sessionId":null`)
}

func TestInvalidBearerIsRejectedNotDowngraded(t *testing.T) {
	router := identityRouter(t)

	req := httptest.NewRequest("GET", "/probe", nil)
	req.Header.Set("Authorization", "Bearer garbage")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Contains(t, w.Body.String(), "AUTH_INVALID_TOKEN")
	assert.Empty(t, w.Result().Cookies())
}

func TestInactiveUserTokenIsRejected(t *testing.T) {
	router := identityRouter(t)

	user := models.User{
		FullName:     "Gone Customer",
		Email:        "gone@example.com",
		PasswordHash: "x",
		Role:         models.RoleCustomer,
		IsActive:     true,
	}
	require.NoError(t, database.DB.Create(&user).Error)

	pair, err := services.NewJWTService().GenerateTokenPair(&user, "go-test", "127.0.0.1")
	require.NoError(t, err)

	require.NoError(t, database.DB.Model(&user).Update("is_active", false).Error)

	req := httptest.NewRequest("GET", "/probe", nil)
	req.Header.Set("Authorization", "Bearer "+pair.AccessToken)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}
