package routes

import (
	"log"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"cleaning-service-server/config"
	"cleaning-service-server/database"
	"cleaning-service-server/middleware"
	"cleaning-service-server/models"
	"cleaning-service-server/services"
)

var jwtService = services.NewJWTService()

// RegisterAuthRoutes registers authentication routes
func RegisterAuthRoutes(router *gin.RouterGroup) {
	router.POST("/signup", signUp)
	router.POST("/signin", signIn)
	router.POST("/refresh", refreshToken)
	router.POST("/logout", logout)
	router.GET("/me", middleware.AuthMiddleware(), getCurrentUser)
	router.POST("/claim-drafts", middleware.AuthMiddleware(), claimGuestDrafts)
}

func signUp(c *gin.Context) {
	var req struct {
		FullName        string `json:"full_name" binding:"required,min=2,max=100"`
		Email           string `json:"email" binding:"required,email"`
		Phone           string `json:"phone"`
		Password        string `json:"password" binding:"required,min=8,max=128"`
		ConfirmPassword string `json:"confirm_password" binding:"required"`
		Role            string `json:"role" binding:"omitempty,oneof=customer cleaner"`
	}

	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request",
			"message": err.Error(),
		})
		return
	}

	req.Email = strings.ToLower(strings.TrimSpace(req.Email))

	if req.Password != req.ConfirmPassword {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Password mismatch",
			"message": "Passwords do not match",
		})
		return
	}

	// Check if user already exists
	var existingUser models.User
	if err := database.DB.Where("email = ?", req.Email).First(&existingUser).Error; err == nil {
		c.JSON(http.StatusConflict, gin.H{
			"error":   "User already exists",
			"message": "An account with this email already exists",
		})
		return
	}

	hashedPassword, err := jwtService.HashPassword(req.Password)
	if err != nil {
		log.Printf("❌ Password hashing failed: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "Internal server error",
			"message": "Failed to process password",
		})
		return
	}

	userRole := models.RoleCustomer
	if strings.ToLower(req.Role) == "cleaner" {
		userRole = models.RoleCleaner
	}

	user := models.User{
		FullName:     req.FullName,
		Email:        req.Email,
		Phone:        req.Phone,
		PasswordHash: hashedPassword,
		Role:         userRole,
		IsActive:     true,
	}

	if err := database.DB.Create(&user).Error; err != nil {
		log.Printf("❌ User creation failed: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "Internal server error",
			"message": "Failed to create account",
		})
		return
	}

	tokenPair, err := jwtService.GenerateTokenPair(&user, c.GetHeader("User-Agent"), c.ClientIP())
	if err != nil {
		log.Printf("❌ Token generation failed: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "Internal server error",
			"message": "Failed to generate authentication tokens",
		})
		return
	}

	log.Printf("✅ User created successfully: %d", user.ID)

	c.JSON(http.StatusCreated, gin.H{
		"success": true,
		"message": "Account created successfully",
		"data": gin.H{
			"user":   userPayload(&user),
			"tokens": tokenPair,
		},
	})
}

func signIn(c *gin.Context) {
	var req struct {
		Email    string `json:"email" binding:"required,email"`
		Password string `json:"password" binding:"required"`
	}

	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request",
			"message": err.Error(),
		})
		return
	}

	req.Email = strings.ToLower(strings.TrimSpace(req.Email))

	var user models.User
	if err := database.DB.Where("email = ?", req.Email).First(&user).Error; err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{
			"error":   "Invalid credentials",
			"message": "Email or password is incorrect",
		})
		return
	}

	if !jwtService.CheckPasswordHash(req.Password, user.PasswordHash) {
		c.JSON(http.StatusUnauthorized, gin.H{
			"error":   "Invalid credentials",
			"message": "Email or password is incorrect",
		})
		return
	}

	if !user.IsActive {
		c.JSON(http.StatusUnauthorized, gin.H{
			"error":   "User inactive",
			"message": "This account has been deactivated",
		})
		return
	}

	tokenPair, err := jwtService.GenerateTokenPair(&user, c.GetHeader("User-Agent"), c.ClientIP())
	if err != nil {
		log.Printf("❌ Token generation failed: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "Internal server error",
			"message": "Failed to generate authentication tokens",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "Signed in successfully",
		"data": gin.H{
			"user":   userPayload(&user),
			"tokens": tokenPair,
		},
	})
}

func refreshToken(c *gin.Context) {
	var req struct {
		RefreshToken string `json:"refresh_token" binding:"required"`
	}

	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request",
			"message": "refresh_token is required",
		})
		return
	}

	tokenPair, err := jwtService.RefreshAccessToken(req.RefreshToken)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{
			"error":   "Invalid refresh token",
			"message": err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    gin.H{"tokens": tokenPair},
	})
}

func logout(c *gin.Context) {
	var req struct {
		RefreshToken string `json:"refresh_token" binding:"required"`
	}

	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request",
			"message": "refresh_token is required",
		})
		return
	}

	if err := jwtService.RevokeRefreshToken(req.RefreshToken); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid refresh token",
			"message": err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "Signed out successfully",
	})
}

func getCurrentUser(c *gin.Context) {
	user := c.MustGet("user").(models.User)
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    gin.H{"user": userPayload(&user)},
	})
}

// claimGuestDrafts attaches bookings made under the caller's guest session
// cookie to their freshly authenticated customer account, so signing in
// mid-flow does not lose the draft.
func claimGuestDrafts(c *gin.Context) {
	user := c.MustGet("user").(models.User)

	sessionID, err := c.Cookie(config.AppConfig.Session.CookieName)
	if err != nil || sessionID == "" {
		c.JSON(http.StatusOK, gin.H{
			"success": true,
			"message": "No guest session to claim",
			"claimed": 0,
		})
		return
	}

	// If the customer already has a draft, guest drafts are dropped rather
	// than claimed: the at-most-one-draft invariant wins.
	var existingDraft models.Booking
	hasDraft := database.DB.
		Where("customer_id = ? AND status = ?", user.ID, models.BookingStatusDraft).
		First(&existingDraft).Error == nil

	query := database.DB.Model(&models.Booking{}).
		Where("session_id = ?", sessionID)
	if hasDraft {
		query = query.Where("status <> ?", models.BookingStatusDraft)
	}

	result := query.Updates(map[string]interface{}{
		"customer_id": user.ID,
		"session_id":  nil,
	})
	if result.Error != nil {
		log.Printf("❌ Failed to claim guest bookings for user %d: %v", user.ID, result.Error)
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "DATABASE_ERROR",
			"message": "Failed to claim guest bookings",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "Guest bookings claimed",
		"claimed": result.RowsAffected,
	})
}

func userPayload(user *models.User) gin.H {
	return gin.H{
		"id":        user.ID,
		"full_name": user.FullName,
		"email":     user.Email,
		"phone":     user.Phone,
		"role":      user.Role,
	}
}
