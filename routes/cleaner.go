package routes

import (
	"errors"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"cleaning-service-server/database"
	"cleaning-service-server/middleware"
	"cleaning-service-server/models"
	"cleaning-service-server/services"
	ws "cleaning-service-server/websocket"
)

// RegisterCleanerRoutes registers the cleaner portal routes
func RegisterCleanerRoutes(router *gin.RouterGroup) {
	cleaner := router.Group("/cleaner")
	cleaner.Use(middleware.AuthMiddleware(), middleware.RequireRole(models.RoleCleaner))
	{
		cleaner.GET("/profile", getCleanerProfile)
		cleaner.POST("/profile", upsertCleanerProfile)
		cleaner.PUT("/profile", upsertCleanerProfile)
		cleaner.PUT("/availability", setCleanerAvailability)
		cleaner.GET("/jobs", listCleanerJobs)
		cleaner.GET("/offers", listCleanerOffers)
		cleaner.POST("/jobs/:id/accept", acceptJob)
		cleaner.POST("/jobs/:id/start", startJob)
		cleaner.POST("/jobs/:id/complete", completeJob)
	}

	// WebSocket upgrades cannot carry an Authorization header
	router.GET("/cleaner/ws", middleware.WebSocketAuthMiddleware(), cleanerFeed)
}

// cleanerProfileFor loads the caller's cleaner profile or responds 404
func cleanerProfileFor(c *gin.Context, user *models.User) (*models.CleanerProfile, bool) {
	var profile models.CleanerProfile
	if err := database.DB.
		Where("user_id = ?", user.ID).
		Preload("Areas").
		First(&profile).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{
			"error":   "PROFILE_NOT_FOUND",
			"message": "Cleaner profile has not been set up yet",
		})
		return nil, false
	}
	return &profile, true
}

func getCleanerProfile(c *gin.Context) {
	user := c.MustGet("user").(models.User)

	profile, ok := cleanerProfileFor(c, &user)
	if !ok {
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"profile": profile,
	})
}

// upsertCleanerProfile creates or updates the caller's profile. The served
// areas are replaced wholesale with the submitted list.
func upsertCleanerProfile(c *gin.Context) {
	user := c.MustGet("user").(models.User)

	var req models.CleanerProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request",
			"message": err.Error(),
		})
		return
	}

	var profile models.CleanerProfile
	err := database.DB.Where("user_id = ?", user.ID).First(&profile).Error
	created := false
	if errors.Is(err, gorm.ErrRecordNotFound) {
		profile = models.CleanerProfile{
			UserID:      user.ID,
			IsAvailable: true,
		}
		created = true
	} else if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "DATABASE_ERROR",
			"message": "Failed to look up profile",
		})
		return
	}

	profile.Bio = req.Bio
	if err := database.DB.Save(&profile).Error; err != nil {
		log.Printf("❌ Cleaner profile save failed for user %d: %v", user.ID, err)
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "DATABASE_ERROR",
			"message": "Failed to save profile",
		})
		return
	}

	if req.AreaIDs != nil {
		var areas []models.Area
		if err := database.DB.Where("id IN ? AND is_active = ?", req.AreaIDs, true).Find(&areas).Error; err == nil {
			if aerr := database.DB.Model(&profile).Association("Areas").Replace(areas); aerr != nil {
				log.Printf("⚠️ Failed to update areas for cleaner %d: %v", profile.ID, aerr)
			}
		}
	}

	database.DB.Preload("Areas").First(&profile, profile.ID)

	status := http.StatusOK
	message := "Profile updated"
	if created {
		status = http.StatusCreated
		message = "Profile created"
	}

	c.JSON(status, gin.H{
		"success": true,
		"message": message,
		"profile": profile,
	})
}

func setCleanerAvailability(c *gin.Context) {
	user := c.MustGet("user").(models.User)

	var req struct {
		IsAvailable *bool `json:"is_available" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request",
			"message": "is_available is required",
		})
		return
	}

	profile, ok := cleanerProfileFor(c, &user)
	if !ok {
		return
	}

	if err := database.DB.Model(profile).Update("is_available", *req.IsAvailable).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "DATABASE_ERROR",
			"message": "Failed to update availability",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":      true,
		"message":      "Availability updated",
		"is_available": *req.IsAvailable,
	})
}

// listCleanerJobs returns the bookings assigned to the caller
func listCleanerJobs(c *gin.Context) {
	user := c.MustGet("user").(models.User)

	profile, ok := cleanerProfileFor(c, &user)
	if !ok {
		return
	}

	var jobs []models.Booking
	query := database.DB.
		Where("cleaner_id = ?", profile.ID).
		Preload("Service").
		Preload("Area").
		Order("booking_date ASC, start_time ASC")

	if status := c.Query("status"); status != "" {
		query = query.Where("status = ?", status)
	} else {
		query = query.Where("status IN ?", []models.BookingStatus{
			models.BookingStatusConfirmed,
			models.BookingStatusPaid,
			models.BookingStatusInProgress,
		})
	}

	if err := query.Find(&jobs).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "DATABASE_ERROR",
			"message": "Failed to fetch jobs",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"jobs":    jobs,
		"count":   len(jobs),
	})
}

// listCleanerOffers returns unassigned bookings in the caller's areas that
// the cleaner could claim.
func listCleanerOffers(c *gin.Context) {
	user := c.MustGet("user").(models.User)

	profile, ok := cleanerProfileFor(c, &user)
	if !ok {
		return
	}

	areaIDs := make([]uint, 0, len(profile.Areas))
	for _, area := range profile.Areas {
		areaIDs = append(areaIDs, area.ID)
	}
	if len(areaIDs) == 0 {
		c.JSON(http.StatusOK, gin.H{
			"success": true,
			"offers":  []models.Booking{},
			"count":   0,
		})
		return
	}

	var offers []models.Booking
	if err := database.DB.
		Where("cleaner_id IS NULL AND area_id IN ? AND status IN ?",
			areaIDs,
			[]models.BookingStatus{models.BookingStatusReadyForPayment, models.BookingStatusConfirmed}).
		Preload("Service").
		Preload("Area").
		Order("booking_date ASC, start_time ASC").
		Find(&offers).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "DATABASE_ERROR",
			"message": "Failed to fetch offers",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"offers":  offers,
		"count":   len(offers),
	})
}

// acceptJob claims an unassigned booking for the caller. The claim is a
// conditional update so two cleaners racing for the same job cannot both
// win it.
func acceptJob(c *gin.Context) {
	user := c.MustGet("user").(models.User)

	profile, ok := cleanerProfileFor(c, &user)
	if !ok {
		return
	}

	result := database.DB.Model(&models.Booking{}).
		Where("id = ? AND cleaner_id IS NULL AND status IN ?",
			c.Param("id"),
			[]models.BookingStatus{models.BookingStatusReadyForPayment, models.BookingStatusConfirmed}).
		Update("cleaner_id", profile.ID)
	if result.Error != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "DATABASE_ERROR",
			"message": "Failed to accept job",
		})
		return
	}
	if result.RowsAffected == 0 {
		c.JSON(http.StatusConflict, gin.H{
			"error":   "JOB_UNAVAILABLE",
			"message": "This job has already been taken or does not exist",
		})
		return
	}

	log.Printf("✅ Cleaner %d accepted booking %s", profile.ID, c.Param("id"))

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "Job accepted",
	})
}

func startJob(c *gin.Context) {
	transitionJob(c, models.BookingStatusInProgress, "Job started")
}

func completeJob(c *gin.Context) {
	user := c.MustGet("user").(models.User)

	profile, ok := cleanerProfileFor(c, &user)
	if !ok {
		return
	}

	booking, ok := ownedJob(c, profile)
	if !ok {
		return
	}

	if !services.CanTransition(booking.Status, models.BookingStatusCompleted) {
		c.JSON(http.StatusUnprocessableEntity, gin.H{
			"error":   services.ErrInvalidStatus,
			"message": "Job cannot be completed from status " + string(booking.Status),
		})
		return
	}

	err := database.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(booking).Update("status", models.BookingStatusCompleted).Error; err != nil {
			return err
		}
		return tx.Model(profile).UpdateColumn("jobs_done", gorm.Expr("jobs_done + 1")).Error
	})
	if err != nil {
		log.Printf("❌ Failed to complete booking %d: %v", booking.ID, err)
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "DATABASE_ERROR",
			"message": "Failed to complete job",
		})
		return
	}

	log.Printf("✅ Booking %d completed by cleaner %d", booking.ID, profile.ID)

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "Job completed",
	})
}

// transitionJob applies a simple forward status transition to a booking
// owned by the calling cleaner.
func transitionJob(c *gin.Context, target models.BookingStatus, message string) {
	user := c.MustGet("user").(models.User)

	profile, ok := cleanerProfileFor(c, &user)
	if !ok {
		return
	}

	booking, ok := ownedJob(c, profile)
	if !ok {
		return
	}

	if !services.CanTransition(booking.Status, target) {
		c.JSON(http.StatusUnprocessableEntity, gin.H{
			"error":   services.ErrInvalidStatus,
			"message": "Job cannot move to " + string(target) + " from " + string(booking.Status),
		})
		return
	}

	if err := database.DB.Model(booking).Update("status", target).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "DATABASE_ERROR",
			"message": "Failed to update job",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": message,
		"status":  target,
	})
}

func ownedJob(c *gin.Context, profile *models.CleanerProfile) (*models.Booking, bool) {
	var booking models.Booking
	if err := database.DB.
		Where("id = ? AND cleaner_id = ?", c.Param("id"), profile.ID).
		First(&booking).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{
			"error":   "BOOKING_NOT_FOUND",
			"message": "Job not found",
		})
		return nil, false
	}
	return &booking, true
}

// cleanerFeed upgrades the connection and streams job notifications
func cleanerFeed(c *gin.Context) {
	user := c.MustGet("user").(models.User)
	if !user.IsCleaner() {
		c.JSON(http.StatusForbidden, gin.H{
			"error":   "Insufficient permissions",
			"message": "Only cleaners can subscribe to the job feed",
		})
		return
	}

	var profile models.CleanerProfile
	if err := database.DB.Where("user_id = ?", user.ID).First(&profile).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{
			"error":   "PROFILE_NOT_FOUND",
			"message": "Cleaner profile has not been set up yet",
		})
		return
	}

	if wsHub == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"error":   "FEED_UNAVAILABLE",
			"message": "Job feed is not running",
		})
		return
	}

	ws.ServeCleanerFeed(wsHub, c.Writer, c.Request, profile.ID)
}
