package routes

import (
	"log"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"cleaning-service-server/database"
	"cleaning-service-server/middleware"
	"cleaning-service-server/models"
	"cleaning-service-server/services"
)

// RegisterAdminRoutes registers the back-office routes
func RegisterAdminRoutes(router *gin.RouterGroup) {
	admin := router.Group("/admin")
	admin.Use(middleware.AuthMiddleware(), middleware.RequireRole(models.RoleAdmin))
	{
		admin.GET("/bookings", adminListBookings)
		admin.GET("/bookings/:id", adminGetBooking)
		admin.PUT("/bookings/:id/assign", adminAssignCleaner)
		admin.PUT("/bookings/:id/cancel", adminCancelBooking)

		admin.POST("/services", adminCreateService)
		admin.PUT("/services/:id", adminUpdateService)
		admin.DELETE("/services/:id", adminDeleteService)

		admin.POST("/areas", adminCreateArea)
		admin.PUT("/areas/:id", adminUpdateArea)
		admin.DELETE("/areas/:id", adminDeleteArea)

		admin.POST("/extras", adminCreateExtra)
		admin.PUT("/extras/:id", adminUpdateExtra)
		admin.DELETE("/extras/:id", adminDeleteExtra)

		admin.GET("/users", adminListUsers)
		admin.GET("/cleaners", adminListCleaners)
	}
}

func adminListBookings(c *gin.Context) {
	var bookings []models.Booking
	query := database.DB.
		Preload("Customer").
		Preload("Service").
		Preload("Area").
		Preload("Cleaner.User").
		Order("created_at DESC")

	if status := strings.ToUpper(c.Query("status")); status != "" {
		query = query.Where("status = ?", status)
	}
	if date := c.Query("date"); date != "" {
		query = query.Where("booking_date = ?", date)
	}

	if err := query.Limit(200).Find(&bookings).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "DATABASE_ERROR",
			"message": "Failed to fetch bookings",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":  true,
		"bookings": bookings,
		"count":    len(bookings),
	})
}

func adminGetBooking(c *gin.Context) {
	var booking models.Booking
	if err := database.DB.
		Preload("Customer").
		Preload("Service").
		Preload("Area").
		Preload("Extras").
		Preload("Cleaner.User").
		First(&booking, c.Param("id")).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{
			"error":   "BOOKING_NOT_FOUND",
			"message": "Booking not found",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"booking": booking,
	})
}

// adminAssignCleaner overrides automatic assignment with a manual pick
func adminAssignCleaner(c *gin.Context) {
	var req struct {
		CleanerID uint `json:"cleanerId" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request",
			"message": "cleanerId is required",
		})
		return
	}

	var booking models.Booking
	if err := database.DB.First(&booking, c.Param("id")).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{
			"error":   "BOOKING_NOT_FOUND",
			"message": "Booking not found",
		})
		return
	}

	if booking.IsTerminal() {
		c.JSON(http.StatusUnprocessableEntity, gin.H{
			"error":   services.ErrInvalidStatus,
			"message": "Cannot assign a cleaner to a " + string(booking.Status) + " booking",
		})
		return
	}

	var profile models.CleanerProfile
	if err := database.DB.First(&profile, req.CleanerID).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{
			"error":   "CLEANER_NOT_FOUND",
			"message": "Cleaner profile not found",
		})
		return
	}

	updates := map[string]interface{}{"cleaner_id": profile.ID}
	if booking.Status == models.BookingStatusReadyForPayment ||
		booking.Status == models.BookingStatusPending ||
		booking.Status == models.BookingStatusDraft {
		updates["status"] = models.BookingStatusConfirmed
	}

	if err := database.DB.Model(&booking).Updates(updates).Error; err != nil {
		log.Printf("❌ Manual assignment failed for booking %d: %v", booking.ID, err)
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "DATABASE_ERROR",
			"message": "Failed to assign cleaner",
		})
		return
	}

	log.Printf("✅ Admin assigned cleaner %d to booking %d", profile.ID, booking.ID)

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "Cleaner assigned",
	})
}

func adminCancelBooking(c *gin.Context) {
	var booking models.Booking
	if err := database.DB.First(&booking, c.Param("id")).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{
			"error":   "BOOKING_NOT_FOUND",
			"message": "Booking not found",
		})
		return
	}

	if !services.CanTransition(booking.Status, models.BookingStatusCancelled) {
		c.JSON(http.StatusUnprocessableEntity, gin.H{
			"error":   services.ErrInvalidStatus,
			"message": "Booking cannot be cancelled from status " + string(booking.Status),
		})
		return
	}

	if err := database.DB.Model(&booking).Update("status", models.BookingStatusCancelled).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "DATABASE_ERROR",
			"message": "Failed to cancel booking",
		})
		return
	}

	log.Printf("⚠️ Admin cancelled booking %d", booking.ID)

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "Booking cancelled",
	})
}

func adminCreateService(c *gin.Context) {
	var req models.ServiceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request",
			"message": err.Error(),
		})
		return
	}

	service := models.Service{
		Name:             req.Name,
		Slug:             strings.ToLower(strings.TrimSpace(req.Slug)),
		Description:      req.Description,
		BaseFee:          req.BaseFee,
		PricePerBedroom:  req.PricePerBedroom,
		PricePerBathroom: req.PricePerBathroom,
		DurationMinutes:  req.DurationMinutes,
		ImageURL:         req.ImageURL,
		IsActive:         true,
	}

	if err := database.DB.Create(&service).Error; err != nil {
		if isUniqueViolation(err) {
			c.JSON(http.StatusConflict, gin.H{
				"error":   "SLUG_TAKEN",
				"message": "A service with this slug already exists",
			})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "DATABASE_ERROR",
			"message": "Failed to create service",
		})
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"success": true,
		"service": service,
	})
}

func adminUpdateService(c *gin.Context) {
	var service models.Service
	if err := database.DB.First(&service, c.Param("id")).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{
			"error":   "SERVICE_NOT_FOUND",
			"message": "Service not found",
		})
		return
	}

	var req models.ServiceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request",
			"message": err.Error(),
		})
		return
	}

	service.Name = req.Name
	service.Slug = strings.ToLower(strings.TrimSpace(req.Slug))
	service.Description = req.Description
	service.BaseFee = req.BaseFee
	service.PricePerBedroom = req.PricePerBedroom
	service.PricePerBathroom = req.PricePerBathroom
	service.DurationMinutes = req.DurationMinutes
	service.ImageURL = req.ImageURL

	if err := database.DB.Save(&service).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "DATABASE_ERROR",
			"message": "Failed to update service",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"service": service,
	})
}

func adminDeleteService(c *gin.Context) {
	if err := database.DB.Delete(&models.Service{}, c.Param("id")).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "DATABASE_ERROR",
			"message": "Failed to delete service",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "Service deleted",
	})
}

func adminCreateArea(c *gin.Context) {
	var area models.Area
	if err := c.ShouldBindJSON(&area); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request",
			"message": err.Error(),
		})
		return
	}
	area.ID = 0
	area.IsActive = true

	if err := database.DB.Create(&area).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "DATABASE_ERROR",
			"message": "Failed to create area",
		})
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"success": true,
		"area":    area,
	})
}

func adminUpdateArea(c *gin.Context) {
	var area models.Area
	if err := database.DB.First(&area, c.Param("id")).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{
			"error":   "AREA_NOT_FOUND",
			"message": "Area not found",
		})
		return
	}

	var req models.Area
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request",
			"message": err.Error(),
		})
		return
	}

	area.Name = req.Name
	area.Suburb = req.Suburb
	area.State = req.State
	area.PriceAdjustmentPct = req.PriceAdjustmentPct
	area.IsActive = req.IsActive

	if err := database.DB.Save(&area).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "DATABASE_ERROR",
			"message": "Failed to update area",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"area":    area,
	})
}

func adminDeleteArea(c *gin.Context) {
	if err := database.DB.Delete(&models.Area{}, c.Param("id")).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "DATABASE_ERROR",
			"message": "Failed to delete area",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "Area deleted",
	})
}

func adminCreateExtra(c *gin.Context) {
	var extra models.ServiceExtra
	if err := c.ShouldBindJSON(&extra); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request",
			"message": err.Error(),
		})
		return
	}
	extra.ID = 0
	extra.IsActive = true

	if err := database.DB.Create(&extra).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "DATABASE_ERROR",
			"message": "Failed to create extra",
		})
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"success": true,
		"extra":   extra,
	})
}

func adminUpdateExtra(c *gin.Context) {
	var extra models.ServiceExtra
	if err := database.DB.First(&extra, c.Param("id")).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{
			"error":   "EXTRA_NOT_FOUND",
			"message": "Extra not found",
		})
		return
	}

	var req models.ServiceExtra
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request",
			"message": err.Error(),
		})
		return
	}

	extra.Name = req.Name
	extra.Description = req.Description
	extra.Price = req.Price
	extra.IsActive = req.IsActive
	extra.SortOrder = req.SortOrder

	if err := database.DB.Save(&extra).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "DATABASE_ERROR",
			"message": "Failed to update extra",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"extra":   extra,
	})
}

func adminDeleteExtra(c *gin.Context) {
	if err := database.DB.Delete(&models.ServiceExtra{}, c.Param("id")).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "DATABASE_ERROR",
			"message": "Failed to delete extra",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "Extra deleted",
	})
}

func adminListUsers(c *gin.Context) {
	var users []models.User
	query := database.DB.Order("created_at DESC")

	if role := strings.ToUpper(c.Query("role")); role != "" {
		query = query.Where("role = ?", role)
	}

	if err := query.Limit(200).Find(&users).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "DATABASE_ERROR",
			"message": "Failed to fetch users",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"users":   users,
		"count":   len(users),
	})
}

func adminListCleaners(c *gin.Context) {
	var cleaners []models.CleanerProfile
	if err := database.DB.
		Preload("User").
		Preload("Areas").
		Order("jobs_done DESC").
		Find(&cleaners).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "DATABASE_ERROR",
			"message": "Failed to fetch cleaners",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":  true,
		"cleaners": cleaners,
		"count":    len(cleaners),
	})
}
