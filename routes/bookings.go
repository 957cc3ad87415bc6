package routes

import (
	"errors"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"cleaning-service-server/database"
	"cleaning-service-server/middleware"
	"cleaning-service-server/models"
	"cleaning-service-server/queue"
	"cleaning-service-server/services"
	ws "cleaning-service-server/websocket"
)

const (
	defaultStartTime = "09:00"
	defaultEndTime   = "11:00"
)

// RegisterBookingRoutes registers the booking flow routes
func RegisterBookingRoutes(router *gin.RouterGroup) {
	draft := router.Group("/bookings/draft")
	draft.Use(middleware.BookingIdentity())
	{
		draft.GET("", getDraftIdentity)
		draft.POST("", findOrCreateDraft)
		draft.PATCH("", patchDraft)
	}

	router.POST("/bookings/confirm", middleware.AuthMiddleware(), confirmBooking)
	router.GET("/bookings/my", middleware.AuthMiddleware(), listMyBookings)
	router.GET("/bookings/my/:id", middleware.AuthMiddleware(), getMyBooking)
}

// getDraftIdentity reports which identity the draft endpoints would operate
// under. The web client calls this on page load to mint the guest session
// cookie before the first real draft request.
func getDraftIdentity(c *gin.Context) {
	customerID, sessionID := middleware.IdentityFromContext(c)

	c.JSON(http.StatusOK, gin.H{
		"success":    true,
		"message":    "Booking identity resolved",
		"customerId": customerID,
		"sessionId":  sessionID,
		"timestamp":  time.Now().UTC(),
	})
}

// findOrCreateDraft returns the caller's existing draft booking, or creates
// one when none exists. At most one draft per identity: a concurrent create
// that trips the partial unique index falls back to re-reading the winner.
func findOrCreateDraft(c *gin.Context) {
	customerID, sessionID := middleware.IdentityFromContext(c)
	if customerID == nil && sessionID == nil {
		log.Printf("❌ Draft request reached handler without an identity")
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "IDENTITY_MISSING",
			"message": "Could not resolve a booking identity",
		})
		return
	}

	var patch models.BookingPatch
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&patch); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{
				"error":   "Invalid request",
				"message": err.Error(),
			})
			return
		}
	}

	var draft models.Booking
	err := draftScope(database.DB, customerID, sessionID).
		Preload("Extras").
		First(&draft).Error
	if err == nil {
		c.JSON(http.StatusOK, gin.H{
			"success": true,
			"message": "Existing draft booking found",
			"booking": draft,
		})
		return
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		log.Printf("❌ Draft lookup failed: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "DATABASE_ERROR",
			"message": "Failed to look up draft booking",
		})
		return
	}

	draft = models.Booking{
		CustomerID:  customerID,
		SessionID:   sessionID,
		Status:      models.BookingStatusDraft,
		BookingDate: time.Now().Truncate(24 * time.Hour),
		StartTime:   defaultStartTime,
		EndTime:     defaultEndTime,
		TotalPrice:  0,
	}
	if err := applyPatch(&draft, &patch); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request",
			"message": err.Error(),
		})
		return
	}

	if err := database.DB.Create(&draft).Error; err != nil {
		if isUniqueViolation(err) {
			// Lost the race to a concurrent draft create. The winner's row
			// is the draft, so hand that back instead of failing.
			if rerr := draftScope(database.DB, customerID, sessionID).
				Preload("Extras").
				First(&draft).Error; rerr == nil {
				c.JSON(http.StatusOK, gin.H{
					"success": true,
					"message": "Existing draft booking found",
					"booking": draft,
				})
				return
			}
		}
		log.Printf("❌ Draft creation failed: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "DATABASE_ERROR",
			"message": "Failed to create draft booking",
		})
		return
	}

	response := gin.H{
		"success": true,
		"message": "Draft booking created",
	}
	if len(patch.ExtraIDs) > 0 {
		if err := replaceExtras(&draft, patch.ExtraIDs); err != nil {
			log.Printf("⚠️ Failed to attach extras to draft %d: %v", draft.ID, err)
			response["warnings"] = []string{"Selected extras could not be attached, re-apply them by updating the draft"}
		}
	}
	response["booking"] = draft

	log.Printf("✅ Draft booking %d created", draft.ID)
	c.JSON(http.StatusCreated, response)
}

// patchDraft applies a partial update to the caller's draft booking
func patchDraft(c *gin.Context) {
	customerID, sessionID := middleware.IdentityFromContext(c)
	if customerID == nil && sessionID == nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "IDENTITY_MISSING",
			"message": "Could not resolve a booking identity",
		})
		return
	}

	var patch models.BookingPatch
	if err := c.ShouldBindJSON(&patch); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request",
			"message": err.Error(),
		})
		return
	}
	if !patch.HasAny() {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request",
			"message": "No fields to update",
		})
		return
	}

	var draft models.Booking
	if err := draftScope(database.DB, customerID, sessionID).First(&draft).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{
				"error":   "DRAFT_NOT_FOUND",
				"message": "No draft booking exists for this identity",
			})
			return
		}
		log.Printf("❌ Draft lookup failed: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "DATABASE_ERROR",
			"message": "Failed to look up draft booking",
		})
		return
	}

	if err := applyPatch(&draft, &patch); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request",
			"message": err.Error(),
		})
		return
	}

	// Any change to the inputs of the price invalidates a previously
	// computed total. An explicit totalPrice in the patch is ignored for
	// the same reason: the server owns pricing.
	draft.TotalPrice = 0

	if err := database.DB.Save(&draft).Error; err != nil {
		log.Printf("❌ Draft update failed: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "DATABASE_ERROR",
			"message": "Failed to update draft booking",
		})
		return
	}

	if patch.ExtraIDs != nil {
		if err := replaceExtras(&draft, patch.ExtraIDs); err != nil {
			log.Printf("⚠️ Failed to update extras for draft %d: %v", draft.ID, err)
		}
	}

	database.DB.Preload("Extras").First(&draft, draft.ID)

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "Draft booking updated",
		"booking": draft,
	})
}

// confirmBooking moves a booking out of the draft phase: it validates the
// booking, prices it, attempts cleaner auto-assignment, and lands on either
// CONFIRMED (cleaner assigned) or READY_FOR_PAYMENT (no cleaner yet).
func confirmBooking(c *gin.Context) {
	user := c.MustGet("user").(models.User)

	var req struct {
		BookingID uint `json:"bookingId" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request",
			"message": "bookingId is required",
		})
		return
	}

	var booking models.Booking
	if err := database.DB.
		Where("id = ? AND customer_id = ?", req.BookingID, user.ID).
		Preload("Extras").
		First(&booking).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{
			"error":   "BOOKING_NOT_FOUND",
			"message": "Booking not found",
		})
		return
	}

	switch booking.Status {
	case models.BookingStatusDraft, models.BookingStatusPending, models.BookingStatusReadyForPayment:
		// confirmable
	default:
		c.JSON(http.StatusUnprocessableEntity, gin.H{
			"error":   services.ErrInvalidStatus,
			"message": "Booking cannot be confirmed from status " + string(booking.Status),
		})
		return
	}

	result := services.ValidateForStatus(&booking, models.BookingStatusReadyForPayment)
	if !result.IsValid {
		c.JSON(http.StatusUnprocessableEntity, gin.H{
			"error":   "VALIDATION_FAILED",
			"message": "Booking is missing required details",
			"details": result,
		})
		return
	}

	if booking.TotalPrice <= 0 {
		if _, err := services.Reprice(database.DB, &booking); err != nil {
			log.Printf("⚠️ Price calculation failed for booking %d: %v", booking.ID, err)
			c.JSON(http.StatusUnprocessableEntity, gin.H{
				"error":   "PRICE_CALCULATION_FAILED",
				"message": "Could not calculate a price for this booking",
			})
			return
		}
	}

	booking.Status = models.BookingStatusReadyForPayment

	var assigned *models.CleanerProfile
	if booking.CleanerID == nil && booking.AutoAssign {
		profile, err := services.TryAutoAssign(database.DB, &booking)
		switch {
		case err == nil:
			assigned = profile
			booking.Status = models.BookingStatusConfirmed
		case errors.Is(err, services.ErrNoCleanerAvailable):
			log.Printf("⚠️ No cleaner available for booking %d, staying READY_FOR_PAYMENT", booking.ID)
		default:
			// Assignment is best effort. A transient failure must not block
			// the customer from paying.
			log.Printf("⚠️ Auto-assignment failed for booking %d: %v", booking.ID, err)
		}
	} else if booking.CleanerID != nil {
		booking.Status = models.BookingStatusConfirmed
	}

	if err := database.DB.Model(&booking).Updates(map[string]interface{}{
		"status":      booking.Status,
		"cleaner_id":  booking.CleanerID,
		"total_price": booking.TotalPrice,
	}).Error; err != nil {
		log.Printf("❌ Failed to persist confirmation for booking %d: %v", booking.ID, err)
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "DATABASE_ERROR",
			"message": "Failed to confirm booking",
		})
		return
	}

	log.Printf("✅ Booking %d confirmed with status %s", booking.ID, booking.Status)

	publishBookingEvent(queue.KeyBookingConfirmed, &booking, &user)

	if assigned != nil && wsHub != nil {
		wsHub.SendToCleaner(assigned.ID, &ws.Message{
			Type:      "job_assigned",
			Timestamp: time.Now().UTC(),
			Data: gin.H{
				"bookingId":   booking.ID,
				"bookingDate": booking.BookingDate.Format("2006-01-02"),
				"startTime":   booking.StartTime,
				"address":     booking.Address,
				"totalPrice":  booking.TotalPrice,
			},
		})
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "Booking confirmed",
		"data": gin.H{
			"bookingId":         booking.ID,
			"status":            booking.Status,
			"cleanerId":         booking.CleanerID,
			"totalPrice":        booking.TotalPrice,
			"isReadyForPayment": booking.Status == models.BookingStatusReadyForPayment,
		},
	})
}

// listMyBookings returns the authenticated customer's bookings, newest first
func listMyBookings(c *gin.Context) {
	user := c.MustGet("user").(models.User)

	var bookings []models.Booking
	query := database.DB.
		Where("customer_id = ?", user.ID).
		Preload("Service").
		Preload("Area").
		Order("created_at DESC")

	if status := strings.ToUpper(c.Query("status")); status != "" {
		query = query.Where("status = ?", status)
	}

	if err := query.Find(&bookings).Error; err != nil {
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

func getMyBooking(c *gin.Context) {
	user := c.MustGet("user").(models.User)

	var booking models.Booking
	if err := database.DB.
		Where("id = ? AND customer_id = ?", c.Param("id"), user.ID).
		Preload("Service").
		Preload("Area").
		Preload("Extras").
		Preload("Cleaner.User").
		First(&booking).Error; err != nil {
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

// draftScope scopes a query to the single draft owned by the given identity
func draftScope(db *gorm.DB, customerID *uint, sessionID *string) *gorm.DB {
	query := db.Where("status = ?", models.BookingStatusDraft)
	if customerID != nil {
		return query.Where("customer_id = ?", *customerID)
	}
	return query.Where("session_id = ?", *sessionID)
}

// applyPatch copies the set fields of a patch onto a booking
func applyPatch(b *models.Booking, p *models.BookingPatch) error {
	if p.ServiceID != nil {
		b.ServiceID = p.ServiceID
	}
	if p.AreaID != nil {
		b.AreaID = p.AreaID
	}
	if p.BookingDate != nil {
		date, err := time.Parse("2006-01-02", *p.BookingDate)
		if err != nil {
			return errors.New("bookingDate must be formatted YYYY-MM-DD")
		}
		b.BookingDate = date
	}
	if p.StartTime != nil {
		b.StartTime = *p.StartTime
	}
	if p.EndTime != nil {
		b.EndTime = *p.EndTime
	}
	if p.Address != nil {
		b.Address = strings.TrimSpace(*p.Address)
	}
	if p.Postcode != nil {
		b.Postcode = strings.TrimSpace(*p.Postcode)
	}
	if p.Bedrooms != nil {
		b.Bedrooms = *p.Bedrooms
	}
	if p.Bathrooms != nil {
		b.Bathrooms = *p.Bathrooms
	}
	if p.SpecialInstructions != nil {
		b.SpecialInstructions = *p.SpecialInstructions
	}
	if p.AutoAssign != nil {
		b.AutoAssign = *p.AutoAssign
	}
	return nil
}

// replaceExtras swaps the booking's extras association for the given ids
func replaceExtras(b *models.Booking, extraIDs []uint) error {
	if len(extraIDs) == 0 {
		return database.DB.Model(b).Association("Extras").Clear()
	}

	var extras []models.ServiceExtra
	if err := database.DB.Where("id IN ? AND is_active = ?", extraIDs, true).Find(&extras).Error; err != nil {
		return err
	}
	return database.DB.Model(b).Association("Extras").Replace(extras)
}

// publishBookingEvent pushes a lifecycle event onto the notifications
// exchange. Failures are logged, never surfaced to the customer.
func publishBookingEvent(routingKey string, booking *models.Booking, customer *models.User) {
	if publisher == nil {
		return
	}

	event := queue.BookingEvent{
		BookingID:   booking.ID,
		Status:      string(booking.Status),
		BookingDate: booking.BookingDate.Format("2006-01-02"),
		StartTime:   booking.StartTime,
		Address:     booking.Address,
		TotalPrice:  booking.TotalPrice,
	}
	if booking.ShortID != nil {
		event.ShortID = *booking.ShortID
	}
	if customer != nil {
		event.CustomerEmail = customer.Email
		event.CustomerName = customer.FullName
	}

	if err := publisher.Publish(routingKey, event); err != nil {
		log.Printf("⚠️ Failed to publish %s for booking %d: %v", routingKey, booking.ID, err)
	}
}

// isUniqueViolation reports whether err is a unique constraint violation.
// Checked textually because the Postgres driver and the sqlite driver used
// in tests surface different error types.
func isUniqueViolation(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "duplicate key") || strings.Contains(msg, "unique constraint")
}
