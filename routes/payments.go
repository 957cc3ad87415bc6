package routes

import (
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"cleaning-service-server/config"
	"cleaning-service-server/database"
	"cleaning-service-server/middleware"
	"cleaning-service-server/models"
	"cleaning-service-server/queue"
	"cleaning-service-server/services"
	"cleaning-service-server/utils"
)

// RegisterPaymentRoutes registers payment initialization and verification
func RegisterPaymentRoutes(router *gin.RouterGroup) {
	router.POST("/payments/initialize", middleware.BookingIdentity(), initializePayment)
	router.GET("/payments/verify", verifyPayment)
}

// initializePayment creates (or reuses) the payment record for a booking
// and opens a checkout session at the gateway. Guests can pay: the booking
// is matched by whichever identity the middleware resolved.
func initializePayment(c *gin.Context) {
	customerID, sessionID := middleware.IdentityFromContext(c)
	if customerID == nil && sessionID == nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "IDENTITY_MISSING",
			"message": "Could not resolve a booking identity",
		})
		return
	}

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

	query := database.DB.Where("id = ?", req.BookingID)
	if customerID != nil {
		query = query.Where("customer_id = ?", *customerID)
	} else {
		query = query.Where("session_id = ?", *sessionID)
	}

	var booking models.Booking
	if err := query.First(&booking).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{
			"error":   "BOOKING_NOT_FOUND",
			"message": "Booking not found",
		})
		return
	}

	if booking.Status != models.BookingStatusReadyForPayment &&
		booking.Status != models.BookingStatusConfirmed {
		c.JSON(http.StatusUnprocessableEntity, gin.H{
			"error":   services.ErrInvalidStatus,
			"message": "Booking is not ready for payment",
		})
		return
	}

	if booking.TotalPrice <= 0 {
		c.JSON(http.StatusUnprocessableEntity, gin.H{
			"error":   "PRICE_CALCULATION_FAILED",
			"message": "Booking has no payable total",
		})
		return
	}

	// Reuse an existing open payment for this booking so retries land on
	// the same gateway order instead of minting a new one each attempt.
	var payment models.Payment
	err := database.DB.
		Where("booking_id = ? AND status = ?", booking.ID, models.PaymentStatusInitialized).
		First(&payment).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		payment = models.Payment{
			BookingID:   booking.ID,
			Reference:   "pay-" + uuid.NewString(),
			AmountMinor: services.ToMinorUnits(booking.TotalPrice),
			Currency:    config.AppConfig.Payment.Currency,
			Status:      models.PaymentStatusInitialized,
		}
		if cerr := database.DB.Create(&payment).Error; cerr != nil {
			log.Printf("❌ Payment creation failed for booking %d: %v", booking.ID, cerr)
			c.JSON(http.StatusInternalServerError, gin.H{
				"error":   "DATABASE_ERROR",
				"message": "Failed to create payment",
			})
			return
		}
	} else if err != nil {
		log.Printf("❌ Payment lookup failed for booking %d: %v", booking.ID, err)
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "DATABASE_ERROR",
			"message": "Failed to look up payment",
		})
		return
	} else if amountsDiverge(payment.AmountMinor, services.ToMinorUnits(booking.TotalPrice)) {
		// The booking was repriced after the payment was opened. Fail the
		// stale payment and open a fresh one at the current amount.
		database.DB.Model(&payment).Update("status", models.PaymentStatusFailed)
		payment = models.Payment{
			BookingID:   booking.ID,
			Reference:   "pay-" + uuid.NewString(),
			AmountMinor: services.ToMinorUnits(booking.TotalPrice),
			Currency:    config.AppConfig.Payment.Currency,
			Status:      models.PaymentStatusInitialized,
		}
		if cerr := database.DB.Create(&payment).Error; cerr != nil {
			log.Printf("❌ Payment re-creation failed for booking %d: %v", booking.ID, cerr)
			c.JSON(http.StatusInternalServerError, gin.H{
				"error":   "DATABASE_ERROR",
				"message": "Failed to create payment",
			})
			return
		}
	}

	customerName, customerEmail := paymentContact(&booking)

	session, err := paymentGateway().Initialize(&payment, &booking, customerName, customerEmail)
	if err != nil {
		log.Printf("❌ Gateway initialization failed for payment %s: %v", payment.Reference, err)
		c.JSON(http.StatusBadGateway, gin.H{
			"error":   "GATEWAY_ERROR",
			"message": "Payment gateway could not open a checkout session",
		})
		return
	}

	// The gateway may normalize the amount to its charge granularity;
	// persist what will actually settle so verification compares exactly.
	if err := database.DB.Model(&payment).Update("amount_minor", payment.AmountMinor).Error; err != nil {
		log.Printf("⚠️ Failed to persist charged amount for payment %s: %v", payment.Reference, err)
	}

	log.Printf("✅ Payment %s initialized for booking %d", payment.Reference, booking.ID)

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "Payment initialized",
		"data": gin.H{
			"reference":   payment.Reference,
			"amountMinor": payment.AmountMinor,
			"currency":    payment.Currency,
			"token":       session.Token,
			"redirectUrl": session.RedirectURL,
		},
	})
}

// verifyPayment reconciles a payment against the gateway's record. It is
// called from the post-checkout redirect, so it must never trust query
// parameters beyond the reference itself.
func verifyPayment(c *gin.Context) {
	reference := c.Query("reference")
	if reference == "" {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request",
			"message": "reference is required",
		})
		return
	}

	var payment models.Payment
	if err := database.DB.Where("reference = ?", reference).First(&payment).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{
			"error":   "PAYMENT_NOT_FOUND",
			"message": "Unknown payment reference",
		})
		return
	}

	if payment.Status == models.PaymentStatusPaid {
		// Idempotent re-verify after a page refresh
		var booking models.Booking
		database.DB.First(&booking, payment.BookingID)
		c.JSON(http.StatusOK, gin.H{
			"success":   true,
			"message":   "Payment already verified",
			"bookingId": payment.BookingID,
			"shortId":   booking.ShortID,
		})
		return
	}

	result, err := paymentGateway().Verify(reference)
	if err != nil {
		log.Printf("❌ Gateway verification failed for payment %s: %v", reference, err)
		c.JSON(http.StatusBadGateway, gin.H{
			"error":   "GATEWAY_ERROR",
			"message": "Payment gateway could not verify this payment",
		})
		return
	}

	if result.Status != services.GatewayStatusSuccess {
		// Only a definitive failure marks the row FAILED. A pending
		// transaction may still settle at the gateway, so the payment
		// stays INITIALIZED and the client is told to verify again.
		updates := map[string]interface{}{"transaction_id": result.TransactionID}
		if result.Status == services.GatewayStatusFailed {
			updates["status"] = models.PaymentStatusFailed
		}
		if len(result.RawPayload) > 0 {
			updates["gateway_payload"] = datatypes.JSON(result.RawPayload)
		}
		if uerr := database.DB.Model(&payment).Updates(updates).Error; uerr != nil {
			log.Printf("⚠️ Failed to record gateway status for payment %s: %v", reference, uerr)
		}
		c.JSON(http.StatusBadRequest, gin.H{
			"error":     "PAYMENT_NOT_SETTLED",
			"message":   gatewayMessage(result),
			"status":    result.Status,
			"retryable": result.Status != services.GatewayStatusFailed,
		})
		return
	}

	// The gateway said success, but the money must match what we asked
	// for. A mismatch is never marked PAID.
	if result.AmountMinor != payment.AmountMinor ||
		(result.Currency != "" && result.Currency != payment.Currency) {
		log.Printf("❌ Payment %s amount mismatch: expected %d %s, gateway reported %d %s",
			reference, payment.AmountMinor, payment.Currency, result.AmountMinor, result.Currency)
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "PAYMENT_MISMATCH",
			"message": "Gateway amount does not match the payment record",
		})
		return
	}

	updates := map[string]interface{}{
		"status":         models.PaymentStatusPaid,
		"transaction_id": result.TransactionID,
	}
	if len(result.RawPayload) > 0 {
		updates["gateway_payload"] = datatypes.JSON(result.RawPayload)
	}
	if err := database.DB.Model(&payment).Updates(updates).Error; err != nil {
		log.Printf("❌ Failed to mark payment %s paid: %v", reference, err)
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "DATABASE_ERROR",
			"message": "Failed to record the payment",
		})
		return
	}

	var booking models.Booking
	if err := database.DB.Preload("Customer").First(&booking, payment.BookingID).Error; err != nil {
		log.Printf("⚠️ Payment %s verified but booking %d not found", reference, payment.BookingID)
		c.JSON(http.StatusOK, gin.H{
			"success":   true,
			"message":   "Payment verified",
			"bookingId": payment.BookingID,
		})
		return
	}

	shortID := ensureShortID(&booking)

	if err := database.DB.Model(&booking).Updates(map[string]interface{}{
		"status":   models.BookingStatusPaid,
		"short_id": booking.ShortID,
	}).Error; err != nil {
		// The payment row is already PAID; the booking update is retried
		// by a fresh verify call, so log and keep going.
		log.Printf("⚠️ Failed to update booking %d after payment %s: %v", booking.ID, reference, err)
	} else {
		booking.Status = models.BookingStatusPaid
		log.Printf("✅ Booking %d paid, short id %s", booking.ID, shortID)
	}

	publishBookingEvent(queue.KeyBookingPaid, &booking, booking.Customer)

	c.JSON(http.StatusOK, gin.H{
		"success":   true,
		"message":   "Payment verified",
		"bookingId": booking.ID,
		"shortId":   shortID,
		"status":    booking.Status,
	})
}

// ensureShortID assigns a short id to the booking if it does not have one,
// retrying on the (vanishingly rare) collision with the unique index.
func ensureShortID(booking *models.Booking) string {
	if booking.ShortID != nil {
		return *booking.ShortID
	}

	for attempt := 0; attempt < 3; attempt++ {
		id, err := utils.GenerateShortID()
		if err != nil {
			log.Printf("⚠️ Short id generation failed: %v", err)
			return ""
		}
		var count int64
		database.DB.Model(&models.Booking{}).Where("short_id = ?", id).Count(&count)
		if count == 0 {
			booking.ShortID = &id
			return id
		}
	}

	// Fall back to a timestamped id rather than blocking the payment
	id := "CS-" + time.Now().UTC().Format("20060102150405")
	booking.ShortID = &id
	return id
}

// amountsDiverge reports whether an open payment no longer matches the
// booking total. Differences under one major unit are gateway charge
// granularity, not a reprice.
func amountsDiverge(paymentMinor, bookingMinor int64) bool {
	diff := paymentMinor - bookingMinor
	if diff < 0 {
		diff = -diff
	}
	return diff >= 100
}

func gatewayMessage(result *services.VerifyResult) string {
	if result.Message != "" {
		return result.Message
	}
	return "Payment was not completed"
}

// paymentContact resolves the name and email handed to the gateway for the
// checkout page. Guests have no account, so fall back to placeholders.
func paymentContact(booking *models.Booking) (string, string) {
	if booking.CustomerID != nil {
		var customer models.User
		if err := database.DB.First(&customer, *booking.CustomerID).Error; err == nil {
			return customer.FullName, customer.Email
		}
	}
	return "Guest", "guest@cleaning-service.local"
}
