package models

import (
	"time"

	"gorm.io/datatypes"
)

type PaymentStatus string

const (
	PaymentStatusInitialized PaymentStatus = "INITIALIZED"
	PaymentStatusPaid        PaymentStatus = "PAID"
	PaymentStatusFailed      PaymentStatus = "FAILED"
)

// Payment is the record created before redirecting the customer to the
// gateway and reconciled by the verification handler on callback. The
// reference is the gateway-facing key; amount is stored in minor units so
// the verify step can compare exactly, never through floats.
type Payment struct {
	ID             uint           `json:"id" gorm:"primaryKey"`
	BookingID      uint           `json:"booking_id" gorm:"not null;index"`
	Reference      string         `json:"reference" gorm:"size:64;uniqueIndex;not null"`
	AmountMinor    int64          `json:"amount_minor" gorm:"not null"`
	Currency       string         `json:"currency" gorm:"size:3;not null"`
	Status         PaymentStatus  `json:"status" gorm:"type:varchar(20);not null;default:'INITIALIZED';check:status IN ('INITIALIZED','PAID','FAILED')"`
	TransactionID  string         `json:"transaction_id" gorm:"size:100"`
	GatewayPayload datatypes.JSON `json:"gateway_payload,omitempty"`
	CreatedAt      time.Time      `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt      time.Time      `json:"updated_at" gorm:"autoUpdateTime"`

	// Relationships
	Booking Booking `json:"booking,omitempty" gorm:"foreignKey:BookingID"`
}

// TableName specifies the table name for the Payment model
func (Payment) TableName() string {
	return "payments"
}
