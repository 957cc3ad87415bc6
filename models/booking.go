package models

import (
	"time"
)

type BookingStatus string

const (
	BookingStatusDraft           BookingStatus = "DRAFT"
	BookingStatusPending         BookingStatus = "PENDING"
	BookingStatusReadyForPayment BookingStatus = "READY_FOR_PAYMENT"
	BookingStatusConfirmed       BookingStatus = "CONFIRMED"
	BookingStatusPaid            BookingStatus = "PAID"
	BookingStatusInProgress      BookingStatus = "IN_PROGRESS"
	BookingStatusCompleted       BookingStatus = "COMPLETED"
	BookingStatusCancelled       BookingStatus = "CANCELLED"
)

// Booking is the central entity of the marketplace. A booking starts life as
// a DRAFT owned by either an authenticated customer (customer_id) or a guest
// session (session_id) - exactly one of the two is set - and moves forward
// through the status lifecycle as the customer completes the booking steps.
type Booking struct {
	ID         uint    `json:"id" gorm:"primaryKey"`
	CustomerID *uint   `json:"customer_id" gorm:"index"`
	SessionID  *string `json:"session_id" gorm:"size:64;index"`
	ServiceID  *uint   `json:"service_id"`
	AreaID     *uint   `json:"area_id"`
	CleanerID  *uint   `json:"cleaner_id"` // Null until assigned

	BookingDate         time.Time     `json:"booking_date"`
	StartTime           string        `json:"start_time" gorm:"size:10"` // e.g. "09:00"
	EndTime             string        `json:"end_time" gorm:"size:10"`
	Status              BookingStatus `json:"status" gorm:"type:varchar(20);not null;default:'DRAFT';index;check:status IN ('DRAFT','PENDING','READY_FOR_PAYMENT','CONFIRMED','PAID','IN_PROGRESS','COMPLETED','CANCELLED')"`
	TotalPrice          float64       `json:"total_price" gorm:"type:decimal(10,2);not null;default:0"`
	Address             string        `json:"address" gorm:"size:500"`
	Postcode            string        `json:"postcode" gorm:"size:10"`
	Bedrooms            int           `json:"bedrooms" gorm:"default:0"`
	Bathrooms           int           `json:"bathrooms" gorm:"default:0"`
	SpecialInstructions string        `json:"special_instructions" gorm:"size:1000"`
	AutoAssign          bool          `json:"auto_assign" gorm:"default:true"`
	ShortID             *string       `json:"short_id" gorm:"size:20;uniqueIndex"` // Assigned at payment time

	CreatedAt time.Time `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt time.Time `json:"updated_at" gorm:"autoUpdateTime"`

	// Relationships
	Customer *User           `json:"customer,omitempty" gorm:"foreignKey:CustomerID"`
	Service  *Service        `json:"service,omitempty" gorm:"foreignKey:ServiceID"`
	Area     *Area           `json:"area,omitempty" gorm:"foreignKey:AreaID"`
	Cleaner  *CleanerProfile `json:"cleaner,omitempty" gorm:"foreignKey:CleanerID"`
	Extras   []ServiceExtra  `json:"extras,omitempty" gorm:"many2many:booking_extras"`
}

// TableName specifies the table name for the Booking model
func (Booking) TableName() string {
	return "bookings"
}

// IsTerminal reports whether the booking can no longer move forward.
func (b *Booking) IsTerminal() bool {
	return b.Status == BookingStatusCompleted || b.Status == BookingStatusCancelled
}

// BookingPatch is the optional-field patch applied to a draft. Nil means
// "leave the field alone"; a non-nil pointer means "set this value".
type BookingPatch struct {
	ServiceID           *uint    `json:"serviceId"`
	AreaID              *uint    `json:"areaId"`
	BookingDate         *string  `json:"bookingDate"` // "2006-01-02"
	StartTime           *string  `json:"startTime"`
	EndTime             *string  `json:"endTime"`
	Address             *string  `json:"address"`
	Postcode            *string  `json:"postcode"`
	Bedrooms            *int     `json:"bedrooms"`
	Bathrooms           *int     `json:"bathrooms"`
	SpecialInstructions *string  `json:"specialInstructions"`
	AutoAssign          *bool    `json:"autoAssign"`
	ExtraIDs            []uint   `json:"extraIds"`
	TotalPrice          *float64 `json:"totalPrice"`
}

// HasAny reports whether the patch sets at least one field.
func (p *BookingPatch) HasAny() bool {
	return p.ServiceID != nil || p.AreaID != nil || p.BookingDate != nil ||
		p.StartTime != nil || p.EndTime != nil || p.Address != nil ||
		p.Postcode != nil || p.Bedrooms != nil || p.Bathrooms != nil ||
		p.SpecialInstructions != nil || p.AutoAssign != nil ||
		p.TotalPrice != nil || len(p.ExtraIDs) > 0
}
