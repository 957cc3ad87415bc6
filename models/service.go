package models

import (
	"time"

	"gorm.io/gorm"
)

// Service represents a cleaning service offered on the marketplace
type Service struct {
	ID             uint           `json:"id" gorm:"primaryKey"`
	Name           string         `json:"name" gorm:"type:varchar(200);not null"`
	Slug           string         `json:"slug" gorm:"type:varchar(200);uniqueIndex;not null"`
	Description    string         `json:"description" gorm:"type:text"`
	BaseFee        float64        `json:"base_fee" gorm:"type:decimal(10,2);not null"`
	PricePerBedroom  float64      `json:"price_per_bedroom" gorm:"type:decimal(10,2);not null;default:0"`
	PricePerBathroom float64      `json:"price_per_bathroom" gorm:"type:decimal(10,2);not null;default:0"`
	DurationMinutes int           `json:"duration_minutes" gorm:"type:int"`
	ImageURL       string         `json:"image_url" gorm:"type:varchar(255)"`
	IsActive       bool           `json:"is_active" gorm:"default:true"`
	SortOrder      int            `json:"sort_order" gorm:"default:0"`
	CreatedAt      time.Time      `json:"created_at"`
	UpdatedAt      time.Time      `json:"updated_at"`
	DeletedAt      gorm.DeletedAt `json:"deleted_at,omitempty" gorm:"index"`
}

// TableName specifies the table name for the Service model
func (Service) TableName() string {
	return "services"
}

// ServiceExtra is an optional add-on a customer can attach to a booking
// (oven clean, inside windows, fridge, etc.)
type ServiceExtra struct {
	ID          uint           `json:"id" gorm:"primaryKey"`
	Name        string         `json:"name" gorm:"type:varchar(200);not null"`
	Description string         `json:"description" gorm:"type:text"`
	Price       float64        `json:"price" gorm:"type:decimal(10,2);not null"`
	IsActive    bool           `json:"is_active" gorm:"default:true"`
	SortOrder   int            `json:"sort_order" gorm:"default:0"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
	DeletedAt   gorm.DeletedAt `json:"deleted_at,omitempty" gorm:"index"`
}

// TableName specifies the table name for the ServiceExtra model
func (ServiceExtra) TableName() string {
	return "service_extras"
}

// ServiceRequest represents the request structure for creating/updating services
type ServiceRequest struct {
	Name             string  `json:"name" binding:"required"`
	Slug             string  `json:"slug" binding:"required"`
	Description      string  `json:"description"`
	BaseFee          float64 `json:"base_fee" binding:"required"`
	PricePerBedroom  float64 `json:"price_per_bedroom"`
	PricePerBathroom float64 `json:"price_per_bathroom"`
	DurationMinutes  int     `json:"duration_minutes"`
	ImageURL         string  `json:"image_url"`
}
