package models

import (
	"time"

	"gorm.io/gorm"
)

// Area is a serviced suburb. Its price adjustment percentage scales the
// quoted total for bookings in that area (travel distance, demand).
type Area struct {
	ID                 uint           `json:"id" gorm:"primaryKey"`
	Name               string         `json:"name" gorm:"type:varchar(100);not null"`
	Suburb             string         `json:"suburb" gorm:"type:varchar(100);not null"`
	State              string         `json:"state" gorm:"type:varchar(10)"`
	PriceAdjustmentPct float64        `json:"price_adjustment_pct" gorm:"type:decimal(5,2);not null;default:0"`
	IsActive           bool           `json:"is_active" gorm:"default:true"`
	CreatedAt          time.Time      `json:"created_at"`
	UpdatedAt          time.Time      `json:"updated_at"`
	DeletedAt          gorm.DeletedAt `json:"deleted_at,omitempty" gorm:"index"`
}

// TableName specifies the table name for the Area model
func (Area) TableName() string {
	return "areas"
}
