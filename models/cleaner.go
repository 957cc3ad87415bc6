package models

import (
	"time"
)

// CleanerProfile holds the marketplace-facing profile of a user with the
// CLEANER role. Assignment picks among available profiles serving the
// booking's area.
type CleanerProfile struct {
	ID          uint      `json:"id" gorm:"primaryKey"`
	UserID      uint      `json:"user_id" gorm:"uniqueIndex;not null"`
	Bio         string    `json:"bio" gorm:"type:text"`
	PhotoURL    string    `json:"photo_url" gorm:"size:255"`
	// No column default here: gorm skips zero-value fields that carry a
	// default tag on insert, which would turn IsAvailable=false into true.
	// New profiles set the flag explicitly instead.
	IsAvailable bool      `json:"is_available" gorm:"index"`
	Rating      float64   `json:"rating" gorm:"type:decimal(3,2);default:0"`
	JobsDone    int       `json:"jobs_done" gorm:"default:0"`
	CreatedAt   time.Time `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt   time.Time `json:"updated_at" gorm:"autoUpdateTime"`

	// Relationships
	User  User   `json:"user,omitempty" gorm:"foreignKey:UserID"`
	Areas []Area `json:"areas,omitempty" gorm:"many2many:cleaner_areas"`
}

// TableName specifies the table name for the CleanerProfile model
func (CleanerProfile) TableName() string {
	return "cleaner_profiles"
}

// CleanerProfileRequest represents the request structure for creating or
// updating a cleaner profile
type CleanerProfileRequest struct {
	Bio     string `json:"bio"`
	AreaIDs []uint `json:"area_ids"`
}
