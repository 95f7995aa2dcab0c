package models

import (
	"time"
)

// Comment is a geotagged note pinned to a map coordinate. Comments may be
// anonymous: UserID is nil when the author was not logged in, and it is
// nulled out (content preserved) if the owning user is ever removed.
type Comment struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	UserID    *uint     `gorm:"index" json:"user_id"`
	User      *User     `gorm:"constraint:OnUpdate:CASCADE,OnDelete:SET NULL;" json:"-"`
	Name      string    `gorm:"not null" json:"name"` // Display name, may diverge from the username
	Text      string    `gorm:"type:text;not null" json:"text"`
	ImgURL    *string   `json:"img_url"` // Bare filename token, nil when no image
	Lat       float64   `gorm:"not null;index:idx_comments_lat_lng" json:"lat"`
	Lng       float64   `gorm:"not null;index:idx_comments_lat_lng" json:"lng"`
	CreatedAt time.Time `json:"created_at"`
}
