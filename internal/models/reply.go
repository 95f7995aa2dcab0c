package models

import (
	"time"
)

// Reply belongs to exactly one comment and cannot outlive it: deleting the
// parent comment cascades to its replies. Ownership degrades to null like
// comments do.
type Reply struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	CommentID uint      `gorm:"not null;index" json:"comment_id"`
	Comment   *Comment  `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"-"`
	UserID    *uint     `gorm:"index" json:"user_id"`
	User      *User     `gorm:"constraint:OnUpdate:CASCADE,OnDelete:SET NULL;" json:"-"`
	Name      string    `gorm:"not null" json:"name"`
	Text      string    `gorm:"type:text;not null" json:"text"`
	ImgURL    *string   `json:"img_url"`
	CreatedAt time.Time `json:"created_at"`
}
