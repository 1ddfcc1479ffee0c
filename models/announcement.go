package models

import (
	"time"

	"gorm.io/gorm"
)

// Announcement is an append-only admin notice.
type Announcement struct {
	ID          string    `gorm:"primaryKey;size:36" bson:"_id" json:"_id"`
	AuthorName  string    `gorm:"size:128" bson:"authorName" json:"authorName"`
	AuthorImage string    `gorm:"size:512" bson:"authorImage" json:"authorImage"`
	Title       string    `gorm:"size:255;not null" bson:"title" json:"title"`
	Description string    `gorm:"type:text" bson:"description" json:"description"`
	CreatedAt   time.Time `gorm:"index" bson:"createdAt" json:"createdAt"`
}

func (a *Announcement) BeforeCreate(tx *gorm.DB) error {
	a.Prepare(time.Now().UTC())
	return nil
}

func (a *Announcement) Prepare(now time.Time) {
	if a.ID == "" {
		a.ID = NewID()
	}
	if a.CreatedAt.IsZero() {
		a.CreatedAt = now
	}
}
