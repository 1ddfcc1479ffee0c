package models

import (
	"time"

	"gorm.io/gorm"
)

// Feedback is free text left by a visitor, optionally with a 1-5 rating.
type Feedback struct {
	ID        string    `gorm:"primaryKey;size:36" bson:"_id" json:"_id"`
	Email     string    `gorm:"size:255" bson:"email,omitempty" json:"email,omitempty"`
	Feedback  string    `gorm:"type:text;not null" bson:"feedback" json:"feedback"`
	Rating    *int      `bson:"rating,omitempty" json:"rating,omitempty"`
	CreatedAt time.Time `bson:"createdAt" json:"createdAt"`
}

// TableName keeps the singular collection name.
func (Feedback) TableName() string { return "feedback" }

func (f *Feedback) BeforeCreate(tx *gorm.DB) error {
	f.Prepare(time.Now().UTC())
	return nil
}

func (f *Feedback) Prepare(now time.Time) {
	if f.ID == "" {
		f.ID = NewID()
	}
	if f.CreatedAt.IsZero() {
		f.CreatedAt = now
	}
}
