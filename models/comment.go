package models

import (
	"time"

	"gorm.io/gorm"
)

// Comment represents a reply to a post. PostTitle is kept for title-based lookups.
type Comment struct {
	ID          string    `gorm:"primaryKey;size:36" bson:"_id" json:"_id"`
	PostID      string    `gorm:"index;size:36;not null" bson:"postId" json:"postId"`
	PostTitle   string    `gorm:"index;size:255" bson:"postTitle" json:"postTitle"`
	AuthorEmail string    `gorm:"size:255" bson:"authorEmail" json:"authorEmail"`
	AuthorName  string    `gorm:"size:128" bson:"authorName" json:"authorName"`
	Body        string    `gorm:"type:text;not null" bson:"comment" json:"comment"`
	CreatedAt   time.Time `bson:"createdAt" json:"createdAt"`
}

func (c *Comment) BeforeCreate(tx *gorm.DB) error {
	c.Prepare(time.Now().UTC())
	return nil
}

func (c *Comment) Prepare(now time.Time) {
	if c.ID == "" {
		c.ID = NewID()
	}
	if c.CreatedAt.IsZero() {
		c.CreatedAt = now
	}
}
