package models

import (
	"time"

	"gorm.io/gorm"
)

// Post is a question posted to the forum. Vote and comment counters are never negative.
type Post struct {
	ID           string    `gorm:"primaryKey;size:36" bson:"_id" json:"_id"`
	AuthorEmail  string    `gorm:"index;size:255;not null" bson:"authorEmail" json:"authorEmail"`
	AuthorName   string    `gorm:"size:128" bson:"authorName" json:"authorName"`
	AuthorImage  string    `gorm:"size:512" bson:"authorImage" json:"authorImage"`
	Title        string    `gorm:"size:255;not null" bson:"title" json:"title"`
	Tag          string    `gorm:"index;size:64" bson:"tag" json:"tag"`
	Description  string    `gorm:"type:text" bson:"description" json:"description"`
	UpVote       int64     `gorm:"not null;default:0" bson:"upVote" json:"upVote"`
	DownVote     int64     `gorm:"not null;default:0" bson:"downVote" json:"downVote"`
	CommentCount int64     `gorm:"not null;default:0" bson:"commentCount" json:"commentCount"`
	CreatedAt    time.Time `gorm:"index" bson:"createdAt" json:"createdAt"`
}

// VoteDirection selects which counter a vote increments.
type VoteDirection string

const (
	VoteUp   VoteDirection = "up"
	VoteDown VoteDirection = "down"
)

// Valid reports whether d is one of the two known directions.
func (d VoteDirection) Valid() bool {
	return d == VoteUp || d == VoteDown
}

func (p *Post) BeforeCreate(tx *gorm.DB) error {
	p.Prepare(time.Now().UTC())
	return nil
}

// Prepare fills identifiers and timestamps prior to insertion.
func (p *Post) Prepare(now time.Time) {
	if p.ID == "" {
		p.ID = NewID()
	}
	if p.CreatedAt.IsZero() {
		p.CreatedAt = now
	}
}
