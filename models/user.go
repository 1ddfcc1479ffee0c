package models

import (
	"time"

	"gorm.io/gorm"
)

const (
	RoleUser  = "user"
	RoleAdmin = "admin"

	MembershipNone   = "Non-Member"
	MembershipMember = "Member"

	// UnlimitedPosts is the post limit stored for members.
	UnlimitedPosts = -1
)

// User represents a forum account keyed by email. Records are created on first login and never deleted.
type User struct {
	ID         string    `gorm:"primaryKey;size:36" bson:"_id" json:"_id"`
	Email      string    `gorm:"uniqueIndex;size:255;not null" bson:"email" json:"email"`
	Name       string    `gorm:"size:128" bson:"name" json:"name"`
	Image      string    `gorm:"size:512" bson:"image" json:"image"`
	Role       string    `gorm:"size:16;default:'user'" bson:"role" json:"role"`
	Membership string    `gorm:"size:32;default:'Non-Member'" bson:"membership" json:"membership"`
	PostLimit  int       `gorm:"not null" bson:"postLimit" json:"postLimit"`
	CreatedAt  time.Time `bson:"createdAt" json:"createdAt"`
}

// CanPost reports whether a user who already owns count posts may create another one.
func (u *User) CanPost(count int64) bool {
	if u.PostLimit == UnlimitedPosts {
		return true
	}
	return count < int64(u.PostLimit)
}

// BeforeCreate hook ensures id and timestamps are set even when not provided.
func (u *User) BeforeCreate(tx *gorm.DB) error {
	u.Prepare(time.Now().UTC())
	return nil
}

// Prepare fills identifiers and defaults prior to insertion.
func (u *User) Prepare(now time.Time) {
	if u.ID == "" {
		u.ID = NewID()
	}
	if u.CreatedAt.IsZero() {
		u.CreatedAt = now
	}
	if u.Role == "" {
		u.Role = RoleUser
	}
	if u.Membership == "" {
		u.Membership = MembershipNone
	}
}
