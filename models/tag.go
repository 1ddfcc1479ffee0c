package models

import (
	"time"

	"gorm.io/gorm"
)

// Tag is an admin-curated post category.
type Tag struct {
	ID  string `gorm:"primaryKey;size:36" bson:"_id" json:"_id"`
	Tag string `gorm:"uniqueIndex;size:64;not null" bson:"tag" json:"tag"`
}

func (t *Tag) BeforeCreate(tx *gorm.DB) error {
	if t.ID == "" {
		t.ID = NewID()
	}
	return nil
}

// SearchTag records text a user searched for; Date is refreshed on every search.
type SearchTag struct {
	ID   string    `gorm:"primaryKey;size:36" bson:"_id" json:"_id"`
	Tag  string    `gorm:"uniqueIndex;size:128;not null" bson:"tag" json:"tag"`
	Date time.Time `gorm:"index" bson:"date" json:"date"`
}

// TableName keeps the collection name shared with the document store.
func (SearchTag) TableName() string { return "alltags" }

func (t *SearchTag) BeforeCreate(tx *gorm.DB) error {
	if t.ID == "" {
		t.ID = NewID()
	}
	return nil
}
