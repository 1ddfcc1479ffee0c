package models

import "github.com/google/uuid"

// NewID returns a fresh record identifier. Both storage backends use the same string ids.
func NewID() string {
	return uuid.NewString()
}
