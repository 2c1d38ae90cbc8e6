package core

import "github.com/google/uuid"

// NewID returns an opaque string identifier for a new row.
func NewID() string {
	return uuid.NewString()
}
