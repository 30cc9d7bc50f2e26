// Package uid generates identifiers: UUIDs for correlation and token IDs,
// snowflake numbers for events.
package uid

import "github.com/google/uuid"

// StringID generates string identifiers.
type StringID interface {
	Generate() string
}

// NumberID generates numeric identifiers.
type NumberID interface {
	Generate() int64
}

// UUID yields version 7 UUIDs, so correlation ids sort by creation time.
type UUID struct{}

func NewUUID() *UUID { return &UUID{} }

func (*UUID) Generate() string {
	if id, err := uuid.NewV7(); err == nil {
		return id.String()
	}
	// v7 only fails when the random source does
	return uuid.NewString()
}
