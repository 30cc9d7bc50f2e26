// Package config reads wauth settings from files and the environment.
package config

import (
	"io"
	"time"
)

// Config is the read-only view of wauth settings handed to every component.
// Keys are dotted paths such as "store.driver" or "server.address".
type Config interface {
	io.Closer

	// GetString returns the value for key, or "" when unset.
	GetString(key string) string
	GetBool(key string) bool
	GetInt(key string) int
	GetFloat64(key string) float64

	// GetSecond reads an integer value as a number of seconds.
	GetSecond(key string) time.Duration
	// GetMinute reads an integer value as a number of minutes.
	GetMinute(key string) time.Duration

	// GetArray accepts either a native list or a comma separated string.
	GetArray(key string) []string

	// Require fails with "<key> must be set in environment variables or
	// config file" for the first blank key.
	Require(keys ...string) error
}
