package entity

import "time"

// Site is a stored (site name, secret) pair.
type Site struct {
	Name   string
	Secret string
}

// Code is a generated one-time code together with its validity window.
type Code struct {
	SiteName         string
	Code             string
	RemainingSeconds int
	GeneratedAt      time.Time
}

// GeneratedSecret is a freshly created secret with its provisioning URI.
type GeneratedSecret struct {
	SiteName string
	Secret   string
	URI      string
}
