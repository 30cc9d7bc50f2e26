// Package clock lets the TOTP code path and token signing read time through
// an interface, so tests can pin the instant a code is computed for.
package clock

import "time"

type Clocker interface {
	Now() time.Time
}

// TimeClocker reads the system clock.
type TimeClocker struct{}

func New() *TimeClocker { return &TimeClocker{} }

func (*TimeClocker) Now() time.Time { return time.Now() }

// FixedClocker always reports the instant it was built with.
type FixedClocker struct {
	at time.Time
}

func NewFixed(t time.Time) *FixedClocker { return &FixedClocker{at: t} }

func (f *FixedClocker) Now() time.Time { return f.at }
