// Package otp generates time-based one-time passwords (TOTP, RFC 6238).
//
// Codes are always HMAC-SHA1 over a 30-second step and 6 digits long, which
// is what authenticator apps expect for the secrets stored by wauth. The
// current time is an explicit argument so callers control the clock.
package otp
