// Package jwt issues and verifies the bearer tokens that guard the wauth HTTP API.
//
// Tokens are HS512 signed. The subject names the holder (for example the
// operator who ran "wauth token") and Scope lists what it may do, space separated.
package jwt
