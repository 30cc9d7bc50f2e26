package otp

import (
	"crypto/hmac"
	"crypto/sha1" //nolint:gosec // RFC 6238 default algorithm
	"encoding/base32"
	"encoding/binary"
	"errors"
	"fmt"
	"strings"
	"time"
)

const (
	// Period is the length of a time step in seconds.
	Period = 30
	// Digits is the number of decimal digits in a generated code.
	Digits = 6

	modulo = 1_000_000
)

// ErrInvalidSecret is returned when a secret is not decodable Base32 or decodes to no key bytes.
var ErrInvalidSecret = errors.New("otp: invalid base32 secret")

// GenerateCode returns the 6-digit code for secret at the given time.
//
// The secret is RFC 4648 Base32; padding is optional and lowercase letters
// are accepted.
func GenerateCode(secret string, at time.Time) (string, error) {
	key, err := decodeSecret(secret)
	if err != nil {
		return "", err
	}

	var msg [8]byte
	binary.BigEndian.PutUint64(msg[:], uint64(counter(at.Unix())))

	mac := hmac.New(sha1.New, key)
	mac.Write(msg[:])
	sum := mac.Sum(nil)

	offset := sum[len(sum)-1] & 0x0f
	value := binary.BigEndian.Uint32(sum[offset:offset+4]) & 0x7fffffff

	return fmt.Sprintf("%0*d", Digits, value%modulo), nil
}

// RemainingSeconds returns how many seconds the code for at stays valid, in [1, 30].
func RemainingSeconds(at time.Time) int {
	rem := at.Unix() % Period
	if rem < 0 {
		rem += Period
	}
	return int(Period - rem)
}

func counter(unix int64) int64 {
	step := unix / Period
	if unix%Period < 0 {
		step--
	}
	return step
}

func decodeSecret(secret string) ([]byte, error) {
	s := strings.ToUpper(strings.TrimSpace(secret))

	enc := base32.StdEncoding.WithPadding(base32.NoPadding)
	if strings.HasSuffix(s, "=") {
		enc = base32.StdEncoding
	}

	key, err := enc.DecodeString(s)
	if err != nil || len(key) == 0 {
		return nil, ErrInvalidSecret
	}

	return key, nil
}
