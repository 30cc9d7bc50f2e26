package otp

import (
	"time"

	"github.com/pquerna/otp"
	"github.com/pquerna/otp/totp"
)

// secretSize is 160 bits, the HMAC-SHA1 key length RFC 4226 recommends. It
// encodes to 32 Base32 characters without padding.
const secretSize = 20

// OTP is what the vault needs from a TOTP implementation.
type OTP interface {
	// Generate returns a fresh Base32 secret and its otpauth:// URI for account.
	Generate(account string) (secret, uri string, err error)
	GenerateCode(secret string, at time.Time) (string, error)
	RemainingSeconds(at time.Time) int
}

// TOTP mints secrets with pquerna/otp and computes codes with GenerateCode.
type TOTP struct {
	issuer string
}

// NewTOTP returns a TOTP whose provisioning URIs name issuer.
func NewTOTP(issuer string) *TOTP {
	return &TOTP{issuer: issuer}
}

func (o *TOTP) Generate(account string) (string, string, error) {
	key, err := totp.Generate(totp.GenerateOpts{
		Issuer:      o.issuer,
		AccountName: account,
		Period:      Period,
		SecretSize:  secretSize,
		Digits:      otp.DigitsSix,
		Algorithm:   otp.AlgorithmSHA1,
	})
	if err != nil {
		return "", "", err
	}
	return key.Secret(), key.URL(), nil
}

func (*TOTP) GenerateCode(secret string, at time.Time) (string, error) {
	return GenerateCode(secret, at)
}

func (*TOTP) RemainingSeconds(at time.Time) int {
	return RemainingSeconds(at)
}
