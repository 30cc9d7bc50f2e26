package otp

import (
	"errors"
	"strings"
	"testing"
	"time"

	libOTP "github.com/pquerna/otp"
	"github.com/pquerna/otp/totp"
)

// Base32 of the RFC 6238 SHA-1 seed "12345678901234567890".
const rfcSecret = "GEZDGNBVGY3TQOJQGEZDGNBVGY3TQOJQ"

func TestGenerateCode_RFC6238Vectors(t *testing.T) {
	tests := []struct {
		unix int64
		want string
	}{
		{unix: 59, want: "287082"},
		{unix: 1111111109, want: "081804"},
		{unix: 1111111111, want: "050471"},
		{unix: 1234567890, want: "005924"},
		{unix: 2000000000, want: "279037"},
		{unix: 20000000000, want: "353130"},
	}

	for _, tt := range tests {
		got, err := GenerateCode(rfcSecret, time.Unix(tt.unix, 0).UTC())
		if err != nil {
			t.Fatalf("GenerateCode(%d) error: %v", tt.unix, err)
		}
		if got != tt.want {
			t.Fatalf("GenerateCode(%d) = %s, want %s", tt.unix, got, tt.want)
		}
	}
}

func TestGenerateCode_MatchesPquerna(t *testing.T) {
	secrets := []string{
		rfcSecret,
		"GEZDGNBVGY3TQOJQ",
		"JBSWY3DPEHPK3PXP",
		"JBSWY3DPEHPK3PXPJBSWY3DPEHPK3PXP",
	}
	times := []int64{0, 1, 29, 30, 59, 60, 1700000000, 1700000029, 1700000030, 4102444800}

	for _, secret := range secrets {
		for _, unix := range times {
			at := time.Unix(unix, 0).UTC()

			want, err := totp.GenerateCodeCustom(secret, at, totp.ValidateOpts{
				Period:    Period,
				Digits:    libOTP.DigitsSix,
				Algorithm: libOTP.AlgorithmSHA1,
			})
			if err != nil {
				t.Fatalf("pquerna GenerateCodeCustom(%s, %d) error: %v", secret, unix, err)
			}

			got, err := GenerateCode(secret, at)
			if err != nil {
				t.Fatalf("GenerateCode(%s, %d) error: %v", secret, unix, err)
			}
			if got != want {
				t.Fatalf("GenerateCode(%s, %d) = %s, want %s", secret, unix, got, want)
			}
		}
	}
}

func TestGenerateCode_Deterministic(t *testing.T) {
	at := time.Unix(1700000000, 0)

	first, err := GenerateCode(rfcSecret, at)
	if err != nil {
		t.Fatalf("GenerateCode error: %v", err)
	}

	for i := range 5 {
		again, err := GenerateCode(rfcSecret, at.Add(time.Duration(i)*time.Second))
		if err != nil {
			t.Fatalf("GenerateCode error: %v", err)
		}
		if again != first {
			t.Fatalf("code changed within the same step: %s != %s", again, first)
		}
	}

	if len(first) != Digits {
		t.Fatalf("code length = %d, want %d", len(first), Digits)
	}
}

func TestGenerateCode_SecretForms(t *testing.T) {
	at := time.Unix(59, 0)

	forms := []string{
		rfcSecret,
		strings.ToLower(rfcSecret),
		"  " + rfcSecret + "  ",
	}
	for _, secret := range forms {
		got, err := GenerateCode(secret, at)
		if err != nil {
			t.Fatalf("GenerateCode(%q) error: %v", secret, err)
		}
		if got != "287082" {
			t.Fatalf("GenerateCode(%q) = %s, want 287082", secret, got)
		}
	}

	// "JBSWY3DPEE" is 10 characters and needs padding to a multiple of 8.
	unpadded, err := GenerateCode("JBSWY3DPEE", at)
	if err != nil {
		t.Fatalf("GenerateCode unpadded error: %v", err)
	}
	padded, err := GenerateCode("JBSWY3DPEE======", at)
	if err != nil {
		t.Fatalf("GenerateCode padded error: %v", err)
	}
	if unpadded != padded {
		t.Fatalf("padded and unpadded secrets differ: %s != %s", padded, unpadded)
	}
}

func TestGenerateCode_InvalidSecret(t *testing.T) {
	tests := []struct {
		name   string
		secret string
	}{
		{name: "empty", secret: ""},
		{name: "blank", secret: "   "},
		{name: "invalid alphabet", secret: "ABC!DEFG"},
		{name: "digits outside base32", secret: "ABCDEFG1"},
		{name: "bad padding", secret: "JBSWY3DP=EHPK3PX"},
		{name: "two pad characters", secret: "AAAAAAAAAAAAAA=="},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := GenerateCode(tt.secret, time.Unix(59, 0))
			if !errors.Is(err, ErrInvalidSecret) {
				t.Fatalf("expected ErrInvalidSecret, got %v", err)
			}
		})
	}
}

func TestRemainingSeconds(t *testing.T) {
	tests := []struct {
		unix int64
		want int
	}{
		{unix: 0, want: 30},
		{unix: 1, want: 29},
		{unix: 29, want: 1},
		{unix: 30, want: 30},
		{unix: 59, want: 1},
		{unix: 1111111109, want: 1},
		{unix: 1700000015, want: 15},
		{unix: -1, want: 1},
		{unix: -30, want: 30},
	}

	for _, tt := range tests {
		if got := RemainingSeconds(time.Unix(tt.unix, 0)); got != tt.want {
			t.Fatalf("RemainingSeconds(%d) = %d, want %d", tt.unix, got, tt.want)
		}
	}

	for unix := int64(0); unix < 120; unix++ {
		got := RemainingSeconds(time.Unix(unix, 0))
		if got < 1 || got > Period {
			t.Fatalf("RemainingSeconds(%d) = %d out of range", unix, got)
		}
	}
}

func TestTOTP_Generate(t *testing.T) {
	o := NewTOTP("wauth")

	secret, uri, err := o.Generate("github")
	if err != nil {
		t.Fatalf("Generate error: %v", err)
	}
	if len(secret) != 32 {
		t.Fatalf("secret length = %d, want 32", len(secret))
	}
	if !strings.HasPrefix(uri, "otpauth://totp/") || !strings.Contains(uri, "issuer=wauth") {
		t.Fatalf("unexpected uri: %s", uri)
	}

	now := time.Now()
	code, err := o.GenerateCode(secret, now)
	if err != nil {
		t.Fatalf("GenerateCode error: %v", err)
	}
	if !totp.Validate(code, secret) {
		t.Fatalf("pquerna rejected generated code %s", code)
	}
	if _, err := o.GenerateCode("not-base32!", now); !errors.Is(err, ErrInvalidSecret) {
		t.Fatalf("GenerateCode(invalid) error = %v", err)
	}
	if got := o.RemainingSeconds(time.Unix(59, 0)); got != 1 {
		t.Fatalf("RemainingSeconds = %d, want 1", got)
	}
}
