package entity

import (
	"errors"
	"strings"
	"testing"
)

func TestValidateSiteName(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantMsg string
	}{
		{name: "empty", input: "", wantMsg: "Site name cannot be empty"},
		{name: "whitespace only", input: " \t ", wantMsg: "Site name cannot be empty"},
		{name: "101 characters", input: strings.Repeat("a", 101), wantMsg: "Site name must be 100 characters or less"},
		{name: "length checked before charset", input: strings.Repeat("!", 101), wantMsg: "Site name must be 100 characters or less"},
		{name: "space and bang", input: "bad name!", wantMsg: "Site name can only contain alphanumeric characters, hyphens, dots, and underscores"},
		{name: "slash", input: "a/b", wantMsg: "Site name can only contain alphanumeric characters, hyphens, dots, and underscores"},
		{name: "hostname", input: "github.com-2", wantMsg: ""},
		{name: "underscore", input: "my_site", wantMsg: ""},
		{name: "exactly 100", input: strings.Repeat("a", 100), wantMsg: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateSiteName(tt.input)
			if tt.wantMsg == "" {
				if err != nil {
					t.Fatalf("expected no error, got %v", err)
				}
				return
			}

			var verr *ValidationError
			if !errors.As(err, &verr) {
				t.Fatalf("expected *ValidationError, got %T (%v)", err, err)
			}
			if verr.Field != FieldSiteName {
				t.Fatalf("Field = %s, want %s", verr.Field, FieldSiteName)
			}
			if verr.Message != tt.wantMsg {
				t.Fatalf("Message = %q, want %q", verr.Message, tt.wantMsg)
			}
		})
	}
}

func TestValidateSecret(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantMsg string
	}{
		{name: "empty", input: "", wantMsg: "Secret cannot be empty"},
		{name: "blank", input: "    ", wantMsg: "Secret cannot be empty"},
		{name: "short lowercase", input: "short", wantMsg: "Secret must be a valid Base32 string"},
		{name: "lowercase", input: "jbswy3dpehpk3pxp", wantMsg: "Secret must be a valid Base32 string"},
		{name: "not aligned", input: "JBSWY3DPEHPK3PXPA", wantMsg: "Secret must be a valid Base32 string"},
		{name: "padding in the middle", input: "JBSWY3DP=EHPK3PX", wantMsg: "Secret must be a valid Base32 string"},
		{name: "eight characters", input: "ABCDEFGH", wantMsg: "Secret should be at least 16 characters long for security"},
		{name: "sixteen characters", input: "JBSWY3DPEHPK3PXP", wantMsg: ""},
		{name: "thirty two characters", input: "GEZDGNBVGY3TQOJQGEZDGNBVGY3TQOJQ", wantMsg: ""},
		{name: "padded", input: "JBSWY3DPEHPK3===", wantMsg: ""},
		// accepted by the block rule although two pad characters is not a legal
		// Base32 tail; code generation rejects it with ErrInvalidSecret
		{name: "two pad characters", input: "AAAAAAAAAAAAAA==", wantMsg: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateSecret(tt.input)
			if tt.wantMsg == "" {
				if err != nil {
					t.Fatalf("expected no error, got %v", err)
				}
				return
			}

			var verr *ValidationError
			if !errors.As(err, &verr) {
				t.Fatalf("expected *ValidationError, got %T (%v)", err, err)
			}
			if verr.Field != FieldSecret {
				t.Fatalf("Field = %s, want %s", verr.Field, FieldSecret)
			}
			if verr.Message != tt.wantMsg {
				t.Fatalf("Message = %q, want %q", verr.Message, tt.wantMsg)
			}
		})
	}
}

func TestValidationError_Format(t *testing.T) {
	err := ValidateSiteName("")
	if got := err.Error(); got != "Validation error for site_name: Site name cannot be empty" {
		t.Fatalf("Error() = %q", got)
	}

	dup := NewDuplicateSiteNameError("acme")
	if !errors.Is(dup, ErrDuplicateSiteName) {
		t.Fatalf("expected duplicate error to match ErrDuplicateSiteName")
	}
	if got := dup.Error(); got != "Validation error for site_name: Site name 'acme' already exists" {
		t.Fatalf("Error() = %q", got)
	}
	if got := dup.Values()[FieldSiteName]; got != "Site name 'acme' already exists" {
		t.Fatalf("Values() = %v", dup.Values())
	}
}
