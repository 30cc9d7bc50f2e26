package validator

import (
	"errors"
	"strings"
	"testing"
)

func TestV10Validator_Validate(t *testing.T) {
	v, err := NewV10Validator()
	if err != nil {
		t.Fatalf("NewV10Validator error: %v", err)
	}

	type input struct {
		SiteName string `json:"site_name" validate:"notblank,max=100,sitename"`
		Secret   string `json:"secret" validate:"notblank,base32block,min=16"`
	}

	if err := v.Validate(input{SiteName: "github", Secret: "JBSWY3DPEHPK3PXP"}); err != nil {
		t.Fatalf("expected valid input, got %v", err)
	}

	err = v.Validate(input{SiteName: "git hub", Secret: "jbswy3dpehpk3pxp"})
	var verr V10ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("expected V10ValidationError, got %T (%v)", err, err)
	}
	if _, ok := verr.Values()["site_name"]; !ok {
		t.Fatalf("expected site_name key, got %v", verr.Values())
	}
	if msg := verr.Values()["secret"]; !strings.Contains(msg, "Base32") {
		t.Fatalf("unexpected secret message: %q", msg)
	}
}

func TestV10Validator_VarFirstFailingTag(t *testing.T) {
	v, err := NewV10Validator()
	if err != nil {
		t.Fatalf("NewV10Validator error: %v", err)
	}

	tests := []struct {
		name    string
		value   string
		tag     string
		wantTag string
	}{
		{name: "blank", value: "   ", tag: "notblank,max=100,sitename", wantTag: "notblank"},
		{name: "too long", value: strings.Repeat("a", 101), tag: "notblank,max=100,sitename", wantTag: "max"},
		{name: "too long and bad chars", value: strings.Repeat("!", 101), tag: "notblank,max=100,sitename", wantTag: "max"},
		{name: "bad chars", value: "my site", tag: "notblank,max=100,sitename", wantTag: "sitename"},
		{name: "base32 before length", value: "abc", tag: "notblank,base32block,min=16", wantTag: "base32block"},
		{name: "length not multiple of 8", value: "JBSWY3DPEHPK3PX", tag: "notblank,base32block,min=16", wantTag: "base32block"},
		{name: "short", value: "JBSWY3DP", tag: "notblank,base32block,min=16", wantTag: "min"},
		{name: "ok", value: "JBSWY3DPEHPK3PXP", tag: "notblank,base32block,min=16", wantTag: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := v.Var("field", tt.value, tt.tag)
			if tt.wantTag == "" {
				if err != nil {
					t.Fatalf("expected no error, got %v", err)
				}
				return
			}

			var fe *FieldError
			if !errors.As(err, &fe) {
				t.Fatalf("expected *FieldError, got %T (%v)", err, err)
			}
			if fe.Tag != tt.wantTag {
				t.Fatalf("Tag = %s, want %s", fe.Tag, tt.wantTag)
			}
			if fe.Field != "field" || !strings.HasPrefix(fe.Message, "field ") {
				t.Fatalf("unexpected field error: %+v", fe)
			}
		})
	}
}

func TestIsBase32Block(t *testing.T) {
	tests := map[string]bool{
		"JBSWY3DPEHPK3PXP":         true,
		"GEZDGNBVGY3TQOJQ":         true,
		"JBSWY3DPEE======":         true,
		"JBSWY3DPEE":               false,
		"jbswy3dpehpk3pxp":         false,
		"JBSWY3DP=EHPK3PX":         false,
		"JBSWY3D1":                 false,
		"":                         false,
		"GEZDGNBVGY3TQOJQGEZDGNBV": true,
	}

	for in, want := range tests {
		if got := IsBase32Block(in); got != want {
			t.Fatalf("IsBase32Block(%q) = %v, want %v", in, got, want)
		}
	}
}
