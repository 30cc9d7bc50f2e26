package goerror

import (
	"errors"
	"net/http"
	"testing"
)

func TestError_StatusCode(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{name: "server", err: NewServer(errors.New("boom")), want: http.StatusInternalServerError},
		{name: "not found", err: NewBusiness("missing", CodeNotFound), want: http.StatusNotFound},
		{name: "conflict", err: NewBusiness("dup", CodeConflict), want: http.StatusConflict},
		{name: "invalid input", err: NewInvalidInput(errors.New("bad")), want: http.StatusUnprocessableEntity},
		{name: "invalid secret", err: NewBusiness("bad secret", CodeInvalidSecret), want: http.StatusUnprocessableEntity},
		{name: "invalid format", err: NewInvalidFormat(), want: http.StatusBadRequest},
		{name: "unauthorized", err: NewBusiness("Authentication required", CodeUnauthorized), want: http.StatusUnauthorized},
		{name: "forbidden", err: NewBusiness("Insufficient scope", CodeForbidden), want: http.StatusForbidden},
		{name: "unknown code", err: NewBusiness("?", Code(99)), want: http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var gerr *Error
			if !errors.As(tt.err, &gerr) {
				t.Fatalf("expected *Error, got %T", tt.err)
			}
			if got := gerr.StatusCode(); got != tt.want {
				t.Fatalf("StatusCode() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestNewBusinessCause(t *testing.T) {
	cause := errors.New("site exists")

	err := NewBusinessCause(cause, "Site name 'github' already exists", CodeConflict, "site_name", "Site name 'github' already exists")

	var gerr *Error
	if !errors.As(err, &gerr) {
		t.Fatalf("expected *Error, got %T", err)
	}
	if !errors.Is(err, cause) {
		t.Fatalf("expected cause to be reachable")
	}
	if gerr.Type() != TypeBusiness || gerr.Code() != CodeConflict {
		t.Fatalf("unexpected type/code: %s/%s", gerr.Type(), gerr.Code())
	}
	if gerr.Msg() != "Site name 'github' already exists" {
		t.Fatalf("unexpected msg: %s", gerr.Msg())
	}
	if gerr.Fields()["site_name"] == "" {
		t.Fatalf("expected site_name field, got %v", gerr.Fields())
	}
	if err.Error() != "site exists" {
		t.Fatalf("Error() = %q, want cause text", err.Error())
	}
}

func TestNewInvalidInput_Fields(t *testing.T) {
	err := NewInvalidInput(nil, "secret", "Secret cannot be empty")

	var gerr *Error
	if !errors.As(err, &gerr) {
		t.Fatalf("expected *Error, got %T", err)
	}
	if gerr.Code() != CodeInvalidInput {
		t.Fatalf("Code() = %s, want %s", gerr.Code(), CodeInvalidInput)
	}
	if gerr.Fields()["secret"] != "Secret cannot be empty" {
		t.Fatalf("unexpected fields: %v", gerr.Fields())
	}

	odd := NewInvalidInput(nil, "secret")
	if !errors.As(odd, &gerr) || gerr.Code() != CodeInvalidFormat {
		t.Fatalf("expected invalid format for odd kv, got %v", odd)
	}
}
