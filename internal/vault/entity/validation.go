package entity

import (
	"errors"

	"github.com/watarui/wauth/internal/pkg/validator"
)

const (
	siteNameRules = "notblank,max=100,sitename"
	secretRules   = "notblank,base32block,min=16"
)

var siteNameMessages = map[string]string{
	"notblank": "Site name cannot be empty",
	"max":      "Site name must be 100 characters or less",
	"sitename": "Site name can only contain alphanumeric characters, hyphens, dots, and underscores",
}

var secretMessages = map[string]string{
	"notblank":    "Secret cannot be empty",
	"base32block": "Secret must be a valid Base32 string",
	"min":         "Secret should be at least 16 characters long for security",
}

var defaultValidator = mustValidator()

func mustValidator() *validator.V10Validator {
	v, err := validator.NewV10Validator()
	if err != nil {
		panic(err)
	}
	return v
}

// ValidateSiteName checks, in order: non-blank, at most 100 characters,
// and only [A-Za-z0-9-._]. The first violation is returned.
func ValidateSiteName(name string) error {
	return check(FieldSiteName, name, siteNameRules, siteNameMessages)
}

// ValidateSecret checks, in order: non-blank, upper-case Base32 whose length
// is a multiple of 8, and at least 16 characters. The first violation is returned.
func ValidateSecret(secret string) error {
	return check(FieldSecret, secret, secretRules, secretMessages)
}

func check(field, value, rules string, messages map[string]string) error {
	err := defaultValidator.Var(field, value, rules)
	if err == nil {
		return nil
	}

	var fe *validator.FieldError
	if !errors.As(err, &fe) {
		return err
	}

	msg, ok := messages[fe.Tag]
	if !ok {
		msg = fe.Message
	}

	return &ValidationError{Field: field, Message: msg}
}
