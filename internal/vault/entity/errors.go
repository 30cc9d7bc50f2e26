package entity

import (
	"errors"
	"fmt"
)

const (
	// FieldSiteName is the field name reported for site name violations.
	FieldSiteName = "site_name"
	// FieldSecret is the field name reported for secret violations.
	FieldSecret = "secret"
)

var (
	// ErrDuplicateSiteName marks an add for a site name that is already stored.
	ErrDuplicateSiteName = errors.New("site name already exists")
	// ErrSiteNotFound marks a lookup for a site that is not stored.
	ErrSiteNotFound = errors.New("site not found")
)

// ValidationError reports the first rule a site name or secret failed.
type ValidationError struct {
	Field   string
	Message string

	cause error
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	return fmt.Sprintf("Validation error for %s: %s", e.Field, e.Message)
}

// Unwrap exposes the sentinel behind a duplicate site name, if any.
func (e *ValidationError) Unwrap() error {
	return e.cause
}

// Values returns the violation as a field-to-message map.
func (e *ValidationError) Values() map[string]string {
	return map[string]string{e.Field: e.Message}
}

// NewDuplicateSiteNameError reports that name is already registered.
func NewDuplicateSiteNameError(name string) *ValidationError {
	return &ValidationError{
		Field:   FieldSiteName,
		Message: fmt.Sprintf("Site name '%s' already exists", name),
		cause:   ErrDuplicateSiteName,
	}
}
