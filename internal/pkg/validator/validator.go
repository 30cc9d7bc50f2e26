package validator

// Validator validates structs and single values.
type Validator interface {
	// Validate validates a struct using its `validate` tags.
	Validate(data any) error
	// Var validates a single value against a comma separated tag chain and
	// reports the first failing tag as a *FieldError.
	Var(field string, value any, tag string) error
}
