// Package validator checks site names and Base32 secrets before they reach
// a store. Callers depend on Validator; V10Validator implements it on
// go-playground/validator with the notblank, sitename and base32block tags.
package validator
