package database

import "errors"

// Set of error variables for the data model.
var (
	ErrValidation       = errors.New("validation failed")
	ErrSignatureInvalid = errors.New("signature invalid")
)
