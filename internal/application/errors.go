package application

import (
	"strings"
)

// ConflictError reports a business rule duplicate. Message is safe to show to clients.
type ConflictError struct {
	Field   string
	Message string
}

func (e *ConflictError) Error() string { return e.Message }

var (
	ErrCPFAlreadyExists   = &ConflictError{Field: "cpf", Message: "a user with the informed cpf already exists"}
	ErrEmailAlreadyExists = &ConflictError{Field: "email", Message: "a user with the informed email already exists"}
)

// ValidationError aggregates every field violation of a record.
type ValidationError struct {
	Violations []string
}

func (e *ValidationError) Error() string {
	return strings.Join(e.Violations, ", ")
}
