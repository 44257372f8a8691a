package service

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"exppro-backend/internal/repository"
)

const (
	MsgRequired        = "This field is required."
	MsgInvalidEmail    = "Enter a valid email address."
	MsgUsernameTaken   = "A user with that username already exists."
	MsgInvalidUsername = "Enter a valid username. This value may contain only letters, numbers, and @/./+/-/_ characters."
	MsgBadCredentials  = "Unable to log in with provided credentials."
	MsgNotUnique       = "The fields user, question must make a unique set."
	MsgNotANumber      = "A valid number is required."
	MsgNotABoolean     = "Must be a valid boolean."
	MsgNotAList        = "Expected a list of items."
	MsgNotAString      = "Not a valid string."
	MsgNotAnObject     = "Invalid data. Expected a dictionary."
)

var (
	// ErrNotFound means the addressed row does not exist.
	ErrNotFound = repository.ErrNotFound
	// ErrInvalidCredentials is returned by Login for any credential mismatch.
	ErrInvalidCredentials = errors.New(MsgBadCredentials)
	// ErrUnauthenticated is returned when a token cannot be resolved to an active user.
	ErrUnauthenticated = errors.New("invalid token")
	// ErrPermissionDenied is returned when a non-staff user calls a staff operation.
	ErrPermissionDenied = errors.New("not authorized")
)

// ValidationError carries field-level messages for a rejected request.
type ValidationError struct {
	Fields map[string][]string
}

func NewValidationError(field, msg string) *ValidationError {
	v := &ValidationError{}
	v.Add(field, msg)
	return v
}

func (v *ValidationError) Add(field, msg string) {
	if v.Fields == nil {
		v.Fields = make(map[string][]string)
	}
	v.Fields[field] = append(v.Fields[field], msg)
}

// OrNil returns nil when no field was rejected.
func (v *ValidationError) OrNil() error {
	if v == nil || len(v.Fields) == 0 {
		return nil
	}
	return v
}

func (v *ValidationError) Error() string {
	keys := make([]string, 0, len(v.Fields))
	for k := range v.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%s: %s", k, strings.Join(v.Fields[k], " ")))
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// InvalidPK is the message for a foreign key that points at nothing.
func InvalidPK(id uint) string {
	return fmt.Sprintf("Invalid pk \"%d\" - object does not exist.", id)
}
