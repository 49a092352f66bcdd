package apperrors

import "errors"

// ErrNotFound indicates that a requested resource could not be found.
var ErrNotFound = errors.New("resource not found")

// ErrValidation indicates that input data failed validation checks.
var ErrValidation = errors.New("validation error")

// ErrDuplicate indicates that an attempt was made to create a resource that already exists.
var ErrDuplicate = errors.New("resource already exists")

// ErrUnauthorized indicates missing or invalid credentials for the requested operation.
var ErrUnauthorized = errors.New("unauthorized")

// ErrInvalidToken indicates a token that failed verification. Malformed,
// badly signed and expired tokens all collapse into this single error;
// callers are not told which check failed.
var ErrInvalidToken = errors.New("invalid token")
