package jwtclaims

import (
	"errors"
	"fmt"
)

// ErrorCode represents error categories shared by the claim model and the
// components that encode, verify and validate tokens.
type ErrorCode string

const (
	ErrCodeTypeMismatch         ErrorCode = "type_mismatch"
	ErrCodeUnsupportedValue     ErrorCode = "unsupported_value"
	ErrCodeEmptyClaimName       ErrorCode = "empty_claim_name"
	ErrCodeMissingHeaders       ErrorCode = "missing_headers"
	ErrCodeMissingClaims        ErrorCode = "missing_claims"
	ErrCodeMalformed            ErrorCode = "malformed_token"
	ErrCodeUnsupportedAlgorithm ErrorCode = "unsupported_algorithm"
	ErrCodeInvalidSignature     ErrorCode = "invalid_signature"

	ErrCodeInvalidToken        ErrorCode = "invalid_token"
	ErrCodeExpired             ErrorCode = "token_expired"
	ErrCodeNotYetValid         ErrorCode = "token_not_yet_valid"
	ErrCodeInvalidIssuer       ErrorCode = "invalid_issuer"
	ErrCodeInvalidAudience     ErrorCode = "invalid_audience"
	ErrCodeSubjectNotAllowed   ErrorCode = "subject_not_allowed"
	ErrCodeIssuerNotRegistered ErrorCode = "issuer_not_registered"
	ErrCodeJWKSUnavailable     ErrorCode = "jwks_unavailable"
	ErrCodeInternal            ErrorCode = "internal_error"
)

var errorMessages = map[ErrorCode]string{
	ErrCodeTypeMismatch:         "Claim type mismatch",
	ErrCodeUnsupportedValue:     "Unsupported claim value",
	ErrCodeEmptyClaimName:       "Empty claim name",
	ErrCodeMissingHeaders:       "Token headers missing",
	ErrCodeMissingClaims:        "Token claims missing",
	ErrCodeMalformed:            "Malformed token",
	ErrCodeUnsupportedAlgorithm: "Unsupported algorithm",
	ErrCodeInvalidSignature:     "Invalid signature",
	ErrCodeInvalidToken:         "Invalid token",
	ErrCodeExpired:              "Token expired",
	ErrCodeNotYetValid:          "Token not yet valid",
	ErrCodeInvalidIssuer:        "Invalid issuer",
	ErrCodeInvalidAudience:      "Invalid audience",
	ErrCodeSubjectNotAllowed:    "Subject not allowed",
	ErrCodeIssuerNotRegistered:  "Issuer not registered",
	ErrCodeJWKSUnavailable:      "JWKS unavailable",
	ErrCodeInternal:             "Internal error",
}

var (
	// ErrTypeMismatch reports a stored value that cannot be read as the requested type.
	ErrTypeMismatch = errors.New("type mismatch")
	// ErrUnsupportedValue reports a Go value with no JSON representation.
	ErrUnsupportedValue = errors.New("unsupported value")
	// ErrEmptyClaimName is returned when a claim or header name is empty.
	ErrEmptyClaimName = errors.New("claim name must not be empty")
)

// Error wraps errors with a stable code and message.
type Error struct {
	Code    ErrorCode
	Message string
	Err     error
}

// Error implements the error interface.
func (e *Error) Error() string {
	base := e.Message
	if base == "" {
		base = string(e.Code)
	}
	if e.Err == nil {
		return base
	}
	return fmt.Sprintf("%s: %v", base, e.Err)
}

// Unwrap returns the underlying error.
func (e *Error) Unwrap() error {
	return e.Err
}

func newError(code ErrorCode, err error) error {
	msg, ok := errorMessages[code]
	if !ok {
		msg = string(code)
	}
	return &Error{Code: code, Message: msg, Err: err}
}

// claimMismatch annotates a conversion failure with the claim it came from.
func claimMismatch(name string, err error) error {
	return newError(ErrCodeTypeMismatch, fmt.Errorf("claim %q: %w", name, err))
}

// HasCode reports whether err carries an *Error with the given code.
func HasCode(err error, code ErrorCode) bool {
	var e *Error
	return errors.As(err, &e) && e.Code == code
}
