package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/anonto42/three-good-things/backend/internal/repositories"
	"github.com/anonto42/three-good-things/backend/internal/validators"
	"go.uber.org/zap"
)

// Kind classifies service failures so callers can pick a response.
type Kind string

const (
	KindValidation  Kind = "validation"
	KindAuth        Kind = "auth"
	KindNotFound    Kind = "not_found"
	KindDomain      Kind = "domain"
	KindStorage     Kind = "storage"
	KindPersistence Kind = "persistence"
)

const defaultStoreTimeout = 10 * time.Second

var (
	ErrSelfFollow         = errors.New("you cannot follow yourself")
	ErrEmailTaken         = errors.New("email is already registered")
	ErrInvalidCredentials = errors.New("invalid email or password")
)

var noOpLogger = zap.NewNop()

// Error is returned by every service operation. Message is safe to show
// to end users; Err carries the underlying cause.
type Error struct {
	Kind    Kind
	Op      string
	Message string
	Err     error
	Fields  map[string]string
}

func (e *Error) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%s: %s", e.Op, e.Message)
	}
	return fmt.Sprintf("%s: %s: %v", e.Op, e.Message, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// KindOf reports the kind of a service error. Errors that did not come
// from a service are treated as persistence failures.
func KindOf(err error) Kind {
	if err == nil {
		return ""
	}
	var serviceErr *Error
	if errors.As(err, &serviceErr) {
		return serviceErr.Kind
	}
	return KindPersistence
}

// MessageOf returns the user-facing message of err.
func MessageOf(err error) string {
	var serviceErr *Error
	if errors.As(err, &serviceErr) {
		return serviceErr.Message
	}
	return "something went wrong"
}

func newError(kind Kind, op, message string, cause error) *Error {
	return &Error{Kind: kind, Op: op, Message: message, Err: cause}
}

func validationError(op string, err error) *Error {
	serviceErr := newError(KindValidation, op, validators.Describe(err), err)
	serviceErr.Fields = validators.FieldErrors(err)
	return serviceErr
}

// storeError maps a repository failure onto NotFound or Persistence.
func storeError(op, notFoundMessage string, err error) *Error {
	if errors.Is(err, repositories.ErrNotFound) {
		return newError(KindNotFound, op, notFoundMessage, err)
	}
	return newError(KindPersistence, op, "failed to reach the data store", err)
}

func storeTimeout(configured time.Duration) time.Duration {
	if configured <= 0 {
		return defaultStoreTimeout
	}
	return configured
}

func withTimeout(ctx context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, timeout)
}

func loggerOrDefault(logger *zap.Logger) *zap.Logger {
	if logger == nil {
		return noOpLogger
	}
	return logger
}

func clockOrDefault(clock func() time.Time) func() time.Time {
	if clock == nil {
		return time.Now
	}
	return clock
}

// page clamps a limit to 1..50 (default 20) and an offset to >= 0.
func page(limit, offset int) (int, int) {
	if limit <= 0 {
		limit = 20
	}
	if limit > 50 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}
	return limit, offset
}
