package usecases

import (
	"errors"
	"fmt"
	"time"
)

var (
	// ErrNotFound means the requested entity does not exist.
	ErrNotFound = errors.New("not found")
	// ErrForbidden means the entity exists but belongs to another user.
	ErrForbidden = errors.New("forbidden")
	// ErrEmailTaken means the registration email is already in use.
	ErrEmailTaken = errors.New("email already registered")
	// ErrInvalidCredentials covers unknown emails and wrong passwords alike,
	// so login failures don't reveal which one it was.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrEmptyDataset means an upload contained no usable points.
	ErrEmptyDataset = errors.New("no valid points found")
	// ErrUnsupportedFormat means the upload is neither CSV nor GeoJSON.
	ErrUnsupportedFormat = errors.New("unsupported file format")
)

// QuotaError reports an exhausted usage quota and when it resets.
type QuotaError struct {
	RetryAfter time.Duration
}

func (e *QuotaError) Error() string {
	return fmt.Sprintf("quota exceeded, retry in %s", e.RetryAfter.Round(time.Second))
}
