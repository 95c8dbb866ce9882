package domain

import (
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"
)

var (
	// ErrNotFound is returned when a record does not exist.
	ErrNotFound = errors.New("domain record not found")

	// ErrHostnameTaken is returned when another record already owns the
	// hostname.
	ErrHostnameTaken = errors.New("hostname already in use")

	// ErrExists is returned when the machine name is already taken.
	ErrExists = errors.New("domain record already exists")

	// ErrInvalid wraps field validation failures.
	ErrInvalid = errors.New("invalid domain record")
)

var validate = validator.New()

// Validate checks struct tags on r.  Failures wrap ErrInvalid.
func Validate(r *Record) error {
	if err := validate.Struct(r); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalid, err)
	}
	return nil
}
