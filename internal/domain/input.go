package domain

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
)

// MaxDurationDays caps how long a requested trip may be.
const MaxDurationDays = 30

var validate = validator.New()

// SubmitInput is the contract for a new generation request.
type SubmitInput struct {
	Destination  string `json:"destination" validate:"required"`
	DurationDays int    `json:"durationDays" validate:"required,min=1,max=30"`
}

// Normalize trims surrounding whitespace so that a blank destination fails the
// required check.
func (in *SubmitInput) Normalize() {
	in.Destination = strings.TrimSpace(in.Destination)
}

// Validate checks the input contract. Violations wrap ErrInvalidInput with a
// message safe to return to the client.
func (in SubmitInput) Validate() error {
	err := validate.Struct(in)
	if err == nil {
		return nil
	}
	var fieldErrs validator.ValidationErrors
	if errors.As(err, &fieldErrs) && len(fieldErrs) > 0 {
		return fmt.Errorf("%w: %s", ErrInvalidInput, describeFieldError(fieldErrs[0]))
	}
	return fmt.Errorf("%w: %v", ErrInvalidInput, err)
}

func describeFieldError(fe validator.FieldError) string {
	switch fe.Field() {
	case "Destination":
		return "destination is required"
	case "DurationDays":
		return fmt.Sprintf("durationDays must be between 1 and %d", MaxDurationDays)
	}
	return fmt.Sprintf("%s is invalid", fe.Field())
}
