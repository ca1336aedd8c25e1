package service

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/Shivanand-hulikatti/event-admission/internal/auth"
	"github.com/go-playground/validator/v10"
)

// ValidationError reports a missing or malformed request field.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return e.Field + " " + e.Message
}

// OwnershipError is returned when an organizer mutates someone else's
// event. It matches auth.ErrForbidden under errors.Is.
type OwnershipError struct {
	Action string
}

func (e *OwnershipError) Error() string {
	return fmt.Sprintf("you can only %s your own events", e.Action)
}

func (e *OwnershipError) Is(target error) bool {
	return target == auth.ErrForbidden
}

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return f.Name
		}
		return name
	})
	return v
}

// validationError converts the first validator failure into a ValidationError.
func validationError(err error) error {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return &ValidationError{Message: "invalid request"}
	}
	fe := verrs[0]
	var msg string
	switch fe.Tag() {
	case "required":
		msg = "is required"
	case "email":
		msg = "is not a valid email address"
	case "min", "gte":
		msg = "must be at least " + fe.Param()
	case "max", "lte":
		msg = "must be at most " + fe.Param()
	case "gt":
		msg = "must be greater than " + fe.Param()
	default:
		msg = "is invalid"
	}
	return &ValidationError{Field: fe.Field(), Message: msg}
}
