// Package validation checks client input against the credential policy and
// strips markup from free text before it reaches storage.
package validation

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/taskvault/taskvault/internal/core/domain"
)

type registration struct {
	Username string
	Password string
}

// Validator wraps go-playground/validator. It is safe for concurrent use.
type Validator struct {
	v *validator.Validate
}

func New() *Validator {
	v := validator.New()
	v.RegisterStructValidationMapRules(map[string]string{
		"Username": fmt.Sprintf("required,min=%d", domain.MinUsernameLength),
		"Password": fmt.Sprintf("required,min=%d", domain.MinPasswordLength),
	}, registration{})
	return &Validator{v: v}
}

// ValidateRegistration reports every violated credential rule at once.
func (val *Validator) ValidateRegistration(username, password string) error {
	problems, err := val.problems(registration{Username: username, Password: password})
	if err != nil {
		return err
	}
	// bcrypt limits bytes, not runes.
	if len(password) > domain.MaxPasswordLength {
		problems = append(problems, fmt.Sprintf("password must be at most %d bytes", domain.MaxPasswordLength))
	}
	return domain.NewValidationError(problems...)
}

// Validate checks a struct against its `validate` tags. It satisfies echo.Validator.
func (val *Validator) Validate(i any) error {
	problems, err := val.problems(i)
	if err != nil {
		return err
	}
	return domain.NewValidationError(problems...)
}

func (val *Validator) problems(i any) ([]string, error) {
	err := val.v.Struct(i)
	if err == nil {
		return nil, nil
	}
	var ve validator.ValidationErrors
	if !errors.As(err, &ve) {
		return nil, err
	}
	msgs := make([]string, 0, len(ve))
	for _, fe := range ve {
		msgs = append(msgs, fieldError(fe))
	}
	return msgs, nil
}

// fieldError converts a single FieldError into a human-readable message.
func fieldError(fe validator.FieldError) string {
	field := strings.ToLower(fe.Field())
	switch fe.Tag() {
	case "required":
		return field + " is required"
	case "min":
		return fmt.Sprintf("%s must be at least %s characters", field, fe.Param())
	case "max":
		return fmt.Sprintf("%s must be at most %s characters", field, fe.Param())
	default:
		return fmt.Sprintf("%s failed validation (%s)", field, fe.Tag())
	}
}
