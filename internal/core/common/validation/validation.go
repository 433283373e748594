// Package validation checks request input field by field and reports every
// failure at once as a VALIDATION_FAILED error.
package validation

import (
	"fmt"
	"strings"
	"unicode/utf8"

	errors "github.com/sekreterlik/sekreterlik/internal"
	"github.com/sekreterlik/sekreterlik/internal/rbac"
)

// Rule inspects one value and returns a failure message, or "" when it passes.
type Rule func(field string, value interface{}) (message string, code errors.ErrorCode)

type field struct {
	name  string
	value interface{}
	rules []Rule
}

// Validator accumulates fields and their rules; Validate runs them all.
type Validator struct {
	fields []*field
}

// Field is the handle returned by Validator.Field for chaining rules.
type Field struct {
	f *field
}

func New() *Validator {
	return &Validator{}
}

func (v *Validator) Field(name string, value interface{}) Field {
	f := &field{name: name, value: value}
	v.fields = append(v.fields, f)
	return Field{f: f}
}

func (f Field) Rule(r Rule) Field {
	f.f.rules = append(f.f.rules, r)
	return f
}

func (f Field) Required() Field { return f.Rule(Required) }

func (f Field) MaxLength(max int) Field { return f.Rule(MaxLength(max)) }

func (f Field) Permissions() Field { return f.Rule(KnownPermissions) }

// Validate returns nil when every rule passed. A single failure keeps its own code.
func (v *Validator) Validate() *errors.AppError {
	var failures []errors.ValidationError
	for _, f := range v.fields {
		for _, rule := range f.rules {
			if msg, code := rule(f.name, f.value); msg != "" {
				failures = append(failures, errors.ValidationError{Field: f.name, Message: msg, Code: string(code)})
			}
		}
	}
	switch len(failures) {
	case 0:
		return nil
	case 1:
		return errors.NewValidationError("Validation failed", errors.ErrorCode(failures[0].Code)).
			WithDetails(errors.ValidationErrors{Errors: failures})
	default:
		return errors.NewValidationError("Validation failed", errors.ErrCodeValidationFailed).
			WithDetails(errors.ValidationErrors{Errors: failures})
	}
}

// Required rejects blank strings and nil slices. An empty non-nil slice passes:
// it clears a position's permissions.
func Required(name string, value interface{}) (string, errors.ErrorCode) {
	missing := false
	switch v := value.(type) {
	case string:
		missing = strings.TrimSpace(v) == ""
	case *string:
		missing = v == nil || strings.TrimSpace(*v) == ""
	case []string:
		missing = v == nil
	}
	if missing {
		return name + " is required", errors.ErrCodeValidationFailed
	}
	return "", ""
}

// MaxLength counts runes, not bytes.
func MaxLength(max int) Rule {
	return func(name string, value interface{}) (string, errors.ErrorCode) {
		if s, ok := value.(string); ok && utf8.RuneCountInString(s) > max {
			return fmt.Sprintf("%s must not exceed %d characters", name, max), errors.ErrCodeValidationFailed
		}
		return "", ""
	}
}

// KnownPermissions rejects any key outside the closed permission set.
func KnownPermissions(_ string, value interface{}) (string, errors.ErrorCode) {
	keys, _ := value.([]string)
	for _, k := range keys {
		if _, err := rbac.ParsePermission(k); err != nil {
			return fmt.Sprintf("unknown permission %q", k), errors.ErrCodeUnknownPermission
		}
	}
	return "", ""
}

func ValidateCredentials(username, password string) *errors.AppError {
	v := New()
	v.Field("username", username).Required().MaxLength(100)
	v.Field("password", password).Required().MaxLength(72)
	return v.Validate()
}

func ValidatePosition(position string) *errors.AppError {
	v := New()
	v.Field("position", position).Required().MaxLength(200)
	return v.Validate()
}

func ValidatePermissionKeys(keys []string) *errors.AppError {
	v := New()
	v.Field("permissions", keys).Required().Permissions()
	return v.Validate()
}
