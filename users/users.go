package users

import (
	"fmt"
	"reflect"
	"regexp"
	"sort"
	"strings"
	"unicode"

	"github.com/go-playground/validator/v10"
	"github.com/jrsteele09/counsellor-web/internal/errors"
)

var (
	ErrPasswordTooShort = errors.New("Password must be at least 8 characters")
	ErrPasswordTooWeak  = errors.New("Password must contain uppercase, lowercase, and numbers")
)

// emailPattern is deliberately loose: something@something.something
var emailPattern = regexp.MustCompile(`\S+@\S+\.\S+`)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(field reflect.StructField) string {
		if name := field.Tag.Get("form"); name != "" {
			return name
		}
		return field.Name
	})
	_ = v.RegisterValidation("loose_email", func(fl validator.FieldLevel) bool {
		return emailPattern.MatchString(fl.Field().String())
	})
	_ = v.RegisterValidation("password_strength", func(fl validator.FieldLevel) bool {
		return ValidatePasswordStrength(fl.Field().String()) == nil
	})
	return v
}

// FieldErrors maps form field names to the message shown next to them
type FieldErrors map[string]string

func (fe FieldErrors) Error() string {
	fields := make([]string, 0, len(fe))
	for field := range fe {
		fields = append(fields, field)
	}
	sort.Strings(fields)

	parts := make([]string, 0, len(fields))
	for _, field := range fields {
		parts = append(parts, fmt.Sprintf("%s: %s", field, fe[field]))
	}
	return strings.Join(parts, "; ")
}

func (fe FieldErrors) Unwrap() error {
	return errors.ErrInvalidInput
}

// FormError is the key used for messages that belong to the whole form
const FormError = "form"

// LoginForm is the submitted login form
type LoginForm struct {
	Email      string `form:"email"`
	Password   string `form:"password"`
	RememberMe bool   `form:"rememberMe"`
}

// Validate mirrors the login page checks: both fields present and an
// email that at least contains "@". Only one message is reported.
func (f LoginForm) Validate() error {
	if strings.TrimSpace(f.Email) == "" || f.Password == "" {
		return FieldErrors{FormError: "Please fill in all fields"}
	}
	if !strings.Contains(f.Email, "@") {
		return FieldErrors{FormError: "Please enter a valid email address"}
	}
	return nil
}

// SignupForm is the submitted signup form
type SignupForm struct {
	FullName        string `form:"fullName" validate:"required,min=2"`
	Email           string `form:"email" validate:"required,loose_email"`
	Password        string `form:"password" validate:"required,password_strength"`
	ConfirmPassword string `form:"confirmPassword" validate:"required,eqfield=Password"`
	AcceptTerms     bool   `form:"acceptTerms" validate:"required"`
}

var signupMessages = map[string]string{
	"fullName.required":        "Full name is required",
	"fullName.min":             "Name must be at least 2 characters",
	"email.required":           "Email is required",
	"email.loose_email":        "Please enter a valid email address",
	"password.required":        "Password is required",
	"confirmPassword.required": "Please confirm your password",
	"confirmPassword.eqfield":  "Passwords do not match",
	"acceptTerms.required":     "You must accept the terms and conditions",
}

// Normalize trims the free-text fields
func (f SignupForm) Normalize() SignupForm {
	f.FullName = strings.TrimSpace(f.FullName)
	f.Email = strings.TrimSpace(f.Email)
	return f
}

// Validate reports every failing field at once
func (f SignupForm) Validate() error {
	err := validate.Struct(f.Normalize())
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return fmt.Errorf("[SignupForm Validate] %w", err)
	}

	fe := FieldErrors{}
	for _, v := range verrs {
		if v.Tag() == "password_strength" {
			fe[v.Field()] = ValidatePasswordStrength(f.Password).Error()
			continue
		}
		if msg, ok := signupMessages[v.Field()+"."+v.Tag()]; ok {
			fe[v.Field()] = msg
			continue
		}
		fe[v.Field()] = fmt.Sprintf("%s is invalid", v.Field())
	}
	return fe
}

// ValidatePasswordStrength checks if password meets security requirements:
// - At least 8 characters long
// - Contains uppercase and lowercase letters
// - Contains at least one number
func ValidatePasswordStrength(password string) error {
	if len(password) < 8 {
		return ErrPasswordTooShort
	}

	var (
		hasUpper  bool
		hasLower  bool
		hasNumber bool
	)

	for _, char := range password {
		if unicode.IsUpper(char) {
			hasUpper = true
		} else if unicode.IsLower(char) {
			hasLower = true
		} else if unicode.IsDigit(char) {
			hasNumber = true
		}
	}

	if !hasUpper || !hasLower || !hasNumber {
		return ErrPasswordTooWeak
	}
	return nil
}
