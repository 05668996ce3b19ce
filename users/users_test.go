package users_test

import (
	"testing"

	"github.com/jrsteele09/counsellor-web/internal/errors"
	"github.com/jrsteele09/counsellor-web/users"
	"github.com/stretchr/testify/require"
)

func TestValidatePasswordStrength(t *testing.T) {
	tests := []struct {
		password string
		want     error
	}{
		{"Secret12", nil},
		{"Sh0rt", users.ErrPasswordTooShort},
		{"alllowercase1", users.ErrPasswordTooWeak},
		{"ALLUPPERCASE1", users.ErrPasswordTooWeak},
		{"NoDigitsHere", users.ErrPasswordTooWeak},
	}

	for _, tt := range tests {
		t.Run(tt.password, func(t *testing.T) {
			require.Equal(t, tt.want, users.ValidatePasswordStrength(tt.password))
		})
	}
}

func TestLoginForm_Validate(t *testing.T) {
	require.NoError(t, users.LoginForm{Email: "a@b", Password: "x"}.Validate())

	err := users.LoginForm{Email: "", Password: "x"}.Validate()
	var fe users.FieldErrors
	require.ErrorAs(t, err, &fe)
	require.Equal(t, "Please fill in all fields", fe[users.FormError])

	err = users.LoginForm{Email: "ab.com", Password: "x"}.Validate()
	require.ErrorAs(t, err, &fe)
	require.Equal(t, "Please enter a valid email address", fe[users.FormError])
	require.ErrorIs(t, err, errors.ErrInvalidInput)
}

func validSignup() users.SignupForm {
	return users.SignupForm{
		FullName:        "Ada Lovelace",
		Email:           "ada@example.com",
		Password:        "Analytic1",
		ConfirmPassword: "Analytic1",
		AcceptTerms:     true,
	}
}

func TestSignupForm_Validate(t *testing.T) {
	require.NoError(t, validSignup().Validate())

	tests := []struct {
		name   string
		mutate func(*users.SignupForm)
		field  string
		msg    string
	}{
		{"blank name", func(f *users.SignupForm) { f.FullName = "   " }, "fullName", "Full name is required"},
		{"short name", func(f *users.SignupForm) { f.FullName = "A" }, "fullName", "Name must be at least 2 characters"},
		{"missing email", func(f *users.SignupForm) { f.Email = "" }, "email", "Email is required"},
		{"bad email", func(f *users.SignupForm) { f.Email = "ada@example" }, "email", "Please enter a valid email address"},
		{"missing password", func(f *users.SignupForm) { f.Password = ""; f.ConfirmPassword = "" }, "password", "Password is required"},
		{"short password", func(f *users.SignupForm) { f.Password = "Ab1"; f.ConfirmPassword = "Ab1" }, "password", "Password must be at least 8 characters"},
		{"weak password", func(f *users.SignupForm) { f.Password = "analytic1"; f.ConfirmPassword = "analytic1" }, "password", "Password must contain uppercase, lowercase, and numbers"},
		{"missing confirmation", func(f *users.SignupForm) { f.ConfirmPassword = "" }, "confirmPassword", "Please confirm your password"},
		{"mismatch", func(f *users.SignupForm) { f.ConfirmPassword = "Analytic2" }, "confirmPassword", "Passwords do not match"},
		{"terms", func(f *users.SignupForm) { f.AcceptTerms = false }, "acceptTerms", "You must accept the terms and conditions"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			form := validSignup()
			tt.mutate(&form)

			var fe users.FieldErrors
			require.ErrorAs(t, form.Validate(), &fe)
			require.Equal(t, tt.msg, fe[tt.field])
		})
	}
}

func TestSignupForm_ReportsAllFields(t *testing.T) {
	var fe users.FieldErrors
	require.ErrorAs(t, users.SignupForm{}.Validate(), &fe)
	require.Len(t, fe, 5)
	require.Contains(t, fe.Error(), "acceptTerms: You must accept the terms and conditions")
}

func TestSignupForm_Normalize(t *testing.T) {
	form := users.SignupForm{FullName: "  Ada ", Email: " ada@example.com "}.Normalize()
	require.Equal(t, "Ada", form.FullName)
	require.Equal(t, "ada@example.com", form.Email)
}
