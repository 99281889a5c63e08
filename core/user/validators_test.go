package user_test

import (
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"

	"github.com/eduatipico/portal/core"
	"github.com/eduatipico/portal/core/user"
)

func errorsCause(err error) error { return errors.Cause(err) }

func TestNewUser_Validate(t *testing.T) {
	svc, _, _ := setup(t)
	validate, translator := core.NewValidator()
	user.InitValidators(validate, translator)

	valid := func() user.NewUser {
		return user.NewUser{
			Name:            "Julia Santos",
			Email:           "julia@x.com",
			Password:        "borboleta",
			PasswordConfirm: "borboleta",
			Role:            user.RoleStudent,
		}
	}

	tests := []struct {
		name       string
		mutate     func(nu *user.NewUser)
		wantFields map[string]string
	}{
		{name: "valid", mutate: func(nu *user.NewUser) {}},
		{
			name:       "blank name",
			mutate:     func(nu *user.NewUser) { nu.Name = "   " },
			wantFields: map[string]string{"name": "this field is required"},
		},
		{
			name:       "bad email",
			mutate:     func(nu *user.NewUser) { nu.Email = "julia" },
			wantFields: map[string]string{"email": "email must be a valid email address"},
		},
		{
			name:       "short password",
			mutate:     func(nu *user.NewUser) { nu.Password, nu.PasswordConfirm = "abc12", "abc12" },
			wantFields: map[string]string{"password": "password must contain at least 6 characters"},
		},
		{
			name:       "password like the name",
			mutate:     func(nu *user.NewUser) { nu.Password, nu.PasswordConfirm = "juliasantos", "juliasantos" },
			wantFields: map[string]string{"password": "password cannot be similar to user attributes"},
		},
		{
			name:       "confirmation differs",
			mutate:     func(nu *user.NewUser) { nu.PasswordConfirm = "borboleta!" },
			wantFields: map[string]string{"password_confirm": "passwords do not match"},
		},
		{
			name:       "bad role",
			mutate:     func(nu *user.NewUser) { nu.Role = "Teacher" },
			wantFields: map[string]string{"role": "invalid role"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			nu := valid()
			tt.mutate(&nu)
			err := nu.Validate(validate, svc)
			if tt.wantFields == nil {
				assert.NoError(t, err)
				return
			}
			fields, ok := core.FieldErrors(err, translator)
			assert.True(t, ok, "validation error expected, got %v", err)
			assert.Equal(t, tt.wantFields, fields)
		})
	}
}
