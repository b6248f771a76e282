package validator

import (
	"rentacar/pkg/logger"
	"rentacar/pkg/model"
	"rentacar/pkg/validation"

	"github.com/go-playground/validator/v10"
)

type UserValidator struct {
	validate *validator.Validate
	logger   *logger.Logger
}

func NewUserValidator(log *logger.Logger) *UserValidator {
	return &UserValidator{
		validate: validation.New(log),
		logger:   log,
	}
}

func (v *UserValidator) ValidateSignup(input *model.Signup) error {
	return validation.Struct(v.validate, input)
}

func (v *UserValidator) ValidateAdminCreate(input *model.AdminUserCreate) error {
	return validation.Struct(v.validate, input)
}

func (v *UserValidator) ValidateLogin(input *model.Login) error {
	return validation.Struct(v.validate, input)
}

// ValidateUpdate also requires password and confirm_password to be sent
// together and to match.
func (v *UserValidator) ValidateUpdate(input *model.UserUpdate) error {
	if err := validation.Struct(v.validate, input); err != nil {
		return err
	}

	switch {
	case input.Password != nil && input.ConfirmPassword == nil:
		return validation.Field("confirm_password", "confirm_password is required")
	case input.Password == nil && input.ConfirmPassword != nil:
		return validation.Field("password", "password is required")
	case input.Password != nil && *input.Password != *input.ConfirmPassword:
		return validation.Field("confirm_password", "Passwords do not match")
	}
	return nil
}

func (v *UserValidator) ValidatePasswordChange(input *model.PasswordChange) error {
	return validation.Struct(v.validate, input)
}

func (v *UserValidator) ValidateRoleChange(input *model.RoleChange) error {
	return validation.Struct(v.validate, input)
}
