package validator

import (
	"rentacar/pkg/logger"
	"rentacar/pkg/model"
	"rentacar/pkg/validation"
	"time"

	"github.com/go-playground/validator/v10"
)

type BookingValidator struct {
	validate *validator.Validate
	logger   *logger.Logger
	now      func() time.Time
}

func NewBookingValidator(log *logger.Logger) *BookingValidator {
	return &BookingValidator{
		validate: validation.New(log),
		logger:   log,
		now:      time.Now,
	}
}

// ValidateInput checks a new booking. The start date may be today but not
// earlier.
func (v *BookingValidator) ValidateInput(input *model.BookingInput) error {
	if err := validation.Struct(v.validate, input); err != nil {
		return err
	}
	if input.EndDate.Before(input.StartDate) {
		return validation.Field("endDate", "endDate must not be before startDate")
	}
	if input.StartDate.Before(v.today()) {
		return validation.Field("startDate", "startDate cannot be in the past")
	}
	return nil
}

func (v *BookingValidator) ValidateUpdate(update *model.BookingUpdate) error {
	if err := validation.Struct(v.validate, update); err != nil {
		return err
	}
	if update.StartDate != nil && update.EndDate != nil && update.EndDate.Before(*update.StartDate) {
		return validation.Field("endDate", "endDate must not be before startDate")
	}
	return nil
}

// Validate checks a complete booking, typically after an update was merged.
func (v *BookingValidator) Validate(booking *model.Booking) error {
	return validation.Struct(v.validate, booking)
}

func (v *BookingValidator) today() time.Time {
	return v.now().UTC().Truncate(24 * time.Hour)
}
