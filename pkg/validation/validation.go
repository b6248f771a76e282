package validation

import (
	"errors"
	"fmt"
	"reflect"
	"regexp"
	apperrors "rentacar/pkg/errors"
	"rentacar/pkg/logger"
	"strings"
	"unicode"

	"github.com/go-playground/validator/v10"
)

var (
	nameRegex  = regexp.MustCompile(`^[\p{Arabic}a-zA-Z\s'-]+$`)
	phoneRegex = regexp.MustCompile(`^01[0125][0-9]{8}$`)
)

const passwordSymbols = "@$!%*?&"

type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

func (v ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", v.Field, v.Message)
}

type ValidationErrors []ValidationError

func (v ValidationErrors) Error() string {
	if len(v) == 0 {
		return ""
	}
	var messages []string
	for _, err := range v {
		messages = append(messages, err.Error())
	}
	return fmt.Sprintf("validation failed: %d error(s): [%s]", len(v), strings.Join(messages, "; "))
}

// Field builds a single-field failure for checks that struct tags cannot
// express.
func Field(field, message string) ValidationErrors {
	return ValidationErrors{{Field: field, Message: message}}
}

// New returns a validator with the custom rules used by the request models
// registered. Field names in messages follow the json tags.
func New(log *logger.Logger) *validator.Validate {
	v := validator.New()

	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return fld.Name
		}
		return name
	})

	rules := map[string]validator.Func{
		"person_name":     validatePersonName,
		"eg_phone":        validatePhone,
		"strong_password": validateStrongPassword,
	}
	for tag, fn := range rules {
		if err := v.RegisterValidation(tag, fn); err != nil {
			log.Fatal("Failed to register validator", "tag", tag, "error", err)
		}
	}

	return v
}

func validatePersonName(fl validator.FieldLevel) bool {
	return nameRegex.MatchString(fl.Field().String())
}

func validatePhone(fl validator.FieldLevel) bool {
	return phoneRegex.MatchString(fl.Field().String())
}

func validateStrongPassword(fl validator.FieldLevel) bool {
	return IsStrongPassword(fl.Field().String())
}

// IsStrongPassword requires a lower case letter, an upper case letter, a digit
// and one of @$!%*?&, with nothing outside those classes.
func IsStrongPassword(pw string) bool {
	var lower, upper, digit, symbol bool
	for _, r := range pw {
		switch {
		case r > unicode.MaxASCII:
			return false
		case unicode.IsLower(r):
			lower = true
		case unicode.IsUpper(r):
			upper = true
		case unicode.IsDigit(r):
			digit = true
		case strings.ContainsRune(passwordSymbols, r):
			symbol = true
		default:
			return false
		}
	}
	return lower && upper && digit && symbol
}

func IsPhone(phone string) bool {
	return phoneRegex.MatchString(phone)
}

// Struct validates s and returns ValidationErrors for rule failures.
func Struct(v *validator.Validate, s any) error {
	if err := v.Struct(s); err != nil {
		var validationErrs validator.ValidationErrors
		if errors.As(err, &validationErrs) {
			return Translate(validationErrs)
		}
		return err
	}
	return nil
}

func Translate(errs validator.ValidationErrors) ValidationErrors {
	var validationErrors ValidationErrors

	for _, err := range errs {
		message := err.Error()

		switch err.Tag() {
		case "required":
			message = fmt.Sprintf("%s is required", err.Field())
		case "min":
			message = fmt.Sprintf("%s must be at least %s", err.Field(), err.Param())
		case "max":
			message = fmt.Sprintf("%s must be at most %s", err.Field(), err.Param())
		case "gt":
			message = fmt.Sprintf("%s must be greater than %s", err.Field(), err.Param())
		case "gte":
			message = fmt.Sprintf("%s must be greater than or equal to %s", err.Field(), err.Param())
		case "gtefield":
			message = fmt.Sprintf("%s must not be before %s", err.Field(), lowerFirst(err.Param()))
		case "email":
			message = "Invalid email format"
		case "mongodb":
			message = fmt.Sprintf("%s must be a valid ID", err.Field())
		case "oneof":
			message = fmt.Sprintf("%s must be one of: %s", err.Field(), err.Param())
		case "eqfield":
			message = "Passwords do not match"
		case "person_name":
			message = fmt.Sprintf("%s must contain letters only", err.Field())
		case "eg_phone":
			message = "Invalid phone number"
		case "strong_password":
			message = "Password must contain at least one uppercase letter, one lowercase letter, one digit and one of @$!%*?&"
		}

		validationErrors = append(validationErrors, ValidationError{
			Field:   err.Field(),
			Message: message,
		})
	}

	return validationErrors
}

func lowerFirst(s string) string {
	if s == "" {
		return s
	}
	return strings.ToLower(s[:1]) + s[1:]
}

// ToAppError converts validation failures to a 400 whose message is the
// first failure. Other errors pass through.
func ToAppError(err error) error {
	var validationErrs ValidationErrors
	if !errors.As(err, &validationErrs) || len(validationErrs) == 0 {
		return err
	}

	details := make(map[string]any, len(validationErrs))
	for _, ve := range validationErrs {
		if _, seen := details[ve.Field]; !seen {
			details[ve.Field] = ve.Message
		}
	}
	return apperrors.Validation(validationErrs[0].Message, details)
}
