package validation

import (
	"fmt"
	"reflect"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"

	pkgerrors "github.com/angelmondragon/storefront/pkg/errors"
)

// MinPhoneDigits is the fewest digits a contact phone may carry.
const MinPhoneDigits = 10

var phonePattern = regexp.MustCompile(`^\+?[\d\s\-()]+$`)

var validate = New()

// New returns a validator that reports fields by their json name and knows
// the storefront's custom tags.
func New() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		tag := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if tag == "" || tag == "-" {
			return f.Name
		}
		return tag
	})
	_ = v.RegisterValidation("phone", func(fl validator.FieldLevel) bool {
		return IsPhone(fl.Field().String())
	})
	return v
}

// IsPhone accepts digits, spaces, dashes, parentheses and a leading plus,
// with at least MinPhoneDigits digits in total.
func IsPhone(raw string) bool {
	raw = strings.TrimSpace(raw)
	if !phonePattern.MatchString(raw) {
		return false
	}
	digits := 0
	for _, r := range raw {
		if r >= '0' && r <= '9' {
			digits++
		}
	}
	return digits >= MinPhoneDigits
}

// Struct validates v and converts failures into a VALIDATION_ERROR with one
// message per field.
func Struct(v any) error {
	if err := validate.Struct(v); err != nil {
		return FormatErrors(err)
	}
	return nil
}

// FormatErrors maps validator failures onto the field error shape.
func FormatErrors(err error) *pkgerrors.Error {
	errs, ok := err.(validator.ValidationErrors)
	if !ok {
		return pkgerrors.Wrap(pkgerrors.CodeValidation, err, "validation failed")
	}
	fields := make(map[string]string, len(errs))
	for _, fieldErr := range errs {
		fields[fieldErr.Field()] = Message(fieldErr)
	}
	return pkgerrors.Fields("validation failed", fields)
}

func Message(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "min":
		if fe.Kind() == reflect.String {
			return fmt.Sprintf("must be at least %s characters", fe.Param())
		}
		return fmt.Sprintf("must be at least %s", fe.Param())
	case "max":
		if fe.Kind() == reflect.String {
			return fmt.Sprintf("must be at most %s characters", fe.Param())
		}
		return fmt.Sprintf("must be at most %s", fe.Param())
	case "gt":
		return fmt.Sprintf("must be greater than %s", fe.Param())
	case "email":
		return "must be a valid email"
	case "phone":
		return fmt.Sprintf("must be a phone number with at least %d digits", MinPhoneDigits)
	case "oneof":
		return fmt.Sprintf("must be one of: %s", fe.Param())
	}
	return "is invalid"
}
