package service

import (
	"errors"
	"reflect"
	"regexp"
	"strings"

	"homeservices/internal/domain"
	"homeservices/internal/models"

	"github.com/go-playground/validator/v10"
)

var (
	emailPattern    = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)
	phonePattern    = regexp.MustCompile(`^[+]?[1-9][\d\s\-()]{7,15}$`)
	pincodePattern  = regexp.MustCompile(`^[0-9]{6}$`)
	clockPattern    = regexp.MustCompile(`^([0-1]?[0-9]|2[0-3]):[0-5][0-9]$`)
	meridiemPattern = regexp.MustCompile(`AM|PM`)
	dayPartPattern  = regexp.MustCompile(`^(Morning|Afternoon|Evening|Night)`)
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	mustRegister(v, "mail", func(fl validator.FieldLevel) bool { return emailPattern.MatchString(fl.Field().String()) })
	mustRegister(v, "phone", func(fl validator.FieldLevel) bool { return phonePattern.MatchString(fl.Field().String()) })
	mustRegister(v, "pincode", func(fl validator.FieldLevel) bool { return pincodePattern.MatchString(fl.Field().String()) })
	mustRegister(v, "slot", func(fl validator.FieldLevel) bool { return isTimeSlot(fl.Field().String()) })
	mustRegister(v, "category", func(fl validator.FieldLevel) bool { return models.IsServiceCategory(fl.Field().String()) })
	return v
}

func mustRegister(v *validator.Validate, tag string, fn validator.Func) {
	if err := v.RegisterValidation(tag, fn); err != nil {
		panic(err)
	}
}

// isTimeSlot accepts a 24h clock, anything carrying AM/PM, or a part-of-day token.
func isTimeSlot(s string) bool {
	return clockPattern.MatchString(s) || meridiemPattern.MatchString(s) || dayPartPattern.MatchString(s)
}

func isEmail(s string) bool {
	return emailPattern.MatchString(s)
}

// validateInput runs struct tags and folds failures into one ValidationError
// naming every offending field by its JSON path.
func validateInput(message string, input interface{}) error {
	err := validate.Struct(input)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}

	fields := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		ns := fe.Namespace()
		if i := strings.IndexByte(ns, '.'); i >= 0 {
			ns = ns[i+1:]
		}
		fields = append(fields, ns)
	}
	return domain.NewValidationError(message, fields...)
}
