// Package validation wraps go-playground/validator with the tags shared by
// the scheduling request types.
package validation

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"barbersched/pkg/calendar"
	apperrors "barbersched/pkg/errors"
	"barbersched/pkg/model"

	"github.com/go-playground/validator/v10"
)

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
	return fmt.Sprintf("validation failed: %d error(s)", len(v))
}

// AppError converts the list into a 422 carrying every field message.
func (v ValidationErrors) AppError(message string) *apperrors.AppError {
	fields := make(map[string]any, len(v))
	for _, e := range v {
		fields[e.Field] = e.Message
	}
	appErr := apperrors.Validation(message, map[string]any{"fields": fields})
	appErr.Err = v
	return appErr
}

type Validator struct {
	validate *validator.Validate
}

func New() *Validator {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(jsonFieldName)

	_ = v.RegisterValidation("calendar_day", func(fl validator.FieldLevel) bool {
		_, err := calendar.ParseDay(fl.Field().String())
		return err == nil
	})
	_ = v.RegisterValidation("time_of_day", func(fl validator.FieldLevel) bool {
		_, err := calendar.ParseTimeOfDay(fl.Field().String())
		return err == nil
	})
	_ = v.RegisterValidation("absence_reason", func(fl validator.FieldLevel) bool {
		return model.AbsenceReason(fl.Field().String()).Valid()
	})
	_ = v.RegisterValidation("booking_action", func(fl validator.FieldLevel) bool {
		return model.BookingActionType(fl.Field().String()).Valid()
	})

	return &Validator{validate: v}
}

// Struct validates s and returns ValidationErrors for tag failures.
func (v *Validator) Struct(s any) error {
	if err := v.validate.Struct(s); err != nil {
		var validationErrs validator.ValidationErrors
		if errors.As(err, &validationErrs) {
			return translate(validationErrs)
		}
		return err
	}
	return nil
}

func jsonFieldName(f reflect.StructField) string {
	name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
	if name == "-" || name == "" {
		return f.Name
	}
	return name
}

func translate(errs validator.ValidationErrors) ValidationErrors {
	var out ValidationErrors
	for _, err := range errs {
		out = append(out, ValidationError{
			Field:   fieldPath(err),
			Message: message(err),
		})
	}
	return out
}

// fieldPath drops the root struct name: "AbsenceRequest.end_date" becomes
// "end_date" and nested paths keep their index.
func fieldPath(err validator.FieldError) string {
	ns := err.Namespace()
	if i := strings.Index(ns, "."); i >= 0 {
		return ns[i+1:]
	}
	return err.Field()
}

func message(err validator.FieldError) string {
	switch err.Tag() {
	case "required", "required_if":
		return "is required"
	case "calendar_day":
		return "must be a date in YYYY-MM-DD format"
	case "time_of_day":
		return "must be a time in HH:MM format"
	case "absence_reason":
		return "must be one of " + strings.Join(model.AbsenceReasonNames(), ", ")
	case "booking_action":
		return "must be one of reassign, reject"
	case "max":
		return "must be at most " + err.Param() + " characters"
	case "min":
		return "must contain at least " + err.Param() + " item(s)"
	case "oneof":
		return "must be one of " + err.Param()
	case "dive":
		return "is invalid"
	default:
		return "failed " + err.Tag() + " validation"
	}
}

// AsAppError turns the result of Struct into a 422.
func AsAppError(err error, message string) *apperrors.AppError {
	var verrs ValidationErrors
	if errors.As(err, &verrs) {
		return verrs.AppError(message)
	}
	return apperrors.Validation(message, map[string]any{"error": err.Error()})
}
