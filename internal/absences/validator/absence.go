package validator

import (
	"barbersched/pkg/calendar"
	"barbersched/pkg/logger"
	"barbersched/pkg/model"
	"barbersched/pkg/validation"
)

// AbsenceValidator checks absence requests and booking decisions. Tag rules
// run first; date ordering is checked only once both dates parse.
type AbsenceValidator struct {
	validate *validation.Validator
	log      *logger.Logger
}

func NewAbsenceValidator(log *logger.Logger) *AbsenceValidator {
	return &AbsenceValidator{
		validate: validation.New(),
		log:      log,
	}
}

// Validate checks req against today and returns the parsed range.
func (v *AbsenceValidator) Validate(req *model.AbsenceRequest, today calendar.Day) (calendar.Day, calendar.Day, error) {
	if err := v.validate.Struct(req); err != nil {
		v.log.Debug("absence request failed tag validation", "barber_id", req.BarberID, "error", err)
		return calendar.Day{}, calendar.Day{}, err
	}

	start, _ := calendar.ParseDay(req.StartDate)
	end, _ := calendar.ParseDay(req.EndDate)

	var errs validation.ValidationErrors
	if !end.After(start) {
		errs = append(errs, validation.ValidationError{
			Field:   "end_date",
			Message: "must be after start_date",
		})
	}
	if start.Before(today) {
		errs = append(errs, validation.ValidationError{
			Field:   "start_date",
			Message: "must not be in the past",
		})
	}
	if len(errs) > 0 {
		return calendar.Day{}, calendar.Day{}, errs
	}
	return start, end, nil
}

func (v *AbsenceValidator) ValidateActions(req *model.ProcessApprovalRequest) error {
	if err := v.validate.Struct(req); err != nil {
		return err
	}

	seen := make(map[string]bool, len(req.Actions))
	var errs validation.ValidationErrors
	for _, action := range req.Actions {
		if seen[action.BookingID] {
			errs = append(errs, validation.ValidationError{
				Field:   "actions",
				Message: "booking " + action.BookingID + " appears more than once",
			})
		}
		seen[action.BookingID] = true
	}
	if len(errs) > 0 {
		return errs
	}
	return nil
}

func (v *AbsenceValidator) ValidateReject(req *model.RejectAbsenceRequest) error {
	return v.validate.Struct(req)
}

// ValidateReschedule returns the parsed target date and time.
func (v *AbsenceValidator) ValidateReschedule(req *model.RescheduleRequest, today calendar.Day) (calendar.Day, calendar.TimeOfDay, error) {
	if err := v.validate.Struct(req); err != nil {
		return calendar.Day{}, 0, err
	}

	day, _ := calendar.ParseDay(req.NewDate)
	t, _ := calendar.ParseTimeOfDay(req.NewTime)
	if day.Before(today) {
		return calendar.Day{}, 0, validation.ValidationErrors{{
			Field:   "new_date",
			Message: "must not be in the past",
		}}
	}
	return day, t, nil
}
