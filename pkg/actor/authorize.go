package actor

import apperrors "barbersched/pkg/errors"

// RequireAny accepts every identified caller.
func RequireAny(a Actor) error {
	if a.IsZero() {
		return apperrors.Unauthorized("Actor identity is required")
	}
	return nil
}

func RequireAdmin(a Actor) error {
	if err := RequireAny(a); err != nil {
		return err
	}
	if !a.IsAdmin() {
		return apperrors.Forbidden("Only admins may perform this action")
	}
	return nil
}

// RequireBarberOrAdmin accepts admins and the barber that owns barberID.
func RequireBarberOrAdmin(a Actor, barberID string) error {
	if err := RequireAny(a); err != nil {
		return err
	}
	if !a.CanActFor(barberID) {
		return apperrors.Forbidden("Not allowed to act on another barber's data")
	}
	return nil
}
