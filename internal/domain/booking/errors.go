package booking

import (
	"fmt"

	"trainerdesk/internal/pkg/apperr"
)

var (
	ErrNotFound             = fmt.Errorf("%w: booking not found", apperr.ErrNotFound)
	ErrSlotTaken            = fmt.Errorf("%w: trainer already has a booking at this time", apperr.ErrConflict)
	ErrNotPlanned           = fmt.Errorf("%w: booking is not planned", apperr.ErrInvalidState)
	ErrEntryClosed          = fmt.Errorf("%w: entry is refunded or transferred", apperr.ErrInvalidState)
	ErrTrialNeedsAssignment = fmt.Errorf("%w: trial sessions are booked through an assignment", apperr.ErrInvalidState)
	ErrForbidden            = fmt.Errorf("%w: booking belongs to another trainer", apperr.ErrForbidden)
	ErrLocked               = fmt.Errorf("%w: closed or past bookings can only be changed by a main admin", apperr.ErrForbidden)
	ErrInvalidTime          = fmt.Errorf("%w: invalid booking time", apperr.ErrValidation)
	ErrInvalidStatus        = fmt.Errorf("%w: unknown booking status", apperr.ErrValidation)
	ErrInvalidWorkType      = fmt.Errorf("%w: unknown work type", apperr.ErrValidation)
	ErrMismatch             = fmt.Errorf("%w: assignment does not belong to this member and trainer", apperr.ErrValidation)
)
