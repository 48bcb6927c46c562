package ot

import (
	"fmt"

	"trainerdesk/internal/pkg/apperr"
)

var (
	ErrAssignmentNotFound = fmt.Errorf("%w: assignment not found", apperr.ErrNotFound)
	ErrMemberNotFound     = fmt.Errorf("%w: member not found", apperr.ErrNotFound)
	ErrNotTrial           = fmt.Errorf("%w: member is not a trial member", apperr.ErrInvalidState)
	ErrNothingToAssign    = fmt.Errorf("%w: no trial sessions left to assign", apperr.ErrExhausted)
	ErrNotAssigned        = fmt.Errorf("%w: assignment is not in assigned state", apperr.ErrInvalidState)
	ErrNotScheduled       = fmt.Errorf("%w: assignment is not scheduled", apperr.ErrInvalidState)
	ErrReturned           = fmt.Errorf("%w: assignment was returned", apperr.ErrInvalidState)
	ErrAlreadyBooked      = fmt.Errorf("%w: assignment already has an active booking", apperr.ErrConflict)
	ErrNothingToReclaim   = fmt.Errorf("%w: no assigned sessions to reclaim", apperr.ErrInvalidState)
	ErrAlreadyExtended    = fmt.Errorf("%w: deadline was already extended", apperr.ErrAlreadyExtended)
	ErrAdminOnly          = fmt.Errorf("%w: admin role required", apperr.ErrForbidden)
	ErrNotCustodian       = fmt.Errorf("%w: assignment belongs to another trainer", apperr.ErrForbidden)
	ErrInvalidCount       = fmt.Errorf("%w: count must be positive", apperr.ErrValidation)
)
