package ledger

import (
	"fmt"

	"trainerdesk/internal/pkg/apperr"
)

var (
	ErrMemberNotFound = fmt.Errorf("%w: member not found", apperr.ErrNotFound)
	ErrNoRemaining    = fmt.Errorf("%w: no remaining sessions", apperr.ErrExhausted)
	ErrNotOwner       = fmt.Errorf("%w: member belongs to another trainer", apperr.ErrForbidden)
	ErrInvalidMember  = fmt.Errorf("%w: invalid member", apperr.ErrValidation)
)
