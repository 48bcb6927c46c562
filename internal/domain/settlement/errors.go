package settlement

import (
	"fmt"

	"trainerdesk/internal/pkg/apperr"
)

var (
	ErrMemberNotFound     = fmt.Errorf("%w: member not found", apperr.ErrNotFound)
	ErrAdjustmentNotFound = fmt.Errorf("%w: adjustment not found", apperr.ErrNotFound)
	ErrNotOwner           = fmt.Errorf("%w: member belongs to another trainer", apperr.ErrForbidden)
	ErrAdminOnly          = fmt.Errorf("%w: admin role required", apperr.ErrForbidden)
	ErrMainAdminOnly      = fmt.Errorf("%w: main admin role required", apperr.ErrForbidden)
	ErrAlreadyRefunded    = fmt.Errorf("%w: member is already refunded", apperr.ErrAlreadyRefunded)
	ErrNotRefunded        = fmt.Errorf("%w: member is not refunded", apperr.ErrNotRefunded)
	ErrTransferred        = fmt.Errorf("%w: member was transferred", apperr.ErrInvalidState)
	ErrRefunded           = fmt.Errorf("%w: refunded members cannot be transferred", apperr.ErrInvalidState)
	ErrSameTrainer        = fmt.Errorf("%w: member already belongs to this trainer", apperr.ErrInvalidState)
	ErrNothingToTransfer  = fmt.Errorf("%w: no sessions left to transfer", apperr.ErrExhausted)
	ErrInvalidMonth       = fmt.Errorf("%w: month must be YYYY-MM", apperr.ErrValidation)
	ErrInvalidAdjustment  = fmt.Errorf("%w: adjustment needs a non-zero amount and a memo", apperr.ErrValidation)
	ErrInvalidSettings    = fmt.Errorf("%w: invalid salary settings", apperr.ErrValidation)
)
