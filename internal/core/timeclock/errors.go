package timeclock

import "errors"

var (
	ErrMissingEmployeeID    = errors.New("timeclock: employee id is required")
	ErrMissingCompanyID     = errors.New("timeclock: company id is required")
	ErrMissingAssignedState = errors.New("timeclock: assigned state is required")
	ErrInvalidType          = errors.New("timeclock: type must be clock-in or clock-out")
)
