package employee

import "errors"

var (
	ErrInvalidID              = errors.New("employee: invalid id")
	ErrInvalidCompanyID       = errors.New("employee: invalid company id")
	ErrInvalidName            = errors.New("employee: name is required")
	ErrInvalidAge             = errors.New("employee: age must be between 1 and 120")
	ErrInvalidPosition        = errors.New("employee: position is required")
	ErrInvalidRank            = errors.New("employee: rank is required")
	ErrInvalidSchedule        = errors.New("employee: schedule start and end must be HH:MM")
	ErrInvalidUsername        = errors.New("employee: invalid username")
	ErrInvalidConnectionState = errors.New("employee: invalid connection state")
	ErrEmployeeNotFound       = errors.New("employee: not found")
	ErrCompanyNotFound        = errors.New("employee: company not found")
	ErrUsernameAlreadyExists  = errors.New("employee: username already exists")
)
