package plan

import "errors"

var (
	ErrPlanNotFound       = errors.New("plan not found")
	ErrUnauthorizedAccess = errors.New("unauthorized plan access")
)
