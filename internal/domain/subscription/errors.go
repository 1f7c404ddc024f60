package subscription

import "errors"

var (
	ErrPlanNotFound   = errors.New("subscription plan not found")
	ErrPlanInactive   = errors.New("subscription plan inactive")
	ErrPlanSlugExists = errors.New("plan slug already exists")
)
