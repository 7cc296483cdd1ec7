package apperr

import "errors"

var (
	ErrNotFound         = errors.New("not found")
	ErrSizeBudget       = errors.New("size budget exceeded")
	ErrValidationFailed = errors.New("validation failed")
)
