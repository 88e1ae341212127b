package domain

import "errors"

// Sentinel errors for the service layer. Services wrap them with
// fmt.Errorf("%w: ...") context and handlers map them onto HTTP statuses
// with errors.Is.
var (
	ErrValidation   = errors.New("validation failed")
	ErrAccessDenied = errors.New("access denied")
	ErrNotFound     = errors.New("not found")
	ErrInvalidState = errors.New("invalid state")
	ErrStore        = errors.New("store failure")
)
