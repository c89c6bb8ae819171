package domain

import "errors"

var (
	ErrInvalidStep       = errors.New("invalid step")
	ErrInvalidTransition = errors.New("invalid step transition")
)
