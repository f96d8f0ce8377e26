package outpaint

import "github.com/pkg/errors"

var (
	ErrUnknownStrategy = errors.New("unknown strategy")
	ErrInvalidBorder   = errors.New("border margins must not be negative")
	ErrSourceMustBeSet = errors.New("source must be set")
	ErrMaskMustBeSet   = errors.New("mask must be set")
)
