package imaging

import "github.com/pkg/errors"

var (
	ErrSizeMismatch = errors.New("images must have the same size")
	ErrInvalidSize  = errors.New("size must be positive")
	ErrBadColor     = errors.New("unable to parse colour")
	ErrEmptyPath    = errors.New("path must be set")
)
