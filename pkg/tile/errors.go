package tile

import "github.com/pkg/errors"

var (
	ErrInvalidTileSize = errors.New("tile size must be greater than 0")
	ErrInvalidScale    = errors.New("scale must be at least 1")
	ErrSourceMustBeSet = errors.New("source must be set")
	ErrScaleMismatch   = errors.New("filter output does not match tile size times scale")
)
