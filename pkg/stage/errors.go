package stage

import "github.com/pkg/errors"

var (
	ErrUnknownStage       = errors.New("unknown stage")
	ErrBackendUnavailable = errors.New("backend unavailable")
	ErrInvalidSize        = errors.New("size must be positive")
)
