package loader

import "github.com/pkg/errors"

var (
	ErrLoaderMustBeSet = errors.New("load function must be set")
	ErrNilBackend      = errors.New("load function returned no backend")
)
