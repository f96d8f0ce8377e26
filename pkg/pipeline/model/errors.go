package model

import (
	"fmt"

	"github.com/pkg/errors"
)

var (
	ErrInvalidStageParams = errors.New("invalid stage params")
	ErrMissingArgument    = errors.New("missing stage argument")
	ErrArgumentType       = errors.New("wrong stage argument type")
)

// MissingArgumentError reports a required keyword argument that was not given to a stage.
type MissingArgumentError struct {
	Name string
}

func (e *MissingArgumentError) Error() string {
	return fmt.Sprintf("%s: %s", ErrMissingArgument, e.Name)
}

func (e *MissingArgumentError) Unwrap() error {
	return ErrMissingArgument
}

// ArgumentTypeError reports a keyword argument holding a value of the wrong type.
type ArgumentTypeError struct {
	Name     string
	Expected string
	Got      string
}

func (e *ArgumentTypeError) Error() string {
	return fmt.Sprintf("%s: %s must be %s, got %s", ErrArgumentType, e.Name, e.Expected, e.Got)
}

func (e *ArgumentTypeError) Unwrap() error {
	return ErrArgumentType
}
