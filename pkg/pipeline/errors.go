package pipeline

import (
	"github.com/pkg/errors"

	"github.com/askiada/go-imgchain/pkg/pipeline/model"
)

var (
	ErrSourceMustBeSet = errors.New("source must be set")
	ErrNoOutput        = errors.New("stage returned no image")
)

type observers []model.PipelineOption

// each calls fn on every observer and returns on the first error.
func (o observers) each(action string, fn func(obs model.PipelineOption) error) error {
	for _, obs := range o {
		err := fn(obs)
		if err != nil {
			return errors.Wrapf(err, "unable to %s", action)
		}
	}

	return nil
}
