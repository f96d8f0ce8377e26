package drawer

import (
	"time"

	"github.com/pkg/errors"

	"github.com/askiada/go-imgchain/pkg/pipeline/measure"
	"github.com/askiada/go-imgchain/pkg/pipeline/model"
)

type pipelineDrawer struct {
	Drawer
	m         measure.Measure
	startTime time.Time
}

func (pd *pipelineDrawer) New() error {
	err := pd.AddStage(model.StartStage.Label())
	if err != nil {
		return errors.Wrap(err, "unable to add start stage to drawer")
	}
	err = pd.AddStage(model.EndStage.Label())
	if err != nil {
		return errors.Wrap(err, "unable to add end stage to drawer")
	}

	return nil
}

func (pd *pipelineDrawer) PrepareStage(parentStage, stage *model.StageInfo) error {
	if parentStage.Index < 0 {
		pd.startTime = time.Now()
	}

	err := pd.AddStage(stage.Label())
	if err != nil {
		return err
	}

	return pd.AddLink(parentStage.Label(), stage.Label())
}

func (pd *pipelineDrawer) OnStageOutput(_, _ *model.StageInfo, _ time.Duration) error {
	return nil
}

func (pd *pipelineDrawer) OnTileOutput(_ *model.StageInfo, _ model.TileInfo, _ time.Duration) error {
	return nil
}

func (pd *pipelineDrawer) Finish() error {
	if pd.m != nil {
		err := pd.SetTotalTime(model.EndStage.Label(), pd.startTime)
		if err != nil {
			return errors.Wrap(err, "unable to set total time")
		}
		err = pd.AddMeasure(pd.m)
		if err != nil {
			return errors.Wrap(err, "unable to add measure")
		}
	}

	err := pd.Draw()
	if err != nil {
		return errors.Wrap(err, "unable to draw pipeline")
	}

	return nil
}

// PipelineDrawer draws the chain when the pipeline finishes. When measure is not nil, stages and
// links are labelled with its durations. Register the measure observer before the drawer so that
// it is complete when the drawer finishes.
func PipelineDrawer(drawer Drawer, measure measure.Measure) model.PipelineOption {
	return &pipelineDrawer{Drawer: drawer, m: measure, startTime: time.Now()}
}
