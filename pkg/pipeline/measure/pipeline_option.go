package measure

import (
	"time"

	"github.com/askiada/go-imgchain/pkg/pipeline/model"
)

// pipelineMeasure records stage computation durations, and as transport the time between the
// parent stage handing over its output and the next stage being prepared.
type pipelineMeasure struct {
	Measure
	startTime time.Time
	outputAt  map[string]time.Time
}

func (pm *pipelineMeasure) New() error {
	pm.AddMetric(model.StartStage.Label())
	pm.AddMetric(model.EndStage.Label())
	pm.startTime = time.Now()
	pm.outputAt = make(map[string]time.Time)

	return nil
}

func (pm *pipelineMeasure) PrepareStage(parentStage, stage *model.StageInfo) error {
	if parentStage.Index < 0 {
		pm.startTime = time.Now()
		pm.outputAt[parentStage.Label()] = pm.startTime
	}
	mt := pm.AddMetric(stage.Label())

	if handedOver, ok := pm.outputAt[parentStage.Label()]; ok {
		mt.AddTransportDuration(parentStage.Label(), time.Since(handedOver))
		delete(pm.outputAt, parentStage.Label())
	}

	return nil
}

func (pm *pipelineMeasure) OnStageOutput(_, stage *model.StageInfo, computationDuration time.Duration) error {
	pm.AddMetric(stage.Label()).AddDuration(computationDuration)
	pm.outputAt[stage.Label()] = time.Now()

	return nil
}

func (pm *pipelineMeasure) OnTileOutput(stage *model.StageInfo, _ model.TileInfo, computationDuration time.Duration) error {
	pm.AddMetric(stage.Label()).AddTileDuration(computationDuration)

	return nil
}

func (pm *pipelineMeasure) Finish() error {
	pm.GetMetric(model.EndStage.Label()).SetTotalDuration(time.Since(pm.startTime))

	return nil
}

// PipelineMeasure records the durations of every stage and tile into measure.
func PipelineMeasure(measure Measure) model.PipelineOption {
	return &pipelineMeasure{Measure: measure}
}
