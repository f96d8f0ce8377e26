package model

// ProgressEvent is the boundary at which a progress callback fires.
type ProgressEvent string

const (
	PipelineStartEvent ProgressEvent = "pipeline-start"
	StageStartEvent    ProgressEvent = "stage-start"
	TileEvent          ProgressEvent = "tile"
	StageEndEvent      ProgressEvent = "stage-end"
	PipelineEndEvent   ProgressEvent = "pipeline-end"
	// ModelReadyEvent is sent by model stages once their model is loaded, before inference.
	ModelReadyEvent ProgressEvent = "model-ready"
)

// Progress describes where a run is. Tile fields are only set for TileEvent.
type Progress struct {
	RunID      string
	Event      ProgressEvent
	Stage      string
	StageIndex int
	StageTotal int
	Tile       int
	TileTotal  int
	Width      int
	Height     int
}

// ProgressFunc receives progress reports. It must not block; it cannot change the control flow
// of the run, cancellation goes through the run context instead.
type ProgressFunc func(Progress)
