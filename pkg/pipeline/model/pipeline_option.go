package model

import "time"

// PipelineOption defines the interface for pipeline observers.
type PipelineOption interface {
	// New initialises the pipeline option.
	New() error

	pipelineStageOption
	pipelineTileOption

	// Finish runs after the pipeline is finished.
	Finish() error
}

// pipelineStageOption defines the interface for stage hooks at the pipeline level.
type pipelineStageOption interface {
	// PrepareStage runs before the stage is executed.
	PrepareStage(parentStage, stage *StageInfo) error
	// OnStageOutput runs once the stage produced its image.
	OnStageOutput(parentStage, stage *StageInfo, computationDuration time.Duration) error
}

// pipelineTileOption defines the interface for tile hooks at the pipeline level.
type pipelineTileOption interface {
	// OnTileOutput runs every time a tile of a tiled stage is done.
	OnTileOutput(stage *StageInfo, tile TileInfo, computationDuration time.Duration) error
}
