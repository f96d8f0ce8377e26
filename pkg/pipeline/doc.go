// Package pipeline runs a chain of image stages.
//
// A pipeline holds an ordered list of stages. Run feeds the source image to the first stage and the
// result of every stage to the next one. A stage whose input is wider or taller than its tile size
// is run tile by tile through the tile package, the results being assembled on a canvas enlarged by
// the stage outscale.
//
// The pipeline stops on the first error. The error is wrapped with the name of the failing stage and
// no partial image is returned. Cancelling the context given to Run stops the pipeline between stages
// and between tiles.
//
// Observers implementing model.PipelineOption are notified when the pipeline is created, before and
// after every stage, after every tile and when the run is finished. The measure and drawer packages
// provide observers collecting durations and rendering the chain as a graph.
package pipeline
