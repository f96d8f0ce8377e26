package drawer

import (
	"io"
	"time"

	"github.com/askiada/go-imgchain/pkg/pipeline/measure"
)

// Drawer is an interface that defines the methods for drawing a stage chain.
type Drawer interface {
	// AddStage adds a stage to the drawer. Adding a stage twice is not an error.
	AddStage(stageName string) error
	// AddLink adds a link between two consecutive stages.
	AddLink(parentStageName, childStageName string) error
	// Draw writes the graph to its destination.
	Draw() error
	// WriteTo writes the graph to wrt.
	WriteTo(wrt io.Writer) (int64, error)
	// SetTotalTime labels the stage with the time elapsed since startTime.
	SetTotalTime(stageName string, startTime time.Time) error
	// AddMeasure labels stages and links with the collected durations.
	AddMeasure(measure measure.Measure) error
}
