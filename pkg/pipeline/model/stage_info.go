package model

import (
	"fmt"
	"image"
)

// StageInfo is what observers learn about a stage.
type StageInfo struct {
	Name     string
	Index    int
	TileSize int
	Outscale int
	Tiled    bool
	Tiles    int
}

// TileInfo identifies one tile of a tiled stage.
type TileInfo struct {
	Index int
	Total int
	X     int
	Y     int
	Rect  image.Rectangle
}

var (
	StartStage = &StageInfo{Name: "start", Index: -1}
	EndStage   = &StageInfo{Name: "end", Index: -1}
)

// Label identifies the stage in a chain even when two stages share a name.
func (s *StageInfo) Label() string {
	if s.Index < 0 {
		return s.Name
	}

	return fmt.Sprintf("%d. %s", s.Index+1, s.Name)
}
