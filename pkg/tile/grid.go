package tile

import "image"

// Tile is one square of the grid. Rect is expressed in the coordinates of the source image.
type Tile struct {
	Index int
	Total int
	X     int
	Y     int
	Rect  image.Rectangle
}

// Origin returns where the tile result lands on an output canvas enlarged by scale.
func (t Tile) Origin(size, scale int) image.Point {
	return image.Pt(t.X*size*scale, t.Y*size*scale)
}

// Dims returns the number of full tiles in each direction.
func Dims(bounds image.Rectangle, size int) (int, int) {
	if size <= 0 {
		return 0, 0
	}

	return bounds.Dx() / size, bounds.Dy() / size
}

// Grid lists the full tiles of bounds in row-major order.
func Grid(bounds image.Rectangle, size int) []Tile {
	tilesX, tilesY := Dims(bounds, size)
	total := tilesX * tilesY
	tiles := make([]Tile, 0, total)

	for y := 0; y < tilesY; y++ {
		for x := 0; x < tilesX; x++ {
			minPt := bounds.Min.Add(image.Pt(x*size, y*size))
			tiles = append(tiles, Tile{
				Index: y*tilesX + x,
				Total: total,
				X:     x,
				Y:     y,
				Rect:  image.Rectangle{Min: minPt, Max: minPt.Add(image.Pt(size, size))},
			})
		}
	}

	return tiles
}

// Covered returns the part of bounds that the grid covers, anchored at bounds.Min.
func Covered(bounds image.Rectangle, size int) image.Rectangle {
	tilesX, tilesY := Dims(bounds, size)

	return image.Rectangle{Min: bounds.Min, Max: bounds.Min.Add(image.Pt(tilesX*size, tilesY*size))}
}
