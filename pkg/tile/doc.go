// Package tile runs a chain of filters over an image one fixed-size square at a time and
// reassembles the (possibly enlarged) results into a single canvas.
//
// The grid is a strict floor of the image size divided by the tile size: a partial row or column
// past the last full tile is not processed and the matching area of the output canvas keeps its
// initial opaque black. Callers that need full coverage must pick a tile size dividing both
// dimensions, or pad the image themselves.
//
// Tiles are visited in row-major order. With WithConcurrency they are processed by a bounded
// group of goroutines; each tile writes a disjoint region of the output and pastes are serialised.
package tile
