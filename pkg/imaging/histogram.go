package imaging

import "image"

// Histogram counts the occurrences of each value for the red, green and blue channels.
type Histogram [3][256]uint64

// NewHistogram builds the colour histogram of img.
func NewHistogram(img image.Image) Histogram {
	var hist Histogram

	src := Clone(img)
	for i := 0; i < len(src.Pix); i += 4 {
		hist[0][src.Pix[i+0]]++
		hist[1][src.Pix[i+1]]++
		hist[2][src.Pix[i+2]]++
	}

	return hist
}

// Total returns the number of samples counted for channel c.
func (h *Histogram) Total(c int) uint64 {
	var total uint64
	for _, n := range h[c] {
		total += n
	}

	return total
}
