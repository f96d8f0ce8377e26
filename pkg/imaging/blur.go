package imaging

import (
	"image"
	"math"
)

// GaussianKernel returns a normalised 1D Gaussian kernel using radius as the standard deviation.
// The kernel spans three standard deviations on each side. A radius <= 0 gives the identity kernel.
func GaussianKernel(radius float64) []float32 {
	if radius <= 0 {
		return []float32{1}
	}

	half := int(math.Ceil(radius * 3))
	kernel := make([]float32, half*2+1)
	twoSigmaSq := 2 * radius * radius
	sum := 0.0

	for i := range kernel {
		x := float64(i - half)
		v := math.Exp(-(x * x) / twoSigmaSq)
		kernel[i] = float32(v)
		sum += v
	}

	inv := float32(1 / sum)
	for i := range kernel {
		kernel[i] *= inv
	}

	return kernel
}

// GaussianBlur blurs every channel of src with a separable Gaussian kernel.
// Samples outside the image are clamped to the nearest edge pixel.
func GaussianBlur(src image.Image, radius float64) *image.NRGBA {
	in := Clone(src)
	if radius <= 0 {
		return in
	}

	kernel := GaussianKernel(radius)
	half := len(kernel) / 2
	w, h := in.Rect.Dx(), in.Rect.Dy()
	temp := make([]float32, w*h*4)

	// horizontal pass into temp
	for y := 0; y < h; y++ {
		row := y * in.Stride
		for x := 0; x < w; x++ {
			var acc [4]float32
			for k, weight := range kernel {
				kx := clamp(x+k-half, 0, w-1)
				i := row + kx*4
				acc[0] += float32(in.Pix[i+0]) * weight
				acc[1] += float32(in.Pix[i+1]) * weight
				acc[2] += float32(in.Pix[i+2]) * weight
				acc[3] += float32(in.Pix[i+3]) * weight
			}
			copy(temp[(y*w+x)*4:], acc[:])
		}
	}

	out := image.NewNRGBA(in.Rect)

	// vertical pass into out
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			var acc [4]float32
			for k, weight := range kernel {
				ky := clamp(y+k-half, 0, h-1)
				i := (ky*w + x) * 4
				acc[0] += temp[i+0] * weight
				acc[1] += temp[i+1] * weight
				acc[2] += temp[i+2] * weight
				acc[3] += temp[i+3] * weight
			}
			o := y*out.Stride + x*4
			out.Pix[o+0] = clampByte(acc[0])
			out.Pix[o+1] = clampByte(acc[1])
			out.Pix[o+2] = clampByte(acc[2])
			out.Pix[o+3] = clampByte(acc[3])
		}
	}

	return out
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}

	return v
}

func clampByte(v float32) uint8 {
	if v <= 0 {
		return 0
	}
	if v >= 255 {
		return 255
	}

	return uint8(v + 0.5)
}
