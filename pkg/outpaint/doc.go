// Package outpaint grows an image canvas and synthesises content and a blending mask for the newly
// exposed border, ready to be handed to a generation stage.
//
// The content of the border comes from a NoiseSource and the blending mask from a MaskFilter.
// Both are closed enumerations dispatched through tables, so every strategy can be used and
// tested on its own:
//
//	exp, err := outpaint.ExpandImage(src, mask, imaging.Border{Left: 64, Right: 64},
//		outpaint.WithNoiseSource(outpaint.NoiseSourceHistogram),
//		outpaint.WithMaskFilter(outpaint.MaskFilterGaussianScreen),
//		outpaint.WithSeed(42),
//	)
package outpaint
