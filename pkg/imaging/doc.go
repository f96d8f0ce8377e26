// Package imaging provides the pixel primitives shared by the tiling engine, the canvas expansion
// and the stages: solid canvases, paste and crop, separable Gaussian blur, multiply and screen
// blending, mask compositing, luminance conversion and per-channel histograms.
//
// Canvases are *image.NRGBA with their origin at (0, 0). An "RGB" canvas is an NRGBA canvas whose
// alpha channel is always opaque.
package imaging
