// Package stage provides the stages a chain is built from.
//
// Pixel stages such as BlendMask, ReduceThumbnail, UpscaleResample and ExpandCanvas work on the
// image alone. Model stages such as UpscaleDiffusion, CorrectFaces and Outpaint delegate to a
// backend obtained from a loader.Cache, so that consecutive runs reuse the loaded model.
//
// The Registry maps stage names, as written in chain files, to stage constructors.
package stage
