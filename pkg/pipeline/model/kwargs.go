package model

import (
	"fmt"
	"reflect"
)

// Well-known keyword argument names.
const (
	KeySource      = "stage_source"
	KeyMask        = "stage_mask"
	KeySize        = "size"
	KeyBorder      = "border"
	KeyFill        = "fill"
	KeyNoiseSource = "noise_source"
	KeyMaskFilter  = "mask_filter"
	KeyCallback    = "callback"
	KeyUpscale     = "upscale"
)

// Kwargs is the open set of named arguments given to a stage. Which names a stage reads is up to
// the stage; the pipeline passes the bundle through untouched.
type Kwargs map[string]any

// Has reports whether name is set to a non-nil value.
func (k Kwargs) Has(name string) bool {
	v, ok := k[name]

	return ok && v != nil
}

// With returns a copy of k with name set to value.
func (k Kwargs) With(name string, value any) Kwargs {
	out := make(Kwargs, len(k)+1)
	for key, v := range k {
		out[key] = v
	}
	out[name] = value

	return out
}

// Progress returns the progress callback stored under KeyCallback, or a no-op.
func (k Kwargs) Progress() ProgressFunc {
	if fn, ok := k[KeyCallback].(ProgressFunc); ok && fn != nil {
		return fn
	}
	if fn, ok := k[KeyCallback].(func(Progress)); ok && fn != nil {
		return fn
	}

	return func(Progress) {}
}

// Arg returns the required argument name as a T.
func Arg[T any](k Kwargs, name string) (T, error) {
	v, ok, err := OptionalArg[T](k, name)
	if err != nil {
		return v, err
	}
	if !ok {
		return v, &MissingArgumentError{Name: name}
	}

	return v, nil
}

// OptionalArg returns the argument name as a T, reporting whether it was set.
// A value of another type is an error.
func OptionalArg[T any](k Kwargs, name string) (T, bool, error) {
	var zero T

	raw, ok := k[name]
	if !ok || raw == nil {
		return zero, false, nil
	}

	v, ok := raw.(T)
	if !ok {
		return zero, false, &ArgumentTypeError{Name: name, Expected: reflect.TypeOf((*T)(nil)).Elem().String(), Got: fmt.Sprintf("%T", raw)}
	}

	return v, true, nil
}

// ArgOr returns the argument name as a T or def when it is not set.
func ArgOr[T any](k Kwargs, name string, def T) (T, error) {
	v, ok, err := OptionalArg[T](k, name)
	if err != nil {
		return v, err
	}
	if !ok {
		return def, nil
	}

	return v, nil
}
