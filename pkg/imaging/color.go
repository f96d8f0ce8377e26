package imaging

import (
	"image/color"
	"math"
	"strings"

	"github.com/pkg/errors"
	"gopkg.in/go-playground/colors.v1" //nolint
)

var namedColors = map[string]color.NRGBA{
	"white":       {R: 0xff, G: 0xff, B: 0xff, A: 0xff},
	"black":       {A: 0xff},
	"red":         {R: 0xff, A: 0xff},
	"green":       {G: 0x80, A: 0xff},
	"blue":        {B: 0xff, A: 0xff},
	"gray":        {R: 0x80, G: 0x80, B: 0x80, A: 0xff},
	"grey":        {R: 0x80, G: 0x80, B: 0x80, A: 0xff},
	"transparent": {},
}

// ParseColor understands a few colour names plus the hex, rgb() and rgba() notations.
func ParseColor(s string) (color.NRGBA, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if c, ok := namedColors[s]; ok {
		return c, nil
	}

	parsed, err := colors.Parse(s)
	if err != nil {
		return color.NRGBA{}, errors.Wrapf(ErrBadColor, "%q: %v", s, err)
	}

	rgba := parsed.ToRGBA()

	return color.NRGBA{
		R: rgba.R,
		G: rgba.G,
		B: rgba.B,
		A: uint8(math.Round(rgba.A * 255)),
	}, nil
}
