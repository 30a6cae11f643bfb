package transform

import (
	"math"

	"github.com/dunamismax/webpwizard/internal/domain"
)

// pixelEpsilon absorbs float noise from trig functions before bounds are
// truncated to whole pixels.
const pixelEpsilon = 1e-6

// RotatedBoundsF returns the exact size of the axis-aligned box that contains
// a width x height rectangle rotated by degrees about its center.
func RotatedBoundsF(width, height, degrees float64) (float64, float64) {
	rad := degrees * math.Pi / 180
	c := math.Abs(math.Cos(rad))
	s := math.Abs(math.Sin(rad))
	return c*width + s*height, s*width + c*height
}

// RotatedBounds is RotatedBoundsF truncated to whole pixels, the way a drawing
// surface sizes its backing buffer.
func RotatedBounds(width, height int, degrees float64) domain.Size {
	w, h := RotatedBoundsF(float64(width), float64(height), degrees)
	return domain.Size{
		Width:  int(math.Floor(w + pixelEpsilon)),
		Height: int(math.Floor(h + pixelEpsilon)),
	}
}

// quarterTurns reports whether degrees is a whole multiple of 90 and, if so,
// the number of clockwise quarter turns in [0,3].
func quarterTurns(degrees float64) (int, bool) {
	q := degrees / 90
	rounded := math.Round(q)
	if math.Abs(q-rounded) > 1e-9 {
		return 0, false
	}
	n := int(math.Mod(rounded, 4))
	if n < 0 {
		n += 4
	}
	return n, true
}
