package transform

import (
	"fmt"
	"image"

	"github.com/disintegration/imaging"
	"github.com/dunamismax/webpwizard/internal/domain"
)

// Resample scales img to exactly width x height with a Catmull-Rom filter,
// for both up and down scaling. Alpha is carried through untouched; any
// flattening has already happened upstream.
func Resample(img image.Image, width, height int) (*image.NRGBA, error) {
	if width < 1 || height < 1 {
		return nil, fmt.Errorf("%w: %dx%d", domain.ErrInvalidSize, width, height)
	}
	if img.Bounds().Empty() {
		return nil, fmt.Errorf("%w: empty source", domain.ErrInvalidSize)
	}
	return imaging.Resize(img, width, height, imaging.CatmullRom), nil
}
