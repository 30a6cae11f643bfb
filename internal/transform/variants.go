package transform

import (
	"fmt"
	"image"
	"math"

	"github.com/disintegration/imaging"
	"github.com/dunamismax/webpwizard/internal/domain"
)

const (
	smallScale = 0.5
	largeScale = 2
)

type Variant struct {
	Name  string
	Image *image.NRGBA
	Size  domain.Size
}

// Bundle is the full set of outputs derived from one base crop.
type Bundle struct {
	Small    Variant
	Original Variant
	Large    Variant
}

// All returns the variants in output order.
func (b Bundle) All() []Variant {
	return []Variant{b.Small, b.Original, b.Large}
}

// GenerateVariants derives the small (50%) and large (200%) siblings of base,
// after optionally resizing base to forced. Either every variant is produced
// or an error is returned.
func GenerateVariants(base image.Image, forced domain.ForcedSize) (Bundle, error) {
	if err := forced.Validate(); err != nil {
		return Bundle{}, err
	}
	bounds := base.Bounds()
	if bounds.Empty() {
		return Bundle{}, fmt.Errorf("%w: empty base image", domain.ErrInvalidSize)
	}

	size := BaseSize(domain.Size{Width: bounds.Dx(), Height: bounds.Dy()}, forced)

	var (
		original *image.NRGBA
		err      error
	)
	if forced.IsZero() {
		original = toNRGBA(base)
	} else {
		original, err = Resample(base, size.Width, size.Height)
		if err != nil {
			return Bundle{}, fmt.Errorf("resample original: %w", err)
		}
	}

	smallSize := domain.Size{
		Width:  max(1, int(math.Floor(float64(size.Width)*smallScale))),
		Height: max(1, int(math.Floor(float64(size.Height)*smallScale))),
	}
	small, err := Resample(original, smallSize.Width, smallSize.Height)
	if err != nil {
		return Bundle{}, fmt.Errorf("resample small: %w", err)
	}

	largeSize := domain.Size{
		Width:  size.Width * largeScale,
		Height: size.Height * largeScale,
	}
	large, err := Resample(original, largeSize.Width, largeSize.Height)
	if err != nil {
		return Bundle{}, fmt.Errorf("resample large: %w", err)
	}

	return Bundle{
		Small:    Variant{Name: domain.VariantSmall, Image: small, Size: smallSize},
		Original: Variant{Name: domain.VariantOriginal, Image: original, Size: size},
		Large:    Variant{Name: domain.VariantLarge, Image: large, Size: largeSize},
	}, nil
}

// BaseSize resolves the size of the original variant. A single forced
// dimension keeps the base aspect ratio; both override it.
func BaseSize(base domain.Size, forced domain.ForcedSize) domain.Size {
	aspect := float64(base.Width) / float64(base.Height)
	switch {
	case forced.Width > 0 && forced.Height > 0:
		return domain.Size{Width: forced.Width, Height: forced.Height}
	case forced.Width > 0:
		return domain.Size{
			Width:  forced.Width,
			Height: max(1, int(math.Floor(float64(forced.Width)/aspect+pixelEpsilon))),
		}
	case forced.Height > 0:
		return domain.Size{
			Width:  max(1, int(math.Floor(float64(forced.Height)*aspect+pixelEpsilon))),
			Height: forced.Height,
		}
	default:
		return base
	}
}

func toNRGBA(img image.Image) *image.NRGBA {
	if n, ok := img.(*image.NRGBA); ok && n.Rect.Min == (image.Point{}) {
		return n
	}
	return imaging.Clone(img)
}
