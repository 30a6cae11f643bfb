package transform

import (
	"errors"
	"image"
	"image/color"
	"testing"

	"github.com/dunamismax/webpwizard/internal/domain"
)

var (
	red   = color.NRGBA{R: 255, A: 255}
	blue  = color.NRGBA{B: 255, A: 255}
	white = color.NRGBA{R: 255, G: 255, B: 255, A: 255}
)

func TestCropAndRotateFlattenTurnsTransparentWhite(t *testing.T) {
	src := image.NewNRGBA(image.Rect(0, 0, 4, 4))

	out, err := CropAndRotate(src, domain.CropRect{Width: 4, Height: 4}, 0, domain.Flip{}, false)
	if err != nil {
		t.Fatalf("crop and rotate: %v", err)
	}
	for y := 0; y < 4; y++ {
		for x := 0; x < 4; x++ {
			if got := out.NRGBAAt(x, y); got != white {
				t.Fatalf("pixel (%d,%d): expected opaque white, got %+v", x, y, got)
			}
		}
	}
}

func TestCropAndRotateFlattenBlendsTranslucent(t *testing.T) {
	src := solidImage(2, 2, color.NRGBA{A: 128})

	out, err := CropAndRotate(src, domain.CropRect{Width: 2, Height: 2}, 0, domain.Flip{}, false)
	if err != nil {
		t.Fatalf("crop and rotate: %v", err)
	}
	got := out.NRGBAAt(0, 0)
	if got.A != 255 {
		t.Fatalf("expected opaque output, got alpha %d", got.A)
	}
	if got.R < 120 || got.R > 135 {
		t.Fatalf("expected half-black over white to be mid gray, got %+v", got)
	}
}

func TestCropAndRotatePreservesAlpha(t *testing.T) {
	src := patternImage(8, 8)
	src.SetNRGBA(5, 4, color.NRGBA{R: 9, G: 8, B: 7, A: 128})

	out, err := CropAndRotate(src, domain.CropRect{X: 2, Y: 2, Width: 4, Height: 4}, 0, domain.Flip{}, true)
	if err != nil {
		t.Fatalf("crop and rotate: %v", err)
	}
	if out.Rect.Dx() != 4 || out.Rect.Dy() != 4 {
		t.Fatalf("expected 4x4, got %v", out.Rect)
	}
	if got := out.NRGBAAt(3, 2); got != (color.NRGBA{R: 9, G: 8, B: 7, A: 128}) {
		t.Fatalf("expected translucent pixel preserved, got %+v", got)
	}
	if got, want := out.NRGBAAt(0, 0), src.NRGBAAt(2, 2); got != want {
		t.Fatalf("expected %+v at crop origin, got %+v", want, got)
	}
}

func TestCropAndRotateOutOfBoundsKeepsSize(t *testing.T) {
	src := solidImage(4, 4, red)
	crop := domain.CropRect{X: -2, Y: -2, Width: 6, Height: 6}

	out, err := CropAndRotate(src, crop, 0, domain.Flip{}, true)
	if err != nil {
		t.Fatalf("crop and rotate: %v", err)
	}
	if out.Rect.Dx() != 6 || out.Rect.Dy() != 6 {
		t.Fatalf("expected 6x6 output, got %v", out.Rect)
	}
	if got := out.NRGBAAt(0, 0); got.A != 0 {
		t.Fatalf("expected transparent pixel outside source, got %+v", got)
	}
	if got := out.NRGBAAt(3, 3); got != red {
		t.Fatalf("expected source pixel inside, got %+v", got)
	}

	flat, err := CropAndRotate(src, crop, 0, domain.Flip{}, false)
	if err != nil {
		t.Fatalf("crop and rotate flattened: %v", err)
	}
	if got := flat.NRGBAAt(0, 0); got != white {
		t.Fatalf("expected white outside source when flattened, got %+v", got)
	}

	far, err := CropAndRotate(src, domain.CropRect{X: 100, Y: 100, Width: 3, Height: 2}, 0, domain.Flip{}, true)
	if err != nil {
		t.Fatalf("crop fully outside: %v", err)
	}
	if far.Rect.Dx() != 3 || far.Rect.Dy() != 2 {
		t.Fatalf("expected 3x2 output, got %v", far.Rect)
	}
}

func TestCropAndRotateQuarterTurnClockwise(t *testing.T) {
	src := solidImage(3, 2, blue)
	src.SetNRGBA(0, 0, red)

	out, err := CropAndRotate(src, domain.CropRect{Width: 2, Height: 3}, 90, domain.Flip{}, true)
	if err != nil {
		t.Fatalf("crop and rotate: %v", err)
	}
	if out.Rect.Dx() != 2 || out.Rect.Dy() != 3 {
		t.Fatalf("expected 2x3 output, got %v", out.Rect)
	}
	if got := out.NRGBAAt(1, 0); got != red {
		t.Fatalf("expected top-left to move to top-right, got %+v", got)
	}
	if got := out.NRGBAAt(0, 0); got != blue {
		t.Fatalf("expected blue at top-left, got %+v", got)
	}
}

func TestCropAndRotateFlip(t *testing.T) {
	src := solidImage(3, 2, blue)
	src.SetNRGBA(0, 0, red)
	crop := domain.CropRect{Width: 3, Height: 2}

	h, err := CropAndRotate(src, crop, 0, domain.Flip{Horizontal: true}, true)
	if err != nil {
		t.Fatalf("flip horizontal: %v", err)
	}
	if got := h.NRGBAAt(2, 0); got != red {
		t.Fatalf("expected red at top-right after horizontal flip, got %+v", got)
	}

	v, err := CropAndRotate(src, crop, 0, domain.Flip{Vertical: true}, true)
	if err != nil {
		t.Fatalf("flip vertical: %v", err)
	}
	if got := v.NRGBAAt(0, 1); got != red {
		t.Fatalf("expected red at bottom-left after vertical flip, got %+v", got)
	}
}

func TestCropAndRotateArbitraryAngle(t *testing.T) {
	src := solidImage(10, 10, red)
	bounds := RotatedBounds(10, 10, 45)
	crop := domain.CropRect{Width: bounds.Width, Height: bounds.Height}

	out, err := CropAndRotate(src, crop, 45, domain.Flip{}, true)
	if err != nil {
		t.Fatalf("crop and rotate: %v", err)
	}
	if out.Rect.Dx() != bounds.Width || out.Rect.Dy() != bounds.Height {
		t.Fatalf("expected %dx%d, got %v", bounds.Width, bounds.Height, out.Rect)
	}
	if got := out.NRGBAAt(0, 0); got.A != 0 {
		t.Fatalf("expected transparent corner, got %+v", got)
	}
	center := out.NRGBAAt(bounds.Width/2, bounds.Height/2)
	if center.A < 250 || center.R < 250 || center.G > 5 || center.B > 5 {
		t.Fatalf("expected opaque red center, got %+v", center)
	}

	flat, err := CropAndRotate(src, crop, 45, domain.Flip{}, false)
	if err != nil {
		t.Fatalf("crop and rotate flattened: %v", err)
	}
	if got := flat.NRGBAAt(0, 0); got != white {
		t.Fatalf("expected white corner when flattened, got %+v", got)
	}
}

func TestCropAndRotateInvalidCrop(t *testing.T) {
	_, err := CropAndRotate(patternImage(4, 4), domain.CropRect{Width: 0, Height: 4}, 0, domain.Flip{}, true)
	if !errors.Is(err, domain.ErrInvalidCrop) {
		t.Fatalf("expected ErrInvalidCrop, got %v", err)
	}
}

// The flip applies to the source before it is rotated onto the canvas.
func TestCropAndRotateQuarterTurnWithFlip(t *testing.T) {
	src := solidImage(3, 2, blue)
	src.SetNRGBA(0, 0, red)

	tests := []struct {
		name    string
		degrees float64
		flip    domain.Flip
		size    image.Point
		want    image.Point
	}{
		{name: "90", degrees: 90, size: image.Pt(2, 3), want: image.Pt(1, 0)},
		{name: "90 flip-h", degrees: 90, flip: domain.Flip{Horizontal: true}, size: image.Pt(2, 3), want: image.Pt(1, 2)},
		{name: "90 flip-v", degrees: 90, flip: domain.Flip{Vertical: true}, size: image.Pt(2, 3), want: image.Pt(0, 0)},
		{name: "270", degrees: 270, size: image.Pt(2, 3), want: image.Pt(0, 2)},
		{name: "270 flip-h", degrees: 270, flip: domain.Flip{Horizontal: true}, size: image.Pt(2, 3), want: image.Pt(0, 0)},
		{name: "270 flip-v", degrees: 270, flip: domain.Flip{Vertical: true}, size: image.Pt(2, 3), want: image.Pt(1, 2)},
		{name: "-90 flip-h", degrees: -90, flip: domain.Flip{Horizontal: true}, size: image.Pt(2, 3), want: image.Pt(0, 0)},
		{name: "180 flip-h", degrees: 180, flip: domain.Flip{Horizontal: true}, size: image.Pt(3, 2), want: image.Pt(0, 1)},
		{name: "90 both", degrees: 90, flip: domain.Flip{Horizontal: true, Vertical: true}, size: image.Pt(2, 3), want: image.Pt(0, 2)},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			out, err := CropAndRotate(src, domain.CropRect{Width: tc.size.X, Height: tc.size.Y}, tc.degrees, tc.flip, true)
			if err != nil {
				t.Fatalf("crop and rotate: %v", err)
			}
			if out.Rect.Size() != tc.size {
				t.Fatalf("expected %v output, got %v", tc.size, out.Rect.Size())
			}
			for y := 0; y < tc.size.Y; y++ {
				for x := 0; x < tc.size.X; x++ {
					want := blue
					if image.Pt(x, y) == tc.want {
						want = red
					}
					if got := out.NRGBAAt(x, y); got != want {
						t.Fatalf("pixel (%d,%d): expected %+v, got %+v", x, y, want, got)
					}
				}
			}
		})
	}
}

func TestCropAndRotateQuarterTurnMatchesAffinePath(t *testing.T) {
	src := patternImage(5, 3)
	src.SetNRGBA(0, 0, red)
	flips := []domain.Flip{
		{},
		{Horizontal: true},
		{Vertical: true},
		{Horizontal: true, Vertical: true},
	}

	for _, degrees := range []float64{90, 180, 270, -90} {
		for _, flip := range flips {
			bounds := RotatedBounds(5, 3, degrees)
			crop := domain.CropRect{Width: bounds.Width, Height: bounds.Height}

			exact, err := CropAndRotate(src, crop, degrees, flip, true)
			if err != nil {
				t.Fatalf("deg=%v flip=%+v: %v", degrees, flip, err)
			}
			near, err := CropAndRotate(src, crop, degrees-1e-5, flip, true)
			if err != nil {
				t.Fatalf("deg=%v flip=%+v affine: %v", degrees, flip, err)
			}
			for y := 0; y < bounds.Height; y++ {
				for x := 0; x < bounds.Width; x++ {
					if a, b := exact.NRGBAAt(x, y), near.NRGBAAt(x, y); !nearlyEqual(a, b, 2) {
						t.Fatalf("deg=%v flip=%+v pixel (%d,%d): quarter path %+v, affine path %+v", degrees, flip, x, y, a, b)
					}
				}
			}
		}
	}
}

// Mirroring the source horizontally and rotating by θ equals rotating by -θ
// and mirroring the result.
func TestCropAndRotateArbitraryAngleWithFlip(t *testing.T) {
	src := patternImage(12, 7)
	src.SetNRGBA(1, 1, red)
	bounds := RotatedBounds(12, 7, 30)
	crop := domain.CropRect{Width: bounds.Width, Height: bounds.Height}

	flipped, err := CropAndRotate(src, crop, 30, domain.Flip{Horizontal: true}, true)
	if err != nil {
		t.Fatalf("crop and rotate flipped: %v", err)
	}
	mirrored, err := CropAndRotate(src, crop, -30, domain.Flip{}, true)
	if err != nil {
		t.Fatalf("crop and rotate mirrored: %v", err)
	}

	for y := 0; y < bounds.Height; y++ {
		for x := 0; x < bounds.Width; x++ {
			a := flipped.NRGBAAt(x, y)
			b := mirrored.NRGBAAt(bounds.Width-1-x, y)
			if !nearlyEqual(a, b, 3) {
				t.Fatalf("pixel (%d,%d): flipped %+v, mirrored %+v", x, y, a, b)
			}
		}
	}
}

func nearlyEqual(a, b color.NRGBA, tol int) bool {
	diff := func(x, y uint8) bool {
		d := int(x) - int(y)
		return d <= tol && d >= -tol
	}
	if a.A == 0 && b.A == 0 {
		return true
	}
	return diff(a.R, b.R) && diff(a.G, b.G) && diff(a.B, b.B) && diff(a.A, b.A)
}
