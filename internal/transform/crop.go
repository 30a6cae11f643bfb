package transform

import (
	"image"
	"image/color"
	"math"

	"github.com/disintegration/imaging"
	"github.com/dunamismax/webpwizard/internal/domain"
	"golang.org/x/image/draw"
	"golang.org/x/image/math/f64"
)

// CropAndRotate renders src rotated by degrees and flipped into a buffer the
// size of its rotated bounds, centered, and cuts crop out of that buffer.
// Rotation is clockwise on screen (y axis pointing down).
//
// The crop is never clamped: pixels read from outside the rendered buffer are
// transparent, and the result is always crop.Width x crop.Height. When
// preserveAlpha is false the crop is composited over opaque white.
func CropAndRotate(src image.Image, crop domain.CropRect, degrees float64, flip domain.Flip, preserveAlpha bool) (*image.NRGBA, error) {
	if err := crop.Validate(); err != nil {
		return nil, err
	}
	if src.Bounds().Empty() {
		return nil, domain.ErrInvalidSize
	}

	canvas := renderRotated(imaging.Clone(src), degrees, flip)

	region := image.NewNRGBA(image.Rect(0, 0, crop.Width, crop.Height))
	draw.Draw(region, region.Bounds(), canvas, image.Pt(crop.X, crop.Y), draw.Src)
	if preserveAlpha {
		return region, nil
	}
	return flatten(region), nil
}

// renderRotated draws src (origin at 0,0) into its rotated bounding box with
// translate(center) * rotate * scale(flip) * translate(-half source).
func renderRotated(src *image.NRGBA, degrees float64, flip domain.Flip) image.Image {
	if turns, ok := quarterTurns(degrees); ok {
		return rotateQuarter(src, turns, flip)
	}

	w, h := src.Rect.Dx(), src.Rect.Dy()
	bounds := RotatedBounds(w, h, degrees)
	dst := image.NewRGBA(image.Rect(0, 0, bounds.Width, bounds.Height))

	rad := degrees * math.Pi / 180
	cos, sin := math.Cos(rad), math.Sin(rad)
	sx, sy := 1.0, 1.0
	if flip.Horizontal {
		sx = -1
	}
	if flip.Vertical {
		sy = -1
	}
	cx, cy := float64(bounds.Width)/2, float64(bounds.Height)/2
	hw, hh := float64(w)/2, float64(h)/2

	s2d := f64.Aff3{
		cos * sx, -sin * sy, cx - cos*sx*hw + sin*sy*hh,
		sin * sx, cos * sy, cy - sin*sx*hw - cos*sy*hh,
	}
	draw.BiLinear.Transform(dst, s2d, src, src.Bounds(), draw.Over, nil)
	return dst
}

// rotateQuarter handles multiples of 90 degrees with exact pixel moves. The
// rotated image fills its bounding box exactly, so no centering is needed.
func rotateQuarter(img *image.NRGBA, turns int, flip domain.Flip) *image.NRGBA {
	if flip.Horizontal {
		img = imaging.FlipH(img)
	}
	if flip.Vertical {
		img = imaging.FlipV(img)
	}
	// imaging rotates counter-clockwise.
	switch turns {
	case 1:
		return imaging.Rotate270(img)
	case 2:
		return imaging.Rotate180(img)
	case 3:
		return imaging.Rotate90(img)
	default:
		return img
	}
}

// flatten composites img over opaque white so no transparency remains.
func flatten(img *image.NRGBA) *image.NRGBA {
	out := image.NewNRGBA(img.Rect)
	draw.Draw(out, out.Rect, image.NewUniform(color.White), image.Point{}, draw.Src)
	draw.Draw(out, out.Rect, img, img.Rect.Min, draw.Over)
	return out
}
