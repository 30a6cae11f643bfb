package transform

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/png"

	// Source formats accepted on load.
	_ "image/gif"
	_ "image/jpeg"

	"github.com/disintegration/imaging"
	"github.com/dunamismax/webpwizard/internal/domain"
	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

var (
	ErrDecode            = errors.New("decode source image")
	ErrUnsupportedSource = errors.New("unsupported source format")
	ErrOutOfBounds       = errors.New("point outside image bounds")
)

// Decode interprets data as an image in any registered format. It never
// returns a partially decoded buffer. Data in no known format fails with both
// ErrDecode and ErrUnsupportedSource.
func Decode(data []byte) (image.Image, string, error) {
	if len(data) == 0 {
		return nil, "", fmt.Errorf("%w: empty input", ErrDecode)
	}
	img, format, err := image.Decode(bytes.NewReader(data))
	if errors.Is(err, image.ErrFormat) {
		return nil, "", fmt.Errorf("%w: %w", ErrDecode, ErrUnsupportedSource)
	}
	if err != nil {
		return nil, "", fmt.Errorf("%w: %v", ErrDecode, err)
	}
	return img, format, nil
}

// SampleColor reads one pixel of the untransformed source.
func SampleColor(img image.Image, x, y int) (domain.RGB, error) {
	b := img.Bounds()
	p := image.Pt(b.Min.X+x, b.Min.Y+y)
	if !p.In(b) {
		return domain.RGB{}, fmt.Errorf("%w: (%d,%d) in %dx%d", ErrOutOfBounds, x, y, b.Dx(), b.Dy())
	}
	c := color.NRGBAModel.Convert(img.At(p.X, p.Y)).(color.NRGBA)
	return domain.RGB{R: c.R, G: c.G, B: c.B}, nil
}

// RemoveColor makes every pixel whose RGB distance to target is within the
// tolerance threshold fully transparent. Each pixel is classified on its own;
// color channels and the alpha of kept pixels are left untouched. A nil target
// yields an unmodified copy.
//
// ctx is checked once per row so a superseded run can stop early.
func RemoveColor(ctx context.Context, img image.Image, target *domain.RGB, tolerance domain.Tolerance) (*image.NRGBA, error) {
	out := imaging.Clone(img)
	if target == nil {
		return out, nil
	}
	if err := tolerance.Validate(); err != nil {
		return nil, err
	}

	threshold := tolerance.Threshold()
	limit := threshold * threshold
	tr, tg, tb := int(target.R), int(target.G), int(target.B)

	w, h := out.Rect.Dx(), out.Rect.Dy()
	for y := 0; y < h; y++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		row := out.Pix[y*out.Stride : y*out.Stride+w*4]
		for i := 0; i < len(row); i += 4 {
			dr := int(row[i]) - tr
			dg := int(row[i+1]) - tg
			db := int(row[i+2]) - tb
			if dr*dr+dg*dg+db*db <= limit {
				row[i+3] = 0
			}
		}
	}
	return out, nil
}

// EncodePNG is the lossless encoding used for previews; it keeps alpha exact.
func EncodePNG(img image.Image) ([]byte, error) {
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("encode png: %w", err)
	}
	return buf.Bytes(), nil
}
