//go:build !govips || !cgo

package pipeline

import (
	"bytes"
	"fmt"
	"image"

	"github.com/gen2brain/webp"
)

// wasmEncoder runs libwebp through gen2brain/webp, which needs no cgo. It
// writes lossy VP8 at the fixed quality and keeps the alpha channel.
type wasmEncoder struct{}

func (wasmEncoder) Format() string {
	return FormatWebP
}

func (wasmEncoder) Encode(img image.Image) ([]byte, error) {
	var buf bytes.Buffer
	if err := webp.Encode(&buf, img, webp.Options{Quality: Quality}); err != nil {
		return nil, fmt.Errorf("encode webp: %w", err)
	}
	return buf.Bytes(), nil
}
