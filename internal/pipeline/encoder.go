package pipeline

import "image"

const (
	FormatWebP      = "webp"
	ContentTypeWebP = "image/webp"

	// Quality is the fixed lossy quality (0-100) of every emitted variant.
	Quality = 90
)

// Encoder turns a finished variant into its downloadable bytes.
type Encoder interface {
	Encode(img image.Image) ([]byte, error)
	Format() string
}

// NewEncoder returns the WebP encoder selected by build tags.
func NewEncoder() (Encoder, error) {
	return newEncoder()
}
