package domain

import (
	"errors"
	"fmt"
	"strings"

	"github.com/lucasb-eyer/go-colorful"
)

const (
	VariantSmall    = "small"
	VariantOriginal = "original"
	VariantLarge    = "large"

	MinTolerance     Tolerance = 1
	MaxTolerance     Tolerance = 10
	DefaultTolerance Tolerance = 3

	// toleranceStep maps a tolerance level onto an RGB distance threshold.
	toleranceStep = 15
)

var (
	ErrInvalidCrop      = errors.New("invalid crop rectangle")
	ErrInvalidTolerance = errors.New("invalid tolerance level")
	ErrInvalidSize      = errors.New("invalid target size")
)

// Variants lists the bundle members in output order.
func Variants() []string {
	return []string{VariantSmall, VariantOriginal, VariantLarge}
}

type RGB struct {
	R uint8 `json:"r"`
	G uint8 `json:"g"`
	B uint8 `json:"b"`
}

// ParseRGB accepts "#rrggbb" or "rrggbb".
func ParseRGB(s string) (RGB, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return RGB{}, errors.New("color is required")
	}
	if !strings.HasPrefix(s, "#") {
		s = "#" + s
	}
	c, err := colorful.Hex(s)
	if err != nil {
		return RGB{}, fmt.Errorf("parse color %q: %w", s, err)
	}
	r, g, b := c.RGB255()
	return RGB{R: r, G: g, B: b}, nil
}

func (c RGB) Hex() string {
	return colorful.Color{
		R: float64(c.R) / 255,
		G: float64(c.G) / 255,
		B: float64(c.B) / 255,
	}.Hex()
}

type Tolerance int

// Threshold is the largest RGB distance that still counts as a match.
func (t Tolerance) Threshold() int {
	return int(t) * toleranceStep
}

func (t Tolerance) Validate() error {
	if t < MinTolerance || t > MaxTolerance {
		return fmt.Errorf("%w: %d not in [%d,%d]", ErrInvalidTolerance, t, MinTolerance, MaxTolerance)
	}
	return nil
}

// CropRect is expressed in the coordinate space of the rotated bounding box.
// X and Y may fall outside it; only the size has to be positive.
type CropRect struct {
	X      int `json:"x"`
	Y      int `json:"y"`
	Width  int `json:"width"`
	Height int `json:"height"`
}

func (r CropRect) Validate() error {
	if r.Width <= 0 || r.Height <= 0 {
		return fmt.Errorf("%w: size %dx%d must be positive", ErrInvalidCrop, r.Width, r.Height)
	}
	return nil
}

type Flip struct {
	Horizontal bool `json:"horizontal,omitempty"`
	Vertical   bool `json:"vertical,omitempty"`
}

type Size struct {
	Width  int `json:"width"`
	Height int `json:"height"`
}

// ForcedSize overrides the base size of the bundle. Zero means not given.
type ForcedSize struct {
	Width  int `json:"width,omitempty"`
	Height int `json:"height,omitempty"`
}

func (f ForcedSize) Validate() error {
	if f.Width < 0 || f.Height < 0 {
		return fmt.Errorf("%w: forced size %dx%d", ErrInvalidSize, f.Width, f.Height)
	}
	return nil
}

func (f ForcedSize) IsZero() bool {
	return f.Width == 0 && f.Height == 0
}

type EditRequest struct {
	SessionID     string     `json:"session_id,omitempty"`
	SourcePath    string     `json:"source_path"`
	Crop          *CropRect  `json:"crop,omitempty"`
	Rotation      float64    `json:"rotation"`
	Flip          Flip       `json:"flip"`
	PreserveAlpha bool       `json:"preserve_alpha"`
	RemoveColor   *RGB       `json:"remove_color,omitempty"`
	Tolerance     Tolerance  `json:"tolerance,omitempty"`
	ForcedSize    ForcedSize `json:"forced_size"`
}

func (r EditRequest) Validate() error {
	if strings.TrimSpace(r.SourcePath) == "" {
		return errors.New("source_path is required")
	}
	if r.Crop != nil {
		if err := r.Crop.Validate(); err != nil {
			return fmt.Errorf("crop: %w", err)
		}
	}
	if r.RemoveColor != nil {
		if err := r.Tolerance.Validate(); err != nil {
			return fmt.Errorf("tolerance: %w", err)
		}
	}
	if err := r.ForcedSize.Validate(); err != nil {
		return fmt.Errorf("forced_size: %w", err)
	}
	return nil
}
