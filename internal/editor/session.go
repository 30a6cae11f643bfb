// Package editor holds the state of one edit/result cycle: a loaded source
// image, the chroma key applied to it and the committed crop.
package editor

import (
	"context"
	"errors"
	"fmt"
	"image"
	"log"
	"sync"

	"github.com/disintegration/imaging"
	"github.com/dunamismax/webpwizard/internal/domain"
	"github.com/dunamismax/webpwizard/internal/transform"
)

var (
	ErrNoSource   = errors.New("no source image loaded")
	ErrNoCrop     = errors.New("no crop committed")
	ErrBusy       = errors.New("generate already in progress")
	ErrSuperseded = errors.New("superseded by a newer chroma key request")
)

type removeFunc func(ctx context.Context, img image.Image, target *domain.RGB, tolerance domain.Tolerance) (*image.NRGBA, error)

type committedEdit struct {
	crop          domain.CropRect
	rotation      float64
	flip          domain.Flip
	preserveAlpha bool
}

// Session is safe for concurrent use. Chroma key requests supersede each
// other: only the most recent request may publish its result.
type Session struct {
	logger *log.Logger
	remove removeFunc

	mu         sync.Mutex
	source     *image.NRGBA
	format     string
	keyed      *image.NRGBA
	target     *domain.RGB
	tolerance  domain.Tolerance
	generation uint64
	cancelKey  context.CancelFunc
	edit       *committedEdit
	generating bool
}

func NewSession(logger *log.Logger, data []byte) (*Session, error) {
	img, format, err := transform.Decode(data)
	if err != nil {
		return nil, err
	}
	source := imaging.Clone(img)

	return &Session{
		logger:    logger,
		remove:    transform.RemoveColor,
		source:    source,
		format:    format,
		keyed:     source,
		tolerance: domain.DefaultTolerance,
	}, nil
}

func (s *Session) SourceSize() (domain.Size, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.source == nil {
		return domain.Size{}, ErrNoSource
	}
	return domain.Size{Width: s.source.Rect.Dx(), Height: s.source.Rect.Dy()}, nil
}

// Format is the name of the decoder that read the source.
func (s *Session) Format() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.format
}

// SampleColor picks a pixel of the untransformed, unkeyed source.
func (s *Session) SampleColor(x, y int) (domain.RGB, error) {
	s.mu.Lock()
	source := s.source
	s.mu.Unlock()
	if source == nil {
		return domain.RGB{}, ErrNoSource
	}
	return transform.SampleColor(source, x, y)
}

// SetChromaKey recomputes the keyed source for a new target color and
// tolerance. A nil target clears keying. Starting a request cancels any
// request still in flight; a request that finishes after a newer one started
// has its result dropped and returns ErrSuperseded.
func (s *Session) SetChromaKey(ctx context.Context, target *domain.RGB, tolerance domain.Tolerance) error {
	s.mu.Lock()
	if s.source == nil {
		s.mu.Unlock()
		return ErrNoSource
	}
	if s.cancelKey != nil {
		s.cancelKey()
	}
	s.generation++
	gen := s.generation
	runCtx, cancel := context.WithCancel(ctx)
	s.cancelKey = cancel
	source := s.source
	s.mu.Unlock()
	defer cancel()

	keyed, err := s.remove(runCtx, source, target, tolerance)

	s.mu.Lock()
	defer s.mu.Unlock()
	if gen != s.generation {
		s.logf("dropped stale chroma key generation=%d current=%d", gen, s.generation)
		return ErrSuperseded
	}
	s.cancelKey = nil
	if err != nil {
		return fmt.Errorf("remove color: %w", err)
	}

	s.keyed = keyed
	s.target = nil
	if target != nil {
		t := *target
		s.target = &t
		s.tolerance = tolerance
	}
	return nil
}

// ChromaKey reports the active target color, if any, and its tolerance.
func (s *Session) ChromaKey() (*domain.RGB, domain.Tolerance) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.target == nil {
		return nil, s.tolerance
	}
	t := *s.target
	return &t, s.tolerance
}

// Preview encodes the keyed source losslessly so erased pixels stay exact.
func (s *Session) Preview() ([]byte, error) {
	s.mu.Lock()
	keyed := s.keyed
	s.mu.Unlock()
	if keyed == nil {
		return nil, ErrNoSource
	}
	return transform.EncodePNG(keyed)
}

// CommitCrop records the crop rectangle (in rotated bounding-box space) and
// the orientation it was chosen under.
func (s *Session) CommitCrop(crop domain.CropRect, rotation float64, flip domain.Flip, preserveAlpha bool) error {
	if err := crop.Validate(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.source == nil {
		return ErrNoSource
	}
	s.edit = &committedEdit{
		crop:          crop,
		rotation:      rotation,
		flip:          flip,
		preserveAlpha: preserveAlpha,
	}
	return nil
}

// Generate crops the keyed source and derives the variant bundle. It is inert
// until a crop has been committed and refuses to run twice at once. While a
// chroma key is active transparency is always preserved.
func (s *Session) Generate(ctx context.Context, forced domain.ForcedSize) (transform.Bundle, error) {
	s.mu.Lock()
	switch {
	case s.source == nil:
		s.mu.Unlock()
		return transform.Bundle{}, ErrNoSource
	case s.edit == nil:
		s.mu.Unlock()
		return transform.Bundle{}, ErrNoCrop
	case s.generating:
		s.mu.Unlock()
		return transform.Bundle{}, ErrBusy
	}
	s.generating = true
	edit := *s.edit
	keyed := s.keyed
	keying := s.target != nil
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		s.generating = false
		s.mu.Unlock()
	}()

	if err := ctx.Err(); err != nil {
		return transform.Bundle{}, err
	}

	base, err := transform.CropAndRotate(keyed, edit.crop, edit.rotation, edit.flip, edit.preserveAlpha || keying)
	if err != nil {
		return transform.Bundle{}, fmt.Errorf("crop and rotate: %w", err)
	}

	if err := ctx.Err(); err != nil {
		return transform.Bundle{}, err
	}

	bundle, err := transform.GenerateVariants(base, forced)
	if err != nil {
		return transform.Bundle{}, fmt.Errorf("generate variants: %w", err)
	}
	return bundle, nil
}

// Reset discards every buffer. In-flight chroma key requests are superseded.
func (s *Session) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cancelKey != nil {
		s.cancelKey()
		s.cancelKey = nil
	}
	s.generation++
	s.source = nil
	s.keyed = nil
	s.target = nil
	s.edit = nil
	s.format = ""
}

func (s *Session) logf(format string, args ...any) {
	if s.logger != nil {
		s.logger.Printf(format, args...)
	}
}
