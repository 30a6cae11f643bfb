package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/dunamismax/webpwizard/internal/domain"
	"github.com/dunamismax/webpwizard/internal/editor"
	"github.com/dunamismax/webpwizard/internal/id"
	"github.com/dunamismax/webpwizard/internal/transform"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

type Output struct {
	Variant string `json:"variant"`
	Format  string `json:"format"`
	Name    string `json:"name"`
	Path    string `json:"path"`
	URL     string `json:"url,omitempty"`
	Bytes   int    `json:"bytes"`
	Width   int    `json:"width"`
	Height  int    `json:"height"`
}

type Result struct {
	SessionID   string   `json:"session_id"`
	SourceBytes int      `json:"source_bytes"`
	Outputs     []Output `json:"outputs"`
}

type Fetcher interface {
	Fetch(ctx context.Context, req domain.EditRequest) ([]byte, error)
}

// Emitter publishes one encoded variant. Discard undoes a successful Emit so
// a failed run leaves no partial bundle behind.
type Emitter interface {
	Emit(ctx context.Context, req domain.EditRequest, name, variant string, data []byte, format string, size domain.Size) (Output, error)
	Discard(ctx context.Context, out Output) error
}

type Processor struct {
	logger  *log.Logger
	fetcher Fetcher
	encoder Encoder
	emitter Emitter
	metrics *Metrics
	tracer  trace.Tracer
}

func NewProcessor(logger *log.Logger, fetcher Fetcher, emitter Emitter, metrics *Metrics) (*Processor, error) {
	if fetcher == nil || emitter == nil {
		return nil, errors.New("fetcher and emitter are required")
	}
	encoder, err := NewEncoder()
	if err != nil {
		return nil, fmt.Errorf("build encoder: %w", err)
	}
	if logger == nil {
		logger = log.New(os.Stderr, "[pipeline] ", log.LstdFlags|log.Lmsgprefix)
	}

	return &Processor{
		logger:  logger,
		fetcher: fetcher,
		encoder: encoder,
		emitter: emitter,
		metrics: metrics,
		tracer:  otel.Tracer("webpwizard/pipeline"),
	}, nil
}

func NewLocalProcessor(logger *log.Logger, outputDir string, metrics *Metrics) (*Processor, error) {
	return NewProcessor(logger, LocalFileFetcher{}, LocalFileEmitter{OutputDir: outputDir}, metrics)
}

// Process runs one edit: load, chroma key, crop, derive variants, encode and
// emit. Either all three variants are emitted or none are.
func (p *Processor) Process(ctx context.Context, req domain.EditRequest) (result Result, err error) {
	if err := req.Validate(); err != nil {
		return Result{}, err
	}
	if strings.TrimSpace(req.SessionID) == "" {
		req.SessionID = id.New()
	}

	ctx, span := p.tracer.Start(ctx, "pipeline.process")
	span.SetAttributes(
		attribute.String("session.id", req.SessionID),
		attribute.Float64("edit.rotation", req.Rotation),
		attribute.Bool("edit.preserve_alpha", req.PreserveAlpha),
		attribute.Bool("edit.chroma_key", req.RemoveColor != nil),
	)
	defer span.End()
	defer func() {
		p.metrics.observeRun(result, err)
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, "process failed")
			return
		}
		span.SetStatus(codes.Ok, "processed")
	}()

	var source []byte
	if err := p.stage(ctx, "fetch", func(ctx context.Context) error {
		var err error
		source, err = p.fetcher.Fetch(ctx, req)
		return err
	}); err != nil {
		return Result{}, fmt.Errorf("fetch stage: %w", err)
	}

	var session *editor.Session
	if err := p.stage(ctx, "decode", func(context.Context) error {
		var err error
		session, err = editor.NewSession(p.logger, source)
		return err
	}); err != nil {
		return Result{}, fmt.Errorf("decode stage: %w", err)
	}
	defer session.Reset()

	if req.RemoveColor != nil {
		if err := p.stage(ctx, "chroma_key", func(ctx context.Context) error {
			return session.SetChromaKey(ctx, req.RemoveColor, req.Tolerance)
		}); err != nil {
			return Result{}, fmt.Errorf("chroma key stage: %w", err)
		}
	}

	crop, err := p.resolveCrop(session, req)
	if err != nil {
		return Result{}, err
	}
	if err := session.CommitCrop(crop, req.Rotation, req.Flip, req.PreserveAlpha); err != nil {
		return Result{}, fmt.Errorf("commit crop: %w", err)
	}

	var bundle transform.Bundle
	if err := p.stage(ctx, "generate", func(ctx context.Context) error {
		var err error
		bundle, err = session.Generate(ctx, req.ForcedSize)
		return err
	}); err != nil {
		return Result{}, fmt.Errorf("generate stage: %w", err)
	}

	variants := bundle.All()
	encoded := make([][]byte, len(variants))
	if err := p.stage(ctx, "encode", func(ctx context.Context) error {
		for i, v := range variants {
			if err := ctx.Err(); err != nil {
				return err
			}
			data, err := p.encoder.Encode(v.Image)
			if err != nil {
				return fmt.Errorf("variant=%s: %w", v.Name, err)
			}
			encoded[i] = data
		}
		return nil
	}); err != nil {
		return Result{}, fmt.Errorf("encode stage: %w", err)
	}

	result = Result{
		SessionID:   req.SessionID,
		SourceBytes: len(source),
		Outputs:     make([]Output, 0, len(variants)),
	}
	if err := p.stage(ctx, "emit", func(ctx context.Context) error {
		for i, v := range variants {
			name := downloadName(req.SourcePath, v.Name, p.encoder.Format())
			out, err := p.emitter.Emit(ctx, req, name, v.Name, encoded[i], p.encoder.Format(), v.Size)
			if err != nil {
				p.discard(ctx, result.Outputs)
				return fmt.Errorf("variant=%s: %w", v.Name, err)
			}
			result.Outputs = append(result.Outputs, out)
		}
		return nil
	}); err != nil {
		return Result{}, fmt.Errorf("emit stage: %w", err)
	}

	p.logger.Printf("processed session_id=%s source=%s outputs=%d", req.SessionID, req.SourcePath, len(result.Outputs))
	return result, nil
}

// resolveCrop defaults to the whole rotated bounding box.
func (p *Processor) resolveCrop(session *editor.Session, req domain.EditRequest) (domain.CropRect, error) {
	if req.Crop != nil {
		return *req.Crop, nil
	}
	size, err := session.SourceSize()
	if err != nil {
		return domain.CropRect{}, err
	}
	bounds := transform.RotatedBounds(size.Width, size.Height, req.Rotation)
	return domain.CropRect{Width: bounds.Width, Height: bounds.Height}, nil
}

func (p *Processor) stage(ctx context.Context, name string, fn func(context.Context) error) error {
	ctx, span := p.tracer.Start(ctx, "pipeline."+name)
	defer span.End()

	startedAt := time.Now()
	err := fn(ctx)
	p.metrics.observeStage(name, time.Since(startedAt), err)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, name+" failed")
	}
	return err
}

func (p *Processor) discard(ctx context.Context, outputs []Output) {
	for _, out := range outputs {
		if err := p.emitter.Discard(ctx, out); err != nil {
			p.logger.Printf("discard partial output failed variant=%s path=%s err=%v", out.Variant, out.Path, err)
		}
	}
}

type LocalFileFetcher struct{}

func (LocalFileFetcher) Fetch(ctx context.Context, req domain.EditRequest) ([]byte, error) {
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	default:
	}

	data, err := os.ReadFile(req.SourcePath)
	if err != nil {
		return nil, fmt.Errorf("read input file %s: %w", req.SourcePath, err)
	}
	return data, nil
}

type LocalFileEmitter struct {
	OutputDir string
}

func (e LocalFileEmitter) Emit(_ context.Context, req domain.EditRequest, name, variant string, data []byte, format string, size domain.Size) (Output, error) {
	if strings.TrimSpace(e.OutputDir) == "" {
		return Output{}, errors.New("output directory is required")
	}

	sessionDir := filepath.Join(e.OutputDir, sanitizePathToken(req.SessionID))
	if err := os.MkdirAll(sessionDir, 0o755); err != nil {
		return Output{}, fmt.Errorf("create output dir: %w", err)
	}

	fullPath := filepath.Join(sessionDir, name)
	if err := os.WriteFile(fullPath, data, 0o644); err != nil {
		return Output{}, fmt.Errorf("write output file: %w", err)
	}

	return Output{
		Variant: variant,
		Format:  format,
		Name:    name,
		Path:    fullPath,
		Bytes:   len(data),
		Width:   size.Width,
		Height:  size.Height,
	}, nil
}

func (LocalFileEmitter) Discard(_ context.Context, out Output) error {
	if err := os.Remove(out.Path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	return nil
}

// downloadName builds "<source stem>-<variant>.<format>".
func downloadName(sourcePath, variant, format string) string {
	stem := strings.TrimSuffix(filepath.Base(sourcePath), filepath.Ext(sourcePath))
	return fmt.Sprintf("%s-%s.%s", sanitizePathToken(stem), variant, format)
}

func sanitizePathToken(in string) string {
	in = strings.TrimSpace(in)
	if in == "" || in == "." {
		return "image"
	}

	var b strings.Builder
	b.Grow(len(in))
	for _, r := range in {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			b.WriteRune(r)
		case r == '-' || r == '_':
			b.WriteRune(r)
		default:
			b.WriteRune('_')
		}
	}
	return b.String()
}
