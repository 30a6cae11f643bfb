package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log"
	"path"
	"strings"
	"time"

	"github.com/dunamismax/webpwizard/internal/domain"
)

const defaultDownloadTTL = 15 * time.Minute

type objectStore interface {
	WriteObject(ctx context.Context, objectKey string, data []byte, contentType string) error
	RemoveObject(ctx context.Context, objectKey string) error
	PresignedGetURL(ctx context.Context, objectKey string, expiry time.Duration) (string, error)
}

// ObjectStoreEmitter uploads variants to a bucket and hands back presigned
// download links instead of local paths.
type ObjectStoreEmitter struct {
	Storage      objectStore
	OutputPrefix string
	DownloadTTL  time.Duration
}

func NewObjectStoreProcessor(logger *log.Logger, emitter ObjectStoreEmitter, metrics *Metrics) (*Processor, error) {
	if emitter.Storage == nil {
		return nil, errors.New("storage client is required")
	}
	return NewProcessor(logger, LocalFileFetcher{}, emitter, metrics)
}

func (e ObjectStoreEmitter) Emit(ctx context.Context, req domain.EditRequest, name, variant string, data []byte, format string, size domain.Size) (Output, error) {
	if e.Storage == nil {
		return Output{}, errors.New("storage client is required")
	}

	objectKey := path.Join(
		defaultOutputPrefix(e.OutputPrefix),
		sanitizePathToken(req.SessionID),
		name,
	)
	if err := e.Storage.WriteObject(ctx, objectKey, data, ContentTypeWebP); err != nil {
		return Output{}, err
	}

	ttl := e.DownloadTTL
	if ttl <= 0 {
		ttl = defaultDownloadTTL
	}
	url, err := e.Storage.PresignedGetURL(ctx, objectKey, ttl)
	if err != nil {
		if rmErr := e.Storage.RemoveObject(ctx, objectKey); rmErr != nil {
			return Output{}, fmt.Errorf("%w (cleanup failed: %v)", err, rmErr)
		}
		return Output{}, err
	}

	return Output{
		Variant: variant,
		Format:  format,
		Name:    name,
		Path:    objectKey,
		URL:     url,
		Bytes:   len(data),
		Width:   size.Width,
		Height:  size.Height,
	}, nil
}

func (e ObjectStoreEmitter) Discard(ctx context.Context, out Output) error {
	if e.Storage == nil {
		return errors.New("storage client is required")
	}
	return e.Storage.RemoveObject(ctx, out.Path)
}

func defaultOutputPrefix(prefix string) string {
	prefix = strings.Trim(strings.TrimSpace(prefix), "/")
	if prefix == "" {
		return "outputs"
	}
	return prefix
}
