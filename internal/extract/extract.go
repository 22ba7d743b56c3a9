// Package extract turns uploaded files into plain text. Extraction is
// dispatched by file extension through a registry so new formats only need a
// new Extractor registration.
package extract

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrUnsupported is returned for extensions with no registered extractor.
	ErrUnsupported = errors.New("unsupported file type")
	// ErrEmptyText is returned when extraction yields nothing usable.
	ErrEmptyText = errors.New("could not extract text from file")
)

// Extractor produces plain text from a saved file.
type Extractor interface {
	Extract(ctx context.Context, path string) (string, error)
}

// ExtractorFunc adapts a function to the Extractor interface.
type ExtractorFunc func(ctx context.Context, path string) (string, error)

func (f ExtractorFunc) Extract(ctx context.Context, path string) (string, error) {
	return f(ctx, path)
}

// Registry maps lowercase extensions (with leading dot) to extractors.
type Registry struct {
	byExt map[string]Extractor
}

func NewRegistry() *Registry {
	return &Registry{byExt: map[string]Extractor{}}
}

// Register binds an extractor to one or more extensions, replacing any
// previous binding.
func (r *Registry) Register(e Extractor, exts ...string) {
	for _, ext := range exts {
		r.byExt[strings.ToLower(ext)] = e
	}
}

// Supported reports whether ext has a registered extractor.
func (r *Registry) Supported(ext string) bool {
	_, ok := r.byExt[strings.ToLower(ext)]
	return ok
}

// Extract runs the extractor registered for ext over the file at path. An
// unknown extension is rejected before touching the file; empty or
// whitespace-only output is rejected after.
func (r *Registry) Extract(ctx context.Context, path string, ext string) (string, error) {
	e, ok := r.byExt[strings.ToLower(ext)]
	if !ok {
		return "", fmt.Errorf("%w: %q", ErrUnsupported, ext)
	}
	text, err := e.Extract(ctx, path)
	if err != nil {
		return "", err
	}
	if strings.TrimSpace(text) == "" {
		return "", ErrEmptyText
	}
	return text, nil
}
