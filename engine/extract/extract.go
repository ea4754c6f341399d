// Package extract converts raw document blobs (PDF attachments) into plain
// text plus structural metadata. A high-fidelity extractor is tried first and
// the adapter degrades to a basic extractor on any failure; errors never cross
// the component boundary as panics.
package extract

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/talentgrid/talentgrid/engine/domain"
)

// Result is the outcome of one extraction attempt. Err is set instead of the
// adapter raising; Text is empty whenever Success is false.
type Result struct {
	Success bool
	Text    string
	Meta    domain.ExtractionMeta
	Err     error
}

// ContentLength returns the byte length of the extracted text.
func (r Result) ContentLength() int { return len(r.Text) }

// WordCount returns the whitespace-separated word count of the extracted text.
func (r Result) WordCount() int { return len(strings.Fields(r.Text)) }

// Extractor turns a raw blob into text and metadata.
type Extractor interface {
	// Name identifies the extraction method in ProcessedDocument metadata.
	Name() string
	Extract(ctx context.Context, content []byte) (Result, error)
}

// Chain tries extractors in order and returns the first success. It is the
// degradation policy of the adapter: high-fidelity first, basic second.
type Chain struct {
	extractors []Extractor
	logger     *slog.Logger
}

// NewChain builds an extraction chain. A chain with no extractors reports
// domain.ErrExtractionUnavailable on every call.
func NewChain(logger *slog.Logger, extractors ...Extractor) *Chain {
	if logger == nil {
		logger = slog.Default()
	}
	return &Chain{extractors: extractors, logger: logger}
}

// Default returns the standard chain: MuPDF first, pure-Go reader second.
func Default(logger *slog.Logger) *Chain {
	return NewChain(logger, NewFitzExtractor(), NewBasicExtractor())
}

// Extract runs the chain. The returned Result always reflects the outcome;
// the error return mirrors Result.Err for callers that prefer it.
func (c *Chain) Extract(ctx context.Context, content []byte) (Result, error) {
	if len(content) == 0 {
		r := Result{Err: fmt.Errorf("extract: %w: no content", domain.ErrEmptyInput)}
		return r, r.Err
	}
	if len(c.extractors) == 0 {
		r := Result{Err: domain.ErrExtractionUnavailable}
		return r, r.Err
	}

	var lastErr error
	for _, ex := range c.extractors {
		res, err := ex.Extract(ctx, content)
		if err == nil && res.Success {
			return res, nil
		}
		if err == nil {
			err = res.Err
		}
		lastErr = err
		c.logger.Warn("extract: method failed, degrading",
			"method", ex.Name(), "error", err)
	}

	r := Result{Err: fmt.Errorf("extract: all methods failed: %w", lastErr)}
	return r, r.Err
}

// pageMarker renders the separator written before each successfully extracted
// page. Downstream length and word counts depend on this exact format.
func pageMarker(page int) string {
	return fmt.Sprintf("--- Page %d ---", page)
}

// joinPages assembles per-page text with markers, skipping empty pages.
func joinPages(pages []pageText) string {
	parts := make([]string, 0, len(pages))
	for _, p := range pages {
		if strings.TrimSpace(p.text) == "" {
			continue
		}
		parts = append(parts, pageMarker(p.number)+"\n"+p.text)
	}
	return strings.Join(parts, "\n\n")
}

type pageText struct {
	number int // 1-based
	text   string
}
