package extract

import (
	"bytes"
	"context"
	"fmt"

	"github.com/ledongthuc/pdf"
)

// BasicExtractor is the pure-Go fallback reader. Lower fidelity than MuPDF
// (no document metadata, weaker encoding support) but has no cgo dependency.
type BasicExtractor struct{}

// NewBasicExtractor creates the pure-Go extractor.
func NewBasicExtractor() *BasicExtractor { return &BasicExtractor{} }

func (e *BasicExtractor) Name() string { return "basic" }

// Extract reads pages with the pure-Go parser. The library is known to panic
// on malformed streams, so the boundary recovers and reports an error result
// instead.
func (e *BasicExtractor) Extract(ctx context.Context, content []byte) (result Result, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("extract: basic reader panic: %v", r)
			result = Result{Err: err}
		}
	}()

	reader, err := pdf.NewReader(bytes.NewReader(content), int64(len(content)))
	if err != nil {
		return Result{Err: err}, fmt.Errorf("extract: basic open: %w", err)
	}

	total := reader.NumPage()
	pages := make([]pageText, 0, total)
	for i := 1; i <= total; i++ {
		if ctx.Err() != nil {
			return Result{Err: ctx.Err()}, ctx.Err()
		}
		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}
		text, perr := page.GetPlainText(nil)
		if perr != nil {
			continue
		}
		pages = append(pages, pageText{number: i, text: text})
	}

	res := Result{
		Success: true,
		Text:    joinPages(pages),
	}
	res.Meta.PageCount = total
	res.Meta.Method = e.Name()
	return res, nil
}
