package extract

import (
	"context"
	"fmt"

	"github.com/gen2brain/go-fitz"
)

// FitzExtractor is the high-fidelity extractor backed by MuPDF. It handles
// encodings and layouts the basic reader chokes on, at the cost of cgo.
type FitzExtractor struct{}

// NewFitzExtractor creates the MuPDF-backed extractor.
func NewFitzExtractor() *FitzExtractor { return &FitzExtractor{} }

func (e *FitzExtractor) Name() string { return "mupdf" }

// Extract pulls text page by page. Per-page failures are skipped: the page
// gets no marker and the rest of the document is still extracted.
func (e *FitzExtractor) Extract(ctx context.Context, content []byte) (result Result, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("extract: mupdf panic: %v", r)
			result = Result{Err: err}
		}
	}()

	doc, err := fitz.NewFromMemory(content)
	if err != nil {
		return Result{Err: err}, fmt.Errorf("extract: mupdf open: %w", err)
	}
	defer doc.Close()

	total := doc.NumPage()
	pages := make([]pageText, 0, total)
	for i := 0; i < total; i++ {
		if ctx.Err() != nil {
			return Result{Err: ctx.Err()}, ctx.Err()
		}
		text, perr := doc.Text(i)
		if perr != nil {
			continue
		}
		pages = append(pages, pageText{number: i + 1, text: text})
	}

	res := Result{
		Success: true,
		Text:    joinPages(pages),
	}
	res.Meta.PageCount = total
	res.Meta.Method = e.Name()
	meta := doc.Metadata()
	res.Meta.Title = meta["title"]
	res.Meta.Author = meta["author"]
	res.Meta.Subject = meta["subject"]
	return res, nil
}
