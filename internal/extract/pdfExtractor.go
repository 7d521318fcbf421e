package extract

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/akolanti/TenthLine/internal/domain/docModel"
	"github.com/akolanti/TenthLine/pkg/logger_i"
	"github.com/dslipak/pdf"
)

var logger *logger_i.Logger

func init() {
	logger = logger_i.NewLogger("extract")
}

var ErrPageTimeout = errors.New("page extraction timeout")

const (
	defaultPageWidth  = 612.0
	defaultPageHeight = 792.0

	// average glyph advance, in ems, for fonts that report no widths
	estimatedGlyphWidth = 0.5
)

// PDFExtractor reads glyph positions with dslipak/pdf. Coordinates are PDF
// user space, so every page it returns is OriginBottomLeft.
type PDFExtractor struct {
	pageTimeout time.Duration
}

func NewPDFExtractor(pageTimeout time.Duration) *PDFExtractor {
	return &PDFExtractor{pageTimeout: pageTimeout}
}

func (e *PDFExtractor) Extract(ctx context.Context, filename string, content []byte) ([]docModel.Page, error) {
	log := logger.FromContext(ctx).With("file", filename)

	reader, err := openReader(content)
	if err != nil {
		log.Error("failed opening of pdf file", "Error", err)
		return nil, fmt.Errorf("failed to open pdf: %w", err)
	}

	numPages := reader.NumPage()
	log.Debug("extractPDF", "number of pages", numPages)
	pages := make([]docModel.Page, 0, numPages)
	for i := 1; i <= numPages; i++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		p := reader.Page(i)
		page := docModel.Page{Index: i - 1, Origin: docModel.OriginBottomLeft}
		if p.V.IsNull() {
			log.Debug("extractPDF", "page value is null", i)
			page.Width, page.Height = defaultPageWidth, defaultPageHeight
			pages = append(pages, page)
			continue
		}
		page.Width, page.Height = mediaBox(p.V)

		texts, err := e.protectExtract(ctx, p)
		if err != nil {
			// keep the page so page counts stay right, it just has no text
			log.Error("Error parsing page content", "page", i, "Error", err)
		}
		page.Spans = spansFromGlyphs(texts, page.Index)
		pages = append(pages, page)
	}
	return pages, nil
}

// PageCount opens the document without reading page content.
func (e *PDFExtractor) PageCount(content []byte) (int, error) {
	reader, err := openReader(content)
	if err != nil {
		return 0, fmt.Errorf("failed to open pdf: %w", err)
	}
	return reader.NumPage(), nil
}

func openReader(content []byte) (r *pdf.Reader, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			r, err = nil, fmt.Errorf("malformed pdf: %v", rec)
		}
	}()
	return pdf.NewReader(bytes.NewReader(content), int64(len(content)))
}

func (e *PDFExtractor) protectExtract(ctx context.Context, page pdf.Page) ([]pdf.Text, error) {
	type result struct {
		texts []pdf.Text
		err   error
	}
	resChan := make(chan result, 1)

	go func() {
		defer func() {
			if rec := recover(); rec != nil {
				resChan <- result{err: fmt.Errorf("content stream: %v", rec)}
			}
		}()
		resChan <- result{texts: page.Content().Text}
	}()

	select {
	case r := <-resChan:
		return r.texts, r.err
	case <-time.After(e.pageTimeout):
		return nil, ErrPageTimeout
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// mediaBox walks the page tree for an inherited MediaBox.
func mediaBox(v pdf.Value) (float64, float64) {
	for node := v; !node.IsNull(); node = node.Key("Parent") {
		box := node.Key("MediaBox")
		if box.Len() != 4 {
			continue
		}
		w := math.Abs(box.Index(2).Float64() - box.Index(0).Float64())
		h := math.Abs(box.Index(3).Float64() - box.Index(1).Float64())
		if w > 0 && h > 0 {
			return w, h
		}
	}
	return defaultPageWidth, defaultPageHeight
}

// spansFromGlyphs joins consecutive glyphs on one baseline into word spans.
// A whitespace glyph, a change of baseline or size, or a visible gap ends a word.
// spansFromGlyphs merges glyphs into word spans. Fonts without a /Widths
// array come back with W == 0 and an unadvanced X; their advance is estimated
// from the font size and a cursor carries it along the baseline.
func spansFromGlyphs(texts []pdf.Text, pageIndex int) []docModel.TextSpan {
	var spans []docModel.TextSpan
	var word strings.Builder
	var current docModel.TextSpan
	var cursorX, cursorY float64
	haveCursor := false

	flush := func() {
		if word.Len() > 0 {
			current.Text = word.String()
			spans = append(spans, current)
		}
		word.Reset()
	}

	for _, t := range texts {
		size := t.FontSize
		if size <= 0 {
			size = 1
		}
		advance := t.W
		x := t.X
		if advance <= 0 {
			advance = float64(utf8.RuneCountInString(t.S)) * size * estimatedGlyphWidth
			if haveCursor && math.Abs(t.Y-cursorY) <= size*0.2 && x < cursorX {
				x = cursorX
			}
		}
		cursorX, cursorY, haveCursor = x+advance, t.Y, true

		if strings.TrimSpace(t.S) == "" {
			flush()
			continue
		}

		if word.Len() > 0 {
			sameBaseline := math.Abs(t.Y-current.BBox.Y0) <= size*0.2
			gap := x - current.BBox.X1
			if !sameBaseline || t.FontSize != current.FontSize || gap > size*0.15 || gap < -size {
				flush()
			}
		}

		if word.Len() == 0 {
			current = docModel.TextSpan{
				BBox:      docModel.BBox{X0: x, Y0: t.Y, X1: x + advance, Y1: t.Y + size},
				PageIndex: pageIndex,
				FontSize:  t.FontSize,
			}
		} else {
			current.BBox.X1 = math.Max(current.BBox.X1, x+advance)
		}
		word.WriteString(t.S)
	}
	flush()
	return spans
}
