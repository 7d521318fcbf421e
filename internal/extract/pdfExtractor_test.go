package extract

import (
	"context"
	"testing"
	"time"

	"github.com/akolanti/TenthLine/internal/classify"
	"github.com/akolanti/TenthLine/internal/config"
	"github.com/akolanti/TenthLine/internal/domain/docModel"
	"github.com/dslipak/pdf"
)

// unadvancedGlyphs mimics a standard-14 font without /Widths: every glyph of
// a string reports the same X and no width.
func unadvancedGlyphs(s string, x, y, size float64) []pdf.Text {
	out := make([]pdf.Text, 0, len(s))
	for _, r := range s {
		out = append(out, pdf.Text{Font: "Helvetica", FontSize: size, X: x, Y: y, S: string(r)})
	}
	return out
}

func glyphs(s string, x, y, size float64) []pdf.Text {
	out := make([]pdf.Text, 0, len(s))
	for _, r := range s {
		w := size * 0.5
		out = append(out, pdf.Text{Font: "Helvetica", FontSize: size, X: x, Y: y, W: w, S: string(r)})
		x += w
	}
	return out
}

func TestSpansFromGlyphs(t *testing.T) {
	var texts []pdf.Text
	texts = append(texts, glyphs("Hello world", 72, 700, 12)...)
	texts = append(texts, glyphs("Next", 72, 676, 12)...)

	spans := spansFromGlyphs(texts, 3)
	if len(spans) != 3 {
		t.Fatalf("expected 3 word spans, got %+v", spans)
	}
	want := []string{"Hello", "world", "Next"}
	for i, s := range spans {
		if s.Text != want[i] {
			t.Errorf("span %d: got %q, want %q", i, s.Text, want[i])
		}
		if s.PageIndex != 3 {
			t.Errorf("span %d: page index %d", i, s.PageIndex)
		}
	}

	hello := spans[0]
	if hello.BBox.X0 != 72 || hello.BBox.X1 != 72+5*6 {
		t.Errorf("unexpected horizontal extent: %+v", hello.BBox)
	}
	if hello.BBox.Y0 != 700 || hello.BBox.Y1 != 712 {
		t.Errorf("unexpected vertical extent: %+v", hello.BBox)
	}
}

func TestSpansFromGlyphs_GapSplitsWords(t *testing.T) {
	texts := append(glyphs("Amount", 72, 500, 10), glyphs("1500", 300, 500, 10)...)
	spans := spansFromGlyphs(texts, 0)
	if len(spans) != 2 || spans[0].Text != "Amount" || spans[1].Text != "1500" {
		t.Fatalf("expected two spans split by the gap, got %+v", spans)
	}
}

func TestSpansFromGlyphs_SizeChangeSplits(t *testing.T) {
	texts := append(glyphs("Big", 72, 500, 24), glyphs("small", 108, 500, 8)...)
	spans := spansFromGlyphs(texts, 0)
	if len(spans) != 2 {
		t.Fatalf("font size change should end the word, got %+v", spans)
	}
}

func TestExtract_RejectsGarbage(t *testing.T) {
	e := NewPDFExtractor(time.Second)
	if _, err := e.Extract(context.Background(), "broken.pdf", []byte("not a pdf at all")); err == nil {
		t.Fatal("expected an error for non-pdf content")
	}
	if _, err := e.PageCount([]byte{}); err == nil {
		t.Fatal("expected an error for empty content")
	}
}

func TestSpansFromGlyphs_MissingWidths(t *testing.T) {
	var texts []pdf.Text
	texts = append(texts, unadvancedGlyphs("Hello world", 72, 700, 12)...)
	texts = append(texts, unadvancedGlyphs("Next", 72, 676, 12)...)

	spans := spansFromGlyphs(texts, 0)
	if len(spans) != 3 {
		t.Fatalf("expected 3 word spans, got %+v", spans)
	}
	if spans[0].Text != "Hello" || spans[0].BBox.X0 != 72 || spans[0].BBox.X1 != 102 {
		t.Errorf("expected Hello estimated at 72..102, got %+v", spans[0])
	}
	if spans[1].Text != "world" || spans[1].BBox.X0 != 108 || spans[1].BBox.X1 != 138 {
		t.Errorf("expected world to follow the space, got %+v", spans[1])
	}
	if spans[2].Text != "Next" || spans[2].BBox.X0 != 72 {
		t.Errorf("a new baseline restarts at its own X, got %+v", spans[2])
	}
}

func TestSpansFromGlyphs_MissingWidthsStillCountAsContent(t *testing.T) {
	// 1. Setup
	settings := config.Default()
	aggregator := classify.NewAggregator(settings.Aggregator, classify.NewClassifier(settings.Classifier))

	var texts []pdf.Text
	for i := 0; i < 24; i++ {
		texts = append(texts, unadvancedGlyphs("The witness stated that the contract was signed", 72, 700-float64(i*24), 12)...)
	}
	page := docModel.Page{
		Index:  0,
		Width:  612,
		Height: 792,
		Origin: docModel.OriginBottomLeft,
		Spans:  spansFromGlyphs(texts, 0),
	}

	// 2. Run
	assembled := aggregator.AssemblePage(page)

	// 3. Verify
	content := 0
	for _, line := range assembled.Lines {
		if line.Tag == docModel.TagContent {
			content++
		}
	}
	if content != 24 {
		t.Errorf("expected 24 content lines, got %d of %d", content, len(assembled.Lines))
	}
}
