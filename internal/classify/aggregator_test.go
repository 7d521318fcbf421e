package classify

import (
	"math/rand"
	"reflect"
	"testing"

	"github.com/akolanti/TenthLine/internal/config"
	"github.com/akolanti/TenthLine/internal/domain/docModel"
)

func newTestAggregator() *Aggregator {
	cfg := config.Default()
	return NewAggregator(cfg.Aggregator, NewClassifier(cfg.Classifier))
}

// span builds a 12pt span whose baseline sits at y in bottom-left coordinates.
func span(text string, x0, x1, y float64) docModel.TextSpan {
	return docModel.TextSpan{Text: text, BBox: docModel.BBox{X0: x0, Y0: y, X1: x1, Y1: y + 12}, FontSize: 12}
}

func TestAggregator_MergesSpansIntoLines(t *testing.T) {
	a := newTestAggregator()
	page := letterPage()
	page.Spans = []docModel.TextSpan{
		span("The", 72, 92, 500),
		span("parties", 96, 134, 500),
		span("agree", 138, 168, 500),
		span("to", 172, 184, 500),
		span("the", 188, 206, 500),
		span("terms", 210, 240, 500),
		span("Sec", 72, 90, 470),
		span("tion", 90, 112, 470),
		span("two", 116, 136, 470),
		span("applies", 140, 180, 470),
	}

	got := a.AssemblePage(page).Lines
	if len(got) != 2 {
		t.Fatalf("expected 2 lines, got %d: %+v", len(got), got)
	}
	if got[0].Text != "The parties agree to the terms" {
		t.Errorf("first line: got %q", got[0].Text)
	}
	if got[1].Text != "Section two applies" {
		t.Errorf("second line: got %q", got[1].Text)
	}
	if got[0].BBox.MinX() != 72 || got[0].BBox.MaxX() != 240 {
		t.Errorf("first line bbox not the union of its spans: %+v", got[0].BBox)
	}
}

func TestAggregator_OriginDecidesReadingOrder(t *testing.T) {
	a := newTestAggregator()

	bottomLeft := letterPage()
	bottomLeft.Spans = []docModel.TextSpan{
		span("second line of the body text", 72, 300, 400),
		span("first line of the body text", 72, 300, 600),
	}
	got := a.AssemblePage(bottomLeft).Lines
	if len(got) != 2 || got[0].Text != "first line of the body text" {
		t.Errorf("bottom-left: larger y must read first, got %+v", got)
	}

	topLeft := letterPage()
	topLeft.Origin = docModel.OriginTopLeft
	topLeft.Spans = []docModel.TextSpan{
		span("second line of the body text", 72, 300, 600),
		span("first line of the body text", 72, 300, 400),
	}
	got = a.AssemblePage(topLeft).Lines
	if len(got) != 2 || got[0].Text != "first line of the body text" {
		t.Errorf("top-left: smaller y must read first, got %+v", got)
	}
}

func TestAggregator_SplitsColumnsIntoSeparateLines(t *testing.T) {
	a := newTestAggregator()
	page := letterPage()
	page.Spans = []docModel.TextSpan{
		span("Services", 72, 130, 500),
		span("Rendered", 300, 360, 500),
	}

	got := a.AssemblePage(page).Lines
	if len(got) != 2 {
		t.Fatalf("expected the row to split into 2 cells, got %+v", got)
	}
	if got[0].Band != got[1].Band {
		t.Errorf("cells of one row should share a band: %d vs %d", got[0].Band, got[1].Band)
	}
	for _, line := range got {
		if line.Tag != docModel.TagTable {
			t.Errorf("%q: got %s, want table", line.Text, line.Tag)
		}
	}
}

func TestAggregator_InvariantToSpanOrder(t *testing.T) {
	a := newTestAggregator()
	base := letterPage()
	for row := 0; row < 8; row++ {
		y := 650 - float64(row)*24
		base.Spans = append(base.Spans,
			span("Lorem", 72, 110, y),
			span("ipsum", 114, 150, y),
			span("dolor", 154, 190, y),
			span("sit", 194, 210, y),
			span("amet", 214, 245, y),
		)
	}
	want := a.AssemblePage(base).Lines

	rng := rand.New(rand.NewSource(7))
	for i := 0; i < 20; i++ {
		shuffled := base
		shuffled.Spans = append([]docModel.TextSpan(nil), base.Spans...)
		rng.Shuffle(len(shuffled.Spans), func(i, j int) {
			shuffled.Spans[i], shuffled.Spans[j] = shuffled.Spans[j], shuffled.Spans[i]
		})
		if got := a.AssemblePage(shuffled).Lines; !reflect.DeepEqual(got, want) {
			t.Fatalf("permutation %d changed the result:\n got %+v\nwant %+v", i, got, want)
		}
	}
}

func TestAggregator_DocumentStats(t *testing.T) {
	a := newTestAggregator()
	page := func(index int) docModel.Page {
		p := letterPage()
		p.Index = index
		p.Spans = []docModel.TextSpan{
			span("CONFIDENTIAL", 250, 360, 390),
			span("Case No. 21-cv-1234", 72, 250, 770),
			span("The tenant shall pay rent monthly", 72, 300, 600),
			span("The landlord shall maintain the roof", 72, 300, 576),
			span("   ", 72, 300, 552),
		}
		return p
	}
	doc := &docModel.Document{Filename: "lease.pdf", Pages: []docModel.Page{page(1), page(0)}}

	content, stats := a.Aggregate(doc)
	if len(content) != 4 {
		t.Fatalf("expected 4 content lines, got %d", len(content))
	}
	if content[0].PageIndex != 0 || content[3].PageIndex != 1 {
		t.Errorf("content not ordered by page: %+v", content)
	}
	if stats.LinesCounted != 4 || stats.LinesFiltered != 4 {
		t.Errorf("unexpected stats: %+v", stats)
	}
	if stats.ByTag[docModel.TagWatermark] != 2 || stats.ByTag[docModel.TagHeaderFooter] != 2 {
		t.Errorf("unexpected per-tag counts: %+v", stats.ByTag)
	}
	if _, ok := stats.ByTag[docModel.TagDiscarded]; ok {
		t.Error("discarded lines must not be counted")
	}
}
