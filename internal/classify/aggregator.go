package classify

import (
	"math"
	"sort"
	"strings"

	"github.com/akolanti/TenthLine/internal/config"
	"github.com/akolanti/TenthLine/internal/domain/docModel"
)

// Aggregator turns extracted spans into classified lines in reading order.
type Aggregator struct {
	cfg        config.AggregatorSettings
	classifier *Classifier
}

func NewAggregator(cfg config.AggregatorSettings, classifier *Classifier) *Aggregator {
	return &Aggregator{cfg: cfg, classifier: classifier}
}

// Aggregate assembles every page of doc (setting page.Lines) and returns the
// document's content lines ordered by page, then top to bottom, then left to right.
func (a *Aggregator) Aggregate(doc *docModel.Document) ([]docModel.ContentLine, docModel.Stats) {
	var stats docModel.Stats
	var content []docModel.ContentLine

	sort.SliceStable(doc.Pages, func(i, j int) bool { return doc.Pages[i].Index < doc.Pages[j].Index })
	for i := range doc.Pages {
		doc.Pages[i] = a.AssemblePage(doc.Pages[i])
		for _, line := range doc.Pages[i].Lines {
			stats.Record(line.Tag)
			if line.Tag == docModel.TagContent {
				content = append(content, line)
			}
		}
	}
	return content, stats
}

// AssemblePage groups the page's spans into lines, classifies them and stores
// them on the returned page in reading order. The result does not depend on
// the order spans arrive in.
func (a *Aggregator) AssemblePage(page docModel.Page) docModel.Page {
	spans := make([]docModel.TextSpan, 0, len(page.Spans))
	for _, s := range page.Spans {
		if strings.TrimSpace(s.Text) != "" {
			spans = append(spans, s)
		}
	}
	sort.Slice(spans, func(i, j int) bool { return a.readsBefore(page, spans[i], spans[j]) })

	var candidates []docModel.ContentLine
	for bandIdx, band := range a.groupBands(spans) {
		for _, segment := range a.splitColumns(band) {
			candidates = append(candidates, a.buildLine(segment, page.Index, bandIdx))
		}
	}

	page.Lines = candidates
	lines := make([]docModel.ContentLine, 0, len(candidates))
	for _, line := range candidates {
		line.Tag = a.classifier.Classify(line, page)
		if line.Tag == docModel.TagDiscarded {
			continue
		}
		lines = append(lines, line)
	}
	page.Lines = lines
	return page
}

// readsBefore is a total order: top edge per the page origin, then x, then the
// remaining fields so that equal-looking spans still sort deterministically.
func (a *Aggregator) readsBefore(page docModel.Page, s, t docModel.TextSpan) bool {
	st, tt := topEdge(page, s.BBox), topEdge(page, t.BBox)
	if st != tt {
		return page.IsAbove(st, tt)
	}
	if s.BBox.MinX() != t.BBox.MinX() {
		return s.BBox.MinX() < t.BBox.MinX()
	}
	if s.Text != t.Text {
		return s.Text < t.Text
	}
	if s.BBox.MaxX() != t.BBox.MaxX() {
		return s.BBox.MaxX() < t.BBox.MaxX()
	}
	sb, tb := bottomEdge(page, s.BBox), bottomEdge(page, t.BBox)
	if sb != tb {
		return page.IsAbove(sb, tb)
	}
	return s.FontSize < t.FontSize
}

// groupBands clusters sorted spans whose vertical ranges overlap by at least
// LineOverlapRatio of the smaller height.
func (a *Aggregator) groupBands(sorted []docModel.TextSpan) [][]docModel.TextSpan {
	var bands [][]docModel.TextSpan
	var current []docModel.TextSpan
	var lo, hi float64

	for _, s := range sorted {
		sLo, sHi := s.BBox.MinY(), s.BBox.MaxY()
		if len(current) > 0 {
			overlap := math.Min(hi, sHi) - math.Max(lo, sLo)
			minHeight := math.Min(hi-lo, sHi-sLo)
			if overlap >= a.cfg.LineOverlapRatio*minHeight && overlap >= 0 {
				current = append(current, s)
				lo, hi = math.Min(lo, sLo), math.Max(hi, sHi)
				continue
			}
			bands = append(bands, current)
		}
		current = []docModel.TextSpan{s}
		lo, hi = sLo, sHi
	}
	if len(current) > 0 {
		bands = append(bands, current)
	}
	return bands
}

// splitColumns orders a band left to right and cuts it wherever the gap
// between neighbours exceeds ColumnGap.
func (a *Aggregator) splitColumns(band []docModel.TextSpan) [][]docModel.TextSpan {
	sort.Slice(band, func(i, j int) bool {
		if band[i].BBox.MinX() != band[j].BBox.MinX() {
			return band[i].BBox.MinX() < band[j].BBox.MinX()
		}
		if band[i].Text != band[j].Text {
			return band[i].Text < band[j].Text
		}
		return band[i].BBox.MaxX() < band[j].BBox.MaxX()
	})

	var segments [][]docModel.TextSpan
	start := 0
	for i := 1; i < len(band); i++ {
		if band[i].BBox.MinX()-band[i-1].BBox.MaxX() > a.cfg.ColumnGap {
			segments = append(segments, band[start:i])
			start = i
		}
	}
	return append(segments, band[start:])
}

func (a *Aggregator) buildLine(spans []docModel.TextSpan, pageIndex, band int) docModel.ContentLine {
	var text strings.Builder
	box := spans[0].BBox
	for i, s := range spans {
		if i > 0 {
			prev := spans[i-1]
			gap := s.BBox.MinX() - prev.BBox.MaxX()
			size := math.Max(math.Max(prev.FontSize, s.FontSize), 1)
			if gap > a.cfg.SpaceGapRatio*size &&
				!strings.HasSuffix(prev.Text, " ") && !strings.HasPrefix(s.Text, " ") {
				text.WriteByte(' ')
			}
			box = box.Union(s.BBox)
		}
		text.WriteString(s.Text)
	}
	return docModel.ContentLine{
		Text:      strings.TrimSpace(text.String()),
		BBox:      docModel.BBox{X0: box.MinX(), Y0: box.MinY(), X1: box.MaxX(), Y1: box.MaxY()},
		PageIndex: pageIndex,
		Band:      band,
	}
}

func topEdge(page docModel.Page, b docModel.BBox) float64 {
	if page.Origin == docModel.OriginTopLeft {
		return b.MinY()
	}
	return b.MaxY()
}

func bottomEdge(page docModel.Page, b docModel.BBox) float64 {
	if page.Origin == docModel.OriginTopLeft {
		return b.MaxY()
	}
	return b.MinY()
}
