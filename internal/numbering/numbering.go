package numbering

import (
	"github.com/akolanti/TenthLine/internal/config"
	"github.com/akolanti/TenthLine/internal/domain/docModel"
)

// Engine places a marker on every Nth content line of a document.
type Engine struct {
	cfg config.NumberingSettings
}

func NewEngine(cfg config.NumberingSettings) *Engine {
	return &Engine{cfg: cfg}
}

// Number walks one document's content lines in reading order. The counter
// starts at zero for every call; a final group shorter than the interval gets
// no marker. pages supplies the width of each line's page.
func (e *Engine) Number(lines []docModel.ContentLine, pages []docModel.Page) []docModel.LineMarker {
	if e.cfg.Interval <= 0 {
		return nil
	}

	widths := make(map[int]float64, len(pages))
	for _, p := range pages {
		widths[p.Index] = p.Width
	}

	markers := make([]docModel.LineMarker, 0, len(lines)/e.cfg.Interval)
	counter := 0
	for _, line := range lines {
		if line.Tag != docModel.TagContent {
			continue
		}
		counter++
		if counter%e.cfg.Interval != 0 {
			continue
		}
		markers = append(markers, docModel.LineMarker{
			PageIndex: line.PageIndex,
			X:         widths[line.PageIndex] - e.cfg.RightOffset,
			Y:         line.BBox.CenterY(),
			Ordinal:   counter,
			FontSize:  e.cfg.FontSize,
			Color:     e.cfg.Color,
		})
	}
	return markers
}
