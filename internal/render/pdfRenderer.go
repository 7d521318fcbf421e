package render

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"

	"github.com/akolanti/TenthLine/internal/config"
	"github.com/akolanti/TenthLine/internal/domain/docModel"
	"github.com/akolanti/TenthLine/pkg/logger_i"
	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/types"
)

var logger *logger_i.Logger

func init() {
	logger = logger_i.NewLogger("render")
}

var ErrNothingToMerge = errors.New("nothing to merge")

const stampFont = "Helvetica"

// PDFRenderer stamps markers and page numbers as pdfcpu text stamps and
// concatenates documents with pdfcpu's merge.
type PDFRenderer struct {
	conf     *model.Configuration
	paginate config.PaginateSettings
}

func NewPDFRenderer(paginate config.PaginateSettings) *PDFRenderer {
	conf := model.NewDefaultConfiguration()
	conf.ValidationMode = model.ValidationRelaxed
	return &PDFRenderer{conf: conf, paginate: paginate}
}

// RenderChunk stamps each document's line markers and merges the documents in order.
func (r *PDFRenderer) RenderChunk(ctx context.Context, docs []docModel.Document) ([]byte, error) {
	parts := make([][]byte, 0, len(docs))
	for _, d := range docs {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if len(d.Markers) == 0 {
			parts = append(parts, d.Content)
			continue
		}
		stamped, err := r.stampMarkers(d.Content, d.Markers)
		if err != nil {
			return nil, fmt.Errorf("stamp markers on %s: %w", d.Filename, err)
		}
		parts = append(parts, stamped)
	}
	return r.Merge(ctx, parts)
}

// Merge concatenates PDFs in the given order.
func (r *PDFRenderer) Merge(ctx context.Context, parts [][]byte) ([]byte, error) {
	if len(parts) == 0 {
		return nil, ErrNothingToMerge
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if len(parts) == 1 {
		return parts[0], nil
	}

	readers := make([]io.ReadSeeker, len(parts))
	for i, p := range parts {
		readers[i] = bytes.NewReader(p)
	}
	var out bytes.Buffer
	if err := api.MergeRaw(readers, &out, false, r.conf); err != nil {
		return nil, fmt.Errorf("pdfcpu merge: %w", err)
	}
	logger.FromContext(ctx).Debug("merged pdfs", "parts", len(parts), "bytes", out.Len())
	return out.Bytes(), nil
}

// Paginate stamps page numbers centred at the bottom of each listed page.
// Stamp.Y is the distance from the bottom edge.
func (r *PDFRenderer) Paginate(ctx context.Context, content []byte, stamps []docModel.PageNumberStamp) ([]byte, error) {
	if len(stamps) == 0 {
		return content, nil
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	byPage := make(map[int][]*model.Watermark, len(stamps))
	for _, s := range stamps {
		size := s.FontSize
		if size <= 0 {
			size = r.paginate.FontSize
		}
		wm, err := api.TextWatermark(strconv.Itoa(s.Number), stampDescription(size, "#000000", "bc", 0, s.Y), true, false, types.POINTS)
		if err != nil {
			return nil, fmt.Errorf("page number stamp: %w", err)
		}
		byPage[s.PageIndex+1] = append(byPage[s.PageIndex+1], wm)
	}
	return r.applyStamps(content, byPage)
}

// PageCount reports the number of pages pdfcpu sees in content.
func (r *PDFRenderer) PageCount(content []byte) (int, error) {
	return api.PageCount(bytes.NewReader(content), r.conf)
}

func (r *PDFRenderer) stampMarkers(content []byte, markers []docModel.LineMarker) ([]byte, error) {
	byPage := make(map[int][]*model.Watermark)
	for _, m := range markers {
		desc := stampDescription(m.FontSize, m.Color, "bl", m.X, m.Y-m.FontSize/2)
		wm, err := api.TextWatermark(strconv.Itoa(m.Ordinal), desc, true, false, types.POINTS)
		if err != nil {
			return nil, err
		}
		byPage[m.PageIndex+1] = append(byPage[m.PageIndex+1], wm)
	}
	return r.applyStamps(content, byPage)
}

func (r *PDFRenderer) applyStamps(content []byte, byPage map[int][]*model.Watermark) ([]byte, error) {
	var out bytes.Buffer
	if err := api.AddWatermarksSliceMap(bytes.NewReader(content), &out, byPage, r.conf); err != nil {
		return nil, fmt.Errorf("pdfcpu stamp: %w", err)
	}
	return out.Bytes(), nil
}

// stampDescription builds a pdfcpu text stamp description anchored at
// position and shifted by (dx, dy) points.
func stampDescription(fontSize float64, color, position string, dx, dy float64) string {
	return fmt.Sprintf("fontname:%s, points:%s, position:%s, offset:%s %s, scalefactor:1 abs, rotation:0, fillcolor:%s",
		stampFont, formatPoints(fontSize), position, formatPoints(dx), formatPoints(dy), color)
}

func formatPoints(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
