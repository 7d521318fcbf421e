package docModel

import (
	"context"
	"math"
	"sort"
	"time"
)

// Origin is the coordinate convention of an extractor. The aggregator's
// reading order depends on it, so every Page carries it explicitly.
type Origin int

const (
	// OriginBottomLeft is PDF user space: a larger Y is higher on the page.
	OriginBottomLeft Origin = iota
	// OriginTopLeft is screen space: a smaller Y is higher on the page.
	OriginTopLeft
)

func (o Origin) String() string {
	if o == OriginTopLeft {
		return "top-left"
	}
	return "bottom-left"
}

type BBox struct {
	X0 float64 `json:"x0"`
	Y0 float64 `json:"y0"`
	X1 float64 `json:"x1"`
	Y1 float64 `json:"y1"`
}

func (b BBox) Width() float64 { return math.Abs(b.X1 - b.X0) }
func (b BBox) Height() float64 { return math.Abs(b.Y1 - b.Y0) }
func (b BBox) CenterX() float64 { return (b.X0 + b.X1) / 2 }
func (b BBox) CenterY() float64 { return (b.Y0 + b.Y1) / 2 }
func (b BBox) MinX() float64 { return math.Min(b.X0, b.X1) }
func (b BBox) MaxX() float64 { return math.Max(b.X0, b.X1) }
func (b BBox) MinY() float64 { return math.Min(b.Y0, b.Y1) }
func (b BBox) MaxY() float64 { return math.Max(b.Y0, b.Y1) }

// Union returns the normalised box covering b and o.
func (b BBox) Union(o BBox) BBox {
	return BBox{
		X0: math.Min(b.MinX(), o.MinX()),
		Y0: math.Min(b.MinY(), o.MinY()),
		X1: math.Max(b.MaxX(), o.MaxX()),
		Y1: math.Max(b.MaxY(), o.MaxY()),
	}
}

// TextSpan is one token produced by the extractor.
type TextSpan struct {
	Text      string  `json:"text"`
	BBox      BBox    `json:"bbox"`
	PageIndex int     `json:"page_index"`
	FontSize  float64 `json:"font_size"`
}

type Tag string

const (
	TagContent      Tag = "content"
	TagWatermark    Tag = "watermark"
	TagHeaderFooter Tag = "header_footer"
	TagTable        Tag = "table"
	TagMargin       Tag = "margin"
	// TagDiscarded marks empty lines; they are dropped and never counted.
	TagDiscarded Tag = "discarded"
)

// ContentLine is one or more spans merged into a line. Band groups lines that
// share a vertical position on the page (cells of one table row share a band).
type ContentLine struct {
	Text      string `json:"text"`
	BBox      BBox   `json:"bbox"`
	PageIndex int    `json:"page_index"`
	Band      int    `json:"band"`
	Tag       Tag    `json:"tag"`
}

type Page struct {
	Index  int           `json:"index"`
	Width  float64       `json:"width"`
	Height float64       `json:"height"`
	Origin Origin        `json:"origin"`
	Spans  []TextSpan    `json:"-"`
	Lines  []ContentLine `json:"lines,omitempty"`
}

// IsAbove reports whether vertical coordinate a reads before b on this page.
func (p Page) IsAbove(a, b float64) bool {
	if p.Origin == OriginTopLeft {
		return a < b
	}
	return a > b
}

// DistanceFromTop converts a vertical coordinate into points below the top edge.
func (p Page) DistanceFromTop(y float64) float64 {
	if p.Origin == OriginTopLeft {
		return y
	}
	return p.Height - y
}

type Feature string

const (
	FeatureMerge       Feature = "merge_pdfs"
	FeatureRepaginate  Feature = "repaginate"
	FeatureTenthLining Feature = "tenth_lining"
)

type FeatureSet map[Feature]bool

// Enabled returns the enabled features sorted by name; this is the canonical form.
func (f FeatureSet) Enabled() []Feature {
	out := make([]Feature, 0, len(f))
	for feature, on := range f {
		if on {
			out = append(out, feature)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

func (f FeatureSet) Has(feature Feature) bool {
	return f[feature]
}

// LineMarker is a tenth-line annotation. Y is in the page's own coordinates.
type LineMarker struct {
	PageIndex int     `json:"page_index"`
	X         float64 `json:"x"`
	Y         float64 `json:"y"`
	Ordinal   int     `json:"ordinal"`
	FontSize  float64 `json:"font_size"`
	Color     string  `json:"color"`
}

// PageNumberStamp places a page number; PageIndex is 0-based in the composed output.
// X is a horizontal shift from the bottom centre, Y the distance from the bottom edge.
type PageNumberStamp struct {
	PageIndex int     `json:"page_index"`
	Number    int     `json:"number"`
	X         float64 `json:"x"`
	Y         float64 `json:"y"`
	FontSize  float64 `json:"font_size"`
}

type Document struct {
	Filename string       `json:"filename"`
	Order    int          `json:"order"`
	Content  []byte       `json:"-"`
	Pages    []Page       `json:"-"`
	Markers  []LineMarker `json:"-"`
}

func (d Document) Size() int64 {
	return int64(len(d.Content))
}

// Batch is one submission: documents plus the requested features.
type Batch struct {
	Documents []Document `json:"documents"`
	Features  FeatureSet `json:"features"`
}

// TotalBytes is the routing size of the batch.
func (b Batch) TotalBytes() int64 {
	var total int64
	for _, d := range b.Documents {
		total += d.Size()
	}
	return total
}

type Chunk struct {
	Index     int        `json:"index"`
	Documents []Document `json:"-"`
	Bytes     int64      `json:"bytes"`
}

type Stats struct {
	LinesCounted  int         `json:"lines_counted"`
	LinesFiltered int         `json:"lines_filtered"`
	ByTag         map[Tag]int `json:"by_tag"`
}

func (s *Stats) Record(tag Tag) {
	if tag == TagDiscarded {
		return
	}
	if s.ByTag == nil {
		s.ByTag = make(map[Tag]int)
	}
	s.ByTag[tag]++
	if tag == TagContent {
		s.LinesCounted++
	} else {
		s.LinesFiltered++
	}
}

func (s *Stats) Add(o Stats) {
	s.LinesCounted += o.LinesCounted
	s.LinesFiltered += o.LinesFiltered
	for tag, n := range o.ByTag {
		if s.ByTag == nil {
			s.ByTag = make(map[Tag]int)
		}
		s.ByTag[tag] += n
	}
}

type DocumentSummary struct {
	Filename     string `json:"filename"`
	Pages        int    `json:"pages"`
	ContentLines int    `json:"content_lines"`
	Markers      int    `json:"markers"`
}

type DocumentFailure struct {
	ChunkIndex int    `json:"chunk_index"`
	Filename   string `json:"filename"`
	Error      string `json:"error"`
}

type ChunkFailure struct {
	ChunkIndex int      `json:"chunk_index"`
	Documents  []string `json:"documents"`
	Error      string   `json:"error"`
	TimedOut   bool     `json:"timed_out"`
}

// Volume is a court-filing split of a long merged output, pages 1-based inclusive.
type Volume struct {
	Number    int `json:"number"`
	StartPage int `json:"start_page"`
	EndPage   int `json:"end_page"`
}

type ProcessingMethod string

const (
	MethodDirect  ProcessingMethod = "direct"
	MethodChunked ProcessingMethod = "chunked_parallel"
)

type ProcessingResult struct {
	ChunkIndex      int               `json:"chunk_index"`
	Output          []byte            `json:"output,omitempty"`
	TotalPages      int               `json:"total_pages"`
	Documents       []DocumentSummary `json:"documents"`
	FeaturesApplied []Feature         `json:"features_applied"`
	Stats           Stats             `json:"stats"`
	PageStamps      []PageNumberStamp `json:"page_stamps,omitempty"`
	FailedChunks    []ChunkFailure    `json:"failed_chunks,omitempty"`
	FailedDocuments []DocumentFailure `json:"failed_documents,omitempty"`
	Volumes         []Volume          `json:"volumes,omitempty"`
	Method          ProcessingMethod  `json:"method"`
	ChunksProcessed int               `json:"chunks_processed"`
	FromCache       bool              `json:"from_cache"`
	ProcessingTime  time.Duration     `json:"processing_time"`
}

// Partial reports whether any chunk or document was dropped.
func (r ProcessingResult) Partial() bool {
	return len(r.FailedChunks) > 0 || len(r.FailedDocuments) > 0
}

// ResultCache is the key-value service fronting the pipeline. Implementations
// may be unreachable; callers treat every error as a miss.
type ResultCache interface {
	Get(ctx context.Context, key string) (ProcessingResult, bool, error)
	Put(ctx context.Context, key string, result ProcessingResult, ttl time.Duration) error
}
