package pipeline

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/akolanti/TenthLine/internal/config"
	"github.com/akolanti/TenthLine/internal/domain/docModel"
)

// fakeExtractor serves page layouts keyed by document content.
type fakeExtractor struct {
	mu      sync.Mutex
	layouts map[string][]int
	fail    map[string]error
	calls   atomic.Int32
	// delay ignores ctx, like a parser stuck on one page
	delay time.Duration
}

func newFakeExtractor() *fakeExtractor {
	return &fakeExtractor{layouts: map[string][]int{}, fail: map[string]error{}}
}

func (f *fakeExtractor) Extract(ctx context.Context, filename string, content []byte) ([]docModel.Page, error) {
	f.calls.Add(1)
	if f.delay > 0 {
		time.Sleep(f.delay)
	}
	f.mu.Lock()
	layout, ok := f.layouts[string(content)]
	err := f.fail[filename]
	f.mu.Unlock()
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, errors.New("unknown document")
	}
	pages := make([]docModel.Page, len(layout))
	for i, lines := range layout {
		pages[i] = bodyPage(i, lines)
	}
	return pages, nil
}

func (f *fakeExtractor) PageCount(content []byte) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	layout, ok := f.layouts[string(content)]
	if !ok {
		return 0, errors.New("not a pdf")
	}
	return len(layout), nil
}

// add registers a document with the given content lines per page, padded to size bytes.
func (f *fakeExtractor) add(name string, order, size int, layout ...int) docModel.Document {
	content := []byte(name)
	if len(content) < size {
		content = append(content, bytes.Repeat([]byte{'.'}, size-len(content))...)
	}
	f.mu.Lock()
	f.layouts[string(content)] = layout
	f.mu.Unlock()
	return docModel.Document{Filename: name, Order: order, Content: content}
}

func bodyPage(index, lines int) docModel.Page {
	p := docModel.Page{Index: index, Width: 612, Height: 792, Origin: docModel.OriginBottomLeft}
	p.Spans = append(p.Spans, docModel.TextSpan{
		Text: "CONFIDENTIAL", BBox: docModel.BBox{X0: 250, Y0: 720, X1: 360, Y1: 740}, PageIndex: index, FontSize: 20,
	})
	for i := 0; i < lines; i++ {
		y := 690 - float64(i)*20
		p.Spans = append(p.Spans, docModel.TextSpan{
			Text:      fmt.Sprintf("Clause %d of the agreement binds both parties", i+1),
			BBox:      docModel.BBox{X0: 72, Y0: y, X1: 520, Y1: y + 12},
			PageIndex: index,
			FontSize:  12,
		})
	}
	return p
}

// fakeRenderer concatenates bytes so outputs can be compared directly.
type fakeRenderer struct {
	paginated atomic.Int32
}

func (r *fakeRenderer) RenderChunk(ctx context.Context, docs []docModel.Document) ([]byte, error) {
	var out bytes.Buffer
	for _, d := range docs {
		fmt.Fprintf(&out, "[%s markers=%d]", d.Filename, len(d.Markers))
	}
	return out.Bytes(), nil
}

func (r *fakeRenderer) Merge(ctx context.Context, parts [][]byte) ([]byte, error) {
	return bytes.Join(parts, nil), nil
}

func (r *fakeRenderer) Paginate(ctx context.Context, content []byte, stamps []docModel.PageNumberStamp) ([]byte, error) {
	r.paginated.Add(1)
	numbers := make([]string, len(stamps))
	for i, s := range stamps {
		numbers[i] = fmt.Sprint(s.Number)
	}
	return append(content, []byte("{pages "+strings.Join(numbers, ",")+"}")...), nil
}

type MockResultCache struct {
	OnGet func(ctx context.Context, key string) (docModel.ProcessingResult, bool, error)
	OnPut func(ctx context.Context, key string, result docModel.ProcessingResult, ttl time.Duration) error
}

func (m *MockResultCache) Get(ctx context.Context, key string) (docModel.ProcessingResult, bool, error) {
	if m.OnGet != nil {
		return m.OnGet(ctx, key)
	}
	return docModel.ProcessingResult{}, false, nil
}

func (m *MockResultCache) Put(ctx context.Context, key string, result docModel.ProcessingResult, ttl time.Duration) error {
	if m.OnPut != nil {
		return m.OnPut(ctx, key, result, ttl)
	}
	return nil
}

// mapCache is a working in-process cache for round-trip tests.
func mapCache() (*MockResultCache, map[string]docModel.ProcessingResult) {
	var mu sync.Mutex
	entries := map[string]docModel.ProcessingResult{}
	return &MockResultCache{
		OnGet: func(ctx context.Context, key string) (docModel.ProcessingResult, bool, error) {
			mu.Lock()
			defer mu.Unlock()
			r, ok := entries[key]
			return r, ok, nil
		},
		OnPut: func(ctx context.Context, key string, result docModel.ProcessingResult, ttl time.Duration) error {
			mu.Lock()
			defer mu.Unlock()
			entries[key] = result
			return nil
		},
	}, entries
}

func testSettings() config.Settings {
	s := config.Default()
	s.Routing.PaceDelay = time.Millisecond
	s.Routing.ChunkTimeout = 5 * time.Second
	s.Retry.BaseBackoff = time.Millisecond
	s.Retry.MaxBackoff = 5 * time.Millisecond
	return s
}

func allFeatures() docModel.FeatureSet {
	return docModel.FeatureSet{
		docModel.FeatureMerge:       true,
		docModel.FeatureRepaginate:  true,
		docModel.FeatureTenthLining: true,
	}
}
