package pipeline

import (
	"context"
	"errors"
	"testing"

	"github.com/akolanti/TenthLine/internal/config"
	"github.com/akolanti/TenthLine/internal/domain/docModel"
)

func chunkOutcome(index int, output string, docs ...docModel.DocumentSummary) ChunkOutcome {
	pages := 0
	for _, d := range docs {
		pages += d.Pages
	}
	return ChunkOutcome{
		Chunk: docModel.Chunk{Index: index},
		Result: docModel.ProcessingResult{
			ChunkIndex: index,
			Output:     []byte(output),
			TotalPages: pages,
			Documents:  docs,
			Stats:      docModel.Stats{LinesCounted: pages * 10, ByTag: map[docModel.Tag]int{docModel.TagContent: pages * 10}},
			// chunk-local numbering restarts at 1 in every chunk
			PageStamps: []docModel.PageNumberStamp{{PageIndex: 0, Number: 1}},
		},
	}
}

func TestMerger_RestoresChunkOrder(t *testing.T) {
	renderer := &fakeRenderer{}
	m := NewMerger(renderer, config.Default().Paginate, 500)

	// completion order differs from chunk order
	outcomes := []ChunkOutcome{
		chunkOutcome(2, "C", docModel.DocumentSummary{Filename: "c.pdf", Pages: 1}),
		chunkOutcome(0, "A", docModel.DocumentSummary{Filename: "a.pdf", Pages: 2}),
		chunkOutcome(1, "B", docModel.DocumentSummary{Filename: "b.pdf", Pages: 3}),
	}

	result, err := m.Merge(context.Background(), outcomes, allFeatures())
	if err != nil {
		t.Fatalf("Merge failed: %v", err)
	}
	if string(result.Output) != "ABC{pages 1,2,3,4,5,6}" {
		t.Errorf("unexpected output %q", result.Output)
	}
	if result.TotalPages != 6 || result.Stats.LinesCounted != 60 || result.Stats.ByTag[docModel.TagContent] != 60 {
		t.Errorf("totals not summed: %+v", result)
	}
	if len(result.PageStamps) != 6 || result.PageStamps[5].Number != 6 || result.PageStamps[5].PageIndex != 5 {
		t.Errorf("chunk-local stamps were not replaced: %+v", result.PageStamps)
	}
	if result.Documents[0].Filename != "a.pdf" || result.Documents[2].Filename != "c.pdf" {
		t.Errorf("documents not in chunk order: %+v", result.Documents)
	}
}

func TestMerger_PerDocumentNumberingWithoutMerge(t *testing.T) {
	m := NewMerger(&fakeRenderer{}, config.Default().Paginate, 500)
	features := docModel.FeatureSet{docModel.FeatureRepaginate: true}
	outcomes := []ChunkOutcome{
		chunkOutcome(0, "A", docModel.DocumentSummary{Filename: "a.pdf", Pages: 2}, docModel.DocumentSummary{Filename: "b.pdf", Pages: 2}),
	}

	result, err := m.Merge(context.Background(), outcomes, features)
	if err != nil {
		t.Fatalf("Merge failed: %v", err)
	}
	if string(result.Output) != "A{pages 1,2,1,2}" {
		t.Errorf("each document should restart at 1, got %q", result.Output)
	}
}

func TestMerger_FailedChunks(t *testing.T) {
	renderer := &fakeRenderer{}
	m := NewMerger(renderer, config.Default().Paginate, 500)
	failed := ChunkOutcome{
		Chunk:    docModel.Chunk{Index: 1, Documents: []docModel.Document{{Filename: "slow.pdf"}}},
		Err:      &ChunkError{Index: 1, Err: context.DeadlineExceeded},
		TimedOut: true,
	}

	result, err := m.Merge(context.Background(), []ChunkOutcome{
		chunkOutcome(0, "A", docModel.DocumentSummary{Filename: "a.pdf", Pages: 1}), failed,
	}, docModel.FeatureSet{})
	if err != nil {
		t.Fatalf("one failed chunk must not fail the merge: %v", err)
	}
	if !result.Partial() || len(result.FailedChunks) != 1 {
		t.Fatalf("expected the failed chunk to be listed, got %+v", result.FailedChunks)
	}
	fc := result.FailedChunks[0]
	if fc.ChunkIndex != 1 || !fc.TimedOut || fc.Documents[0] != "slow.pdf" {
		t.Errorf("unexpected failure record: %+v", fc)
	}
	if renderer.paginated.Load() != 0 {
		t.Error("paginate must only run when requested")
	}

	_, err = m.Merge(context.Background(), []ChunkOutcome{failed}, docModel.FeatureSet{})
	if !errors.Is(err, ErrNoResult) {
		t.Errorf("expected ErrNoResult when every chunk failed, got %v", err)
	}
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("expected the timeout cause to be kept, got %v", err)
	}
}

func TestMerger_Volumes(t *testing.T) {
	m := NewMerger(&fakeRenderer{}, config.Default().Paginate, 500)
	result, err := m.Merge(context.Background(), []ChunkOutcome{
		chunkOutcome(0, "A", docModel.DocumentSummary{Filename: "record.pdf", Pages: 1200}),
	}, docModel.FeatureSet{docModel.FeatureMerge: true})
	if err != nil {
		t.Fatalf("Merge failed: %v", err)
	}
	if len(result.Volumes) != 3 || result.Volumes[2].EndPage != 1200 {
		t.Errorf("expected 3 volumes, got %+v", result.Volumes)
	}
}

func TestFingerprint(t *testing.T) {
	docs := []docModel.Document{{Content: []byte("ab")}, {Content: []byte("c")}}
	features := docModel.FeatureSet{docModel.FeatureTenthLining: true, docModel.FeatureMerge: true}

	fp := Fingerprint(docs, features)
	if len(fp) != 64 {
		t.Fatalf("expected a sha256 hex digest, got %q", fp)
	}
	if fp != Fingerprint(docs, docModel.FeatureSet{docModel.FeatureMerge: true, docModel.FeatureTenthLining: true}) {
		t.Error("fingerprint depends on map order")
	}
	if fp != Fingerprint(docs, docModel.FeatureSet{docModel.FeatureMerge: true, docModel.FeatureTenthLining: true, docModel.FeatureRepaginate: false}) {
		t.Error("disabled features must not change the fingerprint")
	}

	shifted := []docModel.Document{{Content: []byte("a")}, {Content: []byte("bc")}}
	if fp == Fingerprint(shifted, features) {
		t.Error("document boundaries must change the fingerprint")
	}
	swapped := []docModel.Document{docs[1], docs[0]}
	if fp == Fingerprint(swapped, features) {
		t.Error("document order must change the fingerprint")
	}
	if fp == Fingerprint(docs, docModel.FeatureSet{docModel.FeatureMerge: true}) {
		t.Error("features must change the fingerprint")
	}
	if CacheKey(fp) != config.ResultCacheKeyPrefix+fp {
		t.Errorf("unexpected cache key %q", CacheKey(fp))
	}
}
