package pipeline

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/akolanti/TenthLine/internal/chunking"
	"github.com/akolanti/TenthLine/internal/config"
	"github.com/akolanti/TenthLine/internal/domain/docModel"
)

// Merger reassembles chunk outcomes into one result.
type Merger struct {
	renderer        Renderer
	paginate        config.PaginateSettings
	volumePageLimit int
}

func NewMerger(renderer Renderer, paginate config.PaginateSettings, volumePageLimit int) *Merger {
	return &Merger{renderer: renderer, paginate: paginate, volumePageLimit: volumePageLimit}
}

// Merge orders outcomes by chunk index, concatenates their documents and
// output, and sums their statistics. Chunk-local page stamps are dropped and
// replaced by one sequence over the merged output. Failed chunks are listed
// in the result; if no chunk produced output the merge fails with ErrNoResult.
func (m *Merger) Merge(ctx context.Context, outcomes []ChunkOutcome, features docModel.FeatureSet) (docModel.ProcessingResult, error) {
	sorted := make([]ChunkOutcome, len(outcomes))
	copy(sorted, outcomes)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Chunk.Index < sorted[j].Chunk.Index })

	merged := docModel.ProcessingResult{FeaturesApplied: features.Enabled()}
	var parts [][]byte
	var causes []error
	for _, o := range sorted {
		if o.Err != nil {
			causes = append(causes, o.Err)
			names := make([]string, len(o.Chunk.Documents))
			for i, d := range o.Chunk.Documents {
				names[i] = d.Filename
			}
			merged.FailedChunks = append(merged.FailedChunks, docModel.ChunkFailure{
				ChunkIndex: o.Chunk.Index,
				Documents:  names,
				Error:      o.Err.Error(),
				TimedOut:   o.TimedOut,
			})
			continue
		}

		r := o.Result
		merged.FailedDocuments = append(merged.FailedDocuments, r.FailedDocuments...)
		if len(r.Output) == 0 {
			continue
		}
		merged.ChunksProcessed++
		merged.Documents = append(merged.Documents, r.Documents...)
		merged.TotalPages += r.TotalPages
		merged.Stats.Add(r.Stats)
		parts = append(parts, r.Output)
	}

	if len(parts) == 0 {
		err := fmt.Errorf("%w: %d chunks failed, %d documents failed", ErrNoResult,
			len(merged.FailedChunks), len(merged.FailedDocuments))
		if len(causes) > 0 {
			// keep the chunk errors reachable so a timeout still reads as one
			err = fmt.Errorf("%w: %w", err, errors.Join(causes...))
		}
		return merged, err
	}

	output, err := m.renderer.Merge(ctx, parts)
	if err != nil {
		return merged, fmt.Errorf("merge chunk outputs: %w", err)
	}

	if features.Has(docModel.FeatureRepaginate) {
		merged.PageStamps = pageStamps(merged.Documents, features.Has(docModel.FeatureMerge), m.paginate)
		output, err = m.renderer.Paginate(ctx, output, merged.PageStamps)
		if err != nil {
			return merged, fmt.Errorf("paginate: %w", err)
		}
	}
	merged.Output = output
	merged.Volumes = chunking.Volumes(merged.TotalPages, m.volumePageLimit)
	return merged, nil
}
