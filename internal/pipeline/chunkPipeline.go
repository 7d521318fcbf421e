package pipeline

import (
	"context"
	"fmt"

	"github.com/akolanti/TenthLine/internal/classify"
	"github.com/akolanti/TenthLine/internal/config"
	"github.com/akolanti/TenthLine/internal/domain/docModel"
	"github.com/akolanti/TenthLine/internal/numbering"
	"golang.org/x/sync/errgroup"
)

// ChunkPipeline runs extract, classify, aggregate, number and render over the
// documents of one chunk.
type ChunkPipeline struct {
	extractor  Extractor
	renderer   Renderer
	aggregator *classify.Aggregator
	numbering  *numbering.Engine
	paginate   config.PaginateSettings
}

func NewChunkPipeline(settings config.Settings, extractor Extractor, renderer Renderer) *ChunkPipeline {
	return &ChunkPipeline{
		extractor:  extractor,
		renderer:   renderer,
		aggregator: classify.NewAggregator(settings.Aggregator, classify.NewClassifier(settings.Classifier)),
		numbering:  numbering.NewEngine(settings.Numbering),
		paginate:   settings.Paginate,
	}
}

// Process handles one chunk. Extraction runs up to documentWorkers documents
// at a time; classification and numbering run per document on this goroutine.
// A document that fails to extract is reported in FailedDocuments. Only a
// transient extraction error, a render error or cancellation fails the chunk.
func (p *ChunkPipeline) Process(ctx context.Context, chunk docModel.Chunk, features docModel.FeatureSet, documentWorkers int) (docModel.ProcessingResult, error) {
	log := logger.FromContext(ctx).With("chunk", chunk.Index)
	result := docModel.ProcessingResult{ChunkIndex: chunk.Index}

	docs := make([]docModel.Document, len(chunk.Documents))
	copy(docs, chunk.Documents)
	extractErrs := make([]error, len(docs))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(max(documentWorkers, 1))
	for i := range docs {
		g.Go(func() error {
			pages, err := p.extractor.Extract(gctx, docs[i].Filename, docs[i].Content)
			if err != nil {
				if IsTransient(err) || gctx.Err() != nil {
					return err
				}
				extractErrs[i] = &ExtractionError{Filename: docs[i].Filename, Err: err}
				return nil
			}
			docs[i].Pages = pages
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return result, err
	}

	rendered := make([]docModel.Document, 0, len(docs))
	for i := range docs {
		if extractErrs[i] != nil {
			log.Warn("document dropped", "file", docs[i].Filename, "Error", extractErrs[i])
			result.FailedDocuments = append(result.FailedDocuments, docModel.DocumentFailure{
				ChunkIndex: chunk.Index,
				Filename:   docs[i].Filename,
				Error:      extractErrs[i].Error(),
			})
			continue
		}

		doc := docs[i]
		content, stats := p.aggregator.Aggregate(&doc)
		if features.Has(docModel.FeatureTenthLining) {
			doc.Markers = p.numbering.Number(content, doc.Pages)
		}
		result.Stats.Add(stats)
		result.TotalPages += len(doc.Pages)
		result.Documents = append(result.Documents, docModel.DocumentSummary{
			Filename:     doc.Filename,
			Pages:        len(doc.Pages),
			ContentLines: len(content),
			Markers:      len(doc.Markers),
		})

		// spans are no longer needed once the document is numbered
		doc.Pages = nil
		rendered = append(rendered, doc)
	}

	if len(rendered) == 0 {
		return result, nil
	}
	output, err := p.renderer.RenderChunk(ctx, rendered)
	if err != nil {
		return result, fmt.Errorf("render: %w", err)
	}
	result.Output = output

	if features.Has(docModel.FeatureRepaginate) {
		// chunk-local numbering, replaced by the merge stage
		result.PageStamps = pageStamps(result.Documents, features.Has(docModel.FeatureMerge), p.paginate)
	}
	log.Debug("chunk processed", "documents", len(result.Documents), "pages", result.TotalPages,
		"content_lines", result.Stats.LinesCounted)
	return result, nil
}

// pageStamps numbers the pages of docs. A merged output gets one continuous
// sequence, otherwise every document starts again at 1.
func pageStamps(docs []docModel.DocumentSummary, continuous bool, cfg config.PaginateSettings) []docModel.PageNumberStamp {
	var stamps []docModel.PageNumberStamp
	index := 0
	number := 0
	for _, d := range docs {
		if !continuous {
			number = 0
		}
		for i := 0; i < d.Pages; i++ {
			number++
			stamps = append(stamps, docModel.PageNumberStamp{
				PageIndex: index,
				Number:    number,
				Y:         cfg.BottomOffset,
				FontSize:  cfg.FontSize,
			})
			index++
		}
	}
	return stamps
}
