package pipeline

import (
	"context"

	"github.com/akolanti/TenthLine/internal/domain/docModel"
)

// Extractor returns the pages of one document with their spans. Every page
// must carry the extractor's coordinate origin.
type Extractor interface {
	Extract(ctx context.Context, filename string, content []byte) ([]docModel.Page, error)
	PageCount(content []byte) (int, error)
}

// Renderer owns every byte-level operation on documents.
type Renderer interface {
	// RenderChunk stamps each document's markers and concatenates the documents in order.
	RenderChunk(ctx context.Context, docs []docModel.Document) ([]byte, error)
	Merge(ctx context.Context, parts [][]byte) ([]byte, error)
	Paginate(ctx context.Context, content []byte, stamps []docModel.PageNumberStamp) ([]byte, error)
}
