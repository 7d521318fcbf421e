package chunking

import (
	"github.com/akolanti/TenthLine/internal/domain/docModel"
)

// Plan partitions docs, in order, into chunks of whole documents whose byte
// sum stays within threshold. A document larger than threshold gets a chunk of
// its own. A threshold <= 0 yields a single chunk.
func Plan(docs []docModel.Document, threshold int64) []docModel.Chunk {
	if len(docs) == 0 {
		return nil
	}
	if threshold <= 0 {
		chunk := docModel.Chunk{Index: 0, Documents: docs}
		for _, d := range docs {
			chunk.Bytes += d.Size()
		}
		return []docModel.Chunk{chunk}
	}

	var chunks []docModel.Chunk
	current := docModel.Chunk{}
	for _, d := range docs {
		if len(current.Documents) > 0 && current.Bytes+d.Size() > threshold {
			chunks = append(chunks, current)
			current = docModel.Chunk{Index: len(chunks)}
		}
		current.Documents = append(current.Documents, d)
		current.Bytes += d.Size()
	}
	return append(chunks, current)
}

// Volumes splits a merged output of totalPages into court-filing volumes of at
// most limit pages. Outputs within the limit are a single volume and return nil.
func Volumes(totalPages, limit int) []docModel.Volume {
	if limit <= 0 || totalPages <= limit {
		return nil
	}
	count := (totalPages + limit - 1) / limit
	volumes := make([]docModel.Volume, 0, count)
	for i := 0; i < count; i++ {
		start := i*limit + 1
		end := min(start+limit-1, totalPages)
		volumes = append(volumes, docModel.Volume{Number: i + 1, StartPage: start, EndPage: end})
	}
	return volumes
}
