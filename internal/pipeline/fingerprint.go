package pipeline

import (
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"

	"github.com/akolanti/TenthLine/internal/config"
	"github.com/akolanti/TenthLine/internal/domain/docModel"
)

// Fingerprint hashes the documents' bytes in submitted order, each prefixed
// with its length, followed by the sorted enabled feature names.
func Fingerprint(docs []docModel.Document, features docModel.FeatureSet) string {
	h := sha256.New()
	var size [8]byte
	for _, d := range docs {
		binary.BigEndian.PutUint64(size[:], uint64(len(d.Content)))
		h.Write(size[:])
		h.Write(d.Content)
	}
	for _, f := range features.Enabled() {
		h.Write([]byte(f))
		h.Write([]byte{0})
	}
	return hex.EncodeToString(h.Sum(nil))
}

func CacheKey(fingerprint string) string {
	return config.ResultCacheKeyPrefix + fingerprint
}
