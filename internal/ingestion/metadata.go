package ingestion

import (
	"crypto/sha256"
	"encoding/hex"
	"time"
)

// Metadata describes where a content model came from.
type Metadata struct {
	Source   string    `json:"source"`
	Format   Format    `json:"format"`
	Size     int       `json:"size"`
	Hash     string    `json:"hash"` // SHA-256 of the raw document
	LoadedAt time.Time `json:"loaded_at"`
}

// NewMetadata fingerprints a raw document.
func NewMetadata(content []byte, source string, format Format) *Metadata {
	sum := sha256.Sum256(content)
	return &Metadata{
		Source:   source,
		Format:   format,
		Size:     len(content),
		Hash:     hex.EncodeToString(sum[:]),
		LoadedAt: time.Now().UTC(),
	}
}

// ShortHash is the first 12 hex digits of Hash, enough to tell inputs apart in logs.
func (m *Metadata) ShortHash() string {
	if len(m.Hash) < 12 {
		return m.Hash
	}
	return m.Hash[:12]
}
