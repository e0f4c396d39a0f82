// Package storage archives raw feed files so a bad import can be
// replayed or inspected after the fact.
package storage

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"time"
)

// Metadata describes an archived feed file.
type Metadata struct {
	ContentType  string    `json:"contentType,omitempty"`
	OriginalName string    `json:"originalName,omitempty"`
	Platform     string    `json:"platform,omitempty"`
	RunID        string    `json:"runId,omitempty"`
	SourceURL    string    `json:"sourceUrl,omitempty"`
	ArchivedAt   time.Time `json:"archivedAt,omitempty"`
	Checksum     string    `json:"checksum,omitempty"`
}

// Storage stores and retrieves archived feed files by key.
// Implementations can be local filesystem, S3, GCS, etc.
type Storage interface {
	Put(ctx context.Context, key string, content []byte, metadata *Metadata) error
	Get(ctx context.Context, key string) ([]byte, error)
	Exists(ctx context.Context, key string) (bool, error)
	Delete(ctx context.Context, key string) error
	List(ctx context.Context, prefix string) ([]string, error)
}

// ComputeChecksum computes the SHA256 checksum for content.
func ComputeChecksum(content []byte) string {
	hash := sha256.Sum256(content)
	return hex.EncodeToString(hash[:])
}

// FeedKey builds the archive key for one uploaded feed:
// feeds/<platform>/<yyyy-mm-dd>/<runID>_<filename>.
func FeedKey(platform string, at time.Time, runID, filename string) string {
	return fmt.Sprintf("feeds/%s/%s/%s_%s", platform, at.Format("2006-01-02"), runID, filename)
}

func marshalMetadata(metadata *Metadata) ([]byte, error) {
	data, err := json.Marshal(metadata)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal metadata: %w", err)
	}
	return data, nil
}
