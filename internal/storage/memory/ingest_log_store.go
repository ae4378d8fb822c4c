package memory

import (
	"context"
	"sort"
	"sync"

	"taq-bars/internal/storage"
)

// IngestLogStore is an in-memory implementation of storage.IngestLogStore.
type IngestLogStore struct {
	mu    sync.RWMutex
	files map[string]*storage.IngestedFile // keyed by checksum
}

// NewIngestLogStore creates a new in-memory ingest log.
func NewIngestLogStore() *IngestLogStore {
	return &IngestLogStore{
		files: make(map[string]*storage.IngestedFile),
	}
}

// IsIngested reports whether a file with this checksum was loaded.
func (s *IngestLogStore) IsIngested(_ context.Context, checksum string) (bool, error) {
	if checksum == "" {
		return false, storage.ErrInvalidInput
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	_, ok := s.files[checksum]
	return ok, nil
}

// MarkIngested records a loaded file.
func (s *IngestLogStore) MarkIngested(_ context.Context, f *storage.IngestedFile) error {
	if f == nil || f.Checksum == "" {
		return storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	fileCopy := *f
	s.files[f.Checksum] = &fileCopy
	return nil
}

// List returns all ingested files ordered by ingestion time.
func (s *IngestLogStore) List(_ context.Context) ([]*storage.IngestedFile, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]*storage.IngestedFile, 0, len(s.files))
	for _, f := range s.files {
		fileCopy := *f
		result = append(result, &fileCopy)
	}
	sort.Slice(result, func(i, j int) bool {
		if result[i].IngestedAt != result[j].IngestedAt {
			return result[i].IngestedAt < result[j].IngestedAt
		}
		return result[i].Checksum < result[j].Checksum
	})
	return result, nil
}

var _ storage.IngestLogStore = (*IngestLogStore)(nil)
