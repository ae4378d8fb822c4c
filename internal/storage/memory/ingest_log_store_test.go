package memory

import (
	"context"
	"errors"
	"testing"

	"taq-bars/internal/storage"
)

func TestIngestLogStore_MarkAndCheck(t *testing.T) {
	store := NewIngestLogStore()
	ctx := context.Background()

	ok, err := store.IsIngested(ctx, "abc")
	if err != nil {
		t.Fatalf("IsIngested failed: %v", err)
	}
	if ok {
		t.Error("Expected unknown checksum to be reported as not ingested")
	}

	if err := store.MarkIngested(ctx, &storage.IngestedFile{Checksum: "abc", Path: "a.txt", Rows: 10, IngestedAt: 2}); err != nil {
		t.Fatalf("MarkIngested failed: %v", err)
	}
	if err := store.MarkIngested(ctx, &storage.IngestedFile{Checksum: "def", Path: "b.txt", Rows: 5, IngestedAt: 1}); err != nil {
		t.Fatalf("MarkIngested failed: %v", err)
	}

	ok, _ = store.IsIngested(ctx, "abc")
	if !ok {
		t.Error("Expected checksum to be reported as ingested")
	}

	files, _ := store.List(ctx)
	if len(files) != 2 || files[0].Checksum != "def" {
		t.Errorf("Expected files ordered by ingestion time, got %+v", files)
	}
}

func TestIngestLogStore_InvalidInput(t *testing.T) {
	store := NewIngestLogStore()
	ctx := context.Background()

	if _, err := store.IsIngested(ctx, ""); !errors.Is(err, storage.ErrInvalidInput) {
		t.Errorf("Expected ErrInvalidInput, got %v", err)
	}
	if err := store.MarkIngested(ctx, nil); !errors.Is(err, storage.ErrInvalidInput) {
		t.Errorf("Expected ErrInvalidInput, got %v", err)
	}
}
