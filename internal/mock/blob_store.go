package mock

import (
	"context"
	"io"
	"os"
	"sync"
)

// BlobStore implements storage.BlobStore over an in-memory map.
type BlobStore struct {
	mu      sync.Mutex
	Objects map[string][]byte

	FetchErr error
	StoreErr error
	URLErr   error
	BaseURL  string

	FetchCalls int
	URLCalls   int
	Fetched    []string
}

func NewBlobStore() *BlobStore {
	return &BlobStore{Objects: make(map[string][]byte), BaseURL: "https://cdn.test"}
}

func (b *BlobStore) Fetch(ctx context.Context, key, dst string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.FetchCalls++
	b.Fetched = append(b.Fetched, dst)
	if b.FetchErr != nil {
		return b.FetchErr
	}
	return os.WriteFile(dst, b.Objects[key], 0o644)
}

func (b *BlobStore) Store(ctx context.Context, key string, body io.Reader, size int64, contentType string) error {
	if b.StoreErr != nil {
		return b.StoreErr
	}
	data, err := io.ReadAll(body)
	if err != nil {
		return err
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	b.Objects[key] = data
	return nil
}

func (b *BlobStore) URL(ctx context.Context, key string) (string, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.URLCalls++
	if b.URLErr != nil {
		return "", b.URLErr
	}
	return b.BaseURL + "/" + key, nil
}
