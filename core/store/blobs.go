package store

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// BlobStore is a content-addressed JSON blob store on the filesystem. Blobs
// are written once under sha256 addresses and sharded by the first two hex
// chars to keep directories small.
type BlobStore struct {
	root string
}

// NewBlobStore creates the blob root if needed.
func NewBlobStore(root string) (*BlobStore, error) {
	if err := EnsureDir(root, 0755); err != nil {
		return nil, fmt.Errorf("creating blob root: %w", err)
	}
	return &BlobStore{root: root}, nil
}

// Put marshals v and stores it under its content hash. Storing the same
// content twice is a no-op that returns the same hash.
func (b *BlobStore) Put(v any) (string, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return "", fmt.Errorf("encoding blob: %w", err)
	}
	return b.PutRaw(data)
}

// PutRaw stores pre-encoded bytes under their content hash.
func (b *BlobStore) PutRaw(data []byte) (string, error) {
	sum := sha256.Sum256(data)
	hash := hex.EncodeToString(sum[:])

	path := b.path(hash)
	if _, err := os.Stat(path); err == nil {
		return hash, nil
	}
	if err := EnsureDir(filepath.Dir(path), 0755); err != nil {
		return "", fmt.Errorf("creating blob shard: %w", err)
	}

	// Write-then-rename keeps readers from seeing partial blobs.
	tmp, err := os.CreateTemp(filepath.Dir(path), ".blob-*")
	if err != nil {
		return "", fmt.Errorf("writing blob: %w", err)
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return "", fmt.Errorf("writing blob: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return "", fmt.Errorf("writing blob: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		os.Remove(tmp.Name())
		return "", fmt.Errorf("committing blob: %w", err)
	}
	return hash, nil
}

// Get returns the raw bytes of a stored blob.
func (b *BlobStore) Get(hash string) ([]byte, error) {
	data, err := os.ReadFile(b.path(hash))
	if err != nil {
		return nil, fmt.Errorf("reading blob %s: %w", hash, err)
	}
	return data, nil
}

// GetInto decodes a stored blob into v.
func (b *BlobStore) GetInto(hash string, v any) error {
	data, err := b.Get(hash)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("decoding blob %s: %w", hash, err)
	}
	return nil
}

// Has reports whether a blob exists.
func (b *BlobStore) Has(hash string) bool {
	_, err := os.Stat(b.path(hash))
	return err == nil
}

func (b *BlobStore) path(hash string) string {
	shard := "00"
	if len(hash) >= 2 {
		shard = hash[:2]
	}
	return filepath.Join(b.root, shard, hash+".json")
}
