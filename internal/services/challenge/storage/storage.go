// Package storage defines the persistence ports of the challenge service
// that live outside the ledger.
package storage

import "context"

// BlobStore keeps submission files by content hash.
type BlobStore interface {
	// Put stores data and returns its content hash.
	Put(ctx context.Context, data []byte) (string, error)
	// Get returns the content stored under hash.
	Get(ctx context.Context, hash string) ([]byte, error)
}
