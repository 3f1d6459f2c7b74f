// Package fsblob stores submission files on the local filesystem under
// their CIDv1 content identifier.
package fsblob

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/ipfs/go-cid"
	"github.com/multiformats/go-multihash"

	apperrors "github.com/louisbranch/challenge.space/internal/platform/errors"
	"github.com/louisbranch/challenge.space/internal/services/challenge/storage"
)

// Store is a content-addressed directory of blobs.
type Store struct {
	root string
}

// Open creates root if needed and returns a store over it.
func Open(root string) (*Store, error) {
	if strings.TrimSpace(root) == "" {
		return nil, fmt.Errorf("blob root is required")
	}
	root = filepath.Clean(root)
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("create blob root: %w", err)
	}
	return &Store{root: root}, nil
}

// Sum returns the content identifier of data: a CIDv1 over the raw codec
// with a sha2-256 multihash.
func Sum(data []byte) (cid.Cid, error) {
	mh, err := multihash.Sum(data, multihash.SHA2_256, -1)
	if err != nil {
		return cid.Undef, fmt.Errorf("hash blob: %w", err)
	}
	return cid.NewCidV1(cid.Raw, mh), nil
}

// Put writes data under its content identifier. Writing the same content
// twice is a no-op.
func (s *Store) Put(ctx context.Context, data []byte) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	id, err := Sum(data)
	if err != nil {
		return "", err
	}
	target := s.path(id)
	if _, err := os.Stat(target); err == nil {
		return id.String(), nil
	}

	tmp, err := os.CreateTemp(s.root, ".upload-*")
	if err != nil {
		return "", fmt.Errorf("create blob temp file: %w", err)
	}
	defer os.Remove(tmp.Name())
	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return "", fmt.Errorf("write blob: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return "", fmt.Errorf("close blob: %w", err)
	}
	if err := os.Rename(tmp.Name(), target); err != nil {
		return "", fmt.Errorf("commit blob: %w", err)
	}
	return id.String(), nil
}

// Get reads the blob stored under hash and checks it still matches.
func (s *Store) Get(ctx context.Context, hash string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	id, err := cid.Decode(strings.TrimSpace(hash))
	if err != nil {
		return nil, apperrors.Wrap(apperrors.CodeValidation, "invalid content hash "+hash, err)
	}
	data, err := os.ReadFile(s.path(id))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, apperrors.Newf(apperrors.CodeNotFound, "blob %s not found", hash)
	}
	if err != nil {
		return nil, fmt.Errorf("read blob: %w", err)
	}
	actual, err := id.Prefix().Sum(data)
	if err != nil {
		return nil, fmt.Errorf("verify blob: %w", err)
	}
	if !actual.Equals(id) {
		return nil, apperrors.Newf(apperrors.CodeConsistency, "blob %s content does not match its hash", hash)
	}
	return data, nil
}

func (s *Store) path(id cid.Cid) string {
	return filepath.Join(s.root, id.String())
}

var _ storage.BlobStore = (*Store)(nil)
