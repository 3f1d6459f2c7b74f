package fsblob

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	apperrors "github.com/louisbranch/challenge.space/internal/platform/errors"
)

func openTempStore(t *testing.T) *Store {
	t.Helper()
	store, err := Open(filepath.Join(t.TempDir(), "blobs"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	return store
}

func TestPutGet(t *testing.T) {
	store := openTempStore(t)
	ctx := context.Background()
	data := []byte("submission archive")

	hash, err := store.Put(ctx, data)
	if err != nil {
		t.Fatalf("put: %v", err)
	}
	if !strings.HasPrefix(hash, "b") {
		t.Fatalf("hash = %q, want base32 CIDv1", hash)
	}
	again, err := store.Put(ctx, data)
	if err != nil {
		t.Fatalf("put again: %v", err)
	}
	if again != hash {
		t.Fatalf("hash = %q, want %q", again, hash)
	}

	got, err := store.Get(ctx, hash)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if !bytes.Equal(got, data) {
		t.Fatalf("data = %q, want %q", got, data)
	}
}

func TestGetErrors(t *testing.T) {
	store := openTempStore(t)
	ctx := context.Background()

	if _, err := store.Get(ctx, "not-a-cid"); !apperrors.HasCode(err, apperrors.CodeValidation) {
		t.Fatalf("invalid hash err = %v, want validation", err)
	}

	id, err := Sum([]byte("never stored"))
	if err != nil {
		t.Fatalf("sum: %v", err)
	}
	if _, err := store.Get(ctx, id.String()); !apperrors.HasCode(err, apperrors.CodeNotFound) {
		t.Fatalf("missing err = %v, want not found", err)
	}
}

func TestGetDetectsCorruption(t *testing.T) {
	store := openTempStore(t)
	ctx := context.Background()
	hash, err := store.Put(ctx, []byte("original"))
	if err != nil {
		t.Fatalf("put: %v", err)
	}
	if err := os.WriteFile(filepath.Join(store.root, hash), []byte("tampered"), 0o644); err != nil {
		t.Fatalf("tamper: %v", err)
	}
	if _, err := store.Get(ctx, hash); !apperrors.HasCode(err, apperrors.CodeConsistency) {
		t.Fatalf("err = %v, want consistency", err)
	}
}

func TestOpenRequiresRoot(t *testing.T) {
	if _, err := Open(" "); err == nil {
		t.Fatal("expected error for empty root")
	}
}
