// lifecycle.go - The upload/list/delete protocol keeping blob bytes and
// metadata rows consistent under partial failure.
//
// Upload writes bytes first and records metadata second; a failed insert
// compensates by deleting the just-written blob, so metadata without bytes
// never survives. Delete removes metadata first and bytes second; a failed
// blob delete leaves a dangling blob that no listing can reach, which is
// logged and otherwise tolerated.
package server

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"io"
	"log"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Lifecycle orchestrates asset operations for one metadata store and one
// blob store. All operations are scoped to the owner passed in; callers
// resolve the owner from the authenticated request, never from client input.
type Lifecycle struct {
	store imageStore
	blobs BlobStore
}

func newLifecycle(store imageStore, blobs BlobStore) *Lifecycle {
	return &Lifecycle{store: store, blobs: blobs}
}

// storageName derives the blob key for an upload: UTC timestamp, a short
// random suffix, and the sanitized original name. The suffix keeps two
// same-named uploads in the same second apart; the rest keeps the key
// human-traceable.
func storageName(originalName string, now time.Time) string {
	base := secureFilename(originalName)
	if base == "" {
		base = "image" + strings.ToLower(filepath.Ext(originalName))
	}

	suffix := make([]byte, 4)
	_, _ = rand.Read(suffix)

	return fmt.Sprintf("%s_%s_%s",
		now.UTC().Format("20060102_150405"),
		hex.EncodeToString(suffix),
		base,
	)
}

// Upload streams the file into the blob store and records its metadata.
//
// Failure contract: if the blob write fails, no metadata row exists and the
// error wraps errStorageWrite. If the metadata insert fails, the blob is
// deleted before the error returns; should that compensating delete also
// fail, an operator-visible inconsistency line is logged - the one accepted
// leak of the no-orphan invariant.
func (l *Lifecycle) Upload(ctx context.Context, owner string, file io.Reader, originalName, mediaType string) (ImageRecord, error) {
	if !allowedFile(originalName) {
		return ImageRecord{}, errInvalidFileType
	}

	name := storageName(originalName, time.Now())

	size, err := l.blobs.Put(ctx, name, file, -1, mediaType)
	if err != nil {
		return ImageRecord{}, fmt.Errorf("%w: %w", errStorageWrite, err)
	}

	rec := ImageRecord{
		ID:               uuid.New().String(),
		Filename:         name,
		OriginalFilename: originalName,
		Owner:            owner,
		FileSize:         size,
		MimeType:         mediaType,
		UploadDate:       time.Now().UTC(),
	}

	if err := l.store.insert(ctx, rec); err != nil {
		if rmErr := l.blobs.Remove(ctx, name); rmErr != nil {
			// Orphan blob left behind with no metadata pointing at it.
			// Must reach an operator; never swallowed.
			log.Printf("msg=inconsistency detail=%q filename=%s insert_err=%v remove_err=%v",
				"orphan blob after failed metadata insert", name, err, rmErr)
		}
		return ImageRecord{}, err
	}

	return rec, nil
}

// List returns the owner's records, newest upload first. It never contains
// another owner's records; the store enforces the filter in SQL.
func (l *Lifecycle) List(ctx context.Context, owner string) ([]ImageRecord, error) {
	return l.store.listByOwner(ctx, owner)
}

// Delete removes the metadata row first, then the blob. Zero matched rows
// (absent, or owned by someone else) is errImageNotFound; the caller cannot
// tell which. A failed blob delete is logged but does not fail the call -
// once the row is gone the blob is unreachable from any listing.
func (l *Lifecycle) Delete(ctx context.Context, owner, filename string) error {
	if err := l.store.deleteOwned(ctx, filename, owner); err != nil {
		return err
	}

	if err := l.blobs.Remove(ctx, filename); err != nil {
		log.Printf("msg=dangling_blob filename=%s err=%v", filename, err)
	}
	return nil
}

// Stat resolves a storage name to its record. Used by the raw-bytes handler
// so a deleted record stays a 404 even if its blob delete had failed.
func (l *Lifecycle) Stat(ctx context.Context, filename string) (ImageRecord, error) {
	return l.store.findByName(ctx, filename)
}

// Open streams the blob behind a storage name.
func (l *Lifecycle) Open(ctx context.Context, filename string) (io.ReadCloser, error) {
	return l.blobs.Get(ctx, filename)
}
