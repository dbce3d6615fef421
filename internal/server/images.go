// images.go - Postgres-backed asset metadata store.
//
// Ownership lives in the SQL: listing and deletion match on the owner column
// so no handler can widen the result set by mistake.
package server

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// ImageRecord is one row of the images table. Filename is the generated
// storage name and doubles as the blob key; Owner never changes.
type ImageRecord struct {
	ID               string    `json:"id"`
	Filename         string    `json:"filename"`
	OriginalFilename string    `json:"original_filename"`
	Owner            string    `json:"owner"`
	FileSize         int64     `json:"file_size"`
	MimeType         string    `json:"mime_type"`
	UploadDate       time.Time `json:"upload_date"`
}

// imageStore is what the lifecycle manager needs from the metadata side.
// Unit tests substitute failing fakes to exercise the compensation paths.
type imageStore interface {
	insert(ctx context.Context, rec ImageRecord) error
	listByOwner(ctx context.Context, owner string) ([]ImageRecord, error)
	// deleteOwned removes the row matching both filename and owner.
	// Zero matched rows is errImageNotFound, whether the row is absent or
	// belongs to someone else.
	deleteOwned(ctx context.Context, filename, owner string) error
	findByName(ctx context.Context, filename string) (ImageRecord, error)
}

type pgImageStore struct {
	db *sql.DB
}

func newPGImageStore(db *sql.DB) *pgImageStore {
	return &pgImageStore{db: db}
}

func (s *pgImageStore) insert(ctx context.Context, rec ImageRecord) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO images (id, filename, original_filename, owner, file_size, mime_type, upload_date)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		rec.ID, rec.Filename, rec.OriginalFilename, rec.Owner, rec.FileSize, rec.MimeType, rec.UploadDate,
	)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

func (s *pgImageStore) listByOwner(ctx context.Context, owner string) ([]ImageRecord, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, filename, original_filename, owner, file_size, mime_type, upload_date
		 FROM images
		 WHERE owner = $1
		 ORDER BY upload_date DESC`,
		owner,
	)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	images := []ImageRecord{}
	for rows.Next() {
		var rec ImageRecord
		if err := rows.Scan(&rec.ID, &rec.Filename, &rec.OriginalFilename, &rec.Owner,
			&rec.FileSize, &rec.MimeType, &rec.UploadDate); err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		images = append(images, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return images, nil
}

func (s *pgImageStore) deleteOwned(ctx context.Context, filename, owner string) error {
	res, err := s.db.ExecContext(ctx,
		`DELETE FROM images WHERE filename = $1 AND owner = $2`,
		filename, owner,
	)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	if n == 0 {
		return errImageNotFound
	}
	return nil
}

func (s *pgImageStore) findByName(ctx context.Context, filename string) (ImageRecord, error) {
	var rec ImageRecord
	err := s.db.QueryRowContext(ctx,
		`SELECT id, filename, original_filename, owner, file_size, mime_type, upload_date
		 FROM images
		 WHERE filename = $1`,
		filename,
	).Scan(&rec.ID, &rec.Filename, &rec.OriginalFilename, &rec.Owner,
		&rec.FileSize, &rec.MimeType, &rec.UploadDate)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ImageRecord{}, errImageNotFound
		}
		return ImageRecord{}, fmt.Errorf("db error: %w", err)
	}
	return rec, nil
}
