package filesrepo

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"

	filesdomain "github.com/kgellert/cloudclip/internal/files"
)

// Repo persists file metadata. Queries are written with ? bindvars and
// rebound per driver so the same repo serves Postgres and SQLite.
type Repo struct {
	db *sqlx.DB
}

func New(db *sqlx.DB) *Repo {
	return &Repo{db: db}
}

func (s *Repo) CreateWithMessage(ctx context.Context, f *filesdomain.File, deviceID string) (int64, error) {
	const op = "files.repo.CreateWithMessage"

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("%s: begin tx: %w", op, err)
	}
	defer tx.Rollback()

	err = tx.QueryRowxContext(
		ctx,
		s.db.Rebind(`INSERT INTO files (original_name, storage_key, size_bytes, mime_type, upload_device_id)
		VALUES (?, ?, ?, ?, ?)
		RETURNING id, download_count, created_at`),
		f.OriginalName, f.StorageKey, f.SizeBytes, f.MimeType, f.UploadDeviceID,
	).Scan(&f.ID, &f.DownloadCount, &f.CreatedAt)

	if err != nil {
		return 0, fmt.Errorf("%s: insert file: %w", op, err)
	}

	var messageID int64
	err = tx.QueryRowxContext(
		ctx,
		s.db.Rebind(`INSERT INTO messages (type, file_id, device_id, status)
		VALUES ('file', ?, ?, 'sent')
		RETURNING id`),
		f.ID, deviceID,
	).Scan(&messageID)

	if err != nil {
		return 0, fmt.Errorf("%s: insert message: %w", op, err)
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("%s: commit tx: %w", op, err)
	}

	return messageID, nil
}

func (s *Repo) GetByKey(ctx context.Context, storageKey string) (*filesdomain.File, error) {
	const op = "files.repo.GetByKey"

	var f filesdomain.File
	err := s.db.GetContext(
		ctx,
		&f,
		s.db.Rebind(`SELECT id, original_name, storage_key, size_bytes, mime_type, upload_device_id, download_count, created_at
		FROM files WHERE storage_key = ?`),
		storageKey,
	)

	if errors.Is(err, sql.ErrNoRows) {
		return nil, filesdomain.ErrFileNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("%s: select: %w", op, err)
	}

	return &f, nil
}

func (s *Repo) GetByID(ctx context.Context, id int64) (*filesdomain.File, error) {
	const op = "files.repo.GetByID"

	var f filesdomain.File
	err := s.db.GetContext(
		ctx,
		&f,
		s.db.Rebind(`SELECT id, original_name, storage_key, size_bytes, mime_type, upload_device_id, download_count, created_at
		FROM files WHERE id = ?`),
		id,
	)

	if errors.Is(err, sql.ErrNoRows) {
		return nil, filesdomain.ErrFileNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("%s: select: %w", op, err)
	}

	return &f, nil
}

func (s *Repo) List(ctx context.Context, limit, offset int) ([]filesdomain.File, int64, error) {
	const op = "files.repo.List"

	items := []filesdomain.File{}
	err := s.db.SelectContext(
		ctx,
		&items,
		s.db.Rebind(`SELECT id, original_name, storage_key, size_bytes, mime_type, upload_device_id, download_count, created_at
		FROM files
		ORDER BY created_at DESC, id DESC
		LIMIT ? OFFSET ?`),
		limit, offset,
	)
	if err != nil {
		return nil, 0, fmt.Errorf("%s: select files: %w", op, err)
	}

	// Total is counted separately (not windowed) so pagination UIs can
	// compute page counts.
	var total int64
	if err := s.db.GetContext(ctx, &total, `SELECT COUNT(*) FROM files`); err != nil {
		return nil, 0, fmt.Errorf("%s: count files: %w", op, err)
	}

	return items, total, nil
}

func (s *Repo) IncrementDownloadCount(ctx context.Context, storageKey string) error {
	const op = "files.repo.IncrementDownloadCount"

	_, err := s.db.ExecContext(
		ctx,
		s.db.Rebind(`UPDATE files SET download_count = download_count + 1 WHERE storage_key = ?`),
		storageKey,
	)
	if err != nil {
		return fmt.Errorf("%s: update: %w", op, err)
	}

	return nil
}

func (s *Repo) Delete(ctx context.Context, id int64) error {
	const op = "files.repo.Delete"

	res, err := s.db.ExecContext(ctx, s.db.Rebind(`DELETE FROM files WHERE id = ?`), id)
	if err != nil {
		return fmt.Errorf("%s: delete: %w", op, err)
	}

	if rows, _ := res.RowsAffected(); rows == 0 {
		return filesdomain.ErrFileNotFound
	}

	return nil
}

func (s *Repo) AllStorageKeys(ctx context.Context) ([]string, error) {
	const op = "files.repo.AllStorageKeys"

	keys := []string{}
	if err := s.db.SelectContext(ctx, &keys, `SELECT storage_key FROM files`); err != nil {
		return nil, fmt.Errorf("%s: select keys: %w", op, err)
	}

	return keys, nil
}

func (s *Repo) DeleteAll(ctx context.Context) (int64, error) {
	const op = "files.repo.DeleteAll"

	res, err := s.db.ExecContext(ctx, `DELETE FROM files`)
	if err != nil {
		return 0, fmt.Errorf("%s: delete: %w", op, err)
	}

	deleted, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("%s: rows affected: %w", op, err)
	}

	return deleted, nil
}
