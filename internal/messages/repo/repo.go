package messagesrepo

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"

	messagesdomain "github.com/kgellert/cloudclip/internal/messages"
)

type Repo struct {
	db *sqlx.DB
}

func New(db *sqlx.DB) *Repo {
	return &Repo{db: db}
}

const messageColumns = `
	m.id, m.type, m.content, m.file_id, m.device_id, m.status, m.created_at,

	f.id                AS "file.id",
	f.original_name     AS "file.original_name",
	f.storage_key       AS "file.storage_key",
	f.size_bytes        AS "file.size_bytes",
	f.mime_type         AS "file.mime_type",
	f.upload_device_id  AS "file.upload_device_id",
	f.download_count    AS "file.download_count",
	f.created_at        AS "file.created_at"`

func (s *Repo) List(ctx context.Context, limit, offset int) ([]messagesdomain.Message, int64, error) {
	const op = "messages.repo.List"

	rows, err := s.db.QueryxContext(
		ctx,
		s.db.Rebind(`SELECT`+messageColumns+`
		FROM messages m
		LEFT JOIN files f ON m.file_id = f.id
		ORDER BY m.created_at DESC, m.id DESC
		LIMIT ? OFFSET ?`),
		limit, offset,
	)
	if err != nil {
		return nil, 0, fmt.Errorf("%s: query: %w", op, err)
	}
	defer rows.Close()

	items := []messagesdomain.Message{}
	for rows.Next() {
		var row messagesdomain.MessageRow
		if err := rows.StructScan(&row); err != nil {
			return nil, 0, fmt.Errorf("%s: scan: %w", op, err)
		}
		items = append(items, messagesdomain.NewMessageFromRow(row))
	}

	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("%s: rows: %w", op, err)
	}

	var total int64
	if err := s.db.GetContext(ctx, &total, `SELECT COUNT(*) FROM messages`); err != nil {
		return nil, 0, fmt.Errorf("%s: count: %w", op, err)
	}

	return items, total, nil
}

func (s *Repo) InsertText(ctx context.Context, content, deviceID string) (*messagesdomain.Message, error) {
	const op = "messages.repo.InsertText"

	var row messagesdomain.MessageRow
	err := s.db.QueryRowxContext(
		ctx,
		s.db.Rebind(`INSERT INTO messages (type, content, device_id, status)
		VALUES ('text', ?, ?, 'sent')
		RETURNING id, type, content, file_id, device_id, status, created_at`),
		content, deviceID,
	).StructScan(&row)

	if err != nil {
		return nil, fmt.Errorf("%s: insert: %w", op, err)
	}

	msg := messagesdomain.NewMessageFromRow(row)

	return &msg, nil
}

func (s *Repo) Get(ctx context.Context, id int64) (*messagesdomain.Message, error) {
	const op = "messages.repo.Get"

	var row messagesdomain.MessageRow
	err := s.db.QueryRowxContext(
		ctx,
		s.db.Rebind(`SELECT`+messageColumns+`
		FROM messages m
		LEFT JOIN files f ON m.file_id = f.id
		WHERE m.id = ?`),
		id,
	).StructScan(&row)

	if errors.Is(err, sql.ErrNoRows) {
		return nil, messagesdomain.ErrMessageNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("%s: select: %w", op, err)
	}

	msg := messagesdomain.NewMessageFromRow(row)

	return &msg, nil
}

func (s *Repo) Delete(ctx context.Context, id int64) error {
	const op = "messages.repo.Delete"

	res, err := s.db.ExecContext(ctx, s.db.Rebind(`DELETE FROM messages WHERE id = ?`), id)
	if err != nil {
		return fmt.Errorf("%s: delete: %w", op, err)
	}

	if rows, _ := res.RowsAffected(); rows == 0 {
		return messagesdomain.ErrMessageNotFound
	}

	return nil
}

func (s *Repo) DeleteByFileID(ctx context.Context, fileID int64) (int64, error) {
	const op = "messages.repo.DeleteByFileID"

	res, err := s.db.ExecContext(ctx, s.db.Rebind(`DELETE FROM messages WHERE file_id = ?`), fileID)
	if err != nil {
		return 0, fmt.Errorf("%s: delete: %w", op, err)
	}

	deleted, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("%s: rows affected: %w", op, err)
	}

	return deleted, nil
}

func (s *Repo) CountByFileID(ctx context.Context, fileID int64) (int64, error) {
	const op = "messages.repo.CountByFileID"

	var count int64
	err := s.db.GetContext(
		ctx,
		&count,
		s.db.Rebind(`SELECT COUNT(*) FROM messages WHERE file_id = ?`),
		fileID,
	)
	if err != nil {
		return 0, fmt.Errorf("%s: count: %w", op, err)
	}

	return count, nil
}

func (s *Repo) DeleteAll(ctx context.Context) (int64, error) {
	const op = "messages.repo.DeleteAll"

	res, err := s.db.ExecContext(ctx, `DELETE FROM messages`)
	if err != nil {
		return 0, fmt.Errorf("%s: delete: %w", op, err)
	}

	deleted, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("%s: rows affected: %w", op, err)
	}

	return deleted, nil
}
