package messages

import (
	"context"
	"database/sql"
	"time"

	filesdomain "github.com/kgellert/cloudclip/internal/files"
)

const (
	TypeText = "text"
	TypeFile = "file"

	StatusSent = "sent"
)

// Message is one timeline entry: either free text or a pointer to a
// stored file. Exactly one of Content / File is set, per Type.
type Message struct {
	ID        int64             `json:"id"`
	Type      string            `json:"type"`
	Content   string            `json:"content,omitempty"`
	DeviceID  string            `json:"device_id"`
	Status    string            `json:"status"`
	Timestamp time.Time         `json:"timestamp"`
	File      *filesdomain.File `json:"file,omitempty"`
}

// MessageRow is the scan target for the list/get join against files.
type MessageRow struct {
	ID        int64               `db:"id"`
	Type      string              `db:"type"`
	Content   sql.NullString      `db:"content"`
	FileID    sql.NullInt64       `db:"file_id"`
	DeviceID  string              `db:"device_id"`
	Status    string              `db:"status"`
	CreatedAt time.Time           `db:"created_at"`
	File      filesdomain.FileRow `db:"file"`
}

func NewMessageFromRow(row MessageRow) Message {
	return Message{
		ID:        row.ID,
		Type:      row.Type,
		Content:   row.Content.String,
		DeviceID:  row.DeviceID,
		Status:    row.Status,
		Timestamp: row.CreatedAt,
		File:      filesdomain.NewFileFromRow(row.File),
	}
}

type Repo interface {
	List(ctx context.Context, limit, offset int) ([]Message, int64, error)
	InsertText(ctx context.Context, content, deviceID string) (*Message, error)
	Get(ctx context.Context, id int64) (*Message, error)
	Delete(ctx context.Context, id int64) error
	DeleteByFileID(ctx context.Context, fileID int64) (int64, error)
	CountByFileID(ctx context.Context, fileID int64) (int64, error)
	DeleteAll(ctx context.Context) (int64, error)
}

type SendMessageRequest struct {
	Content  string `json:"content"`
	DeviceID string `json:"deviceId"`
}

type ListResponse struct {
	Success bool      `json:"success"`
	Data    []Message `json:"data"`
	Total   int64     `json:"total"`
	Limit   int       `json:"limit"`
	Offset  int       `json:"offset"`
}

type SendResponse struct {
	Success bool     `json:"success"`
	Data    *Message `json:"data"`
}

type ClearAllResult struct {
	DeletedMessages int64 `json:"deletedMessages"`
	DeletedFiles    int64 `json:"deletedFiles"`
}

type ClearAllResponse struct {
	Success bool           `json:"success"`
	Data    ClearAllResult `json:"data"`
}
