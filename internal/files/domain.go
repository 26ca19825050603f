package files

import (
	"context"
	"database/sql"
	"time"
)

// File is the metadata row for one stored blob. The blob itself lives in
// the blob store under StorageKey; a File row exists iff its blob does,
// modulo the compensation windows the service layer tolerates.
type File struct {
	ID             int64     `json:"id" db:"id"`
	OriginalName   string    `json:"original_name" db:"original_name"`
	StorageKey     string    `json:"storage_key" db:"storage_key"`
	SizeBytes      int64     `json:"size_bytes" db:"size_bytes"`
	MimeType       string    `json:"mime_type" db:"mime_type"`
	UploadDeviceID string    `json:"upload_device_id" db:"upload_device_id"`
	DownloadCount  int64     `json:"download_count" db:"download_count"`
	CreatedAt      time.Time `json:"created_at" db:"created_at"`
}

// FileRow is the nullable projection used on the left-join side of the
// message list query.
type FileRow struct {
	ID             sql.NullInt64  `db:"id"`
	OriginalName   sql.NullString `db:"original_name"`
	StorageKey     sql.NullString `db:"storage_key"`
	SizeBytes      sql.NullInt64  `db:"size_bytes"`
	MimeType       sql.NullString `db:"mime_type"`
	UploadDeviceID sql.NullString `db:"upload_device_id"`
	DownloadCount  sql.NullInt64  `db:"download_count"`
	CreatedAt      sql.NullTime   `db:"created_at"`
}

func NewFileFromRow(row FileRow) *File {
	if !row.ID.Valid {
		return nil
	}

	return &File{
		ID:             row.ID.Int64,
		OriginalName:   row.OriginalName.String,
		StorageKey:     row.StorageKey.String,
		SizeBytes:      row.SizeBytes.Int64,
		MimeType:       row.MimeType.String,
		UploadDeviceID: row.UploadDeviceID.String,
		DownloadCount:  row.DownloadCount.Int64,
		CreatedAt:      row.CreatedAt.Time,
	}
}

type Repo interface {
	// CreateWithMessage inserts the file row and its linked file-type
	// message row in one transaction, filling f.ID, f.DownloadCount and
	// f.CreatedAt. It returns the id of the created message.
	CreateWithMessage(ctx context.Context, f *File, deviceID string) (int64, error)
	GetByKey(ctx context.Context, storageKey string) (*File, error)
	GetByID(ctx context.Context, id int64) (*File, error)
	List(ctx context.Context, limit, offset int) ([]File, int64, error)
	IncrementDownloadCount(ctx context.Context, storageKey string) error
	Delete(ctx context.Context, id int64) error
	AllStorageKeys(ctx context.Context) ([]string, error)
	DeleteAll(ctx context.Context) (int64, error)
}

type ListResponse struct {
	Success bool   `json:"success"`
	Data    []File `json:"data"`
	Total   int64  `json:"total"`
	Limit   int    `json:"limit"`
	Offset  int    `json:"offset"`
}

type UploadResult struct {
	FileID     int64  `json:"fileId"`
	FileName   string `json:"fileName"`
	FileSize   int64  `json:"fileSize"`
	StorageKey string `json:"storageKey"`
}

type UploadResponse struct {
	Success bool         `json:"success"`
	Data    UploadResult `json:"data"`
}
