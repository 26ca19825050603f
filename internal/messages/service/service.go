package service

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/kgellert/cloudclip/internal/blobstore"
	filesdomain "github.com/kgellert/cloudclip/internal/files"
	"github.com/kgellert/cloudclip/internal/lib/logger/sl"
	messagesdomain "github.com/kgellert/cloudclip/internal/messages"
	"github.com/kgellert/cloudclip/internal/metrics"
)

// Service orchestrates the message/file lifecycle across the relational
// store and the blob store. Multi-step sequences are not transactional
// across the two stores; they are made safe by ordering plus best-effort
// compensation (see DeleteMessage and Upload).
type Service struct {
	messages    messagesdomain.Repo
	files       filesdomain.Repo
	blobs       blobstore.Store
	maxFileSize int64
	log         *slog.Logger
}

func New(
	messages messagesdomain.Repo,
	files filesdomain.Repo,
	blobs blobstore.Store,
	maxFileSize int64,
	log *slog.Logger,
) *Service {
	return &Service{
		messages:    messages,
		files:       files,
		blobs:       blobs,
		maxFileSize: maxFileSize,
		log:         log,
	}
}

// MaxFileSize reports the configured upload limit in bytes.
func (s *Service) MaxFileSize() int64 {
	return s.maxFileSize
}

func (s *Service) List(ctx context.Context, limit, offset int) ([]messagesdomain.Message, int64, error) {
	return s.messages.List(ctx, limit, offset)
}

func (s *Service) ListFiles(ctx context.Context, limit, offset int) ([]filesdomain.File, int64, error) {
	return s.files.List(ctx, limit, offset)
}

func (s *Service) SendText(ctx context.Context, content, deviceID string) (*messagesdomain.Message, error) {
	const op = "service.SendText"

	content = strings.TrimSpace(content)
	if content == "" {
		return nil, messagesdomain.ErrEmptyContent
	}
	if deviceID == "" {
		return nil, messagesdomain.ErrMissingDevice
	}

	msg, err := s.messages.InsertText(ctx, content, deviceID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	metrics.MessagesSent.Inc()

	return msg, nil
}

// UploadRequest is one incoming multipart file.
type UploadRequest struct {
	Name        string
	Size        int64
	ContentType string
	DeviceID    string
	Body        io.Reader
}

// Upload writes the blob first, then the file row plus its linked
// message row in one transaction. A failed blob write creates nothing; a
// failed row insert triggers a best-effort compensating blob delete so
// the blob-without-row window stays as narrow as possible.
func (s *Service) Upload(ctx context.Context, req UploadRequest) (*filesdomain.File, error) {
	const op = "service.Upload"

	if req.DeviceID == "" {
		return nil, messagesdomain.ErrMissingDevice
	}
	if req.Size > s.maxFileSize {
		return nil, filesdomain.ErrFileTooLarge
	}

	key := filesdomain.NewStorageKey(req.Name)
	contentType := filesdomain.ResolveContentType(req.ContentType, req.Name)

	err := s.blobs.Put(ctx, key, req.Body, blobstore.PutOptions{
		ContentType:        contentType,
		ContentDisposition: filesdomain.AttachmentDisposition(req.Name),
	})
	if err != nil {
		return nil, fmt.Errorf("%s: %w: %w", op, filesdomain.ErrStorageWrite, err)
	}

	f := &filesdomain.File{
		OriginalName:   req.Name,
		StorageKey:     key,
		SizeBytes:      req.Size,
		MimeType:       contentType,
		UploadDeviceID: req.DeviceID,
	}

	if _, err := s.files.CreateWithMessage(ctx, f, req.DeviceID); err != nil {
		// Compensation failure is logged, not escalated: surfacing it
		// would mask the original error.
		if delErr := s.blobs.Delete(ctx, key); delErr != nil {
			metrics.BlobDeleteFailures.Inc()
			s.log.Error("compensating blob delete failed",
				slog.String("storage_key", key), sl.Err(delErr))
		}
		return nil, fmt.Errorf("%s: %w: %w", op, filesdomain.ErrMetadataWrite, err)
	}

	metrics.FilesUploaded.Inc()

	return f, nil
}

// Download resolves a storage key to its metadata and blob and bumps the
// download counter. The caller must close the returned object body.
func (s *Service) Download(ctx context.Context, storageKey string) (*filesdomain.File, *blobstore.Object, error) {
	f, obj, err := s.open(ctx, storageKey)
	if err != nil {
		return nil, nil, err
	}

	if err := s.files.IncrementDownloadCount(ctx, storageKey); err != nil {
		s.log.Warn("failed to bump download count",
			slog.String("storage_key", storageKey), sl.Err(err))
	}

	metrics.FilesDownloaded.Inc()

	return f, obj, nil
}

// Preview is Download without the counter bump.
func (s *Service) Preview(ctx context.Context, storageKey string) (*filesdomain.File, *blobstore.Object, error) {
	return s.open(ctx, storageKey)
}

func (s *Service) open(ctx context.Context, storageKey string) (*filesdomain.File, *blobstore.Object, error) {
	const op = "service.open"

	if err := filesdomain.ValidateStorageKey(storageKey); err != nil {
		return nil, nil, filesdomain.ErrFileNotFound
	}

	f, err := s.files.GetByKey(ctx, storageKey)
	if err != nil {
		return nil, nil, err
	}

	obj, err := s.blobs.Get(ctx, storageKey)
	if err != nil {
		// A row whose blob is gone is a tolerated consistency window;
		// callers see it as absent.
		if err == blobstore.ErrNotFound {
			return nil, nil, filesdomain.ErrFileNotFound
		}
		return nil, nil, fmt.Errorf("%s: %w", op, err)
	}

	return f, obj, nil
}

// DeleteMessage removes one timeline entry. For file messages the
// message row goes first so the file row is never deleted while still
// referenced; the file row and blob fall only when no references remain.
func (s *Service) DeleteMessage(ctx context.Context, id int64) error {
	const op = "service.DeleteMessage"

	msg, err := s.messages.Get(ctx, id)
	if err != nil {
		return err
	}

	if err := s.messages.Delete(ctx, id); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	if msg.Type != messagesdomain.TypeFile || msg.File == nil {
		return nil
	}

	refs, err := s.messages.CountByFileID(ctx, msg.File.ID)
	if err != nil {
		return fmt.Errorf("%s: count refs: %w", op, err)
	}
	if refs > 0 {
		return nil
	}

	if err := s.files.Delete(ctx, msg.File.ID); err != nil {
		return fmt.Errorf("%s: delete file row: %w", op, err)
	}

	// Metadata is consistent at this point; a failed blob delete leaves
	// recoverable garbage, not corruption.
	if err := s.blobs.Delete(ctx, msg.File.StorageKey); err != nil {
		metrics.BlobDeleteFailures.Inc()
		s.log.Error("blob delete failed after message delete",
			slog.String("storage_key", msg.File.StorageKey), sl.Err(err))
	}

	return nil
}

// DeleteFile removes a file and every message referencing it. Messages
// go first to avoid dangling references to a deleted file row.
func (s *Service) DeleteFile(ctx context.Context, storageKey string) error {
	const op = "service.DeleteFile"

	f, err := s.files.GetByKey(ctx, storageKey)
	if err != nil {
		return err
	}

	if _, err := s.messages.DeleteByFileID(ctx, f.ID); err != nil {
		return fmt.Errorf("%s: delete messages: %w", op, err)
	}

	if err := s.files.Delete(ctx, f.ID); err != nil {
		return fmt.Errorf("%s: delete file row: %w", op, err)
	}

	if err := s.blobs.Delete(ctx, storageKey); err != nil {
		metrics.BlobDeleteFailures.Inc()
		s.log.Error("blob delete failed after file delete",
			slog.String("storage_key", storageKey), sl.Err(err))
	}

	return nil
}

// ClearAll wipes every message and file. Blob cleanup is best-effort per
// key: orphaned blobs are recoverable garbage, orphaned rows are not, so
// metadata removal never waits on the blob sweep.
func (s *Service) ClearAll(ctx context.Context) (messagesdomain.ClearAllResult, error) {
	const op = "service.ClearAll"

	keys, err := s.files.AllStorageKeys(ctx)
	if err != nil {
		return messagesdomain.ClearAllResult{}, fmt.Errorf("%s: collect keys: %w", op, err)
	}

	deletedMessages, err := s.messages.DeleteAll(ctx)
	if err != nil {
		return messagesdomain.ClearAllResult{}, fmt.Errorf("%s: delete messages: %w", op, err)
	}

	deletedFiles, err := s.files.DeleteAll(ctx)
	if err != nil {
		return messagesdomain.ClearAllResult{}, fmt.Errorf("%s: delete files: %w", op, err)
	}

	for _, key := range keys {
		if err := s.blobs.Delete(ctx, key); err != nil {
			metrics.BlobDeleteFailures.Inc()
			s.log.Error("blob delete failed during clear-all",
				slog.String("storage_key", key), sl.Err(err))
		}
	}

	return messagesdomain.ClearAllResult{
		DeletedMessages: deletedMessages,
		DeletedFiles:    deletedFiles,
	}, nil
}
