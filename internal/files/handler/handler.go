package handler

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/render"

	filesdomain "github.com/kgellert/cloudclip/internal/files"
	response "github.com/kgellert/cloudclip/internal/lib"
	"github.com/kgellert/cloudclip/internal/lib/logger/sl"
	"github.com/kgellert/cloudclip/internal/messages/service"
	"github.com/kgellert/cloudclip/internal/transport/httpapi"
)

const (
	defaultLimit = 50
	maxLimit     = 200

	// Multipart form fields and headers together stay well inside this
	// margin over the file size limit.
	multipartOverhead = 1 << 20
)

type Handler struct {
	svc *service.Service
	log *slog.Logger
}

func New(svc *service.Service, log *slog.Logger) *Handler {
	return &Handler{svc: svc, log: log}
}

func (h *Handler) List() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.files.List"

		log := h.log.With(
			slog.String("op", op),
			slog.String("request_id", middleware.GetReqID(r.Context())),
		)

		limit, offset := pagination(r)

		items, total, err := h.svc.ListFiles(r.Context(), limit, offset)
		if err != nil {
			log.Error("failed to list files", sl.Err(err))
			httpapi.WriteError(w, r, err)
			return
		}

		render.JSON(w, r, filesdomain.ListResponse{
			Success: true,
			Data:    items,
			Total:   total,
			Limit:   limit,
			Offset:  offset,
		})
	}
}

func (h *Handler) Upload() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.files.Upload"

		log := h.log.With(
			slog.String("op", op),
			slog.String("request_id", middleware.GetReqID(r.Context())),
		)

		r.Body = http.MaxBytesReader(w, r.Body, h.svc.MaxFileSize()+multipartOverhead)

		file, header, err := r.FormFile("file")
		if err != nil {
			var maxErr *http.MaxBytesError
			if errors.As(err, &maxErr) {
				httpapi.WriteError(w, r, filesdomain.ErrFileTooLarge)
				return
			}
			log.Error("missing file part", sl.Err(err))
			response.WriteError(w, r, http.StatusBadRequest, "file is required")
			return
		}
		defer file.Close()

		deviceID := r.FormValue("deviceId")

		result, err := h.svc.Upload(r.Context(), service.UploadRequest{
			Name:        header.Filename,
			Size:        header.Size,
			ContentType: header.Header.Get("Content-Type"),
			DeviceID:    deviceID,
			Body:        file,
		})
		if err != nil {
			log.Error("upload failed",
				slog.String("file_name", header.Filename),
				slog.Int64("file_size", header.Size),
				sl.Err(err),
			)
			httpapi.WriteError(w, r, err)
			return
		}

		log.Info("file uploaded",
			slog.Int64("file_id", result.ID),
			slog.String("storage_key", result.StorageKey),
			slog.Int64("file_size", result.SizeBytes),
		)

		render.Status(r, http.StatusCreated)
		render.JSON(w, r, filesdomain.UploadResponse{
			Success: true,
			Data: filesdomain.UploadResult{
				FileID:     result.ID,
				FileName:   result.OriginalName,
				FileSize:   result.SizeBytes,
				StorageKey: result.StorageKey,
			},
		})
	}
}

func (h *Handler) Download() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.files.Download"

		log := h.log.With(
			slog.String("op", op),
			slog.String("request_id", middleware.GetReqID(r.Context())),
		)

		key := chi.URLParam(r, "key")

		f, obj, err := h.svc.Download(r.Context(), key)
		if err != nil {
			log.Error("download failed", slog.String("storage_key", key), sl.Err(err))
			httpapi.WriteError(w, r, err)
			return
		}
		defer obj.Body.Close()

		w.Header().Set("Content-Type", contentTypeOr(obj.ContentType, f.MimeType))
		w.Header().Set("Content-Disposition", filesdomain.AttachmentDisposition(f.OriginalName))
		if obj.ContentLength > 0 {
			w.Header().Set("Content-Length", strconv.FormatInt(obj.ContentLength, 10))
		}

		if _, err := io.Copy(w, obj.Body); err != nil {
			log.Warn("download stream interrupted",
				slog.String("storage_key", key), sl.Err(err))
		}
	}
}

func (h *Handler) Preview() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.files.Preview"

		log := h.log.With(
			slog.String("op", op),
			slog.String("request_id", middleware.GetReqID(r.Context())),
		)

		key := chi.URLParam(r, "key")

		f, obj, err := h.svc.Preview(r.Context(), key)
		if err != nil {
			log.Error("preview failed", slog.String("storage_key", key), sl.Err(err))
			httpapi.WriteError(w, r, err)
			return
		}
		defer obj.Body.Close()

		etag := obj.ETag
		if etag == "" {
			etag = fmt.Sprintf("%s-%d-%d", key, obj.LastModified.Unix(), obj.ContentLength)
		}
		etag = `"` + etag + `"`

		// Tokens ride on the Authorization header, so shared caches must
		// not serve one client's preview to another.
		w.Header().Set("Cache-Control", "private, max-age=3600")
		w.Header().Set("Vary", "Authorization")
		w.Header().Set("ETag", etag)

		if etagMatches(r.Header.Get("If-None-Match"), etag) {
			w.WriteHeader(http.StatusNotModified)
			return
		}

		w.Header().Set("Content-Type", contentTypeOr(obj.ContentType, f.MimeType))
		w.Header().Set("Content-Disposition", filesdomain.InlineDisposition(f.OriginalName))
		if obj.ContentLength > 0 {
			w.Header().Set("Content-Length", strconv.FormatInt(obj.ContentLength, 10))
		}

		if _, err := io.Copy(w, obj.Body); err != nil {
			log.Warn("preview stream interrupted",
				slog.String("storage_key", key), sl.Err(err))
		}
	}
}

func (h *Handler) Delete() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.files.Delete"

		log := h.log.With(
			slog.String("op", op),
			slog.String("request_id", middleware.GetReqID(r.Context())),
		)

		key := chi.URLParam(r, "key")

		if err := h.svc.DeleteFile(r.Context(), key); err != nil {
			log.Error("failed to delete file", slog.String("storage_key", key), sl.Err(err))
			httpapi.WriteError(w, r, err)
			return
		}

		log.Info("file deleted", slog.String("storage_key", key))

		render.JSON(w, r, map[string]any{"success": true})
	}
}

// etagMatches implements the If-None-Match comparison: the header is a
// comma-separated list of entity tags (or a lone "*"), and weak tags
// compare equal to their strong form. Proxies routinely weaken tags in
// transit, so a W/ prefix on either side must not defeat the 304 path.
func etagMatches(header, etag string) bool {
	if header == "" {
		return false
	}

	etag = strings.TrimPrefix(etag, "W/")

	for _, candidate := range strings.Split(header, ",") {
		candidate = strings.TrimSpace(candidate)
		if candidate == "*" {
			return true
		}
		if strings.TrimPrefix(candidate, "W/") == etag {
			return true
		}
	}

	return false
}

func contentTypeOr(primary, fallback string) string {
	if primary != "" {
		return primary
	}
	if fallback != "" {
		return fallback
	}
	return "application/octet-stream"
}

func pagination(r *http.Request) (limit, offset int) {
	limit = defaultLimit
	if v, err := strconv.Atoi(r.URL.Query().Get("limit")); err == nil && v > 0 {
		limit = v
	}
	if limit > maxLimit {
		limit = maxLimit
	}
	if v, err := strconv.Atoi(r.URL.Query().Get("offset")); err == nil && v > 0 {
		offset = v
	}
	return limit, offset
}
