package handler

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/render"

	response "github.com/kgellert/cloudclip/internal/lib"
	"github.com/kgellert/cloudclip/internal/lib/logger/sl"
	messagesdomain "github.com/kgellert/cloudclip/internal/messages"
	"github.com/kgellert/cloudclip/internal/messages/service"
	"github.com/kgellert/cloudclip/internal/transport/httpapi"
)

const (
	defaultLimit = 50
	maxLimit     = 200
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
		const op = "handlers.messages.List"

		log := h.log.With(
			slog.String("op", op),
			slog.String("request_id", middleware.GetReqID(r.Context())),
		)

		limit, offset := pagination(r)

		msgs, total, err := h.svc.List(r.Context(), limit, offset)
		if err != nil {
			log.Error("failed to list messages", sl.Err(err))
			httpapi.WriteError(w, r, err)
			return
		}

		render.JSON(w, r, messagesdomain.ListResponse{
			Success: true,
			Data:    msgs,
			Total:   total,
			Limit:   limit,
			Offset:  offset,
		})
	}
}

func (h *Handler) Send() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.messages.Send"

		log := h.log.With(
			slog.String("op", op),
			slog.String("request_id", middleware.GetReqID(r.Context())),
		)

		var req messagesdomain.SendMessageRequest
		if err := render.DecodeJSON(r.Body, &req); err != nil {
			log.Error("decode request error", sl.Err(err))
			response.WriteError(w, r, http.StatusBadRequest, "invalid request body")
			return
		}

		msg, err := h.svc.SendText(r.Context(), req.Content, req.DeviceID)
		if err != nil {
			log.Error("failed to send message", sl.Err(err))
			httpapi.WriteError(w, r, err)
			return
		}

		log.Info("message stored", slog.Int64("message_id", msg.ID))

		render.Status(r, http.StatusCreated)
		render.JSON(w, r, messagesdomain.SendResponse{
			Success: true,
			Data:    msg,
		})
	}
}

func (h *Handler) Delete() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.messages.Delete"

		log := h.log.With(
			slog.String("op", op),
			slog.String("request_id", middleware.GetReqID(r.Context())),
		)

		idStr := chi.URLParam(r, "id")
		id, err := strconv.ParseInt(idStr, 10, 64)
		if err != nil || id <= 0 {
			log.Error("invalid message id", slog.String("id", idStr))
			httpapi.WriteError(w, r, messagesdomain.ErrMessageNotFound)
			return
		}

		if err := h.svc.DeleteMessage(r.Context(), id); err != nil {
			log.Error("failed to delete message", sl.Err(err))
			httpapi.WriteError(w, r, err)
			return
		}

		log.Info("message deleted", slog.Int64("message_id", id))

		render.JSON(w, r, map[string]any{"success": true})
	}
}

func (h *Handler) ClearAll() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.messages.ClearAll"

		log := h.log.With(
			slog.String("op", op),
			slog.String("request_id", middleware.GetReqID(r.Context())),
		)

		result, err := h.svc.ClearAll(r.Context())
		if err != nil {
			log.Error("failed to clear messages", sl.Err(err))
			httpapi.WriteError(w, r, err)
			return
		}

		log.Info("cleared all messages",
			slog.Int64("deleted_messages", result.DeletedMessages),
			slog.Int64("deleted_files", result.DeletedFiles),
		)

		render.JSON(w, r, messagesdomain.ClearAllResponse{
			Success: true,
			Data:    result,
		})
	}
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
