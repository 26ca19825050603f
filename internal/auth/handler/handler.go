package handler

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/render"

	"github.com/kgellert/cloudclip/internal/auth"
	response "github.com/kgellert/cloudclip/internal/lib"
	"github.com/kgellert/cloudclip/internal/lib/logger/sl"
)

type LoginRequest struct {
	Password string `json:"password"`
}

type LoginResponse struct {
	response.Response
	Token     string `json:"token"`
	ExpiresIn int64  `json:"expiresIn"`
}

type VerifyResponse struct {
	Valid   bool         `json:"valid"`
	Payload *auth.Claims `json:"payload,omitempty"`
	Message string       `json:"message,omitempty"`
}

type Handler struct {
	tokens *auth.TokenService
	log    *slog.Logger
}

func New(tokens *auth.TokenService, log *slog.Logger) *Handler {
	return &Handler{tokens: tokens, log: log}
}

func (h *Handler) Login() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.auth.login"

		log := h.log.With(
			slog.String("op", op),
			slog.String("request_id", middleware.GetReqID(r.Context())),
		)

		var req LoginRequest
		if err := render.DecodeJSON(r.Body, &req); err != nil {
			log.Error("decode request error", sl.Err(err))
			response.WriteError(w, r, http.StatusBadRequest, auth.ErrPasswordRequired.Error())
			return
		}

		if req.Password == "" {
			response.WriteError(w, r, http.StatusBadRequest, auth.ErrPasswordRequired.Error())
			return
		}

		token, err := h.tokens.Issue(req.Password)
		if err != nil {
			if errors.Is(err, auth.ErrInvalidCredentials) {
				log.Warn("login rejected")
				response.WriteError(w, r, http.StatusUnauthorized, err.Error())
				return
			}
			log.Error("failed to issue token", sl.Err(err))
			response.WriteError(w, r, http.StatusInternalServerError, "internal server error")
			return
		}

		render.JSON(w, r, LoginResponse{
			Response:  response.OK(),
			Token:     token,
			ExpiresIn: int64(h.tokens.TTL().Seconds()),
		})
	}
}

func (h *Handler) Verify() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		token := auth.BearerToken(r)
		if token == "" {
			render.Status(r, http.StatusUnauthorized)
			render.JSON(w, r, VerifyResponse{Valid: false, Message: "missing credentials"})
			return
		}

		claims := h.tokens.Verify(token)
		if claims == nil {
			render.Status(r, http.StatusUnauthorized)
			render.JSON(w, r, VerifyResponse{Valid: false, Message: auth.ErrTokenInvalid.Error()})
			return
		}

		render.JSON(w, r, VerifyResponse{Valid: true, Payload: claims})
	}
}

func (h *Handler) Logout() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		// Tokens are stateless: logout is a client-side discard.
		render.JSON(w, r, response.OK())
	}
}
