package httpapi

import (
	"errors"
	"net/http"

	"github.com/kgellert/cloudclip/internal/auth"
	"github.com/kgellert/cloudclip/internal/files"
	"github.com/kgellert/cloudclip/internal/messages"
)

func MapError(err error) (status int, msg string) {
	switch {
	case errors.Is(err, auth.ErrPasswordRequired):
		return http.StatusBadRequest, err.Error()

	case errors.Is(err, auth.ErrInvalidCredentials):
		return http.StatusUnauthorized, err.Error()

	case errors.Is(err, messages.ErrEmptyContent):
		return http.StatusBadRequest, err.Error()

	case errors.Is(err, messages.ErrMissingDevice):
		return http.StatusBadRequest, err.Error()

	case errors.Is(err, files.ErrFileTooLarge):
		return http.StatusBadRequest, err.Error()

	case errors.Is(err, files.ErrInvalidKey):
		return http.StatusBadRequest, err.Error()

	case errors.Is(err, messages.ErrMessageNotFound):
		return http.StatusNotFound, err.Error()

	case errors.Is(err, files.ErrFileNotFound):
		return http.StatusNotFound, err.Error()

	case errors.Is(err, files.ErrStorageWrite):
		return http.StatusInternalServerError, "failed to store file"

	case errors.Is(err, files.ErrMetadataWrite):
		return http.StatusInternalServerError, "failed to record file metadata"
	}

	return http.StatusInternalServerError, "internal server error"
}
