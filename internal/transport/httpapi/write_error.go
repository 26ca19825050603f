package httpapi

import (
	"net/http"

	response "github.com/kgellert/cloudclip/internal/lib"
)

func WriteError(w http.ResponseWriter, r *http.Request, err error) {
	status, msg := MapError(err)
	response.WriteError(w, r, status, msg)
}
