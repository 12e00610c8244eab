package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/Varun5711/easywedding/internal/auth"
	"github.com/Varun5711/easywedding/internal/logger"
	"github.com/Varun5711/easywedding/internal/models"
	"github.com/Varun5711/easywedding/internal/service"
)

const maxBodyBytes = 1 << 20

func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func respondOK(w http.ResponseWriter, status int, data interface{}, message string) {
	respondJSON(w, status, models.OK(data, message))
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, models.Fail(message))
}

// decodeJSON reads a bounded JSON body. Unknown fields are ignored.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst interface{}) error {
	return json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(dst)
}

func respondInvalidBody(w http.ResponseWriter) {
	respondError(w, http.StatusBadRequest, service.ErrValidation.Error())
}

// respondServiceError maps service errors onto the API envelope. Anything
// unrecognised is logged and reported as an opaque internal error.
func respondServiceError(w http.ResponseWriter, log *logger.Logger, err error) {
	var ve *service.ValidationError
	switch {
	case errors.As(err, &ve):
		env := models.Fail(service.ErrValidation.Error())
		if ve.Field != "" {
			env.Details = map[string]string{ve.Field: ve.Message}
		}
		respondJSON(w, http.StatusBadRequest, env)
	case errors.Is(err, service.ErrDuplicateEmail):
		respondError(w, http.StatusBadRequest, service.ErrDuplicateEmail.Error())
	case errors.Is(err, service.ErrInvalidCredentials):
		respondError(w, http.StatusUnauthorized, service.ErrInvalidCredentials.Error())
	case errors.Is(err, auth.ErrInvalidToken):
		respondError(w, http.StatusUnauthorized, "invalid or expired token")
	case errors.Is(err, service.ErrNotFound):
		respondError(w, http.StatusNotFound, service.ErrNotFound.Error())
	case errors.Is(err, service.ErrForbidden):
		respondError(w, http.StatusForbidden, service.ErrForbidden.Error())
	default:
		log.Error("request failed: %v", err)
		respondError(w, http.StatusInternalServerError, service.ErrInternal.Error())
	}
}
