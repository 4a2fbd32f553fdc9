package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/rs/zerolog/hlog"

	"github.com/Tomlord1122/todolist/internal/identity"
	"github.com/Tomlord1122/todolist/internal/service"
	"github.com/Tomlord1122/todolist/internal/validation"
)

const maxBodyBytes = 1 << 20

// problem is an RFC 7807 style error body. Errors carries field messages
// for validation failures.
type problem struct {
	Title  string              `json:"title"`
	Status int                 `json:"status"`
	Detail string              `json:"detail,omitempty"`
	Errors map[string][]string `json:"errors,omitempty"`
}

// decodeJSON reads the body into dst. On failure it writes a 400 and
// returns false.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst interface{}) bool {
	decoder := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	decoder.DisallowUnknownFields()
	err := decoder.Decode(dst)
	if err == nil {
		return true
	}

	var syntaxError *json.SyntaxError
	var unmarshalTypeError *json.UnmarshalTypeError
	var maxBytesError *http.MaxBytesError
	var msg string
	switch {
	case errors.As(err, &syntaxError):
		msg = fmt.Sprintf("Request body contains badly-formed JSON (at position %d)", syntaxError.Offset)
	case errors.Is(err, io.ErrUnexpectedEOF):
		msg = "Request body contains badly-formed JSON"
	case errors.As(err, &unmarshalTypeError):
		msg = fmt.Sprintf("Request body contains an invalid value for the %q field (at position %d)", unmarshalTypeError.Field, unmarshalTypeError.Offset)
	case strings.HasPrefix(err.Error(), "json: unknown field "):
		fieldName := strings.TrimPrefix(err.Error(), "json: unknown field ")
		msg = fmt.Sprintf("Request body contains unknown field %s", fieldName)
	case errors.Is(err, io.EOF):
		msg = "Request body must not be empty"
	case errors.As(err, &maxBytesError):
		msg = fmt.Sprintf("Request body must not be larger than %d bytes", maxBytesError.Limit)
	default:
		hlog.FromRequest(r).Error().Err(err).Msg("failed to decode request body")
		respondWithProblem(w, http.StatusInternalServerError, "Error processing request")
		return false
	}
	respondWithProblem(w, http.StatusBadRequest, msg)
	return false
}

func respondWithProblem(w http.ResponseWriter, code int, detail string) {
	respondWithJSON(w, code, problem{
		Title:  http.StatusText(code),
		Status: code,
		Detail: detail,
	})
}

func respondWithValidation(w http.ResponseWriter, verr *validation.Error) {
	respondWithJSON(w, http.StatusBadRequest, problem{
		Title:  "One or more validation errors occurred.",
		Status: http.StatusBadRequest,
		Errors: verr.Fields,
	})
}

// writeServiceError maps service and identity errors onto responses.
func writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	var verr *validation.Error
	switch {
	case errors.As(err, &verr):
		respondWithValidation(w, verr)
	case errors.Is(err, service.ErrUnauthorized), errors.Is(err, identity.ErrNoSession):
		respondWithProblem(w, http.StatusUnauthorized, "")
	case errors.Is(err, identity.ErrInvalidCredentials):
		respondWithProblem(w, http.StatusUnauthorized, "Failed")
	case errors.Is(err, service.ErrForbidden):
		respondWithProblem(w, http.StatusForbidden, "")
	case errors.Is(err, service.ErrNotFound):
		respondWithProblem(w, http.StatusNotFound, "")
	default:
		if !errors.Is(err, service.ErrInternal) && !errors.Is(err, identity.ErrInternal) {
			hlog.FromRequest(r).Error().Err(err).Msg("unexpected error")
		}
		respondWithProblem(w, http.StatusInternalServerError, "An error occurred while processing your request.")
	}
}

func respondWithJSON(w http.ResponseWriter, code int, payload interface{}) {
	response, err := json.Marshal(payload)
	if err != nil {
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"title":"Internal Server Error","status":500}`))
		return
	}

	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(code)
	_, _ = w.Write(response)
}
