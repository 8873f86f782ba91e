package api

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/prevozkop/backend/errs"
	"github.com/prevozkop/backend/storage"
	"github.com/rs/zerolog"
)

type Responder struct {
	logger zerolog.Logger
	debug  bool
}

func NewResponder(logger zerolog.Logger, debug bool) Responder {
	return Responder{logger: logger, debug: debug}
}

func (r Responder) WriteJSON(w http.ResponseWriter, data any) {
	r.WriteJSONWithStatus(w, http.StatusOK, data)
}

// WriteJSONWithStatus encodes data before touching the response so a marshal
// failure can still be reported as a 500.
func (r Responder) WriteJSONWithStatus(w http.ResponseWriter, status int, data any) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(data); err != nil {
		r.logger.Error().Err(err).Msg("error marshaling response data")
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte(`{"error":"Internal server error"}`))
		return
	}

	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if _, err := w.Write(buf.Bytes()); err != nil {
		r.logger.Error().Err(err).Msg("error writing response")
	}
}

func (r Responder) WriteError(w http.ResponseWriter, err error) {
	var apiErr *errs.ApiErr
	var uploadErr *storage.UploadError

	switch {
	case errors.As(err, &apiErr) && !apiErr.Internal():
		if apiErr.Cause != nil {
			r.logger.Debug().Err(apiErr.Cause).Msg(apiErr.Error())
		}
		r.WriteJSONWithStatus(w, apiErr.StatusCode, ErrorResponse{Error: apiErr.Error()})

	case errors.As(err, &uploadErr):
		if uploadErr.Err != nil {
			r.logger.Warn().Err(uploadErr.Err).Msg(uploadErr.Reason)
		}
		r.WriteJSONWithStatus(w, http.StatusBadRequest, ErrorResponse{Error: uploadErr.Reason})

	default:
		// Unexpected errors never leak to clients unless APP_DEBUG is on.
		details := err.Error()
		if apiErr != nil {
			details = apiErr.GetFullError()
		}
		r.logger.Error().Err(err).Str("details", details).Msg("internal server error")

		resp := ErrorResponse{Error: "Internal server error"}
		if r.debug {
			resp.Details = details
		}
		r.WriteJSONWithStatus(w, http.StatusInternalServerError, resp)
	}
}

// wrapDatabaseError wraps a database error with context information
func wrapDatabaseError(operation, entity string, cause error) error {
	return errs.NewDatabaseError(operation, entity, cause)
}
