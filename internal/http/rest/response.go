package rest

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"github.com/bwise1/roadwatch/internal/drawing"
	"github.com/bwise1/roadwatch/internal/http/backend"
	"github.com/bwise1/roadwatch/internal/review"
	"github.com/bwise1/roadwatch/internal/session"
	"github.com/bwise1/roadwatch/internal/views"
	"github.com/bwise1/roadwatch/util"
	"github.com/bwise1/roadwatch/util/tracing"
	"github.com/bwise1/roadwatch/util/values"
)

type ServerResponse struct {
	Status     string      `json:"status"`
	Message    string      `json:"message"`
	StatusCode int         `json:"-"`
	Data       interface{} `json:"data,omitempty"`
}

func respondWithError(err error, message, status string, tc *tracing.Context) *ServerResponse {
	log.Printf("❌ %s: %s (%s): %v", status, message, tc, err)

	resp := &ServerResponse{
		Status:     status,
		Message:    message,
		StatusCode: util.StatusCode(status),
	}
	if fields := fieldErrors(err); fields != nil {
		resp.Data = map[string]interface{}{"fields": fields}
	}
	return resp
}

func writeJSONResponse(w http.ResponseWriter, body []byte, statusCode int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if _, err := w.Write(body); err != nil {
		log.Println("unable to write response:", err)
	}
}

func writeErrorResponse(w http.ResponseWriter, err error, status, message string) {
	log.Printf("❌ %s: %s: %v", status, message, err)

	body, _ := json.Marshal(ServerResponse{Status: status, Message: message})
	writeJSONResponse(w, body, util.StatusCode(status))
}

// errorStatus maps a domain error to a response status and user message.
func errorStatus(err error) (string, string) {
	var apiErr *backend.APIError
	var verr *drawing.ValidationError

	switch {
	case errors.As(err, &verr):
		return values.Unprocessable, "Please correct the highlighted fields"
	case util.FieldErrors(err) != nil:
		return values.Unprocessable, "Please correct the highlighted fields"
	case errors.As(err, &apiErr):
		return values.Upstream, apiErr.Error()
	case errors.Is(err, session.ErrNotFound):
		return values.NotFound, "session not found"
	case errors.Is(err, views.ErrRoadNotFound):
		return values.NotFound, err.Error()
	case errors.Is(err, session.ErrWrongView), errors.Is(err, drawing.ErrNotAllowed), errors.Is(err, views.ErrReadOnly):
		return values.NotAllowed, err.Error()
	case errors.Is(err, drawing.ErrTooFewPoints), errors.Is(err, views.ErrEmptyUpdate),
		errors.Is(err, views.ErrIdentifierRequired), errors.Is(err, review.ErrNothingToSubmit):
		return values.Unprocessable, err.Error()
	case errors.Is(err, drawing.ErrNotDrawing), errors.Is(err, drawing.ErrNotReviewing),
		errors.Is(err, drawing.ErrBusy), errors.Is(err, drawing.ErrDiscarded):
		return values.Conflict, err.Error()
	case errors.Is(err, session.ErrClosed), errors.Is(err, drawing.ErrClosed):
		return values.NotFound, err.Error()
	}
	return values.Error, "something went wrong, please try again"
}

func fieldErrors(err error) map[string]string {
	var verr *drawing.ValidationError
	if errors.As(err, &verr) {
		return verr.Fields
	}
	return util.FieldErrors(err)
}

func respondWithDomainError(err error, tc *tracing.Context) *ServerResponse {
	status, message := errorStatus(err)
	return respondWithError(err, message, status, tc)
}
