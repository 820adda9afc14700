package rest

import (
	"net/http"

	"github.com/bwise1/roadwatch/internal/drawing"
	"github.com/bwise1/roadwatch/internal/model"
	"github.com/bwise1/roadwatch/util"
	"github.com/bwise1/roadwatch/util/tracing"
	"github.com/bwise1/roadwatch/util/values"
	"github.com/go-chi/chi/v5"
)

func (api *API) DrawingRoutes() chi.Router {
	mux := chi.NewRouter()

	mux.Method(http.MethodGet, "/", Handler(api.DrawingStatus))
	mux.Method(http.MethodPost, "/start", Handler(api.drawingAction(startDrawing)))
	mux.Method(http.MethodPost, "/save", Handler(api.drawingAction(saveDrawing)))
	mux.Method(http.MethodPost, "/clear", Handler(api.drawingAction(clearDrawing)))
	mux.Method(http.MethodPost, "/undo", Handler(api.drawingAction(undoDrawing)))
	mux.Method(http.MethodPost, "/cancel", Handler(api.drawingAction(cancelDrawing)))
	mux.Method(http.MethodPost, "/snap", Handler(api.SnapDrawing))
	mux.Method(http.MethodPost, "/submit", Handler(api.SubmitRoad))

	return mux
}

type drawingOp func(c *drawing.Controller) (string, error)

func startDrawing(c *drawing.Controller) (string, error) {
	return "Drawing started", c.Activate()
}

func saveDrawing(c *drawing.Controller) (string, error) {
	return "Road saved, fill in the details", c.Save()
}

func clearDrawing(c *drawing.Controller) (string, error) {
	return "Drawing cleared", c.Clear()
}

func undoDrawing(c *drawing.Controller) (string, error) {
	if !c.Undo() {
		return "Nothing to undo", nil
	}
	return "Last point removed", nil
}

func cancelDrawing(c *drawing.Controller) (string, error) {
	if !c.Cancel() {
		return "Nothing to cancel", nil
	}
	return "Drawing cancelled", nil
}

func (api *API) drawingAction(op drawingOp) func(http.ResponseWriter, *http.Request) *ServerResponse {
	return func(_ http.ResponseWriter, r *http.Request) *ServerResponse {
		tc := r.Context().Value(values.ContextTracingKey).(tracing.Context)

		c, status, message, err := api.drawingHelper(chi.URLParam(r, "id"))
		if err != nil {
			return respondWithError(err, message, status, &tc)
		}

		message, err = op(c)
		if err != nil {
			return respondWithDomainError(err, &tc)
		}

		return &ServerResponse{
			Message:    message,
			Status:     values.Success,
			StatusCode: util.StatusCode(values.Success),
			Data:       c.Status(),
		}
	}
}

func (api *API) DrawingStatus(_ http.ResponseWriter, r *http.Request) *ServerResponse {
	return api.drawingAction(func(*drawing.Controller) (string, error) {
		return "Drawing fetched successfully", nil
	})(nil, r)
}

func (api *API) SnapDrawing(_ http.ResponseWriter, r *http.Request) *ServerResponse {
	tc := r.Context().Value(values.ContextTracingKey).(tracing.Context)

	c, status, message, err := api.drawingHelper(chi.URLParam(r, "id"))
	if err != nil {
		return respondWithError(err, message, status, &tc)
	}

	applied, err := c.SnapNow(r.Context())
	if err != nil {
		return respondWithDomainError(err, &tc)
	}

	message = "Road snapped"
	if !applied {
		message = "Road left as drawn"
	}
	return &ServerResponse{
		Message:    message,
		Status:     values.Success,
		StatusCode: util.StatusCode(values.Success),
		Data:       c.Status(),
	}
}

func (api *API) SubmitRoad(_ http.ResponseWriter, r *http.Request) *ServerResponse {
	tc := r.Context().Value(values.ContextTracingKey).(tracing.Context)

	var form model.RoadForm
	if decodeErr := util.DecodeJSONBody(&tc, r.Body, &form); decodeErr != nil {
		return respondWithError(decodeErr, "unable to decode request", values.BadRequestBody, &tc)
	}

	c, status, message, err := api.drawingHelper(chi.URLParam(r, "id"))
	if err != nil {
		return respondWithError(err, message, status, &tc)
	}

	road, err := c.Submit(r.Context(), form)
	if err != nil {
		status, message := errorStatus(err)
		if status == values.Upstream || status == values.Error {
			message = c.Notice()
		}
		return respondWithError(err, message, status, &tc)
	}

	return &ServerResponse{
		Message:    c.Notice(),
		Status:     values.Created,
		StatusCode: util.StatusCode(values.Created),
		Data:       road,
	}
}
