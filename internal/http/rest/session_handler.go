package rest

import (
	"net/http"

	"github.com/bwise1/roadwatch/internal/model"
	"github.com/bwise1/roadwatch/internal/overlay"
	"github.com/bwise1/roadwatch/util"
	"github.com/bwise1/roadwatch/util/tracing"
	"github.com/bwise1/roadwatch/util/values"
	"github.com/go-chi/chi/v5"
)

func (api *API) SessionRoutes() chi.Router {
	mux := chi.NewRouter()

	mux.Method(http.MethodPost, "/", Handler(api.CreateSession))

	mux.Route("/{id}", func(r chi.Router) {
		r.Method(http.MethodGet, "/", Handler(api.GetSession))
		r.Method(http.MethodDelete, "/", Handler(api.CloseSession))
		r.Method(http.MethodPut, "/role", Handler(api.SwitchRole))
		r.Method(http.MethodGet, "/overlays", Handler(api.GetOverlays))

		r.Method(http.MethodPost, "/map/click", Handler(api.MapClick))
		r.Method(http.MethodPost, "/map/key", Handler(api.MapKey))
		r.Method(http.MethodPost, "/map/viewport", Handler(api.MapViewport))

		r.Mount("/drawing", api.DrawingRoutes())
		r.Mount("/view", api.ViewRoutes())
		r.Mount("/roads/{roadID}/reviews", api.ReviewRoutes())
	})

	return mux
}

type SwitchRoleRequest struct {
	Role string `json:"role" validate:"required"`
}

type ClickRequest struct {
	Lat float64 `json:"lat" validate:"latitude"`
	Lng float64 `json:"lng" validate:"longitude"`
}

type KeyRequest struct {
	Key   string `json:"key" validate:"required"`
	Ctrl  bool   `json:"ctrl"`
	Meta  bool   `json:"meta"`
	Shift bool   `json:"shift"`
}

func (api *API) CreateSession(_ http.ResponseWriter, r *http.Request) *ServerResponse {
	tc := r.Context().Value(values.ContextTracingKey).(tracing.Context)

	info, status, message, err := api.CreateSessionHelper(r.Context())
	if err != nil {
		return respondWithError(err, message, status, &tc)
	}

	return &ServerResponse{
		Message:    message,
		Status:     status,
		StatusCode: util.StatusCode(status),
		Data:       info,
	}
}

func (api *API) GetSession(_ http.ResponseWriter, r *http.Request) *ServerResponse {
	tc := r.Context().Value(values.ContextTracingKey).(tracing.Context)

	s, err := api.Deps.Sessions.Get(chi.URLParam(r, "id"))
	if err != nil {
		return respondWithDomainError(err, &tc)
	}

	return &ServerResponse{
		Message:    "Session fetched successfully",
		Status:     values.Success,
		StatusCode: util.StatusCode(values.Success),
		Data:       s.Info(),
	}
}

func (api *API) CloseSession(_ http.ResponseWriter, r *http.Request) *ServerResponse {
	tc := r.Context().Value(values.ContextTracingKey).(tracing.Context)

	if err := api.Deps.Sessions.Close(chi.URLParam(r, "id")); err != nil {
		return respondWithDomainError(err, &tc)
	}

	return &ServerResponse{
		Message:    "Session closed",
		Status:     values.Success,
		StatusCode: util.StatusCode(values.Success),
	}
}

func (api *API) SwitchRole(_ http.ResponseWriter, r *http.Request) *ServerResponse {
	tc := r.Context().Value(values.ContextTracingKey).(tracing.Context)

	var req SwitchRoleRequest
	if decodeErr := util.DecodeJSONBody(&tc, r.Body, &req); decodeErr != nil {
		return respondWithError(decodeErr, "unable to decode request", values.BadRequestBody, &tc)
	}
	if err := util.ValidateStruct(req); err != nil {
		return respondWithError(err, "invalid role", values.Unprocessable, &tc)
	}

	role, err := model.ParseRole(req.Role)
	if err != nil {
		return respondWithError(err, err.Error(), values.Unprocessable, &tc)
	}

	info, status, message, err := api.SwitchRoleHelper(r.Context(), chi.URLParam(r, "id"), role)
	if err != nil {
		return respondWithError(err, message, status, &tc)
	}

	return &ServerResponse{
		Message:    message,
		Status:     status,
		StatusCode: util.StatusCode(status),
		Data:       info,
	}
}

func (api *API) GetOverlays(_ http.ResponseWriter, r *http.Request) *ServerResponse {
	tc := r.Context().Value(values.ContextTracingKey).(tracing.Context)

	s, err := api.Deps.Sessions.Get(chi.URLParam(r, "id"))
	if err != nil {
		return respondWithDomainError(err, &tc)
	}

	return &ServerResponse{
		Message:    "Overlays fetched successfully",
		Status:     values.Success,
		StatusCode: util.StatusCode(values.Success),
		Data:       s.Map.Render(),
	}
}

func (api *API) MapClick(_ http.ResponseWriter, r *http.Request) *ServerResponse {
	tc := r.Context().Value(values.ContextTracingKey).(tracing.Context)

	var req ClickRequest
	if decodeErr := util.DecodeJSONBody(&tc, r.Body, &req); decodeErr != nil {
		return respondWithError(decodeErr, "unable to decode request", values.BadRequestBody, &tc)
	}
	if err := util.ValidateStruct(req); err != nil {
		return respondWithError(err, "invalid map position", values.Unprocessable, &tc)
	}

	s, err := api.Deps.Sessions.Get(chi.URLParam(r, "id"))
	if err != nil {
		return respondWithDomainError(err, &tc)
	}

	handled := s.Click(model.GeoPoint{Lat: req.Lat, Lng: req.Lng})
	return inputResponse(handled)
}

func (api *API) MapKey(_ http.ResponseWriter, r *http.Request) *ServerResponse {
	tc := r.Context().Value(values.ContextTracingKey).(tracing.Context)

	var req KeyRequest
	if decodeErr := util.DecodeJSONBody(&tc, r.Body, &req); decodeErr != nil {
		return respondWithError(decodeErr, "unable to decode request", values.BadRequestBody, &tc)
	}
	if err := util.ValidateStruct(req); err != nil {
		return respondWithError(err, "invalid key event", values.Unprocessable, &tc)
	}

	s, err := api.Deps.Sessions.Get(chi.URLParam(r, "id"))
	if err != nil {
		return respondWithDomainError(err, &tc)
	}

	handled := s.Key(overlay.KeyEvent{Key: req.Key, Ctrl: req.Ctrl, Meta: req.Meta, Shift: req.Shift})
	return inputResponse(handled)
}

func (api *API) MapViewport(_ http.ResponseWriter, r *http.Request) *ServerResponse {
	tc := r.Context().Value(values.ContextTracingKey).(tracing.Context)

	s, err := api.Deps.Sessions.Get(chi.URLParam(r, "id"))
	if err != nil {
		return respondWithDomainError(err, &tc)
	}
	s.Interact()

	return &ServerResponse{
		Message:    "Viewport interaction recorded",
		Status:     values.Success,
		StatusCode: util.StatusCode(values.Success),
	}
}

func inputResponse(handled bool) *ServerResponse {
	message := "Event handled"
	if !handled {
		message = "Nothing is listening for this event"
	}
	return &ServerResponse{
		Message:    message,
		Status:     values.Success,
		StatusCode: util.StatusCode(values.Success),
		Data:       map[string]bool{"handled": handled},
	}
}
