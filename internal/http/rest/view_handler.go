package rest

import (
	"net/http"
	"strconv"

	"github.com/bwise1/roadwatch/internal/model"
	"github.com/bwise1/roadwatch/util"
	"github.com/bwise1/roadwatch/util/tracing"
	"github.com/bwise1/roadwatch/util/values"
	"github.com/go-chi/chi/v5"
)

func (api *API) ViewRoutes() chi.Router {
	mux := chi.NewRouter()

	mux.Method(http.MethodPost, "/identify", Handler(api.Identify))
	mux.Method(http.MethodPost, "/refresh", Handler(api.RefreshView))
	mux.Method(http.MethodGet, "/roads", Handler(api.ListRoads))
	mux.Method(http.MethodGet, "/roads/{roadID}", Handler(api.GetRoad))
	mux.Method(http.MethodPatch, "/roads/{roadID}", Handler(api.UpdateRoad))

	return mux
}

type IdentifyRequest struct {
	Identifier int64 `json:"identifier" validate:"required,gt=0"`
}

func (api *API) Identify(_ http.ResponseWriter, r *http.Request) *ServerResponse {
	tc := r.Context().Value(values.ContextTracingKey).(tracing.Context)

	var req IdentifyRequest
	if decodeErr := util.DecodeJSONBody(&tc, r.Body, &req); decodeErr != nil {
		return respondWithError(decodeErr, "unable to decode request", values.BadRequestBody, &tc)
	}
	if err := util.ValidateStruct(req); err != nil {
		return respondWithError(err, "Please enter a valid identifier", values.Unprocessable, &tc)
	}

	s, status, message, err := api.session(chi.URLParam(r, "id"))
	if err != nil {
		return respondWithError(err, message, status, &tc)
	}

	if err := s.Identify(r.Context(), req.Identifier); err != nil {
		return respondWithDomainError(err, &tc)
	}

	return &ServerResponse{
		Message:    "Roads fetched successfully",
		Status:     values.Success,
		StatusCode: util.StatusCode(values.Success),
		Data:       s.Info(),
	}
}

func (api *API) RefreshView(_ http.ResponseWriter, r *http.Request) *ServerResponse {
	tc := r.Context().Value(values.ContextTracingKey).(tracing.Context)

	s, status, message, err := api.session(chi.URLParam(r, "id"))
	if err != nil {
		return respondWithError(err, message, status, &tc)
	}

	if err := s.Refresh(r.Context()); err != nil {
		return respondWithDomainError(err, &tc)
	}

	return &ServerResponse{
		Message:    "Roads refreshed",
		Status:     values.Success,
		StatusCode: util.StatusCode(values.Success),
		Data:       s.Info(),
	}
}

func (api *API) ListRoads(_ http.ResponseWriter, r *http.Request) *ServerResponse {
	tc := r.Context().Value(values.ContextTracingKey).(tracing.Context)

	roads, status, message, err := api.ListRoadsHelper(chi.URLParam(r, "id"))
	if err != nil {
		return respondWithError(err, message, status, &tc)
	}

	return &ServerResponse{
		Message:    message,
		Status:     status,
		StatusCode: util.StatusCode(status),
		Data:       roads,
	}
}

func (api *API) GetRoad(_ http.ResponseWriter, r *http.Request) *ServerResponse {
	tc := r.Context().Value(values.ContextTracingKey).(tracing.Context)

	roadID, err := strconv.ParseInt(chi.URLParam(r, "roadID"), 10, 64)
	if err != nil {
		return respondWithError(err, "invalid road id", values.BadRequestBody, &tc)
	}

	detail, status, message, err := api.GetRoadHelper(chi.URLParam(r, "id"), roadID)
	if err != nil {
		return respondWithError(err, message, status, &tc)
	}

	return &ServerResponse{
		Message:    message,
		Status:     status,
		StatusCode: util.StatusCode(status),
		Data:       detail,
	}
}

func (api *API) UpdateRoad(_ http.ResponseWriter, r *http.Request) *ServerResponse {
	tc := r.Context().Value(values.ContextTracingKey).(tracing.Context)

	roadID, err := strconv.ParseInt(chi.URLParam(r, "roadID"), 10, 64)
	if err != nil {
		return respondWithError(err, "invalid road id", values.BadRequestBody, &tc)
	}

	var update model.RoadUpdate
	if decodeErr := util.DecodeJSONBody(&tc, r.Body, &update); decodeErr != nil {
		return respondWithError(decodeErr, "unable to decode request", values.BadRequestBody, &tc)
	}

	detail, status, message, err := api.UpdateRoadHelper(r.Context(), chi.URLParam(r, "id"), roadID, update)
	if err != nil {
		return respondWithError(err, message, status, &tc)
	}

	return &ServerResponse{
		Message:    message,
		Status:     status,
		StatusCode: util.StatusCode(status),
		Data:       detail,
	}
}
