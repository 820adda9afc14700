package rest

import (
	"net/http"
	"strconv"

	"github.com/bwise1/roadwatch/internal/review"
	"github.com/bwise1/roadwatch/util"
	"github.com/bwise1/roadwatch/util/tracing"
	"github.com/bwise1/roadwatch/util/values"
	"github.com/go-chi/chi/v5"
)

const maxReviewUpload = 10 << 20

func (api *API) ReviewRoutes() chi.Router {
	mux := chi.NewRouter()

	mux.Method(http.MethodGet, "/", Handler(api.GetReviews))
	mux.Method(http.MethodPost, "/", Handler(api.SubmitReview))
	mux.Method(http.MethodPost, "/tags", Handler(api.ToggleTag))

	return mux
}

type ToggleTagRequest struct {
	Tag string `json:"tag" validate:"required"`
}

type ReviewsResponse struct {
	List         interface{} `json:"list"`
	SelectedTags []string    `json:"selected_tags"`
	Tags         []string    `json:"tags"`
}

func (api *API) GetReviews(_ http.ResponseWriter, r *http.Request) *ServerResponse {
	tc := r.Context().Value(values.ContextTracingKey).(tracing.Context)

	panel, status, message, err := api.panelHelper(chi.URLParam(r, "id"), chi.URLParam(r, "roadID"))
	if err != nil {
		return respondWithError(err, message, status, &tc)
	}

	list, err := panel.Refresh(r.Context())
	if err != nil {
		return respondWithError(err, "Failed to load reviews", values.Upstream, &tc)
	}

	return &ServerResponse{
		Message:    "Reviews fetched successfully",
		Status:     values.Success,
		StatusCode: util.StatusCode(values.Success),
		Data:       ReviewsResponse{List: list, SelectedTags: panel.SelectedTags(), Tags: review.Tags},
	}
}

func (api *API) ToggleTag(_ http.ResponseWriter, r *http.Request) *ServerResponse {
	tc := r.Context().Value(values.ContextTracingKey).(tracing.Context)

	var req ToggleTagRequest
	if decodeErr := util.DecodeJSONBody(&tc, r.Body, &req); decodeErr != nil {
		return respondWithError(decodeErr, "unable to decode request", values.BadRequestBody, &tc)
	}
	if err := util.ValidateStruct(req); err != nil {
		return respondWithError(err, "tag is required", values.Unprocessable, &tc)
	}

	panel, status, message, err := api.panelHelper(chi.URLParam(r, "id"), chi.URLParam(r, "roadID"))
	if err != nil {
		return respondWithError(err, message, status, &tc)
	}
	selected := panel.ToggleTag(req.Tag)

	return &ServerResponse{
		Message:    "Tag updated",
		Status:     values.Success,
		StatusCode: util.StatusCode(values.Success),
		Data: map[string]interface{}{
			"tag":           req.Tag,
			"selected":      selected,
			"selected_tags": panel.SelectedTags(),
		},
	}
}

func (api *API) SubmitReview(_ http.ResponseWriter, r *http.Request) *ServerResponse {
	tc := r.Context().Value(values.ContextTracingKey).(tracing.Context)

	roadID, err := strconv.ParseInt(chi.URLParam(r, "roadID"), 10, 64)
	if err != nil {
		return respondWithError(err, "invalid road id", values.BadRequestBody, &tc)
	}

	form, status, message, err := parseReviewForm(r, roadID)
	if err != nil {
		return respondWithError(err, message, status, &tc)
	}

	panel, status, message, err := api.panelHelper(chi.URLParam(r, "id"), chi.URLParam(r, "roadID"))
	if err != nil {
		return respondWithError(err, message, status, &tc)
	}

	res, err := panel.Submit(r.Context(), form)
	if err != nil {
		return respondWithDomainError(err, &tc)
	}

	status = values.Created
	switch {
	case res.Failed():
		status = values.Upstream
	case res.Partial():
		status = values.Partial
	}

	return &ServerResponse{
		Message:    res.Message,
		Status:     status,
		StatusCode: util.StatusCode(status),
		Data:       res,
	}
}
