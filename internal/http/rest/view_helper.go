package rest

import (
	"context"

	"github.com/bwise1/roadwatch/internal/model"
	"github.com/bwise1/roadwatch/internal/session"
	"github.com/bwise1/roadwatch/internal/views"
	"github.com/bwise1/roadwatch/util/values"
)

func (api *API) ListRoadsHelper(id string) ([]model.RoadRecord, string, string, error) {
	s, status, message, err := api.session(id)
	if err != nil {
		return nil, status, message, err
	}

	v := s.View()
	if v == nil {
		return nil, values.NotFound, "No view is mounted", session.ErrWrongView
	}
	return v.Roads(), values.Success, "Roads fetched successfully", nil
}

func (api *API) GetRoadHelper(id string, roadID int64) (views.RoadDetail, string, string, error) {
	s, status, message, err := api.session(id)
	if err != nil {
		return views.RoadDetail{}, status, message, err
	}

	v := s.View()
	if v == nil {
		return views.RoadDetail{}, values.NotFound, "No view is mounted", session.ErrWrongView
	}

	detail, err := v.Select(roadID)
	if err != nil {
		status, message := errorStatus(err)
		return views.RoadDetail{}, status, message, err
	}
	return detail, values.Success, "Road fetched successfully", nil
}

func (api *API) UpdateRoadHelper(ctx context.Context, id string, roadID int64, update model.RoadUpdate) (views.RoadDetail, string, string, error) {
	s, status, message, err := api.session(id)
	if err != nil {
		return views.RoadDetail{}, status, message, err
	}

	if err := s.UpdateRoad(ctx, roadID, update); err != nil {
		status, message := errorStatus(err)
		return views.RoadDetail{}, status, message, err
	}

	v := s.View()
	if v == nil {
		return views.RoadDetail{}, values.Success, "Road updated successfully", nil
	}
	detail, err := v.Select(roadID)
	if err != nil {
		// the road left this view after the update
		return views.RoadDetail{}, values.Success, "Road updated successfully", nil
	}
	return detail, values.Success, "Road updated successfully", nil
}
