package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/bwise1/roadwatch/internal/model"
	"github.com/google/go-querystring/query"
	"github.com/pkg/errors"
)

// InspectorRoadsQuery scopes the inspector road listing.
type InspectorRoadsQuery struct {
	InspectorUniqueID int64 `url:"inspector_unique_id"`
}

// AddRoad creates a road. The backend may answer with the created road or
// an empty body; the returned id is 0 when it sends none.
func (c *Client) AddRoad(ctx context.Context, payload model.RoadPayload) (int64, error) {
	body, err := c.doJSON(ctx, http.MethodPost, "/employee/add_road", nil, payload)
	if err != nil {
		return 0, err
	}

	body = bytes.TrimSpace(body)
	if len(body) == 0 || body[0] != '{' {
		return 0, nil
	}
	var created rawRoad
	if err := json.Unmarshal(body, &created); err != nil {
		return 0, nil
	}
	return int64(created.RoadID), nil
}

// AllRoads lists every road, as shown to citizens.
func (c *Client) AllRoads(ctx context.Context) ([]model.RoadRecord, error) {
	body, err := c.doJSON(ctx, http.MethodGet, "/", nil, nil)
	if err != nil {
		return nil, err
	}
	return decodeRoads(body, "all_roads_data", "roads", "data")
}

// RoadsByBuilder lists the roads a builder owns or maintains.
func (c *Client) RoadsByBuilder(ctx context.Context, builderID int64) ([]model.RoadRecord, error) {
	body, err := c.doJSON(ctx, http.MethodGet, fmt.Sprintf("/builder/%d/roads", builderID), nil, nil)
	if err != nil {
		return nil, err
	}
	return decodeRoads(body, "roads", "data")
}

// RoadsByInspector lists the roads assigned to an inspector.
func (c *Client) RoadsByInspector(ctx context.Context, inspectorID int64) ([]model.RoadRecord, error) {
	params, err := query.Values(InspectorRoadsQuery{InspectorUniqueID: inspectorID})
	if err != nil {
		return nil, errors.Wrap(err, "failed to encode inspector query")
	}

	body, err := c.doJSON(ctx, http.MethodGet, "/employee/inspector/roads", params, nil)
	if err != nil {
		return nil, err
	}
	return decodeRoads(body, "roads", "data")
}

type roadUpdateRequest struct {
	BuilderUniqueID   *int64 `json:"builder_unique_id,omitempty"`
	InspectorUniqueID *int64 `json:"inspector_unique_id,omitempty"`
	model.RoadUpdate
}

// UpdateRoad sends a partial update of a road on behalf of a builder or an
// inspector, identified only by the identifier they entered.
func (c *Client) UpdateRoad(ctx context.Context, role model.Role, identifier, roadID int64, update model.RoadUpdate) error {
	req := roadUpdateRequest{RoadUpdate: update}

	var path string
	switch role {
	case model.RoleBuilder:
		req.BuilderUniqueID = &identifier
		path = fmt.Sprintf("/builder/roads/%d", roadID)
	case model.RoleInspector:
		req.InspectorUniqueID = &identifier
		path = fmt.Sprintf("/employee/roads/%d", roadID)
	default:
		return fmt.Errorf("role %s cannot update roads", role)
	}

	_, err := c.doJSON(ctx, http.MethodPatch, path, nil, req)
	return err
}
