package backend

import (
	"bytes"
	"encoding/json"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/bwise1/roadwatch/internal/model"
	"github.com/bwise1/roadwatch/util"
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
)

// rawRoad is a road in any of the shapes the backend endpoints produce.
type rawRoad struct {
	RoadID            model.FlexInt    `json:"road_id"`
	ID                model.FlexInt    `json:"id"`
	Name              string           `json:"name"`
	PolylineData      json.RawMessage  `json:"polyline_data"`
	Polyline          json.RawMessage  `json:"polyline"`
	Coordinates       json.RawMessage  `json:"coordinates"`
	BuilderID         model.FlexInt    `json:"builder_id"`
	InspectorAssigned model.FlexInt    `json:"inspector_assigned"`
	EmployeeID        model.FlexInt    `json:"employee_id"`
	MaintainedBy      model.FlexInt    `json:"maintained_by"`
	Cost              model.FlexFloat  `json:"cost"`
	StartedDate       *string          `json:"started_date"`
	EndedDate         *string          `json:"ended_date"`
	Status            *string          `json:"status"`
	ChiefEngineer     *string          `json:"chief_engineer"`
	DateVerified      *string          `json:"date_verified"`
	AverageRating     *model.FlexFloat `json:"average_rating"`
}

func (r rawRoad) record() model.RoadRecord {
	raw := r.PolylineData
	if isEmptyJSON(raw) {
		raw = r.Polyline
	}
	if isEmptyJSON(raw) {
		raw = r.Coordinates
	}

	inspector := int64(r.InspectorAssigned)
	if inspector == 0 {
		inspector = int64(r.EmployeeID)
	}

	roadID := int64(r.RoadID)
	if roadID == 0 {
		roadID = int64(r.ID)
	}

	rec := model.RoadRecord{
		RoadID:            roadID,
		Name:              r.Name,
		Polyline:          DecodePolyline(raw),
		BuilderID:         int64(r.BuilderID),
		InspectorAssigned: inspector,
		MaintainedBy:      int64(r.MaintainedBy),
		Cost:              float64(r.Cost),
		StartedDate:       deref(optional(r.StartedDate)),
		EndedDate:         optional(r.EndedDate),
		ChiefEngineer:     optional(r.ChiefEngineer),
		DateVerified:      optional(r.DateVerified),
	}
	if r.Status != nil {
		rec.RawStatus = *r.Status
	}
	rec.Status = model.ParseStatus(rec.RawStatus)
	if r.AverageRating != nil {
		avg := float64(*r.AverageRating)
		rec.AverageRating = &avg
	}
	return rec
}

// decodeRoads accepts a bare array of roads or an object holding the array
// under one of keys.
func decodeRoads(body []byte, keys ...string) ([]model.RoadRecord, error) {
	body = bytes.TrimSpace(body)
	if len(body) == 0 {
		return []model.RoadRecord{}, nil
	}

	var list []json.RawMessage
	switch body[0] {
	case '[':
		if err := json.Unmarshal(body, &list); err != nil {
			return nil, fmt.Errorf("failed to decode roads: %w", err)
		}
	case '{':
		var envelope map[string]json.RawMessage
		if err := json.Unmarshal(body, &envelope); err != nil {
			return nil, fmt.Errorf("failed to decode roads envelope: %w", err)
		}
		found := false
		for _, k := range keys {
			raw, ok := envelope[k]
			if !ok {
				continue
			}
			if isEmptyJSON(raw) {
				found = true
				break
			}
			if err := json.Unmarshal(raw, &list); err != nil {
				return nil, fmt.Errorf("failed to decode roads under %q: %w", k, err)
			}
			found = true
			break
		}
		if !found {
			return nil, fmt.Errorf("roads response has none of %v", keys)
		}
	default:
		return nil, fmt.Errorf("unexpected roads response %q", truncate(string(body), 64))
	}

	out := make([]model.RoadRecord, 0, len(list))
	for i, raw := range list {
		var r rawRoad
		if err := json.Unmarshal(raw, &r); err != nil {
			log.Printf("⚠️ skipping road %d of %d: %v", i+1, len(list), err)
			continue
		}
		out = append(out, r.record())
	}
	return out, nil
}

// DecodePolyline normalises every polyline encoding the backend uses into a
// path: arrays of {lat,lng} objects or [lat,lng] pairs, a JSON string holding
// either, a GeoJSON LineString, or a Google encoded polyline string.
// Anything it cannot read yields an empty path.
func DecodePolyline(raw json.RawMessage) model.Path {
	path, ok := decodePolyline(bytes.TrimSpace(raw), 0)
	if !ok {
		return model.Path{}
	}
	return path
}

func decodePolyline(raw []byte, depth int) (model.Path, bool) {
	if isEmptyJSON(raw) || depth > 2 {
		return nil, false
	}

	switch raw[0] {
	case '"':
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return nil, false
		}
		s = strings.TrimSpace(s)
		if s == "" {
			return nil, false
		}
		if s[0] == '[' || s[0] == '{' {
			return decodePolyline([]byte(s), depth+1)
		}
		coords, err := util.DecodePolyLines(s)
		if err != nil {
			return nil, false
		}
		return checked(model.PathFromCoords(coords))
	case '[':
		return decodePointArray(raw)
	case '{':
		return decodeGeometry(raw)
	}
	return nil, false
}

type rawPoint struct {
	Lat       *float64 `json:"lat"`
	Lng       *float64 `json:"lng"`
	Latitude  *float64 `json:"latitude"`
	Longitude *float64 `json:"longitude"`
}

func decodePointArray(raw []byte) (model.Path, bool) {
	var items []json.RawMessage
	if err := json.Unmarshal(raw, &items); err != nil {
		return nil, false
	}

	path := make(model.Path, 0, len(items))
	for _, item := range items {
		item = bytes.TrimSpace(item)
		if len(item) == 0 {
			return nil, false
		}

		switch item[0] {
		case '{':
			var p rawPoint
			if err := json.Unmarshal(item, &p); err != nil {
				return nil, false
			}
			lat, lng := first(p.Lat, p.Latitude), first(p.Lng, p.Longitude)
			if lat == nil || lng == nil {
				return nil, false
			}
			path = append(path, model.GeoPoint{Lat: *lat, Lng: *lng})
		case '[':
			var pair []float64
			if err := json.Unmarshal(item, &pair); err != nil || len(pair) < 2 {
				return nil, false
			}
			path = append(path, model.GeoPoint{Lat: pair[0], Lng: pair[1]})
		default:
			return nil, false
		}
	}
	return checked(path)
}

// decodeGeometry reads a GeoJSON LineString, whose positions are lng,lat.
func decodeGeometry(raw []byte) (model.Path, bool) {
	geom, err := geojson.UnmarshalGeometry(raw)
	if err != nil || geom == nil || geom.Coordinates == nil {
		return nil, false
	}

	var ls orb.LineString
	switch g := geom.Coordinates.(type) {
	case orb.LineString:
		ls = g
	case orb.MultiLineString:
		for _, part := range g {
			ls = append(ls, part...)
		}
	default:
		return nil, false
	}

	path := make(model.Path, 0, len(ls))
	for _, pt := range ls {
		path = append(path, model.GeoPoint{Lat: pt[1], Lng: pt[0]})
	}
	return checked(path)
}

func checked(path model.Path) (model.Path, bool) {
	for _, p := range path {
		if p.Lat < -90 || p.Lat > 90 || p.Lng < -180 || p.Lng > 180 {
			return nil, false
		}
	}
	return path, true
}

var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02 15:04:05.999999999-07:00",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02T15:04:05.999999999",
	"2006-01-02",
}

// parseTimestamp reads the timestamp spellings the backend produces. An
// unreadable value is the zero time.
func parseTimestamp(s *string) time.Time {
	if s == nil {
		return time.Time{}
	}
	v := strings.TrimSpace(*s)
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, v); err == nil {
			return t
		}
	}
	return time.Time{}
}

// optional drops the empty and Python "None" spellings of a missing value.
func optional(s *string) *string {
	if s == nil {
		return nil
	}
	v := strings.TrimSpace(*s)
	if v == "" || v == "None" || v == "null" {
		return nil
	}
	return &v
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func first(a, b *float64) *float64 {
	if a != nil {
		return a
	}
	return b
}

func isEmptyJSON(raw []byte) bool {
	raw = bytes.TrimSpace(raw)
	return len(raw) == 0 || bytes.Equal(raw, []byte("null")) || bytes.Equal(raw, []byte("{}"))
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
