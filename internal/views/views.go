package views

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"

	"github.com/bwise1/roadwatch/internal/model"
	"github.com/bwise1/roadwatch/internal/overlay"
	"github.com/paulmach/orb"
	orbgeo "github.com/paulmach/orb/geo"
)

var (
	ErrIdentifierRequired = errors.New("enter your identifier first")
	ErrRoadNotFound       = errors.New("road not found in this view")
	ErrNotMounted         = errors.New("view is not mounted")
	ErrReadOnly           = errors.New("this view cannot update roads")
	ErrEmptyUpdate        = errors.New("nothing to update")
)

// RoadSource is the backend as seen by the read views.
type RoadSource interface {
	AllRoads(ctx context.Context) ([]model.RoadRecord, error)
	RoadsByBuilder(ctx context.Context, builderID int64) ([]model.RoadRecord, error)
	RoadsByInspector(ctx context.Context, inspectorID int64) ([]model.RoadRecord, error)
	UpdateRoad(ctx context.Context, role model.Role, identifier, roadID int64, update model.RoadUpdate) error
}

// Imagery builds preview image URLs.
type Imagery interface {
	StreetViewURL(p model.GeoPoint, width, height int) string
}

// View is what a role sees on the map.
type View interface {
	Role() model.Role
	Mount(ctx context.Context) error
	Unmount()
	Roads() []model.RoadRecord
	Select(roadID int64) (RoadDetail, error)
}

// RoadDetail is the panel shown for a clicked road.
type RoadDetail struct {
	Road         model.RoadRecord `json:"road"`
	Color        string           `json:"color"`
	StatusLabel  string           `json:"status_label"`
	LengthMeters float64          `json:"length_m"`
	ImageryURL   string           `json:"imagery_url,omitempty"`
	Editable     bool             `json:"editable"`
}

// roadSet is a fetched snapshot of roads and the layer drawing them. A
// fetch that completes after the view moved on is dropped.
type roadSet struct {
	mu      sync.Mutex
	owner   string
	m       *overlay.Map
	palette Palette
	imagery Imagery
	layer   *overlay.Layer
	roads   []model.RoadRecord
	mounted bool
	epoch   uint64
}

func newRoadSet(owner string, m *overlay.Map, palette Palette, imagery Imagery) *roadSet {
	if palette == nil {
		palette = DefaultPalette
	}
	return &roadSet{owner: owner, m: m, palette: palette, imagery: imagery}
}

func (s *roadSet) mount() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.mounted {
		return
	}
	s.layer = s.m.Acquire(s.owner)
	s.mounted = true
	s.epoch++
}

func (s *roadSet) unmount() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.mounted {
		return
	}
	s.layer.Release()
	s.layer = nil
	s.roads = nil
	s.mounted = false
	s.epoch++
}

// load runs fetch without holding the lock and replaces the snapshot with
// its result, unless the view was unmounted or reloaded meanwhile.
func (s *roadSet) load(ctx context.Context, fetch func(context.Context) ([]model.RoadRecord, error)) error {
	s.mu.Lock()
	if !s.mounted {
		s.mu.Unlock()
		return ErrNotMounted
	}
	s.epoch++
	epoch := s.epoch
	s.mu.Unlock()

	roads, err := fetch(ctx)

	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.mounted || s.epoch != epoch {
		log.Printf("%s roads arrived after the view moved on, dropping", s.owner)
		return nil
	}
	if err != nil {
		return err
	}

	s.roads = roads
	s.layer.Clear()
	var all model.Path
	for _, r := range roads {
		s.layer.Add(r.Polyline, s.palette.Style(r.Status), overlay.Meta{RoadID: r.RoadID, Status: r.Status})
		all = append(all, r.Polyline...)
	}
	s.m.FitBounds(all)
	return nil
}

// add draws one more road without refetching.
func (s *roadSet) add(r model.RoadRecord) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.mounted {
		return
	}
	s.roads = append(s.roads, r)
	s.layer.Add(r.Polyline, s.palette.Style(r.Status), overlay.Meta{RoadID: r.RoadID, Status: r.Status})
}

func (s *roadSet) list() []model.RoadRecord {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]model.RoadRecord{}, s.roads...)
}

func (s *roadSet) find(roadID int64) (model.RoadRecord, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, r := range s.roads {
		if r.RoadID == roadID {
			return r, true
		}
	}
	return model.RoadRecord{}, false
}

func (s *roadSet) detail(roadID int64, editable bool) (RoadDetail, error) {
	r, ok := s.find(roadID)
	if !ok {
		return RoadDetail{}, fmt.Errorf("%w: %d", ErrRoadNotFound, roadID)
	}

	d := RoadDetail{
		Road:         r,
		Color:        s.palette.Color(r.Status),
		StatusLabel:  r.Status.Label(),
		LengthMeters: pathLength(r.Polyline),
		Editable:     editable,
	}
	if s.imagery != nil && len(r.Polyline) > 0 {
		d.ImageryURL = s.imagery.StreetViewURL(r.Polyline[len(r.Polyline)/2], 600, 300)
	}
	return d, nil
}

// pathLength is the geodesic length of path in meters.
func pathLength(path model.Path) float64 {
	if len(path) < 2 {
		return 0
	}
	ls := make(orb.LineString, len(path))
	for i, p := range path {
		ls[i] = orb.Point{p.Lng, p.Lat}
	}
	return orbgeo.Length(ls)
}
