package overlay

import (
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/bwise1/roadwatch/internal/model"
	"github.com/bwise1/roadwatch/util"
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
)

// Events published by a Map.
const (
	EventOverlays = "overlays"
	EventRecenter = "recenter"
)

// Publisher receives map changes. Publish is called with the map lock held
// and must not call back into the map.
type Publisher interface {
	Publish(event string, payload interface{})
}

type nopPublisher struct{}

func (nopPublisher) Publish(string, interface{}) {}

// Style is how a polyline is drawn.
type Style struct {
	Color   string  `json:"color"`
	Opacity float64 `json:"opacity"`
	Weight  int     `json:"weight"`
	Dashed  bool    `json:"dashed"`
}

// Meta ties a polyline to a road.
type Meta struct {
	RoadID int64
	Status model.RoadStatus
}

// Map is the single map instance of a session. Overlays live in layers
// owned by whichever view is mounted.
type Map struct {
	mu        sync.Mutex
	pub       Publisher
	layers    map[string]*Layer
	seq       int
	listeners int
	clicks    map[int]func(model.GeoPoint)
	keys      map[int]func(KeyEvent)

	Viewport *Viewport
}

func NewMap(pub Publisher, recenterDelay time.Duration) *Map {
	if pub == nil {
		pub = nopPublisher{}
	}
	return &Map{
		pub:      pub,
		layers:   make(map[string]*Layer),
		clicks:   make(map[int]func(model.GeoPoint)),
		keys:     make(map[int]func(KeyEvent)),
		Viewport: NewViewport(recenterDelay),
	}
}

// Layer is a group of polylines acquired and released together.
type Layer struct {
	m        *Map
	id       string
	owner    string
	lines    map[string]*Polyline
	released bool
}

// Polyline is one path overlay.
type Polyline struct {
	layer   *Layer
	id      string
	path    model.Path
	style   Style
	meta    Meta
	removed bool
}

// Acquire creates a layer for owner.
func (m *Map) Acquire(owner string) *Layer {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.seq++
	l := &Layer{m: m, id: fmt.Sprintf("%s-%d", owner, m.seq), owner: owner, lines: make(map[string]*Polyline)}
	m.layers[l.id] = l
	return l
}

// Add draws a new polyline in the layer. Adding to a released layer returns
// a detached polyline that draws nothing.
func (l *Layer) Add(path model.Path, style Style, meta Meta) *Polyline {
	m := l.m
	m.mu.Lock()
	defer m.mu.Unlock()

	if l.released {
		return &Polyline{layer: l, removed: true}
	}

	m.seq++
	p := &Polyline{layer: l, id: fmt.Sprintf("%s/%d", l.id, m.seq), path: path.Clone(), style: style, meta: meta}
	l.lines[p.id] = p
	m.changedLocked()
	return p
}

// Clear removes every polyline but keeps the layer.
func (l *Layer) Clear() {
	m := l.m
	m.mu.Lock()
	defer m.mu.Unlock()

	if len(l.lines) == 0 {
		return
	}
	for _, p := range l.lines {
		p.removed = true
	}
	l.lines = make(map[string]*Polyline)
	m.changedLocked()
}

// Release removes the layer and all of its polylines from the map.
func (l *Layer) Release() {
	m := l.m
	m.mu.Lock()
	defer m.mu.Unlock()

	if l.released {
		return
	}
	l.released = true
	for _, p := range l.lines {
		p.removed = true
	}
	l.lines = nil
	delete(m.layers, l.id)
	m.changedLocked()
}

func (l *Layer) Len() int {
	l.m.mu.Lock()
	defer l.m.mu.Unlock()
	return len(l.lines)
}

// SetPath redraws the polyline with path.
func (p *Polyline) SetPath(path model.Path) {
	m := p.layer.m
	m.mu.Lock()
	defer m.mu.Unlock()

	if p.removed {
		return
	}
	p.path = path.Clone()
	m.changedLocked()
}

func (p *Polyline) Remove() {
	m := p.layer.m
	m.mu.Lock()
	defer m.mu.Unlock()

	if p.removed {
		return
	}
	p.removed = true
	delete(p.layer.lines, p.id)
	m.changedLocked()
}

// OverlayCount is the number of polylines on the map across all layers.
func (m *Map) OverlayCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()

	n := 0
	for _, l := range m.layers {
		n += len(l.lines)
	}
	return n
}

// Render returns every overlay as a GeoJSON feature collection.
func (m *Map) Render() *geojson.FeatureCollection {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.renderLocked()
}

func (m *Map) renderLocked() *geojson.FeatureCollection {
	var lines []*Polyline
	for _, l := range m.layers {
		for _, p := range l.lines {
			lines = append(lines, p)
		}
	}
	sort.Slice(lines, func(i, j int) bool { return lines[i].id < lines[j].id })

	fc := geojson.NewFeatureCollection()
	for _, p := range lines {
		ls := make(orb.LineString, 0, len(p.path))
		for _, pt := range p.path {
			ls = append(ls, orb.Point{pt.Lng, pt.Lat})
		}

		f := geojson.NewFeature(ls)
		f.ID = p.id
		f.Properties["layer"] = p.layer.owner
		f.Properties["color"] = p.style.Color
		f.Properties["opacity"] = p.style.Opacity
		f.Properties["weight"] = p.style.Weight
		f.Properties["dashed"] = p.style.Dashed
		f.Properties["encoded"] = util.EncodePolyLine(p.path.Coords())
		if p.meta.RoadID != 0 {
			f.Properties["road_id"] = p.meta.RoadID
		}
		if p.meta.Status != "" {
			f.Properties["status"] = p.meta.Status
		}
		fc.Append(f)
	}
	return fc
}

func (m *Map) changedLocked() {
	m.pub.Publish(EventOverlays, m.renderLocked())
}

// FitBounds asks the client to recenter on path, unless the user is
// moving the map.
func (m *Map) FitBounds(path model.Path) bool {
	if len(path) == 0 || !m.Viewport.ShouldRecenter() {
		return false
	}

	ls := make(orb.LineString, 0, len(path))
	for _, pt := range path {
		ls = append(ls, orb.Point{pt.Lng, pt.Lat})
	}
	b := ls.Bound()

	m.mu.Lock()
	defer m.mu.Unlock()
	m.pub.Publish(EventRecenter, map[string]interface{}{
		"min":    []float64{b.Min.Lon(), b.Min.Lat()},
		"max":    []float64{b.Max.Lon(), b.Max.Lat()},
		"center": []float64{b.Center().Lon(), b.Center().Lat()},
	})
	return true
}

// Close stops the viewport timer.
func (m *Map) Close() {
	m.Viewport.Stop()
}
