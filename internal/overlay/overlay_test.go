package overlay

import (
	"sync"
	"testing"
	"time"

	"github.com/bwise1/roadwatch/internal/model"
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
)

type recorder struct {
	mu     sync.Mutex
	events []string
	last   interface{}
}

func (r *recorder) Publish(event string, payload interface{}) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, event)
	r.last = payload
}

var road = model.Path{{Lat: 26.86, Lng: 75.81}, {Lat: 26.861, Lng: 75.812}}

func TestLayerLifecycle(t *testing.T) {
	rec := &recorder{}
	m := NewMap(rec, time.Second)
	defer m.Close()

	a := m.Acquire("citizen")
	b := m.Acquire("draft")
	a.Add(road, Style{Color: "#1E90FF"}, Meta{RoadID: 1})
	a.Add(road, Style{Color: "#FF0000"}, Meta{RoadID: 2})
	line := b.Add(road, Style{Color: "#000"}, Meta{})

	if got := m.OverlayCount(); got != 3 {
		t.Fatalf("overlays = %d; want 3", got)
	}

	a.Release()
	if got := m.OverlayCount(); got != 1 {
		t.Errorf("after release overlays = %d; want 1", got)
	}
	if p := a.Add(road, Style{}, Meta{}); m.OverlayCount() != 1 || !p.removed {
		t.Error("released layer accepted a polyline")
	}

	line.Remove()
	line.SetPath(road)
	if got := m.OverlayCount(); got != 0 {
		t.Errorf("overlays = %d; want 0", got)
	}

	if len(rec.events) != 5 {
		t.Errorf("published %d events; want 5", len(rec.events))
	}
}

func TestRender(t *testing.T) {
	rec := &recorder{}
	m := NewMap(rec, time.Second)
	defer m.Close()

	l := m.Acquire("builder")
	l.Add(road, Style{Color: "#32CD32", Opacity: 0.8, Weight: 4}, Meta{RoadID: 7, Status: model.StatusCompleted})

	fc := m.Render()
	if len(fc.Features) != 1 {
		t.Fatalf("features = %d; want 1", len(fc.Features))
	}
	f := fc.Features[0]
	ls, ok := f.Geometry.(orb.LineString)
	if !ok || len(ls) != 2 {
		t.Fatalf("geometry = %#v", f.Geometry)
	}
	if ls[0] != (orb.Point{75.81, 26.86}) {
		t.Errorf("first position = %v; want lng,lat", ls[0])
	}
	if f.Properties["color"] != "#32CD32" || f.Properties["road_id"] != int64(7) || f.Properties["status"] != model.StatusCompleted {
		t.Errorf("properties = %v", f.Properties)
	}
	if f.Properties["encoded"] == "" {
		t.Error("encoded polyline missing")
	}

	if _, ok := rec.last.(*geojson.FeatureCollection); !ok {
		t.Errorf("published payload = %T", rec.last)
	}
}

func TestListeners(t *testing.T) {
	m := NewMap(nil, time.Second)
	defer m.Close()

	if m.Click(model.GeoPoint{}) {
		t.Error("click with no listener reported handled")
	}

	var clicks []model.GeoPoint
	detachClick := m.OnClick(func(p model.GeoPoint) { clicks = append(clicks, p) })
	undos := 0
	detachKey := m.OnKey(func(e KeyEvent) {
		if e.IsUndo() {
			undos++
		}
	})

	m.Click(model.GeoPoint{Lat: 1, Lng: 1})
	m.Key(KeyEvent{Key: "z", Meta: true})
	m.Key(KeyEvent{Key: "z"})

	detachClick()
	detachKey()
	m.Click(model.GeoPoint{Lat: 2, Lng: 2})
	m.Key(KeyEvent{Key: "Z", Ctrl: true})

	if len(clicks) != 1 || undos != 1 {
		t.Errorf("clicks = %d undos = %d; want 1 and 1", len(clicks), undos)
	}
	if c, k := m.ListenerCount(); c != 0 || k != 0 {
		t.Errorf("listeners = %d/%d after detach", c, k)
	}
}

func TestKeyEvent(t *testing.T) {
	testCases := []struct {
		ev     KeyEvent
		undo   bool
		escape bool
	}{
		{KeyEvent{Key: "z", Ctrl: true}, true, false},
		{KeyEvent{Key: "Z", Meta: true}, true, false},
		{KeyEvent{Key: "z", Ctrl: true, Shift: true}, false, false},
		{KeyEvent{Key: "Escape"}, false, true},
		{KeyEvent{Key: "a"}, false, false},
	}
	for _, tc := range testCases {
		if tc.ev.IsUndo() != tc.undo || tc.ev.IsEscape() != tc.escape {
			t.Errorf("%+v: undo=%v escape=%v", tc.ev, tc.ev.IsUndo(), tc.ev.IsEscape())
		}
	}
}

func TestViewportSettles(t *testing.T) {
	v := NewViewport(20 * time.Millisecond)
	defer v.Stop()

	if !v.ShouldRecenter() {
		t.Fatal("fresh viewport refuses to recenter")
	}
	v.Interact()
	if v.ShouldRecenter() {
		t.Fatal("recenter allowed while interacting")
	}

	deadline := time.Now().Add(2 * time.Second)
	for !v.ShouldRecenter() {
		if time.Now().After(deadline) {
			t.Fatal("viewport never settled")
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func TestFitBounds(t *testing.T) {
	rec := &recorder{}
	m := NewMap(rec, time.Minute)
	defer m.Close()

	if !m.FitBounds(road) {
		t.Fatal("FitBounds refused while idle")
	}
	if rec.events[len(rec.events)-1] != EventRecenter {
		t.Errorf("events = %v", rec.events)
	}

	m.Viewport.Interact()
	if m.FitBounds(road) {
		t.Error("FitBounds recentered while the user was interacting")
	}
}
