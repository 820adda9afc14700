package drawing

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/bwise1/roadwatch/internal/http/backend"
	"github.com/bwise1/roadwatch/internal/model"
	"github.com/bwise1/roadwatch/internal/overlay"
	"github.com/bwise1/roadwatch/internal/snap"
)

type fixedRole model.Role

func (r fixedRole) Role() model.Role { return model.Role(r) }

type fakeCreator struct {
	mu       sync.Mutex
	payloads []model.RoadPayload
	err      error
}

func (f *fakeCreator) AddRoad(_ context.Context, p model.RoadPayload) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.payloads = append(f.payloads, p)
	if f.err != nil {
		return 0, f.err
	}
	return int64(len(f.payloads)), nil
}

func (f *fakeCreator) calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.payloads)
}

type gatedRoads struct {
	release chan struct{}
	calls   chan model.Path
}

func (g *gatedRoads) SnapToRoads(_ context.Context, path model.Path, _ bool) (model.Path, error) {
	g.calls <- path
	<-g.release
	out := path.Clone()
	for i := range out {
		out[i].Lat += 0.0005
	}
	return out, nil
}

var scenario = model.Path{{Lat: 26.86, Lng: 75.81}, {Lat: 26.861, Lng: 75.812}, {Lat: 26.862, Lng: 75.813}}

var validForm = model.RoadForm{
	BuilderID:         "3",
	InspectorAssigned: "5",
	Cost:              "1000",
	StartedDate:       "2024-01-01",
	Status:            "planned",
}

func newController(t *testing.T, role model.Role, creator RoadCreator, mutate func(*Deps)) (*Controller, *overlay.Map) {
	t.Helper()
	m := overlay.NewMap(nil, time.Second)
	t.Cleanup(m.Close)

	deps := Deps{
		Map:           m,
		Roles:         fixedRole(role),
		Creator:       creator,
		MinSavePoints: 2,
	}
	if mutate != nil {
		mutate(&deps)
	}
	return New(deps), m
}

func TestActivateRequiresDrawingRole(t *testing.T) {
	for _, role := range []model.Role{model.RoleCitizen, model.RoleInspector, model.RoleBuilder} {
		c, m := newController(t, role, &fakeCreator{}, nil)

		if err := c.Activate(); !errors.Is(err, ErrNotAllowed) {
			t.Errorf("%s: Activate err = %v; want ErrNotAllowed", role, err)
		}
		if clicks, keys := m.ListenerCount(); clicks != 0 || keys != 0 {
			t.Errorf("%s: listeners attached %d/%d", role, clicks, keys)
		}
		if m.OverlayCount() != 0 {
			t.Errorf("%s: overlays drawn", role)
		}
	}
}

func TestSubmitScenario(t *testing.T) {
	creator := &fakeCreator{}
	var submitted []model.RoadRecord
	c, m := newController(t, model.RoleManager, creator, func(d *Deps) {
		d.OnSubmit = func(r model.RoadRecord) { submitted = append(submitted, r) }
	})

	if err := c.Activate(); err != nil {
		t.Fatalf("Activate returned error %v", err)
	}
	for _, p := range scenario {
		if !m.Click(p) {
			t.Fatal("click not handled while drawing")
		}
	}

	if err := c.Save(); err != nil {
		t.Fatalf("Save returned error %v", err)
	}
	if c.State() != Reviewing {
		t.Fatalf("state = %s; want reviewing", c.State())
	}

	if _, err := c.Submit(context.Background(), validForm); err != nil {
		t.Fatalf("Submit returned error %v", err)
	}

	if creator.calls() != 1 {
		t.Fatalf("posted %d times; want 1", creator.calls())
	}
	p := creator.payloads[0]
	if !p.Polyline.Equal(scenario) {
		t.Errorf("polyline = %v; want %v", p.Polyline, scenario)
	}
	if p.BuilderID != 3 || p.InspectorAssigned != 5 || p.Cost != 1000 || p.StartedDate != "2024-01-01" {
		t.Errorf("payload = %+v", p)
	}
	if p.EndedDate != nil || p.Status != model.StatusPlanned {
		t.Errorf("ended = %v status = %s", p.EndedDate, p.Status)
	}

	if len(c.Roads()) != 1 || len(submitted) != 1 {
		t.Errorf("local roads = %d, OnSubmit calls = %d; want 1 and 1", len(c.Roads()), len(submitted))
	}
	if c.State() != Idle || len(c.Points()) != 0 {
		t.Errorf("state = %s points = %d; want idle and empty", c.State(), len(c.Points()))
	}
	if c.Status().Form != model.DefaultRoadForm() {
		t.Error("form not reset")
	}
	if clicks, keys := m.ListenerCount(); clicks != 0 || keys != 0 {
		t.Errorf("listeners still attached %d/%d", clicks, keys)
	}
}

func TestSubmitValidationKeepsDraft(t *testing.T) {
	testCases := []struct {
		name  string
		form  func(model.RoadForm) model.RoadForm
		field string
	}{
		{"blank builder", func(f model.RoadForm) model.RoadForm { f.BuilderID = ""; return f }, "builder_id"},
		{"blank inspector", func(f model.RoadForm) model.RoadForm { f.InspectorAssigned = " "; return f }, "inspector_assigned"},
		{"word builder", func(f model.RoadForm) model.RoadForm { f.BuilderID = "three"; return f }, "builder_id"},
		{"bad cost", func(f model.RoadForm) model.RoadForm { f.Cost = "lots"; return f }, "cost"},
		{"bad date", func(f model.RoadForm) model.RoadForm { f.StartedDate = "01/01/2024"; return f }, "started_date"},
		{"bad status", func(f model.RoadForm) model.RoadForm { f.Status = "demolished"; return f }, "status"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			creator := &fakeCreator{}
			c, m := newController(t, model.RoleManager, creator, nil)
			c.Activate()
			for _, p := range scenario {
				m.Click(p)
			}
			c.Save()

			_, err := c.Submit(context.Background(), tc.form(validForm))
			var verr *ValidationError
			if !errors.As(err, &verr) {
				t.Fatalf("err = %v; want *ValidationError", err)
			}
			if _, ok := verr.Fields[tc.field]; !ok {
				t.Errorf("fields = %v; want %s", verr.Fields, tc.field)
			}
			if creator.calls() != 0 {
				t.Error("POST issued for an invalid form")
			}
			if c.State() != Reviewing || !c.Points().Equal(scenario) {
				t.Errorf("state = %s points = %v; draft not preserved", c.State(), c.Points())
			}
			if c.Notice() == "" {
				t.Error("no warning surfaced")
			}
		})
	}
}

func TestSubmitBackendRejection(t *testing.T) {
	creator := &fakeCreator{err: &backend.APIError{StatusCode: 404, Body: `{"detail":"Builder not found"}`}}
	c, m := newController(t, model.RoleManager, creator, nil)
	c.Activate()
	for _, p := range scenario {
		m.Click(p)
	}
	c.Save()

	if _, err := c.Submit(context.Background(), validForm); err == nil {
		t.Fatal("rejection not reported")
	}
	if c.Notice() != `{"detail":"Builder not found"}` {
		t.Errorf("notice = %q; want the body verbatim", c.Notice())
	}
	if c.State() != Reviewing || len(c.Points()) != 3 || len(c.Roads()) != 0 {
		t.Errorf("state advanced after rejection: %+v", c.Status())
	}

	creator.err = errors.New("connection refused")
	c.Submit(context.Background(), validForm)
	if c.Notice() != "Failed to submit road, please try again" {
		t.Errorf("notice = %q", c.Notice())
	}
}

func TestSaveGuard(t *testing.T) {
	c, m := newController(t, model.RoleManager, &fakeCreator{}, nil)
	c.Activate()
	m.Click(scenario[0])

	if err := c.Save(); !errors.Is(err, ErrTooFewPoints) {
		t.Fatalf("Save err = %v; want ErrTooFewPoints", err)
	}
	if c.State() != Drawing || c.Notice() == "" {
		t.Errorf("state = %s notice = %q", c.State(), c.Notice())
	}

	one, _ := newController(t, model.RoleManager, &fakeCreator{}, func(d *Deps) { d.MinSavePoints = 1 })
	one.Activate()
	one.AddPoint(scenario[0])
	if err := one.Save(); err != nil {
		t.Errorf("single point save refused with minimum 1: %v", err)
	}
}

func TestKeyboard(t *testing.T) {
	cancelled := 0
	c, m := newController(t, model.RoleManager, &fakeCreator{}, func(d *Deps) {
		d.OnCancel = func() { cancelled++ }
	})
	c.Activate()
	for _, p := range scenario {
		m.Click(p)
	}

	m.Key(overlay.KeyEvent{Key: "z", Ctrl: true})
	if !c.Points().Equal(scenario[:2]) {
		t.Errorf("after undo points = %v", c.Points())
	}

	c.Save()
	m.Key(overlay.KeyEvent{Key: "z", Meta: true})
	if len(c.Points()) != 1 {
		t.Errorf("undo while reviewing: points = %d; want 1", len(c.Points()))
	}

	m.Key(overlay.KeyEvent{Key: "Escape"})
	if c.State() != Idle || cancelled != 1 {
		t.Errorf("state = %s cancelled = %d", c.State(), cancelled)
	}
	if clicks, keys := m.ListenerCount(); clicks != 0 || keys != 0 {
		t.Errorf("listeners leaked %d/%d", clicks, keys)
	}
	if m.OverlayCount() != 0 {
		t.Errorf("draft overlay leaked")
	}

	if c.Cancel() {
		t.Error("Cancel from idle reported a change")
	}
}

func TestStaleBatchSnapDiscarded(t *testing.T) {
	roads := &gatedRoads{release: make(chan struct{}), calls: make(chan model.Path, 1)}
	c, m := newController(t, model.RoleManager, &fakeCreator{}, func(d *Deps) {
		d.Snapper = snap.New(roads, nil, true)
		d.Policy = snap.BatchPolicy{Every: 5}
	})
	c.Activate()

	var drawn model.Path
	for i := 0; i < 5; i++ {
		p := model.GeoPoint{Lat: 26.86 + float64(i)*0.001, Lng: 75.81}
		drawn = append(drawn, p)
		m.Click(p)
	}
	<-roads.calls

	newest := model.GeoPoint{Lat: 27, Lng: 76}
	m.Click(newest)
	close(roads.release)
	c.Wait()

	want := append(drawn, newest)
	if got := c.Points(); !got.Equal(want) {
		t.Errorf("points = %v; want raw points with the newest kept", got)
	}
}

func TestBatchSnapApplied(t *testing.T) {
	roads := &gatedRoads{release: make(chan struct{}), calls: make(chan model.Path, 1)}
	close(roads.release)
	c, m := newController(t, model.RoleManager, &fakeCreator{}, func(d *Deps) {
		d.Snapper = snap.New(roads, nil, true)
		d.Policy = snap.BatchPolicy{Every: 2}
	})
	c.Activate()

	m.Click(scenario[0])
	m.Click(scenario[1])
	c.Wait()

	got := c.Points()
	if len(got) != 2 || got[0].Lat != scenario[0].Lat+0.0005 {
		t.Errorf("points = %v; want snapped", got)
	}
}

func TestCancelDuringSubmitDiscardsResult(t *testing.T) {
	started := make(chan struct{})
	release := make(chan struct{})
	creator := &blockingCreator{started: started, release: release}

	c, m := newController(t, model.RoleManager, creator, nil)
	c.Activate()
	for _, p := range scenario {
		m.Click(p)
	}
	c.Save()

	done := make(chan error, 1)
	go func() {
		_, err := c.Submit(context.Background(), validForm)
		done <- err
	}()
	<-started
	c.Cancel()
	close(release)

	if err := <-done; !errors.Is(err, ErrDiscarded) {
		t.Errorf("err = %v; want ErrDiscarded", err)
	}
	if len(c.Roads()) != 0 {
		t.Error("cancelled submission was added locally")
	}
}

type blockingCreator struct {
	started chan struct{}
	release chan struct{}
}

func (b *blockingCreator) AddRoad(context.Context, model.RoadPayload) (int64, error) {
	close(b.started)
	<-b.release
	return 1, nil
}

func TestBuildPayload(t *testing.T) {
	form := validForm
	form.EndedDate = "2024-06-30"
	form.Status = "Under Construction"
	form.Cost = " 1250.75 "

	p, err := BuildPayload(scenario, form)
	if err != nil {
		t.Fatalf("BuildPayload returned error %v", err)
	}
	if p.Cost != 1250.75 || p.EndedDate == nil || *p.EndedDate != "2024-06-30" || p.Status != model.StatusUnderConstruction {
		t.Errorf("payload = %+v", p)
	}

	form.EndedDate = "2023-12-31"
	if _, err := BuildPayload(scenario, form); err == nil {
		t.Error("end date before start accepted")
	}

	form = validForm
	form.Status = ""
	p, err = BuildPayload(scenario, form)
	if err != nil || p.Status != model.StatusPlanned {
		t.Errorf("empty status: %v %v", p.Status, err)
	}
}
