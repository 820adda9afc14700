package drawing

import (
	"context"
	"errors"
	"fmt"
	"log"
	"runtime/debug"
	"sync"
	"time"

	"github.com/bwise1/roadwatch/internal/geo"
	"github.com/bwise1/roadwatch/internal/http/backend"
	"github.com/bwise1/roadwatch/internal/model"
	"github.com/bwise1/roadwatch/internal/overlay"
	"github.com/bwise1/roadwatch/internal/snap"
)

type State int

const (
	Idle State = iota
	Drawing
	Reviewing
)

func (s State) String() string {
	switch s {
	case Drawing:
		return "drawing"
	case Reviewing:
		return "reviewing"
	default:
		return "idle"
	}
}

func (s State) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

var (
	ErrNotAllowed   = errors.New("the active role cannot draw roads")
	ErrNotDrawing   = errors.New("not drawing a road")
	ErrNotReviewing = errors.New("no road is waiting for details")
	ErrTooFewPoints = errors.New("too few points")
	ErrBusy         = errors.New("a submission is already in flight")
	ErrDiscarded    = errors.New("the draft was cancelled while the request was in flight")
	ErrClosed       = errors.New("drawing closed")
)

const snapTimeout = 10 * time.Second

// DraftStyle is how the road being drawn is shown.
var DraftStyle = overlay.Style{Color: "#8A2BE2", Opacity: 0.9, Weight: 4, Dashed: true}

// RoleSource reports the active role.
type RoleSource interface {
	Role() model.Role
}

// RoadCreator posts finished roads.
type RoadCreator interface {
	AddRoad(ctx context.Context, payload model.RoadPayload) (int64, error)
}

type Deps struct {
	Map           *overlay.Map
	Roles         RoleSource
	Snapper       *snap.Snapper
	Policy        snap.Policy
	Creator       RoadCreator
	MinSavePoints int

	// OnCancel runs after a cancel so the parent can reset its own mode.
	OnCancel func()
	// OnSubmit runs with each road the backend accepted.
	OnSubmit func(model.RoadRecord)
	// OnNotice receives every status message.
	OnNotice func(string)
}

// Controller drives drawing a road: Idle, then Drawing while points are
// added, then Reviewing while the details form is open, then Idle again.
type Controller struct {
	mu         sync.Mutex
	deps       Deps
	state      State
	buf        *geo.Buffer
	layer      *overlay.Layer
	detach     []func()
	form       model.RoadForm
	notice     string
	submitting bool
	epoch      uint64
	closed     bool
	roads      []model.RoadRecord

	inflight sync.WaitGroup
}

func New(deps Deps) *Controller {
	if deps.Policy == nil {
		deps.Policy = snap.OffPolicy{}
	}
	if deps.MinSavePoints < 1 {
		deps.MinSavePoints = 2
	}
	return &Controller{deps: deps, form: model.DefaultRoadForm()}
}

// Activate enters Drawing. Roles that cannot draw get ErrNotAllowed and no
// listeners are attached.
func (c *Controller) Activate() error {
	if c.deps.Roles == nil || !c.deps.Roles.Role().CanDraw() {
		return ErrNotAllowed
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return ErrClosed
	}
	if c.state != Idle {
		return nil
	}

	c.layer = c.deps.Map.Acquire("draft")
	line := c.layer.Add(nil, DraftStyle, overlay.Meta{})
	c.buf = geo.NewBuffer(line.SetPath)
	c.detach = []func(){
		c.deps.Map.OnClick(c.onClick),
		c.deps.Map.OnKey(c.onKey),
	}
	c.form = model.DefaultRoadForm()
	c.state = Drawing
	c.setNoticeLocked("Click on the map to add points")
	return nil
}

func (c *Controller) onClick(p model.GeoPoint) {
	if err := c.AddPoint(p); err != nil && !errors.Is(err, ErrNotDrawing) {
		log.Printf("click ignored: %v", err)
	}
}

func (c *Controller) onKey(e overlay.KeyEvent) {
	switch {
	case e.IsUndo():
		c.Undo()
	case e.IsEscape():
		c.Cancel()
	}
}

// AddPoint appends p to the draft and starts a snap when the policy asks
// for one. The snap runs in the background.
func (c *Controller) AddPoint(p model.GeoPoint) error {
	c.mu.Lock()
	if c.state != Drawing {
		c.mu.Unlock()
		return ErrNotDrawing
	}
	buf := c.buf
	c.mu.Unlock()

	buf.Append(p)

	if c.deps.Snapper == nil {
		return nil
	}
	points, version := buf.Snapshot()
	plan, ok := c.deps.Policy.Plan(points, version)
	if !ok {
		return nil
	}

	c.inflight.Add(1)
	go func() {
		defer c.inflight.Done()
		defer func() {
			if rec := recover(); rec != nil {
				log.Printf("🔥 snap panicked: %v\n%s", rec, debug.Stack())
			}
		}()

		ctx, cancel := context.WithTimeout(context.Background(), snapTimeout)
		defer cancel()
		c.deps.Snapper.Apply(ctx, buf, plan)
	}()
	return nil
}

// SnapNow snaps the whole draft and waits for the result.
func (c *Controller) SnapNow(ctx context.Context) (bool, error) {
	c.mu.Lock()
	if c.state != Drawing && c.state != Reviewing {
		c.mu.Unlock()
		return false, ErrNotDrawing
	}
	buf := c.buf
	c.mu.Unlock()

	if c.deps.Snapper == nil {
		return false, nil
	}
	points, version := buf.Snapshot()
	applied := c.deps.Snapper.Apply(ctx, buf, snap.Whole(points, version))
	if !applied && len(points) >= 2 {
		c.setNotice("Road snapping unavailable, keeping drawn points")
	}
	return applied, nil
}

// Undo drops the last point. It reports whether a point was removed.
func (c *Controller) Undo() bool {
	c.mu.Lock()
	if c.state == Idle {
		c.mu.Unlock()
		return false
	}
	buf := c.buf
	c.mu.Unlock()

	return buf.UndoLast()
}

// Clear empties the draft but keeps drawing.
func (c *Controller) Clear() error {
	c.mu.Lock()
	if c.state == Idle {
		c.mu.Unlock()
		return ErrNotDrawing
	}
	buf := c.buf
	c.mu.Unlock()

	buf.Clear()
	return nil
}

// Save moves to Reviewing when the draft has enough points. Too few points
// is a warning and drawing continues.
func (c *Controller) Save() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state != Drawing {
		return ErrNotDrawing
	}
	if n := c.buf.Len(); n < c.deps.MinSavePoints {
		c.setNoticeLocked(fmt.Sprintf("Add at least %d points before saving", c.deps.MinSavePoints))
		return fmt.Errorf("%w: have %d, need %d", ErrTooFewPoints, n, c.deps.MinSavePoints)
	}

	c.state = Reviewing
	c.form = model.DefaultRoadForm()
	c.setNoticeLocked("Fill in the road details")
	return nil
}

// Submit validates form and posts the draft. Validation failures and
// backend rejections keep the draft under review.
func (c *Controller) Submit(ctx context.Context, form model.RoadForm) (model.RoadRecord, error) {
	c.mu.Lock()
	if c.state != Reviewing {
		c.mu.Unlock()
		return model.RoadRecord{}, ErrNotReviewing
	}
	if c.submitting {
		c.mu.Unlock()
		return model.RoadRecord{}, ErrBusy
	}
	c.form = form
	buf, epoch := c.buf, c.epoch
	points := buf.Points()

	if len(points) < c.deps.MinSavePoints {
		c.setNoticeLocked(fmt.Sprintf("Add at least %d points before saving", c.deps.MinSavePoints))
		c.mu.Unlock()
		return model.RoadRecord{}, ErrTooFewPoints
	}

	payload, err := BuildPayload(points, form)
	if err != nil {
		c.setNoticeLocked(err.Error())
		c.mu.Unlock()
		return model.RoadRecord{}, err
	}
	c.submitting = true
	c.mu.Unlock()

	log.Printf("🚧 submitting road with %d points", len(payload.Polyline))
	id, err := c.deps.Creator.AddRoad(ctx, payload)

	c.mu.Lock()
	c.submitting = false
	if c.epoch != epoch {
		c.mu.Unlock()
		log.Println("road submission finished after the draft was cancelled, discarding")
		return model.RoadRecord{}, ErrDiscarded
	}
	if err != nil {
		var apiErr *backend.APIError
		if errors.As(err, &apiErr) {
			c.setNoticeLocked(apiErr.Error())
		} else {
			c.setNoticeLocked("Failed to submit road, please try again")
		}
		c.mu.Unlock()
		log.Printf("❌ road submission failed: %v", err)
		return model.RoadRecord{}, err
	}

	record := model.RoadRecord{
		RoadID:            id,
		Polyline:          payload.Polyline,
		BuilderID:         int64(payload.BuilderID),
		InspectorAssigned: int64(payload.InspectorAssigned),
		Cost:              payload.Cost,
		StartedDate:       payload.StartedDate,
		EndedDate:         payload.EndedDate,
		Status:            payload.Status,
		RawStatus:         string(payload.Status),
	}
	c.roads = append(c.roads, record)
	c.resetLocked()
	c.setNoticeLocked("Road submitted")
	onSubmit := c.deps.OnSubmit
	c.mu.Unlock()

	if onSubmit != nil {
		onSubmit(record)
	}
	return record, nil
}

// Cancel drops the draft and the form from Drawing or Reviewing and tells
// the parent. It reports false when there was nothing to cancel.
func (c *Controller) Cancel() bool {
	c.mu.Lock()
	if c.state == Idle {
		c.mu.Unlock()
		return false
	}
	c.resetLocked()
	c.setNoticeLocked("Drawing cancelled")
	onCancel := c.deps.OnCancel
	c.mu.Unlock()

	if onCancel != nil {
		onCancel()
	}
	return true
}

// Close tears the controller down for good. In-flight results are
// discarded.
func (c *Controller) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state != Idle {
		c.resetLocked()
	}
	c.closed = true
}

func (c *Controller) resetLocked() {
	for _, detach := range c.detach {
		detach()
	}
	c.detach = nil
	if c.buf != nil {
		c.buf.Clear()
	}
	if c.layer != nil {
		c.layer.Release()
		c.layer = nil
	}
	c.form = model.DefaultRoadForm()
	c.state = Idle
	c.epoch++
}

// Wait blocks until background snaps finish.
func (c *Controller) Wait() {
	c.inflight.Wait()
}

func (c *Controller) setNotice(msg string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.setNoticeLocked(msg)
}

func (c *Controller) setNoticeLocked(msg string) {
	c.notice = msg
	if c.deps.OnNotice != nil {
		c.deps.OnNotice(msg)
	}
}

// Status is a point in time view of the controller.
type Status struct {
	State    State              `json:"state"`
	Points   model.Path         `json:"points"`
	Form     model.RoadForm     `json:"form"`
	Notice   string             `json:"notice,omitempty"`
	SnapMode string             `json:"snap_mode"`
	Roads    []model.RoadRecord `json:"submitted_roads"`
}

func (c *Controller) Status() Status {
	c.mu.Lock()
	defer c.mu.Unlock()

	st := Status{
		State:    c.state,
		Points:   model.Path{},
		Form:     c.form,
		Notice:   c.notice,
		SnapMode: c.deps.Policy.Mode(),
		Roads:    append([]model.RoadRecord{}, c.roads...),
	}
	if c.state != Idle && c.buf != nil {
		st.Points = c.buf.Points()
	}
	return st
}

func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Points returns the current draft, empty when idle.
func (c *Controller) Points() model.Path {
	return c.Status().Points
}

func (c *Controller) Notice() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.notice
}

// Roads returns the roads submitted through this controller.
func (c *Controller) Roads() []model.RoadRecord {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]model.RoadRecord{}, c.roads...)
}
