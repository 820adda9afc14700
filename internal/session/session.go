package session

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/bwise1/roadwatch/internal/drawing"
	"github.com/bwise1/roadwatch/internal/model"
	"github.com/bwise1/roadwatch/internal/overlay"
	"github.com/bwise1/roadwatch/internal/review"
	"github.com/bwise1/roadwatch/internal/snap"
	"github.com/bwise1/roadwatch/internal/views"
)

// Events published besides the overlay ones.
const (
	EventStatus = "status"
	EventMode   = "mode"
	EventRole   = "role"
)

var (
	ErrNotFound     = errors.New("session not found")
	ErrWrongView    = errors.New("the active role has no such view")
	ErrClosed       = errors.New("session closed")
	ErrNoIdentifier = errors.New("the active role has no identifier")
)

// Backend is everything a session asks of the backend.
type Backend interface {
	views.RoadSource
	drawing.RoadCreator
	review.Client
}

type Deps struct {
	Backend       Backend
	Snapper       *snap.Snapper
	Policy        snap.Policy
	Imagery       views.Imagery
	Palette       views.Palette
	MinSavePoints int
	RecenterDelay time.Duration
}

// Session is one open map: its role, the mounted view, the overlays and
// the review panels.
type Session struct {
	ID        string
	CreatedAt time.Time

	Roles *RoleContext
	Map   *overlay.Map

	mu          sync.Mutex
	deps        Deps
	pub         overlay.Publisher
	view        views.View
	identifiers map[model.Role]int64
	panels      map[int64]*review.Panel
	lastSeen    time.Time
	closed      bool
	unsubscribe func()
}

// New creates a session in the citizen role. Call Mount to fetch its
// first view.
func New(id string, deps Deps, pub overlay.Publisher) *Session {
	now := time.Now()
	s := &Session{
		ID:          id,
		CreatedAt:   now,
		Roles:       NewRoleContext(model.RoleCitizen),
		Map:         overlay.NewMap(pub, deps.RecenterDelay),
		deps:        deps,
		pub:         pub,
		identifiers: make(map[model.Role]int64),
		panels:      make(map[int64]*review.Panel),
		lastSeen:    now,
	}
	s.unsubscribe = s.Roles.Subscribe(s.roleChanged)
	return s
}

// roleChanged tears down the old view before anything of the new one
// exists, so overlays and listeners never outlive their role.
func (s *Session) roleChanged(from, to model.Role) {
	s.mu.Lock()
	old := s.view
	s.view = nil
	s.mu.Unlock()

	if old != nil {
		old.Unmount()
	}
	log.Printf("session %s switched role %s -> %s", s.ID, from, to)
	s.publish(EventRole, map[string]interface{}{"role": to})
}

// Mount builds and mounts the view of the active role if none is mounted.
func (s *Session) Mount(ctx context.Context) error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return ErrClosed
	}
	if s.view != nil {
		s.mu.Unlock()
		return nil
	}
	role := s.Roles.Role()
	v, err := s.buildView(role)
	if err != nil {
		s.mu.Unlock()
		return err
	}
	s.view = v
	s.mu.Unlock()

	err = v.Mount(ctx)

	// a role switch may have replaced v before or while it mounted
	s.mu.Lock()
	superseded := s.view != v
	s.mu.Unlock()
	if superseded {
		v.Unmount()
		return nil
	}
	return err
}

func (s *Session) buildView(role model.Role) (views.View, error) {
	d := s.deps
	switch role {
	case model.RoleCitizen:
		return views.NewCitizenView(s.Map, d.Backend, d.Palette, d.Imagery), nil
	case model.RoleManager:
		return views.NewManagerView(s.Map, drawing.Deps{
			Roles:         s.Roles,
			Snapper:       d.Snapper,
			Policy:        d.Policy,
			Creator:       d.Backend,
			MinSavePoints: d.MinSavePoints,
			OnCancel: func() {
				s.publish(EventMode, map[string]interface{}{"state": drawing.Idle})
			},
			OnNotice: func(msg string) {
				s.publish(EventStatus, map[string]interface{}{"message": msg})
			},
		}, d.Palette, d.Imagery), nil
	case model.RoleInspector, model.RoleBuilder:
		return views.NewScopedView(role, s.identifiers[role], s.Map, d.Backend, d.Palette, d.Imagery)
	}
	return nil, fmt.Errorf("unknown role %q", role)
}

// SwitchRole changes the role: the previous view is unmounted, then the
// new view is mounted.
func (s *Session) SwitchRole(ctx context.Context, role model.Role) error {
	s.touch()
	if s.isClosed() {
		return ErrClosed
	}
	s.Roles.Set(role)
	return s.Mount(ctx)
}

// View returns the mounted view, nil while none is.
func (s *Session) View() views.View {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.view
}

// Drawing returns the drawing controller of the manager view.
func (s *Session) Drawing() (*drawing.Controller, error) {
	mv, ok := s.View().(*views.ManagerView)
	if !ok {
		return nil, fmt.Errorf("%w: drawing needs the manager role", ErrWrongView)
	}
	return mv.Drawing, nil
}

// Scoped returns the builder or inspector view.
func (s *Session) Scoped() (*views.ScopedView, error) {
	sv, ok := s.View().(*views.ScopedView)
	if !ok {
		return nil, fmt.Errorf("%w: needs the builder or inspector role", ErrWrongView)
	}
	return sv, nil
}

// Identify scopes the builder or inspector view to identifier. The value
// is kept for the rest of the session.
func (s *Session) Identify(ctx context.Context, identifier int64) error {
	s.touch()
	sv, err := s.Scoped()
	if err != nil {
		return err
	}
	if err := sv.Identify(ctx, identifier); err != nil {
		return err
	}

	s.mu.Lock()
	s.identifiers[sv.Role()] = identifier
	s.mu.Unlock()
	return nil
}

// UpdateRoad sends a partial road update through the builder or inspector
// view. The other views are read only.
func (s *Session) UpdateRoad(ctx context.Context, roadID int64, update model.RoadUpdate) error {
	s.touch()
	switch v := s.View().(type) {
	case *views.ScopedView:
		return v.Update(ctx, roadID, update)
	case nil:
		return ErrWrongView
	}
	return fmt.Errorf("%w: updates need the builder or inspector role", views.ErrReadOnly)
}

// Refresh refetches the mounted view's roads.
func (s *Session) Refresh(ctx context.Context) error {
	s.touch()
	switch v := s.View().(type) {
	case *views.CitizenView:
		return v.Refresh(ctx)
	case *views.ScopedView:
		return v.Refresh(ctx)
	case nil:
		return ErrWrongView
	}
	return nil
}

// Panel returns the review panel of a road, creating it on first use.
func (s *Session) Panel(roadID int64) *review.Panel {
	s.touch()
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.panels[roadID]
	if !ok {
		p = review.NewPanel(s.deps.Backend, roadID)
		s.panels[roadID] = p
	}
	return p
}

// Click forwards a map click to whatever listens.
func (s *Session) Click(p model.GeoPoint) bool {
	s.touch()
	return s.Map.Click(p)
}

func (s *Session) Key(e overlay.KeyEvent) bool {
	s.touch()
	return s.Map.Key(e)
}

// Interact records a pan or zoom.
func (s *Session) Interact() {
	s.touch()
	s.Map.Viewport.Interact()
}

// Info is a summary of the session for clients.
type Info struct {
	ID          string          `json:"id"`
	Role        model.Role      `json:"role"`
	Identifier  int64           `json:"identifier,omitempty"`
	Roads       int             `json:"roads"`
	Overlays    int             `json:"overlays"`
	Drawing     *drawing.Status `json:"drawing,omitempty"`
	CreatedAt   time.Time       `json:"created_at"`
	LastSeen    time.Time       `json:"last_seen"`
	CanDraw     bool            `json:"can_draw"`
	NeedsIdent  bool            `json:"needs_identifier"`
	ReviewTags  []string        `json:"review_tags"`
	SnapEnabled bool            `json:"snap_enabled"`
}

func (s *Session) Info() Info {
	role := s.Roles.Role()
	v := s.View()

	s.mu.Lock()
	info := Info{
		ID:          s.ID,
		Role:        role,
		Identifier:  s.identifiers[role],
		CreatedAt:   s.CreatedAt,
		LastSeen:    s.lastSeen,
		CanDraw:     role.CanDraw(),
		ReviewTags:  review.Tags,
		SnapEnabled: s.deps.Snapper != nil,
	}
	s.mu.Unlock()

	info.Overlays = s.Map.OverlayCount()
	if v != nil {
		info.Roads = len(v.Roads())
	}
	if sv, ok := v.(*views.ScopedView); ok {
		info.Identifier = sv.Identifier()
		info.NeedsIdent = info.Identifier == 0
	}
	if mv, ok := v.(*views.ManagerView); ok {
		st := mv.Drawing.Status()
		info.Drawing = &st
	}
	return info
}

// Close unmounts everything. The session cannot be used afterwards.
func (s *Session) Close() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	v := s.view
	s.view = nil
	panels := s.panels
	s.panels = map[int64]*review.Panel{}
	s.mu.Unlock()

	s.unsubscribe()
	if v != nil {
		v.Unmount()
	}
	for _, p := range panels {
		p.Close()
	}
	s.Map.Close()
}

func (s *Session) LastSeen() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastSeen
}

func (s *Session) touch() {
	s.mu.Lock()
	s.lastSeen = time.Now()
	s.mu.Unlock()
}

func (s *Session) isClosed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}

func (s *Session) publish(event string, payload interface{}) {
	if s.pub != nil {
		s.pub.Publish(event, payload)
	}
}
