package views

import (
	"context"
	"fmt"
	"sync"

	"github.com/bwise1/roadwatch/internal/drawing"
	"github.com/bwise1/roadwatch/internal/model"
	"github.com/bwise1/roadwatch/internal/overlay"
	"github.com/bwise1/roadwatch/util"
)

// ScopedView shows the roads assigned to one builder or inspector. Nothing
// is fetched until the identifier is known.
type ScopedView struct {
	role   model.Role
	source RoadSource
	set    *roadSet

	mu         sync.Mutex
	identifier int64
}

// NewScopedView creates a builder or inspector view. identifier may be 0
// when the user has not entered it yet this session.
func NewScopedView(role model.Role, identifier int64, m *overlay.Map, source RoadSource, palette Palette, imagery Imagery) (*ScopedView, error) {
	if !role.Scoped() {
		return nil, fmt.Errorf("role %s has no scoped view", role)
	}
	return &ScopedView{
		role:       role,
		source:     source,
		identifier: identifier,
		set:        newRoadSet(string(role), m, palette, imagery),
	}, nil
}

func (v *ScopedView) Role() model.Role { return v.role }

// Mount acquires the layer and fetches when the identifier is known.
func (v *ScopedView) Mount(ctx context.Context) error {
	v.set.mount()
	if v.Identifier() == 0 {
		return nil
	}
	return v.Refresh(ctx)
}

func (v *ScopedView) Unmount() { v.set.unmount() }

func (v *ScopedView) Identifier() int64 {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.identifier
}

// Identify records the identifier and fetches its roads.
func (v *ScopedView) Identify(ctx context.Context, identifier int64) error {
	if identifier <= 0 {
		return fmt.Errorf("%w: must be a positive number", ErrIdentifierRequired)
	}
	v.mu.Lock()
	v.identifier = identifier
	v.mu.Unlock()

	return v.Refresh(ctx)
}

// Refresh refetches the scoped road set wholesale.
func (v *ScopedView) Refresh(ctx context.Context) error {
	id := v.Identifier()
	if id == 0 {
		return ErrIdentifierRequired
	}
	return v.set.load(ctx, func(ctx context.Context) ([]model.RoadRecord, error) {
		if v.role == model.RoleBuilder {
			return v.source.RoadsByBuilder(ctx, id)
		}
		return v.source.RoadsByInspector(ctx, id)
	})
}

func (v *ScopedView) Roads() []model.RoadRecord { return v.set.list() }

func (v *ScopedView) Select(roadID int64) (RoadDetail, error) {
	return v.set.detail(roadID, true)
}

// Update sends a partial update of one of the view's roads, keyed by the
// entered identifier, then refetches.
func (v *ScopedView) Update(ctx context.Context, roadID int64, update model.RoadUpdate) error {
	id := v.Identifier()
	if id == 0 {
		return ErrIdentifierRequired
	}
	if update.Empty() {
		return ErrEmptyUpdate
	}
	if err := util.ValidateStruct(update); err != nil {
		return err
	}
	if update.Status != nil {
		st, ok := model.LookupStatus(string(*update.Status))
		if !ok {
			return &drawing.ValidationError{Fields: map[string]string{
				"status": "must be one of: " + model.StatusNames(),
			}}
		}
		update.Status = &st
	}
	if _, ok := v.set.find(roadID); !ok {
		return fmt.Errorf("%w: %d", ErrRoadNotFound, roadID)
	}

	if err := v.source.UpdateRoad(ctx, v.role, id, roadID, update); err != nil {
		return err
	}
	return v.Refresh(ctx)
}
