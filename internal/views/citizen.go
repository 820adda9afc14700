package views

import (
	"context"

	"github.com/bwise1/roadwatch/internal/model"
	"github.com/bwise1/roadwatch/internal/overlay"
)

// CitizenView shows every road, read only.
type CitizenView struct {
	source RoadSource
	set    *roadSet
}

func NewCitizenView(m *overlay.Map, source RoadSource, palette Palette, imagery Imagery) *CitizenView {
	return &CitizenView{source: source, set: newRoadSet("citizen", m, palette, imagery)}
}

func (v *CitizenView) Role() model.Role { return model.RoleCitizen }

func (v *CitizenView) Mount(ctx context.Context) error {
	v.set.mount()
	return v.Refresh(ctx)
}

// Refresh refetches the whole road set.
func (v *CitizenView) Refresh(ctx context.Context) error {
	return v.set.load(ctx, v.source.AllRoads)
}

func (v *CitizenView) Unmount() { v.set.unmount() }

func (v *CitizenView) Roads() []model.RoadRecord { return v.set.list() }

func (v *CitizenView) Select(roadID int64) (RoadDetail, error) {
	return v.set.detail(roadID, false)
}
