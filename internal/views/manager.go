package views

import (
	"context"

	"github.com/bwise1/roadwatch/internal/drawing"
	"github.com/bwise1/roadwatch/internal/model"
	"github.com/bwise1/roadwatch/internal/overlay"
)

// ManagerView hosts the drawing controller and the roads submitted in it.
type ManagerView struct {
	set     *roadSet
	Drawing *drawing.Controller
}

// NewManagerView wires deps into a drawing controller whose accepted roads
// are drawn by this view.
func NewManagerView(m *overlay.Map, deps drawing.Deps, palette Palette, imagery Imagery) *ManagerView {
	v := &ManagerView{set: newRoadSet("manager", m, palette, imagery)}

	deps.Map = m
	onSubmit := deps.OnSubmit
	deps.OnSubmit = func(r model.RoadRecord) {
		v.set.add(r)
		if onSubmit != nil {
			onSubmit(r)
		}
	}
	v.Drawing = drawing.New(deps)
	return v
}

func (v *ManagerView) Role() model.Role { return model.RoleManager }

// Mount shows the road set. Drawing starts on an explicit Activate.
func (v *ManagerView) Mount(context.Context) error {
	v.set.mount()
	for _, r := range v.Drawing.Roads() {
		v.set.add(r)
	}
	return nil
}

// Unmount drops the draft, detaches drawing input and releases overlays.
func (v *ManagerView) Unmount() {
	v.Drawing.Close()
	v.set.unmount()
}

func (v *ManagerView) Roads() []model.RoadRecord { return v.set.list() }

func (v *ManagerView) Select(roadID int64) (RoadDetail, error) {
	return v.set.detail(roadID, false)
}
