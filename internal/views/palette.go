package views

import (
	"github.com/bwise1/roadwatch/internal/model"
	"github.com/bwise1/roadwatch/internal/overlay"
)

// Palette maps road status to display color.
type Palette map[model.RoadStatus]string

var DefaultPalette = Palette{
	model.StatusPlanned:           "#1E90FF",
	model.StatusUnderConstruction: "#FF0000",
	model.StatusMaintaining:       "#FFA500",
	model.StatusCompleted:         "#32CD32",
}

// Color never fails: unknown statuses get the planned color.
func (p Palette) Color(s model.RoadStatus) string {
	if c, ok := p[s]; ok {
		return c
	}
	if c, ok := p[model.StatusPlanned]; ok {
		return c
	}
	return DefaultPalette[model.StatusPlanned]
}

func (p Palette) Style(s model.RoadStatus) overlay.Style {
	return overlay.Style{Color: p.Color(s), Opacity: 0.8, Weight: 5}
}
