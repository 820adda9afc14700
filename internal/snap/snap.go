package snap

import (
	"context"
	"log"

	"github.com/bwise1/roadwatch/internal/cache"
	"github.com/bwise1/roadwatch/internal/geo"
	"github.com/bwise1/roadwatch/internal/model"
)

// RoadSnapper is the external road alignment service.
type RoadSnapper interface {
	SnapToRoads(ctx context.Context, path model.Path, interpolate bool) (model.Path, error)
}

// Snapper aligns drawn paths to the road network. It never fails: any
// problem with the service yields the input unchanged.
type Snapper struct {
	Roads       RoadSnapper
	Cache       cache.SnapCache
	Interpolate bool
}

func New(roads RoadSnapper, c cache.SnapCache, interpolate bool) *Snapper {
	if c == nil {
		c = cache.Nop{}
	}
	return &Snapper{Roads: roads, Cache: c, Interpolate: interpolate}
}

// Snap returns the snapped form of path, or path itself when it has fewer
// than two points or the service fails or returns nothing.
func (s *Snapper) Snap(ctx context.Context, path model.Path) model.Path {
	if len(path) < 2 || s.Roads == nil {
		return path
	}

	key := cache.Key(path, s.Interpolate)
	if s.Cache != nil {
		if cached, ok := s.Cache.Get(ctx, key); ok && len(cached) > 0 {
			return cached
		}
	}

	log.Printf("🛣️ snapping %d points to roads", len(path))
	snapped, err := s.Roads.SnapToRoads(ctx, path, s.Interpolate)
	if err != nil {
		log.Printf("⚠️ snap failed, keeping raw points: %v", err)
		return path
	}
	if len(snapped) == 0 {
		log.Println("⚠️ snap returned no points, keeping raw points")
		return path
	}

	if s.Cache != nil {
		s.Cache.Set(ctx, key, snapped)
	}
	return snapped
}

// Apply snaps the points of plan and writes the result into b. A whole
// buffer plan is dropped once b has moved past its version. A splice plan
// is dropped only if the points it was made from are no longer in place.
// It reports whether the buffer changed.
func (s *Snapper) Apply(ctx context.Context, b *geo.Buffer, plan Plan) bool {
	snapped := s.Snap(ctx, plan.Points)
	if snapped.Equal(plan.Points) {
		return false
	}
	var applied bool
	if plan.Splice {
		applied = b.ReplaceRangeIf(plan.From, plan.Points, snapped)
	} else {
		applied = b.ReplaceTailIf(plan.Version, plan.From, snapped)
	}
	if !applied {
		log.Printf("snap result for version %d discarded, buffer moved on", plan.Version)
	}
	return applied
}
