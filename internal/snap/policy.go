package snap

import (
	"fmt"
	"strings"

	"github.com/bwise1/roadwatch/internal/model"
)

const (
	ModeBatch       = "batch"
	ModeIncremental = "incremental"
	ModeOff         = "off"
)

// Plan is one snap request: the points to send, the buffer version they
// were read at, and the buffer index the result replaces from.
//
// A Splice plan only replaces its own range and survives later appends.
// Any other plan needs the buffer to still be at Version.
type Plan struct {
	Points  model.Path
	Version uint64
	From    int
	Splice  bool
}

// Policy decides after each appended point whether to snap.
type Policy interface {
	Plan(points model.Path, version uint64) (Plan, bool)
	Mode() string
}

// Whole plans a snap of the entire buffer.
func Whole(points model.Path, version uint64) Plan {
	return Plan{Points: points, Version: version}
}

// BatchPolicy resnaps the whole buffer each time its length reaches a
// multiple of Every.
type BatchPolicy struct {
	Every int
}

func (p BatchPolicy) Plan(points model.Path, version uint64) (Plan, bool) {
	every := p.Every
	if every < 2 {
		every = 2
	}
	if len(points) < 2 || len(points)%every != 0 {
		return Plan{}, false
	}
	return Whole(points, version), true
}

func (BatchPolicy) Mode() string { return ModeBatch }

// IncrementalPolicy snaps only the newest two point segment and splices the
// result over it.
type IncrementalPolicy struct{}

func (IncrementalPolicy) Plan(points model.Path, version uint64) (Plan, bool) {
	n := len(points)
	if n < 2 {
		return Plan{}, false
	}
	return Plan{Points: points[n-2:].Clone(), Version: version, From: n - 2, Splice: true}, true
}

func (IncrementalPolicy) Mode() string { return ModeIncremental }

// OffPolicy never snaps on its own.
type OffPolicy struct{}

func (OffPolicy) Plan(model.Path, uint64) (Plan, bool) { return Plan{}, false }
func (OffPolicy) Mode() string                         { return ModeOff }

// ParsePolicy maps a configured mode name to its policy.
func ParsePolicy(mode string, every int) (Policy, error) {
	switch strings.ToLower(strings.TrimSpace(mode)) {
	case ModeBatch, "":
		return BatchPolicy{Every: every}, nil
	case ModeIncremental:
		return IncrementalPolicy{}, nil
	case ModeOff, "none":
		return OffPolicy{}, nil
	}
	return nil, fmt.Errorf("unknown snap mode %q", mode)
}
