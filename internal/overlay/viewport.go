package overlay

import (
	"sync"
	"time"
)

// Viewport tracks whether the user is panning or zooming. Interaction
// settles after a quiet delay, after which recentering is allowed again.
type Viewport struct {
	mu          sync.Mutex
	delay       time.Duration
	interacting bool
	gen         uint64
	timer       *time.Timer
}

func NewViewport(delay time.Duration) *Viewport {
	if delay <= 0 {
		delay = 3 * time.Second
	}
	return &Viewport{delay: delay}
}

// Interact marks the user as moving the map and re-arms the settle timer.
func (v *Viewport) Interact() {
	v.mu.Lock()
	defer v.mu.Unlock()

	v.interacting = true
	v.gen++
	gen := v.gen
	if v.timer != nil {
		v.timer.Stop()
	}
	v.timer = time.AfterFunc(v.delay, func() {
		v.mu.Lock()
		defer v.mu.Unlock()
		if v.gen == gen {
			v.interacting = false
		}
	})
}

func (v *Viewport) ShouldRecenter() bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	return !v.interacting
}

func (v *Viewport) Stop() {
	v.mu.Lock()
	defer v.mu.Unlock()

	if v.timer != nil {
		v.timer.Stop()
		v.timer = nil
	}
	v.gen++
	v.interacting = false
}
