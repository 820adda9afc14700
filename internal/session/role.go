package session

import (
	"sort"
	"sync"

	"github.com/bwise1/roadwatch/internal/model"
)

// RoleContext holds the active role of one session and tells subscribers
// when it changes.
type RoleContext struct {
	mu   sync.Mutex
	role model.Role
	subs map[int]func(from, to model.Role)
	seq  int
}

func NewRoleContext(initial model.Role) *RoleContext {
	if initial == "" {
		initial = model.RoleCitizen
	}
	return &RoleContext{role: initial, subs: make(map[int]func(from, to model.Role))}
}

func (c *RoleContext) Role() model.Role {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.role
}

// Set changes the role and notifies subscribers in registration order. It
// reports false when role was already active.
func (c *RoleContext) Set(role model.Role) bool {
	c.mu.Lock()
	from := c.role
	if from == role {
		c.mu.Unlock()
		return false
	}
	c.role = role

	ids := make([]int, 0, len(c.subs))
	for id := range c.subs {
		ids = append(ids, id)
	}
	fns := make([]func(from, to model.Role), 0, len(ids))
	sort.Ints(ids)
	for _, id := range ids {
		fns = append(fns, c.subs[id])
	}
	c.mu.Unlock()

	for _, fn := range fns {
		fn(from, role)
	}
	return true
}

// Subscribe registers fn for role changes.
func (c *RoleContext) Subscribe(fn func(from, to model.Role)) (unsubscribe func()) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.seq++
	id := c.seq
	c.subs[id] = fn
	return func() {
		c.mu.Lock()
		defer c.mu.Unlock()
		delete(c.subs, id)
	}
}
