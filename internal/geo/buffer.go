package geo

import (
	"sync"

	"github.com/bwise1/roadwatch/internal/model"
)

// Buffer is the ordered, mutable point sequence of a road being drawn.
//
// Every mutation bumps Version and calls the redraw hook with the new
// contents. The hook runs under the buffer lock and must not call back
// into the buffer.
type Buffer struct {
	mu      sync.Mutex
	points  model.Path
	version uint64
	redraw  func(model.Path)
}

func NewBuffer(redraw func(model.Path)) *Buffer {
	return &Buffer{redraw: redraw}
}

// Append adds p to the end and returns the new version.
func (b *Buffer) Append(p model.GeoPoint) uint64 {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.points = append(b.points, p)
	b.changed()
	return b.version
}

// UndoLast drops the last point. It reports false, and changes nothing,
// when the buffer is empty.
func (b *Buffer) UndoLast() bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	if len(b.points) == 0 {
		return false
	}
	b.points = b.points[:len(b.points)-1]
	b.changed()
	return true
}

func (b *Buffer) Clear() {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.points = nil
	b.changed()
}

// ReplaceAll swaps the whole contents.
func (b *Buffer) ReplaceAll(points model.Path) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.points = points.Clone()
	b.changed()
}

// ReplaceIf swaps the contents only if the buffer is still at version.
func (b *Buffer) ReplaceIf(version uint64, points model.Path) bool {
	return b.ReplaceTailIf(version, 0, points)
}

// ReplaceTailIf replaces everything from index from onwards with points,
// only if the buffer is still at version.
func (b *Buffer) ReplaceTailIf(version uint64, from int, points model.Path) bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.version != version || from < 0 || from > len(b.points) {
		return false
	}
	head := b.points[:from:from]
	b.points = append(head, points...)
	b.changed()
	return true
}

// ReplaceRangeIf swaps the len(expect) points starting at from for with,
// only if those points still equal expect. Points before and after the
// range are kept.
func (b *Buffer) ReplaceRangeIf(from int, expect, with model.Path) bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	end := from + len(expect)
	if from < 0 || end > len(b.points) || !b.points[from:end].Equal(expect) {
		return false
	}
	rest := b.points[end:].Clone()
	head := b.points[:from:from]
	b.points = append(append(head, with...), rest...)
	b.changed()
	return true
}

// Snapshot returns a copy of the contents and the version it belongs to.
func (b *Buffer) Snapshot() (model.Path, uint64) {
	b.mu.Lock()
	defer b.mu.Unlock()

	return b.points.Clone(), b.version
}

func (b *Buffer) Points() model.Path {
	pts, _ := b.Snapshot()
	return pts
}

func (b *Buffer) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()

	return len(b.points)
}

func (b *Buffer) Version() uint64 {
	b.mu.Lock()
	defer b.mu.Unlock()

	return b.version
}

func (b *Buffer) changed() {
	b.version++
	if b.redraw != nil {
		b.redraw(b.points.Clone())
	}
}
