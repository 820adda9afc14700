package geo

import (
	"testing"

	"github.com/bwise1/roadwatch/internal/model"
)

func pts(n int) model.Path {
	out := make(model.Path, n)
	for i := range out {
		out[i] = model.GeoPoint{Lat: 26.86 + float64(i)*0.001, Lng: 75.81 + float64(i)*0.001}
	}
	return out
}

func TestUndoLast(t *testing.T) {
	t.Run("empty buffer is a no-op", func(t *testing.T) {
		redraws := 0
		b := NewBuffer(func(model.Path) { redraws++ })

		if b.UndoLast() {
			t.Error("UndoLast on empty buffer reported a change")
		}
		if b.Len() != 0 || b.Version() != 0 || redraws != 0 {
			t.Errorf("len=%d version=%d redraws=%d; want all zero", b.Len(), b.Version(), redraws)
		}
	})

	for _, n := range []int{1, 2, 5} {
		b := NewBuffer(nil)
		want := pts(n)
		for _, p := range want {
			b.Append(p)
		}

		if !b.UndoLast() {
			t.Fatalf("n=%d: UndoLast reported no change", n)
		}
		if got := b.Points(); !got.Equal(want[:n-1]) {
			t.Errorf("n=%d: got %v; want %v", n, got, want[:n-1])
		}
	}
}

func TestMutationsRedraw(t *testing.T) {
	var last model.Path
	redraws := 0
	b := NewBuffer(func(p model.Path) {
		redraws++
		last = p
	})

	b.Append(model.GeoPoint{Lat: 1, Lng: 1})
	b.Append(model.GeoPoint{Lat: 2, Lng: 2})
	b.ReplaceAll(pts(3))
	b.UndoLast()
	b.Clear()

	if redraws != 5 {
		t.Errorf("redraws = %d; want 5", redraws)
	}
	if len(last) != 0 {
		t.Errorf("last redraw = %v; want empty", last)
	}
	if b.Version() != 5 {
		t.Errorf("version = %d; want 5", b.Version())
	}
}

func TestReplaceIf(t *testing.T) {
	b := NewBuffer(nil)
	for _, p := range pts(3) {
		b.Append(p)
	}
	snapshot, version := b.Snapshot()

	b.Append(model.GeoPoint{Lat: 5, Lng: 5})

	if b.ReplaceIf(version, snapshot[:1]) {
		t.Fatal("stale replace was applied")
	}
	if b.Len() != 4 {
		t.Errorf("len = %d; want 4", b.Len())
	}

	if !b.ReplaceIf(b.Version(), pts(2)) {
		t.Fatal("current replace was refused")
	}
	if !b.Points().Equal(pts(2)) {
		t.Errorf("got %v; want %v", b.Points(), pts(2))
	}
}

func TestReplaceTailIf(t *testing.T) {
	b := NewBuffer(nil)
	for _, p := range pts(3) {
		b.Append(p)
	}

	tail := model.Path{{Lat: 7, Lng: 7}, {Lat: 8, Lng: 8}, {Lat: 9, Lng: 9}}
	if !b.ReplaceTailIf(b.Version(), 1, tail) {
		t.Fatal("replace refused")
	}

	want := append(pts(1), tail...)
	if got := b.Points(); !got.Equal(want) {
		t.Errorf("got %v; want %v", got, want)
	}

	if b.ReplaceTailIf(b.Version(), 10, tail) {
		t.Error("out of range tail accepted")
	}
}

func TestReplaceRangeIf(t *testing.T) {
	b := NewBuffer(nil)
	for _, p := range pts(3) {
		b.Append(p)
	}
	expect := b.Points()[1:3].Clone()
	newer := model.GeoPoint{Lat: 9, Lng: 9}
	b.Append(newer)

	with := model.Path{{Lat: 7, Lng: 7}, {Lat: 7.5, Lng: 7.5}, {Lat: 8, Lng: 8}}
	if !b.ReplaceRangeIf(1, expect, with) {
		t.Fatal("replace refused after an append")
	}
	want := append(append(pts(1), with...), newer)
	if got := b.Points(); !got.Equal(want) {
		t.Errorf("got %v; want %v", got, want)
	}

	tests := []struct {
		name   string
		from   int
		expect model.Path
	}{
		{"changed range", 0, model.Path{{Lat: 1, Lng: 1}, {Lat: 2, Lng: 2}}},
		{"past the end", 5, pts(2)},
		{"negative", -1, pts(1)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			before, version := b.Snapshot()
			if b.ReplaceRangeIf(tt.from, tt.expect, with) {
				t.Fatal("replace applied")
			}
			if got := b.Points(); !got.Equal(before) || b.Version() != version {
				t.Errorf("buffer changed to %v", got)
			}
		})
	}
}

func TestSnapshotIsACopy(t *testing.T) {
	b := NewBuffer(nil)
	b.Append(model.GeoPoint{Lat: 1, Lng: 1})

	snap, _ := b.Snapshot()
	snap[0].Lat = 42

	if b.Points()[0].Lat != 1 {
		t.Error("snapshot aliases buffer storage")
	}
}
