package model

// GeoPoint is a single map coordinate.
type GeoPoint struct {
	Lat float64 `json:"lat" validate:"latitude"`
	Lng float64 `json:"lng" validate:"longitude"`
}

// Path is an ordered sequence of points, first to last in drawing order.
type Path []GeoPoint

func (p Path) Clone() Path {
	if p == nil {
		return nil
	}
	out := make(Path, len(p))
	copy(out, p)
	return out
}

func (p Path) Equal(other Path) bool {
	if len(p) != len(other) {
		return false
	}
	for i := range p {
		if p[i] != other[i] {
			return false
		}
	}
	return true
}

// Coords returns the path as [lat, lng] pairs.
func (p Path) Coords() [][]float64 {
	out := make([][]float64, len(p))
	for i, pt := range p {
		out[i] = []float64{pt.Lat, pt.Lng}
	}
	return out
}

func PathFromCoords(coords [][]float64) Path {
	out := make(Path, 0, len(coords))
	for _, c := range coords {
		if len(c) < 2 {
			continue
		}
		out = append(out, GeoPoint{Lat: c[0], Lng: c[1]})
	}
	return out
}
