package util

import (
	"fmt"
	"log"
	"math"

	"github.com/twpayne/go-polyline"
)

// DecodePolyLines decodes a Google encoded polyline into [lat, lng] pairs.
func DecodePolyLines(shape string) ([][]float64, error) {
	decoded, rest, err := polyline.DecodeCoords([]byte(shape))
	if err != nil {
		log.Println("error deocoding polyline: ", err)
		return nil, fmt.Errorf("failed to decode polyline %w", err)
	}
	if len(rest) != 0 {
		return nil, fmt.Errorf("failed to decode polyline: %d trailing bytes", len(rest))
	}
	return decoded, nil
}

// EncodePolyLine is the inverse of DecodePolyLines.
func EncodePolyLine(coords [][]float64) string {
	return string(polyline.EncodeCoords(coords))
}

// Round1 rounds to one decimal place.
func Round1(v float64) float64 {
	return math.Round(v*10) / 10
}
