package googlemaps

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/bwise1/roadwatch/internal/model"
	"github.com/google/go-querystring/query"
)

const (
	defaultRoadsBaseURL      = "https://roads.googleapis.com"
	defaultStreetViewBaseURL = "https://maps.googleapis.com/maps/api/streetview"

	// MaxPathPoints is the most points the Roads API accepts per request.
	MaxPathPoints = 100
)

// GoogleMapsClient handles communication with the Google Roads and
// Street View Static APIs.
type GoogleMapsClient struct {
	APIKey            string
	RoadsBaseURL      string
	StreetViewBaseURL string
	Client            *http.Client
}

// NewGoogleMapsClient creates a new client instance
// apiKey should be loaded securely (e.g., from environment variable)
func NewGoogleMapsClient(apiKey, roadsBaseURL string) *GoogleMapsClient {
	if apiKey == "" {
		log.Println("Warning: Google Maps API Key is empty.")
	}
	if roadsBaseURL == "" {
		roadsBaseURL = defaultRoadsBaseURL
	}
	return &GoogleMapsClient{
		APIKey:            apiKey,
		RoadsBaseURL:      strings.TrimRight(roadsBaseURL, "/"),
		StreetViewBaseURL: defaultStreetViewBaseURL,
		Client:            &http.Client{Timeout: 10 * time.Second},
	}
}

// --- Snap To Roads Structures ---

// SnapToRoadsQuery is the query string of a snapToRoads request.
type SnapToRoadsQuery struct {
	Path        string `url:"path"`
	Interpolate bool   `url:"interpolate"`
	Key         string `url:"key"`
}

// SnapToRoadsResponse is the top-level response of a snapToRoads request.
type SnapToRoadsResponse struct {
	SnappedPoints  []SnappedPoint `json:"snappedPoints"`
	WarningMessage string         `json:"warningMessage,omitempty"`
}

// SnappedPoint is one point aligned to the road network.
type SnappedPoint struct {
	Location struct {
		Latitude  float64 `json:"latitude"`
		Longitude float64 `json:"longitude"`
	} `json:"location"`
	OriginalIndex *int   `json:"originalIndex,omitempty"` // absent for interpolated points
	PlaceID       string `json:"placeId"`
}

type apiErrorResponse struct {
	Error struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
		Status  string `json:"status"`
	} `json:"error"`
}

// EncodePath renders points as lat,lng pairs joined with "|".
func EncodePath(path model.Path) string {
	parts := make([]string, len(path))
	for i, p := range path {
		parts[i] = strconv.FormatFloat(p.Lat, 'f', -1, 64) + "," + strconv.FormatFloat(p.Lng, 'f', -1, 64)
	}
	return strings.Join(parts, "|")
}

// SnapToRoads aligns path to the most likely roads travelled. Paths longer
// than MaxPathPoints are sent in windows that overlap by one point.
func (gc *GoogleMapsClient) SnapToRoads(ctx context.Context, path model.Path, interpolate bool) (model.Path, error) {
	if gc.APIKey == "" {
		return nil, fmt.Errorf("google maps API key is not set")
	}
	if len(path) == 0 {
		return nil, fmt.Errorf("path cannot be empty")
	}

	var snapped model.Path
	for start := 0; start < len(path); start += MaxPathPoints - 1 {
		end := start + MaxPathPoints
		if end > len(path) {
			end = len(path)
		}

		chunk, err := gc.snapChunk(ctx, path[start:end], interpolate)
		if err != nil {
			return nil, err
		}
		snapped = appendDistinct(snapped, chunk)

		if end == len(path) {
			break
		}
	}

	return snapped, nil
}

func (gc *GoogleMapsClient) snapChunk(ctx context.Context, path model.Path, interpolate bool) (model.Path, error) {
	params, err := query.Values(SnapToRoadsQuery{
		Path:        EncodePath(path),
		Interpolate: interpolate,
		Key:         gc.APIKey,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to encode snapToRoads query: %w", err)
	}

	fullURL := fmt.Sprintf("%s/v1/snapToRoads?%s", gc.RoadsBaseURL, params.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fullURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create snapToRoads request: %w", err)
	}

	resp, err := gc.Client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to execute snapToRoads request: %w", err)
	}
	defer resp.Body.Close()

	bodyBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read snapToRoads response body: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		var apiErr apiErrorResponse
		if json.Unmarshal(bodyBytes, &apiErr) == nil && apiErr.Error.Message != "" {
			return nil, fmt.Errorf("google roads error: status %d, %s: %s", resp.StatusCode, apiErr.Error.Status, apiErr.Error.Message)
		}
		return nil, fmt.Errorf("google roads error: status code %d, body: %s", resp.StatusCode, string(bodyBytes))
	}

	var snapResponse SnapToRoadsResponse
	if err := json.Unmarshal(bodyBytes, &snapResponse); err != nil {
		return nil, fmt.Errorf("failed to decode snapToRoads response: %w", err)
	}
	if snapResponse.WarningMessage != "" {
		log.Printf("⚠️ snapToRoads warning: %s", snapResponse.WarningMessage)
	}

	out := make(model.Path, 0, len(snapResponse.SnappedPoints))
	for _, sp := range snapResponse.SnappedPoints {
		out = append(out, model.GeoPoint{Lat: sp.Location.Latitude, Lng: sp.Location.Longitude})
	}
	return out, nil
}

// appendDistinct appends next to acc, skipping a leading point equal to the
// last one already present.
func appendDistinct(acc, next model.Path) model.Path {
	if len(acc) > 0 && len(next) > 0 && acc[len(acc)-1] == next[0] {
		next = next[1:]
	}
	return append(acc, next...)
}
