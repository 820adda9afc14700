package googlemaps

import (
	"fmt"

	"github.com/bwise1/roadwatch/internal/model"
	"github.com/google/go-querystring/query"
)

// StreetViewQuery is the query string of a Street View Static image.
type StreetViewQuery struct {
	Size     string `url:"size"`
	Location string `url:"location"`
	Fov      int    `url:"fov,omitempty"`
	Source   string `url:"source,omitempty"` // "outdoor" skips indoor panoramas
	Key      string `url:"key"`
}

// StreetViewURL returns the static imagery URL for a point. The image is
// never fetched here; the URL is handed to the client as-is.
func (gc *GoogleMapsClient) StreetViewURL(p model.GeoPoint, width, height int) string {
	if width <= 0 {
		width = 600
	}
	if height <= 0 {
		height = 300
	}

	params, err := query.Values(StreetViewQuery{
		Size:     fmt.Sprintf("%dx%d", width, height),
		Location: fmt.Sprintf("%f,%f", p.Lat, p.Lng),
		Fov:      90,
		Source:   "outdoor",
		Key:      gc.APIKey,
	})
	if err != nil {
		return ""
	}
	return fmt.Sprintf("%s?%s", gc.StreetViewBaseURL, params.Encode())
}
