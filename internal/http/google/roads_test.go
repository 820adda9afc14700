package googlemaps

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/bwise1/roadwatch/internal/model"
)

func TestSnapToRoads(t *testing.T) {
	var gotQuery url.Values
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/snapToRoads" {
			t.Errorf("path = %s", r.URL.Path)
		}
		gotQuery = r.URL.Query()
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"snappedPoints":[
			{"location":{"latitude":26.8601,"longitude":75.8101},"originalIndex":0,"placeId":"a"},
			{"location":{"latitude":26.8605,"longitude":75.8106},"placeId":"b"},
			{"location":{"latitude":26.8611,"longitude":75.8121},"originalIndex":1,"placeId":"c"}]}`)
	}))
	defer server.Close()

	gc := NewGoogleMapsClient("test-key", server.URL)
	path := model.Path{{Lat: 26.86, Lng: 75.81}, {Lat: 26.861, Lng: 75.812}}

	got, err := gc.SnapToRoads(context.Background(), path, true)
	if err != nil {
		t.Fatalf("SnapToRoads returned error %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("got %d points; want 3", len(got))
	}
	if got[1] != (model.GeoPoint{Lat: 26.8605, Lng: 75.8106}) {
		t.Errorf("point 1 = %v", got[1])
	}

	if gotQuery.Get("path") != "26.86,75.81|26.861,75.812" {
		t.Errorf("path param = %q", gotQuery.Get("path"))
	}
	if gotQuery.Get("interpolate") != "true" || gotQuery.Get("key") != "test-key" {
		t.Errorf("query = %v", gotQuery)
	}
}

func TestSnapToRoadsErrors(t *testing.T) {
	testCases := []struct {
		name    string
		status  int
		body    string
		wantErr string
	}{
		{"api error", http.StatusBadRequest, `{"error":{"code":400,"message":"bad path","status":"INVALID_ARGUMENT"}}`, "bad path"},
		{"plain error", http.StatusInternalServerError, `oops`, "status code 500"},
		{"bad json", http.StatusOK, `{"snappedPoints":`, "decode"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tc.status)
				fmt.Fprint(w, tc.body)
			}))
			defer server.Close()

			gc := NewGoogleMapsClient("k", server.URL)
			_, err := gc.SnapToRoads(context.Background(), model.Path{{Lat: 1, Lng: 1}, {Lat: 2, Lng: 2}}, false)
			if err == nil || !strings.Contains(err.Error(), tc.wantErr) {
				t.Errorf("err = %v; want containing %q", err, tc.wantErr)
			}
		})
	}
}

func TestSnapToRoadsChunksLongPaths(t *testing.T) {
	requests := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests++
		pairs := strings.Split(r.URL.Query().Get("path"), "|")
		if len(pairs) > MaxPathPoints {
			t.Errorf("request carried %d points", len(pairs))
		}
		points := make([]string, len(pairs))
		for i, p := range pairs {
			ll := strings.Split(p, ",")
			points[i] = fmt.Sprintf(`{"location":{"latitude":%s,"longitude":%s}}`, ll[0], ll[1])
		}
		fmt.Fprintf(w, `{"snappedPoints":[%s]}`, strings.Join(points, ","))
	}))
	defer server.Close()

	path := make(model.Path, 150)
	for i := range path {
		path[i] = model.GeoPoint{Lat: float64(i) * 0.001, Lng: 1}
	}

	gc := NewGoogleMapsClient("k", server.URL)
	got, err := gc.SnapToRoads(context.Background(), path, false)
	if err != nil {
		t.Fatalf("SnapToRoads returned error %v", err)
	}
	if requests != 2 {
		t.Errorf("requests = %d; want 2", requests)
	}
	if !got.Equal(path) {
		t.Errorf("got %d points; want the 150 input points in order", len(got))
	}
}

func TestSnapToRoadsRequiresKey(t *testing.T) {
	gc := NewGoogleMapsClient("", "http://127.0.0.1:1")
	if _, err := gc.SnapToRoads(context.Background(), model.Path{{}, {}}, true); err == nil {
		t.Error("expected error without an API key")
	}
}

func TestStreetViewURL(t *testing.T) {
	gc := NewGoogleMapsClient("k", "")
	raw := gc.StreetViewURL(model.GeoPoint{Lat: 26.86, Lng: 75.81}, 0, 0)

	u, err := url.Parse(raw)
	if err != nil {
		t.Fatalf("invalid URL %q: %v", raw, err)
	}
	q := u.Query()
	if q.Get("size") != "600x300" || q.Get("location") != "26.860000,75.810000" || q.Get("key") != "k" {
		t.Errorf("query = %v", q)
	}
	if !strings.HasPrefix(raw, defaultStreetViewBaseURL) {
		t.Errorf("url = %s", raw)
	}
}
