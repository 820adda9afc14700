package deps

import (
	"log"

	"github.com/bwise1/roadwatch/config"
	"github.com/bwise1/roadwatch/internal/cache"
	"github.com/bwise1/roadwatch/internal/http/backend"
	googlemaps "github.com/bwise1/roadwatch/internal/http/google"
	"github.com/bwise1/roadwatch/internal/session"
	"github.com/bwise1/roadwatch/internal/snap"
	"github.com/bwise1/roadwatch/internal/views"
	"github.com/bwise1/roadwatch/util/storage"
	"github.com/bwise1/roadwatch/util/websockets"
)

type Dependencies struct {
	Roads      *googlemaps.GoogleMapsClient
	Backend    *backend.Client
	Cache      cache.SnapCache
	Snapper    *snap.Snapper
	Policy     snap.Policy
	Cloudinary *storage.Cloudinary
	WebSocket  *websockets.WebSocketManager
	Sessions   *session.Manager
}

func New(cfg *config.Config) *Dependencies {
	backendClient, err := backend.NewClient(cfg.BackendURL)
	if err != nil {
		log.Panicln("invalid backend url", "error", err)
	}

	policy, err := snap.ParsePolicy(cfg.SnapMode, cfg.SnapEvery)
	if err != nil {
		log.Panicln("invalid snap mode", "error", err)
	}

	var snapCache cache.SnapCache = cache.Nop{}
	if cfg.RedisAddress != "" {
		snapCache = cache.NewRedis(cfg.RedisAddress, cfg.RedisPassword, cfg.RedisPrefix, cfg.SnapCacheTTL)
	}

	roads := googlemaps.NewGoogleMapsClient(cfg.GoogleMapsAPIKey, cfg.RoadsBaseURL)

	var snapper *snap.Snapper
	if cfg.GoogleMapsAPIKey != "" {
		snapper = snap.New(roads, snapCache, cfg.SnapInterpolate)
	} else {
		log.Println("⚠️ GOOGLE_MAPS_API_KEY is not set, road snapping is disabled")
	}

	cloudinary, err := storage.NewCloudinary(cfg)
	if err != nil {
		log.Printf("imagery served without a cdn: %v", err)
	}

	imagery := storage.Imagery{CDN: cloudinary}
	if cfg.GoogleMapsAPIKey != "" {
		imagery.Source = roads
	}

	websocket := websockets.NewWebSocketManager()

	sessions := session.NewManager(session.Deps{
		Backend:       backendClient,
		Snapper:       snapper,
		Policy:        policy,
		Imagery:       imagery,
		Palette:       views.DefaultPalette,
		MinSavePoints: cfg.MinSavePoints,
		RecenterDelay: cfg.RecenterDelay,
	}, websocket.Publisher)

	deps := Dependencies{
		Roads:      roads,
		Backend:    backendClient,
		Cache:      snapCache,
		Snapper:    snapper,
		Policy:     policy,
		Cloudinary: cloudinary,
		WebSocket:  websocket,
		Sessions:   sessions,
	}
	return &deps
}

// Close releases the sessions and the cache.
func (d *Dependencies) Close() {
	d.Sessions.CloseAll()
	d.WebSocket.Stop()
	if err := d.Cache.Close(); err != nil {
		log.Println("failed to close snap cache", "error", err)
	}
}
