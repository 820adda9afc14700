package config

import (
	"log"
	"time"

	"github.com/caarlos0/env/v11"

	"github.com/joho/godotenv"
)

type Config struct {
	Port       int    `env:"PORT" envDefault:"8080"`
	BackendURL string `env:"BACKEND_URL" envDefault:"http://localhost:8000"`

	GoogleMapsAPIKey string `env:"GOOGLE_MAPS_API_KEY"`
	RoadsBaseURL     string `env:"ROADS_BASE_URL" envDefault:"https://roads.googleapis.com"`

	// SnapMode is one of batch, incremental or off.
	SnapMode        string        `env:"SNAP_MODE" envDefault:"batch"`
	SnapEvery       int           `env:"SNAP_EVERY" envDefault:"5"`
	SnapInterpolate bool          `env:"SNAP_INTERPOLATE" envDefault:"true"`
	MinSavePoints   int           `env:"MIN_SAVE_POINTS" envDefault:"2"`
	RecenterDelay   time.Duration `env:"RECENTER_DELAY" envDefault:"3s"`

	SessionIdleTimeout time.Duration `env:"SESSION_IDLE_TIMEOUT" envDefault:"30m"`

	RedisAddress  string        `env:"REDIS_ADDRESS"`
	RedisPassword string        `env:"REDIS_PASSWORD"`
	RedisPrefix   string        `env:"REDIS_PREFIX"`
	SnapCacheTTL  time.Duration `env:"SNAP_CACHE_TTL" envDefault:"24h"`

	CloudinaryCloudName string `env:"CLOUDINARY_CLOUD_NAME"`
	CloudinaryAPIKey    string `env:"CLOUDINARY_API_KEY"`
	CloudinaryAPISecret string `env:"CLOUDINARY_API_SECRET"`
}

func New() *Config {
	if loadErr := godotenv.Load(".env"); loadErr != nil {
		log.Printf("[Env]: unable to load .env file %v", loadErr)
	}

	var cfg Config

	if parseErr := env.Parse(&cfg); parseErr != nil {
		log.Printf("[Env]: failed to parse environment variables: %v", parseErr)
	}

	if cfg.SessionIdleTimeout <= 0 {
		cfg.SessionIdleTimeout = 30 * time.Minute
	}

	return &cfg
}
