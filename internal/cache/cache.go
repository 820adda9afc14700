package cache

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"strings"
	"time"

	"github.com/bwise1/roadwatch/internal/model"
	"github.com/bwise1/roadwatch/util"
	"github.com/redis/go-redis/v9"
)

// SnapCache stores snapped paths keyed by the raw request path.
type SnapCache interface {
	Get(ctx context.Context, key string) (model.Path, bool)
	Set(ctx context.Context, key string, path model.Path)
	Close() error
}

// Key builds the cache key of a snap request.
func Key(path model.Path, interpolate bool) string {
	flag := "0"
	if interpolate {
		flag = "1"
	}
	return "snap:" + flag + ":" + util.EncodePolyLine(path.Coords())
}

// Nop is the cache used when no store is configured.
type Nop struct{}

func (Nop) Get(context.Context, string) (model.Path, bool) { return nil, false }
func (Nop) Set(context.Context, string, model.Path)        {}
func (Nop) Close() error                                   { return nil }

// Redis keeps snapped paths in a single instance or a cluster.
type Redis struct {
	client redis.UniversalClient
	prefix string
	ttl    time.Duration
}

// NewRedis connects to the comma separated addresses. More than one address
// selects a cluster client.
func NewRedis(addresses, password, prefix string, ttl time.Duration) *Redis {
	addrs := []string{}
	for _, a := range strings.Split(addresses, ",") {
		a = strings.TrimSpace(a)
		if a != "" {
			addrs = append(addrs, a)
		}
	}

	if prefix != "" {
		prefix = prefix + ":"
	}

	return &Redis{
		client: redis.NewUniversalClient(&redis.UniversalOptions{
			Addrs:    addrs,
			Password: password,
		}),
		prefix: prefix,
		ttl:    ttl,
	}
}

// NewRedisWithClient wraps an existing client.
func NewRedisWithClient(client redis.UniversalClient, prefix string, ttl time.Duration) *Redis {
	if prefix != "" {
		prefix = prefix + ":"
	}
	return &Redis{client: client, prefix: prefix, ttl: ttl}
}

func (r *Redis) Get(ctx context.Context, key string) (model.Path, bool) {
	raw, err := r.client.Get(ctx, r.prefix+key).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			log.Printf("⚠️ snap cache get failed: %v", err)
		}
		return nil, false
	}

	var path model.Path
	if err := json.Unmarshal(raw, &path); err != nil {
		log.Printf("⚠️ snap cache entry %s is corrupt: %v", key, err)
		return nil, false
	}
	return path, true
}

func (r *Redis) Set(ctx context.Context, key string, path model.Path) {
	raw, err := json.Marshal(path)
	if err != nil {
		return
	}
	if err := r.client.Set(ctx, r.prefix+key, raw, r.ttl).Err(); err != nil {
		log.Printf("⚠️ snap cache set failed: %v", err)
	}
}

func (r *Redis) Close() error {
	return r.client.Close()
}
