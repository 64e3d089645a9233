package serverstate

import (
	"context"
	"crypto/tls"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisKeyPrefix prefixes the per-instance state keys. Each server writes
// only its own key so a drain on one replica never leaks to another.
const RedisKeyPrefix = "rating-workbench:state:"

// StateTTL bounds how long an instance key outlives its process.
const StateTTL = 30 * time.Second

const redisOpTimeout = 2 * time.Second

// InstanceKey returns the Redis key holding the state of instance id.
func InstanceKey(id string) string {
	return RedisKeyPrefix + id
}

// RedisStore implements Store backed by a Redis instance. The state lives
// under a key owned by one server instance and expires unless refreshed by
// KeepAlive.
type RedisStore struct {
	client redis.UniversalClient
	key    string

	mu   sync.Mutex
	last State
}

// NewRedisStore connects to the given Redis URL and returns a Store for the
// given instance id. The instance key is initialized to "not_ready".
func NewRedisStore(ctx context.Context, addr, instanceID string) (*RedisStore, error) {
	if instanceID == "" {
		return nil, errors.New("redis store: empty instance id")
	}
	opts, err := parseRedisURL(addr)
	if err != nil {
		return nil, err
	}
	c := redis.NewUniversalClient(opts)
	rs := &RedisStore{client: c, key: InstanceKey(instanceID), last: State{Status: StatusNotReady}}
	if err := rs.Ping(ctx); err != nil {
		_ = c.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}
	b, _ := json.Marshal(rs.last)
	if err := c.Set(ctx, rs.key, b, StateTTL).Err(); err != nil {
		_ = c.Close()
		return nil, fmt.Errorf("redis init state: %w", err)
	}
	return rs, nil
}

// Key returns the Redis key this store writes.
func (r *RedisStore) Key() string { return r.key }

// KeepAlive rewrites the last stored state every interval so the key does
// not expire while the process runs. It returns when ctx is done.
func (r *RedisStore) KeepAlive(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = StateTTL / 3
	}
	t := time.NewTicker(interval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			r.mu.Lock()
			st := r.last
			r.mu.Unlock()
			r.write(st)
		}
	}
}

// Ping checks connectivity to Redis.
func (r *RedisStore) Ping(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}

// Close releases the underlying client.
func (r *RedisStore) Close() error {
	return r.client.Close()
}

// Load returns the stored state. Read failures are reported as "unknown"
// so readiness checks fail closed.
func (r *RedisStore) Load() State {
	ctx, cancel := context.WithTimeout(context.Background(), redisOpTimeout)
	defer cancel()
	b, err := r.client.Get(ctx, r.key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return State{Status: StatusNotReady}
		}
		return State{Status: StatusUnknown}
	}
	var st State
	if err := json.Unmarshal(b, &st); err != nil {
		return State{Status: StatusUnknown}
	}
	return st
}

// Store writes s. Write failures are dropped; the next Load reflects what
// Redis actually holds and KeepAlive retries the write.
func (r *RedisStore) Store(s State) {
	r.mu.Lock()
	r.last = s
	r.mu.Unlock()
	r.write(s)
}

func (r *RedisStore) write(s State) {
	b, err := json.Marshal(s)
	if err != nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), redisOpTimeout)
	defer cancel()
	_ = r.client.Set(ctx, r.key, b, StateTTL).Err()
}

// parseRedisURL parses addr into UniversalOptions supporting single, cluster,
// and sentinel Redis deployments. If no scheme is present, addr is treated as
// a plain host:port string.
func parseRedisURL(addr string) (*redis.UniversalOptions, error) {
	if !strings.Contains(addr, "://") {
		return &redis.UniversalOptions{Addrs: []string{addr}}, nil
	}

	u, err := url.Parse(addr)
	if err != nil {
		return nil, err
	}

	opts := &redis.UniversalOptions{}
	if u.User != nil {
		opts.Username = u.User.Username()
		if pw, ok := u.User.Password(); ok {
			opts.Password = pw
		}
	}
	opts.Addrs = strings.Split(u.Host, ",")

	q := u.Query()
	tlsCfg := &tls.Config{MinVersion: tls.VersionTLS12}
	switch u.Scheme {
	case "redis", "rediss":
		path := strings.TrimPrefix(u.Path, "/")
		if path == "" {
			path = q.Get("db")
		}
		if path != "" {
			db, err := strconv.Atoi(path)
			if err != nil {
				return nil, fmt.Errorf("redis: invalid db: %w", err)
			}
			opts.DB = db
		}
		if u.Scheme == "rediss" {
			opts.TLSConfig = tlsCfg
		}
	case "redis-sentinel", "rediss-sentinel":
		opts.MasterName = strings.TrimPrefix(u.Path, "/")
		if opts.MasterName == "" {
			return nil, errors.New("redis: sentinel URL requires a master name")
		}
		if dbStr := q.Get("db"); dbStr != "" {
			db, err := strconv.Atoi(dbStr)
			if err != nil {
				return nil, fmt.Errorf("redis: invalid db: %w", err)
			}
			opts.DB = db
		}
		opts.SentinelUsername = q.Get("sentinel_username")
		opts.SentinelPassword = q.Get("sentinel_password")
		if u.Scheme == "rediss-sentinel" {
			opts.TLSConfig = tlsCfg
		}
	default:
		return nil, fmt.Errorf("redis: invalid URL scheme: %s", u.Scheme)
	}

	return opts, nil
}
