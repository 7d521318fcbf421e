package redisStore

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/akolanti/TenthLine/internal/config"
	"github.com/akolanti/TenthLine/pkg/logger_i"
	"github.com/redis/go-redis/v9"
)

var (
	instances = make(map[int]*Store)
	mu        sync.Mutex
	logger    *logger_i.Logger
	logOnce   sync.Once
	closeOnce sync.Once
)

// Store is one redis DB. Job records and result blobs live in separate DBs.
type Store struct {
	client *redis.Client
	DB     int
}

// Options describes how to reach one redis DB.
type Options struct {
	Addr     string
	Password string
	DB       int
	// bounds each command; composed pdfs make result writes the slow ones
	IOTimeout   time.Duration
	PingTimeout time.Duration
}

// OptionsFor builds Options for a DB from the process environment.
func OptionsFor(db int) Options {
	return Options{
		Addr:        config.RedisAddr,
		Password:    config.RedisPassword,
		DB:          db,
		IOTimeout:   30 * time.Second,
		PingTimeout: 3 * time.Second,
	}
}

// GetRedisStore returns the shared store for db, connecting on first use.
// It returns nil when redis cannot be reached; callers fall back to memory.
// The clients are closed once ctx is cancelled.
func GetRedisStore(ctx context.Context, db int) *Store {
	mu.Lock()
	defer mu.Unlock()
	if s, ok := instances[db]; ok {
		return s
	}

	s, err := Connect(ctx, OptionsFor(db))
	if err != nil {
		log().Error("Redis is offline", "addr", config.RedisAddr, "db", db, "error", err)
		return nil
	}
	instances[db] = s
	closeOnce.Do(func() {
		go closeRedisStores(ctx)
	})
	return s
}

// Connect dials and pings a single DB.
func Connect(ctx context.Context, opts Options) (*Store, error) {
	client := redis.NewClient(&redis.Options{
		Addr:                  opts.Addr,
		Password:              opts.Password,
		DB:                    opts.DB,
		ContextTimeoutEnabled: true,
		ReadTimeout:           opts.IOTimeout,
		WriteTimeout:          opts.IOTimeout,
	})

	pingCtx, cancel := context.WithTimeout(ctx, opts.PingTimeout)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis %s db %d: %w", opts.Addr, opts.DB, err)
	}
	log().Info("Redis store init successfully", "db", opts.DB)
	return &Store{client: client, DB: opts.DB}, nil
}

func closeRedisStores(ctx context.Context) {
	<-ctx.Done()
	logger := log()
	logger.Info("Closing Redis Stores")
	mu.Lock()
	defer mu.Unlock()
	for db, s := range instances {
		if err := s.client.Close(); err != nil {
			logger.Error("Error closing redis client", "db", db, "error", err)
		}
		delete(instances, db)
	}
	logger.Info("Redis Store Closed successfully")
}

func log() *logger_i.Logger {
	logOnce.Do(func() {
		logger = logger_i.NewLogger("RedisStore")
	})
	return logger
}

// NewTestStore wraps an existing client, used with miniredis in tests.
func NewTestStore(client *redis.Client) *Store {
	return &Store{
		client: client,
		DB:     client.Options().DB,
	}
}
