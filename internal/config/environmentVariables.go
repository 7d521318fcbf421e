package config

import (
	"log/slog"
	"os"
	"time"
)

const (
	IS_PROD                         = false
	LOG_LEVEL_PROD                  = slog.LevelInfo
	FALLBACK_REDIS_TO_INTERNALSTORE = true //if redis init fails, it falls back to an internal in-memory store
	TRACE_ID_KEY                    = "traceId"

	//a single page that takes longer to parse is kept without text
	PageExtractTimeout = 10 * time.Second

	//serverTimeouts
	ReadTimeout            = 30 * time.Second
	WriteTimeout           = 5 * time.Minute
	IdleTimeout            = 120 * time.Second
	ShutdownContextTimeout = 10 * time.Second

	//server listening port
	ServerListenAddr = ":3000"

	//job requests buffer limit
	BufferLimit = 100

	//request bodies carry base64 pdfs
	MaxRequestBodyBytes = 256 << 20

	//redis
	redisHost        = "127.0.0.1"
	redisPort        = "6379"
	defaultRedisAddr = redisHost + ":" + redisPort

	//redis has 16 DB we can use
	RedisJobStore    = 0
	RedisResultCache = 1

	//redis timeouts
	RedisJobStoreTTL = 24 * time.Hour
	JobResultTTL     = 6 * time.Hour

	ResultCacheKeyPrefix = "doc_cache:"
	JobResultKeyPrefix   = "job_result:"

	//used for time estimates before any page has been parsed
	ApproxBytesPerPage = 50 << 10
	MinEstimate        = 10 * time.Second
	MaxEstimate        = 300 * time.Second
)

var (
	RedisAddr     = envOr("REDIS_ADDR", defaultRedisAddr)
	ConfigPath    = os.Getenv("TENTHLINE_CONFIG")
	RedisPassword = os.Getenv("REDIS_PASSWORD")
	AuthToken     = os.Getenv("AUTH_TOKEN")
	//no token configured means a local dev setup
	NoAuthBypass = os.Getenv("AUTH_TOKEN") == ""
)

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
