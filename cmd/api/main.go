package main

import (
	"context"
	"log"
	"net/http"
	"strconv"
	"strings"
	"time"

	_ "github.com/PabloPavan/cobit_api/docs"
	"github.com/PabloPavan/cobit_api/internal"
	"github.com/PabloPavan/cobit_api/internal/auth"
	"github.com/PabloPavan/cobit_api/internal/cache"
	"github.com/PabloPavan/cobit_api/internal/db"
	"github.com/PabloPavan/cobit_api/internal/httpapi"
	"github.com/PabloPavan/cobit_api/internal/ratelimit"
	"github.com/PabloPavan/cobit_api/internal/session"
	"github.com/PabloPavan/cobit_api/internal/snippets"
	"github.com/PabloPavan/cobit_api/internal/telemetry"
	"github.com/PabloPavan/cobit_api/internal/users"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
)

const serviceName = "cobit-api"

type stores struct {
	snippets snippets.Store
	users    users.Store
	health   httpapi.Pinger
	pool     *pgxpool.Pool
	close    func()
}

func main() {
	port := internal.Env("APP_PORT", "8080")
	databaseURL := internal.MustEnv("DATABASE_URL")
	redisURL := strings.TrimSpace(internal.Env("REDIS_URL", ""))
	tokenSecret := internal.MustEnv("AUTH_TOKEN_SECRET")

	ctx := context.Background()

	shutdown, err := telemetry.Setup(ctx, serviceName)
	if err != nil {
		log.Fatalf("telemetry error: %v", err)
	}
	defer shutdown(context.Background())
	db.InitTelemetry(serviceName)

	st, err := openStores(ctx, databaseURL)
	if err != nil {
		log.Fatalf("db connect error: %v", err)
	}
	defer st.close()

	var redisClient *redis.Client
	if redisURL != "" {
		redisOpt, err := redis.ParseURL(redisURL)
		if err != nil {
			log.Fatalf("redis url error: %v", err)
		}
		redisClient = redis.NewClient(redisOpt)
		defer redisClient.Close()
	}

	cacheTTL := parseDurationEnv("CACHE_TTL", cache.DefaultTTL)
	var backend cache.Cache
	var sessionStore session.Store
	var loginLimiter auth.RateLimiter

	loginLimit := parseIntEnv("LOGIN_RATE_LIMIT", 5)
	loginWindow := parseDurationEnv("LOGIN_RATE_WINDOW", time.Minute)

	if redisClient != nil {
		backend = cache.NewRedisCache(redisClient, internal.Env("CACHE_PREFIX", "cobit:cache:"), cacheTTL)
		sessionStore = session.NewRedisStore(redisClient, internal.Env("SESSION_REDIS_PREFIX", "cobit:session:"))
		loginLimiter = &ratelimit.Limiter{
			Client: redisClient,
			Prefix: "cobit:ratelimit:",
			Limit:  loginLimit,
			Window: loginWindow,
		}
		log.Printf("using redis for cache, sessions and login limits")
	} else {
		backend = cache.NewMemoryCache(cacheTTL)
		sessionStore = session.NewMemoryStore()
		loginLimiter = &ratelimit.MemoryLimiter{Limit: loginLimit, Window: loginWindow}
		log.Printf("REDIS_URL not set, using in-process cache, sessions and login limits")
	}

	snippetsCache := cache.NewInstrumented(backend, serviceName)
	telemetry.InitAppMetrics(serviceName, st.pool, func() (int64, int64, int64) {
		s := snippetsCache.Stats()
		return s.Hits, s.Misses, s.Errors
	})

	tokenTTL := parseDurationEnv("AUTH_TOKEN_TTL", 7*24*time.Hour)
	tokens, err := auth.NewTokenService(tokenSecret)
	if err != nil {
		log.Fatalf("auth config error: %v", err)
	}

	snippetsService := &snippets.Service{
		Store:         st.snippets,
		Cache:         snippetsCache,
		RequireAuthor: parseBoolEnv("SNIPPETS_REQUIRE_AUTH", false),
	}
	usersService := &users.Service{Store: st.users}
	authService := &auth.Service{
		Users:        st.users,
		Sessions:     &session.Manager{Store: sessionStore, TTL: tokenTTL},
		Tokens:       tokens,
		LoginLimiter: loginLimiter,
	}

	app := &httpapi.App{
		ServiceName:   serviceName,
		Health:        &httpapi.HealthHandler{DB: st.health, Cache: snippetsCache},
		Snippets:      &httpapi.SnippetsHandler{Service: snippetsService},
		Auth:          &httpapi.AuthHandler{Auth: authService, Users: usersService},
		Authenticator: authService,
	}

	srv := &http.Server{
		Addr:              ":" + port,
		Handler:           httpapi.NewRouter(app),
		ReadHeaderTimeout: 5 * time.Second,
	}

	log.Printf("api listening on :%s", port)
	if err := srv.ListenAndServe(); err != nil {
		log.Fatalf("server error: %v", err)
	}
}

func openStores(ctx context.Context, databaseURL string) (*stores, error) {
	timeout := parseDurationEnv("DB_QUERY_TIMEOUT", 3*time.Second)

	switch db.Driver(databaseURL) {
	case "sqlite":
		conn, err := db.OpenSQLite(ctx, databaseURL, timeout)
		if err != nil {
			return nil, err
		}
		return &stores{
			snippets: snippets.NewSQLiteRepository(conn),
			users:    users.NewSQLiteRepository(conn),
			health:   conn,
			close:    func() { _ = conn.Close() },
		}, nil
	default:
		d, err := db.New(ctx, databaseURL)
		if err != nil {
			return nil, err
		}
		base := db.NewBase(d.Pool, timeout)
		if err := base.Migrate(ctx); err != nil {
			d.Close()
			return nil, err
		}
		return &stores{
			snippets: snippets.NewRepository(base),
			users:    users.NewRepository(base),
			health:   d,
			pool:     d.Pool,
			close:    d.Close,
		}, nil
	}
}

func parseDurationEnv(key string, def time.Duration) time.Duration {
	val := strings.TrimSpace(internal.Env(key, ""))
	if val == "" {
		return def
	}
	d, err := time.ParseDuration(val)
	if err != nil {
		log.Printf("invalid %s: %q, using default", key, val)
		return def
	}
	return d
}

func parseIntEnv(key string, def int) int {
	val := strings.TrimSpace(internal.Env(key, ""))
	if val == "" {
		return def
	}
	n, err := strconv.Atoi(val)
	if err != nil {
		log.Printf("invalid %s: %q, using default", key, val)
		return def
	}
	return n
}

func parseBoolEnv(key string, def bool) bool {
	val := strings.TrimSpace(internal.Env(key, ""))
	if val == "" {
		return def
	}
	b, err := strconv.ParseBool(val)
	if err != nil {
		log.Printf("invalid %s: %q, using default", key, val)
		return def
	}
	return b
}
