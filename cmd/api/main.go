package main

import (
	"context"
	"database/sql"
	"net/http"
	"os"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/joho/godotenv"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	app "github.com/mark3748/helpdesk-sla/cmd/api/app"
	"github.com/mark3748/helpdesk-sla/cmd/api/auth"
	"github.com/mark3748/helpdesk-sla/cmd/api/calendars"
	"github.com/mark3748/helpdesk-sla/cmd/api/evaluations"
	"github.com/mark3748/helpdesk-sla/cmd/api/exports"
	"github.com/mark3748/helpdesk-sla/cmd/api/handlers"
	apimetrics "github.com/mark3748/helpdesk-sla/cmd/api/metrics"
	"github.com/mark3748/helpdesk-sla/cmd/api/migrations"
	"github.com/mark3748/helpdesk-sla/cmd/api/slas"
	"github.com/mark3748/helpdesk-sla/cmd/api/ws"
	"github.com/mark3748/helpdesk-sla/internal/metrics"
	"github.com/mark3748/helpdesk-sla/internal/s3"
	"github.com/mark3748/helpdesk-sla/internal/tenant"
)

// NewServer builds the App and registers every route.
func NewServer(cfg app.Config, db app.DB, keyf jwt.Keyfunc, tenants tenant.Source, archive *s3.Archive, q *redis.Client) *app.App {
	a := app.NewApp(cfg, db, keyf, tenants, archive, q)
	routes(a)
	return a
}

func routes(a *app.App) {
	a.R.GET("/healthz", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"ok": true}) })
	a.R.GET("/metrics", gin.WrapH(promhttp.Handler()))

	authed := a.R.Group("/")
	authed.Use(auth.Middleware(a))
	authed.GET("/me", auth.Me)
	authed.GET("/features", handlers.Features(a))
	authed.GET("/events", handlers.Events(a.Q))
	authed.GET("/exports/*key", auth.RequireRole("agent"), exports.Get(a))

	t := authed.Group("/tenants/:tenant")
	t.Use(auth.RequireTenant())
	t.GET("/calendar", calendars.Get(a))
	t.GET("/rules", slas.List(a))
	t.GET("/rules/resolve", slas.Resolve(a))
	t.GET("/metrics/sla", apimetrics.SLA(a))
	t.POST("/evaluations", auth.RequireRole("agent"), a.Throttle(), evaluations.Create(a))
	t.POST("/evaluations/jobs", auth.RequireRole("agent"), a.Throttle(), evaluations.Enqueue(a))
}

func main() {
	_ = godotenv.Load()
	cfg := app.GetConfig()
	if cfg.Env == "dev" {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339})
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}
	metrics.Register(prometheus.DefaultRegisterer)

	ctx := context.Background()
	var db app.DB
	var src tenant.Source
	if cfg.TenantsFile != "" {
		fs, err := tenant.LoadFile(cfg.TenantsFile)
		if err != nil {
			log.Fatal().Err(err).Str("path", cfg.TenantsFile).Msg("load tenants file")
		}
		log.Info().Strs("tenants", fs.Tenants()).Msg("tenants loaded from file")
		src = fs
	} else {
		pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
		if err != nil {
			log.Fatal().Err(err).Msg("db connect")
		}
		defer pool.Close()

		// goose runs on database/sql through the pgx stdlib driver
		sqldb, err := sql.Open("pgx", cfg.DatabaseURL)
		if err != nil {
			log.Fatal().Err(err).Msg("sql open for goose")
		}
		if err := migrations.Up(ctx, sqldb); err != nil {
			log.Fatal().Err(err).Msg("migrate")
		}
		_ = sqldb.Close()
		db = pool
		src = tenant.DBSource{DB: pool}
	}

	var keyf jwt.Keyfunc
	if cfg.AuthSecret != "" {
		keyf = auth.HMACKeyfunc(cfg.AuthSecret)
	} else if !cfg.TestBypassAuth {
		log.Warn().Msg("AUTH_SECRET not set; authenticated routes will fail")
	}

	var archive *s3.Archive
	if cfg.MinIOEndpoint != "" {
		mc, err := minio.New(cfg.MinIOEndpoint, &minio.Options{
			Creds:  credentials.NewStaticV4(cfg.MinIOAccess, cfg.MinIOSecret, ""),
			Secure: cfg.MinIOUseSSL,
		})
		if err != nil {
			log.Fatal().Err(err).Msg("minio init")
		}
		if ok, err := mc.BucketExists(ctx, cfg.MinIOBucket); err != nil {
			log.Error().Err(err).Str("bucket", cfg.MinIOBucket).Msg("minio bucket check")
		} else if !ok {
			if err := mc.MakeBucket(ctx, cfg.MinIOBucket, minio.MakeBucketOptions{}); err != nil {
				log.Error().Err(err).Str("bucket", cfg.MinIOBucket).Msg("minio make bucket")
			}
		}
		archive = &s3.Archive{Client: mc, Bucket: cfg.MinIOBucket, MaxTTL: cfg.ExportURLTTL}
	} else if cfg.FileStorePath != "" {
		if err := os.MkdirAll(cfg.FileStorePath, 0o755); err != nil {
			log.Fatal().Err(err).Str("path", cfg.FileStorePath).Msg("create filestore path")
		}
		archive = &s3.Archive{Client: &app.FsObjectStore{Base: cfg.FileStorePath}, Bucket: cfg.MinIOBucket, MaxTTL: cfg.ExportURLTTL}
	}

	// Redis client (optional)
	var rdb *redis.Client
	if cfg.RedisAddr != "" {
		rdb = redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
		if err := rdb.Ping(ctx).Err(); err != nil {
			log.Error().Err(err).Msg("redis ping")
		}
		defer rdb.Close()
	}

	a := NewServer(cfg, db, keyf, src, archive, rdb)
	if rdb != nil {
		hub := ws.NewHub(rdb)
		go hub.Run(ctx)
		a.R.GET("/ws", auth.Middleware(a), ws.Handler(hub))
	}

	srv := &http.Server{
		Addr:           cfg.Addr,
		Handler:        a.R,
		ReadTimeout:    15 * time.Second,
		WriteTimeout:   60 * time.Second,
		MaxHeaderBytes: 1 << 20,
	}
	log.Info().Str("addr", cfg.Addr).Msg("api listening")
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Fatal().Err(err).Msg("listen")
	}
}
