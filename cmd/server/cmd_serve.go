package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"go-coffee-pos/internal/ai"
	"go-coffee-pos/internal/auth"
	"go-coffee-pos/internal/cache"
	"go-coffee-pos/internal/cart"
	"go-coffee-pos/internal/catalog"
	"go-coffee-pos/internal/checkout"
	"go-coffee-pos/internal/database"
	"go-coffee-pos/internal/handlers"
	"go-coffee-pos/internal/live"
	"go-coffee-pos/internal/logger"
	"go-coffee-pos/internal/metrics"
	"go-coffee-pos/internal/middleware"
	"go-coffee-pos/internal/reports"
	"go-coffee-pos/internal/storage"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
)

const catalogTTL = 5 * time.Minute

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP server",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()
		return serve(ctx)
	},
}

func serve(ctx context.Context) error {
	db, cfg, err := openDB()
	if err != nil {
		return err
	}
	log := logger.L
	if err := database.Migrate(db); err != nil {
		return err
	}

	rc, err := cache.Connect(ctx, cfg.RedisAddr, cfg.RedisPassword)
	if err != nil {
		log.Warn("redis unavailable, catalog cache disabled", "addr", cfg.RedisAddr, "error", err)
	}
	defer rc.Close()

	disk, err := storage.Open(ctx, storage.Options{
		Driver:     cfg.StorageDriver,
		UploadDir:  cfg.UploadDir,
		BaseURL:    cfg.BaseURL,
		S3Bucket:   cfg.S3Bucket,
		S3Region:   cfg.S3Region,
		S3Key:      cfg.S3Key,
		S3Secret:   cfg.S3Secret,
		S3Endpoint: cfg.S3Endpoint,
		S3URL:      cfg.S3URL,
	})
	if err != nil {
		return err
	}

	hub := live.NewHub(originAllowed(cfg.CORSOrigins))
	go hub.Run(ctx)

	cat := catalog.NewReader(db, rc, catalogTTL)
	rep := reports.New(db)
	h := handlers.New(handlers.Deps{
		DB:                db,
		Tokens:            auth.NewTokens(cfg.JWTSecret, cfg.TokenTTL),
		Catalog:           cat,
		Carts:             cart.NewStore(),
		Orders:            checkout.New(checkout.NewGormStore(db)),
		Reports:           rep,
		Storage:           disk,
		Hub:               hub,
		Agent:             ai.NewAgent(cfg.GeminiAPIKey, ai.NewTools(rep, cat)),
		AllowRegistration: cfg.AllowRegistration,
	})
	if cfg.AllowRegistration {
		log.Warn("registration route is open; disable ALLOW_REGISTRATION in production")
	}

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()
	r.Use(gin.Recovery(), middleware.RequestID(), middleware.AccessLog(), metrics.Middleware())
	r.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.CORSOrigins,
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization", middleware.RequestIDHeader},
		ExposeHeaders:    []string{"Content-Length", middleware.RequestIDHeader},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))
	if cfg.StorageDriver == "" || cfg.StorageDriver == "local" {
		r.Static("/uploads", cfg.UploadDir)
	}
	h.Routes(r)

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() {
		log.Info("server starting", "addr", srv.Addr, "base_url", cfg.BaseURL, "db", cfg.DBDriver)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case <-ctx.Done():
	}

	log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

func originAllowed(origins []string) func(*http.Request) bool {
	allowed := make(map[string]bool, len(origins))
	for _, o := range origins {
		allowed[o] = true
	}
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		return origin == "" || allowed["*"] || allowed[origin]
	}
}
