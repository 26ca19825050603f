package main

import (
	"context"
	stdlog "log"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	awss3 "github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/jmoiron/sqlx"
	"github.com/joho/godotenv"

	"github.com/kgellert/cloudclip/internal/auth"
	authHandler "github.com/kgellert/cloudclip/internal/auth/handler"
	s3store "github.com/kgellert/cloudclip/internal/blobstore/s3"
	appConfig "github.com/kgellert/cloudclip/internal/config"
	filesHandler "github.com/kgellert/cloudclip/internal/files/handler"
	filesrepo "github.com/kgellert/cloudclip/internal/files/repo"
	mwLogger "github.com/kgellert/cloudclip/internal/http-server/middleware/logger"
	"github.com/kgellert/cloudclip/internal/lib/logger/handlers/slogpretty"
	"github.com/kgellert/cloudclip/internal/lib/logger/sl"
	messagesHandler "github.com/kgellert/cloudclip/internal/messages/handler"
	messagesrepo "github.com/kgellert/cloudclip/internal/messages/repo"
	"github.com/kgellert/cloudclip/internal/messages/service"
	"github.com/kgellert/cloudclip/internal/metrics"
	"github.com/kgellert/cloudclip/internal/storage/postgres"
	"github.com/kgellert/cloudclip/internal/storage/sqlite"
)

const (
	envLocal = "local"
	envDev   = "dev"
)

func main() {
	if err := godotenv.Load(); err != nil {
		stdlog.Println("No .env file found, skipping...")
	}

	cfg := appConfig.MustLoad()

	log := setupLogger(cfg.Env)
	log.Info("starting cloudclip", slog.String("env", cfg.Env))

	ctx := context.Background()

	db, err := openStorage(ctx, cfg.DatabaseDSN)
	if err != nil {
		log.Error("failed to init storage", sl.Err(err))
		os.Exit(1)
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx,
		awsconfig.WithRegion(cfg.S3.Region),
		awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.S3.AccessKey, cfg.S3.SecretKey, ""),
		),
	)
	if err != nil {
		log.Error("failed to load aws config", sl.Err(err))
		os.Exit(1)
	}

	s3Client := awss3.NewFromConfig(awsCfg, func(o *awss3.Options) {
		if cfg.S3.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.S3.Endpoint)
		}
		o.UsePathStyle = true
	})

	blobs := s3store.New(cfg.S3.Bucket, s3Client)

	svc := service.New(
		messagesrepo.New(db),
		filesrepo.New(db),
		blobs,
		cfg.Uploads.MaxFileSize,
		log,
	)

	tokens := auth.NewTokenService(
		cfg.Auth.AccessPassword,
		cfg.Auth.TokenSecret,
		cfg.Auth.SessionTTL,
	)

	ah := authHandler.New(tokens, log)
	mh := messagesHandler.New(svc, log)
	fh := filesHandler.New(svc, log)

	metrics.Init()

	router := chi.NewRouter()
	router.Use(middleware.RequestID)
	router.Use(mwLogger.New(log))
	router.Use(middleware.Recoverer)
	router.Use(middleware.URLFormat)

	router.Handle("/metrics", metrics.Handler())

	router.Route("/api/auth", func(r chi.Router) {
		r.Post("/login", ah.Login())
		r.Get("/verify", ah.Verify())
		r.Post("/logout", ah.Logout())
	})

	router.Group(func(r chi.Router) {
		r.Use(auth.Gate(tokens))

		r.Get("/api/messages", mh.List())
		r.Post("/api/messages", mh.Send())
		r.Delete("/api/messages", mh.ClearAll())
		r.Delete("/api/messages/{id}", mh.Delete())

		r.Get("/api/files", fh.List())
		r.Post("/api/files/upload", fh.Upload())
		r.Get("/api/files/download/{key}", fh.Download())
		r.Get("/api/files/preview/{key}", fh.Preview())
		r.Delete("/api/files/{key}", fh.Delete())

		r.Handle("/*", spaHandler(cfg.StaticDir))
	})

	log.Info("starting server", slog.String("address", cfg.HTTPServer.Address))

	srv := &http.Server{
		Addr:         cfg.HTTPServer.Address,
		Handler:      router,
		ReadTimeout:  cfg.HTTPServer.Timeout,
		WriteTimeout: cfg.HTTPServer.Timeout,
		IdleTimeout:  cfg.HTTPServer.IdleTimeout,
	}

	if err := srv.ListenAndServe(); err != nil {
		log.Error("failed to start server", sl.Err(err))
	}

	log.Error("server stopped")
}

func openStorage(ctx context.Context, dsn string) (*sqlx.DB, error) {
	if strings.HasPrefix(dsn, "postgres://") || strings.HasPrefix(dsn, "postgresql://") {
		return postgres.New(ctx, dsn)
	}
	return sqlite.New(dsn)
}

// spaHandler serves the static frontend. Paths without a matching file
// fall back to index.html so client-side routing works after reloads.
func spaHandler(staticDir string) http.HandlerFunc {
	fs := http.FileServer(http.Dir(staticDir))

	return func(w http.ResponseWriter, r *http.Request) {
		if strings.HasPrefix(r.URL.Path, "/api/") {
			http.NotFound(w, r)
			return
		}

		path := filepath.Join(staticDir, filepath.Clean("/"+r.URL.Path))
		if info, err := os.Stat(path); err == nil && !info.IsDir() {
			fs.ServeHTTP(w, r)
			return
		}

		http.ServeFile(w, r, filepath.Join(staticDir, "index.html"))
	}
}

func setupPrettySlog() *slog.Logger {
	opts := slogpretty.PrettyHandlerOptions{
		SlogOpts: &slog.HandlerOptions{
			Level: slog.LevelDebug,
		},
	}

	handler := opts.NewPrettyHandler(os.Stdout)

	return slog.New(handler)
}

func setupLogger(env string) *slog.Logger {
	switch env {
	case envLocal:
		return setupPrettySlog()
	case envDev:
		return slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}))
	default:
		return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	}
}
