package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/File-Sharing-BondBridg/Image-Service/cmd/middleware"
	"github.com/File-Sharing-BondBridg/Image-Service/internal/api"
	"github.com/File-Sharing-BondBridg/Image-Service/internal/api/handlers/images"
	"github.com/File-Sharing-BondBridg/Image-Service/internal/configuration"
	"github.com/File-Sharing-BondBridg/Image-Service/internal/logging"
	"github.com/File-Sharing-BondBridg/Image-Service/internal/services"
	"github.com/File-Sharing-BondBridg/Image-Service/internal/storage"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"gopkg.in/DataDog/dd-trace-go.v1/ddtrace/tracer"
)

func main() {
	cfg := configuration.Load()
	log := logging.New(logging.Config{Level: cfg.Log.Level, Format: cfg.Log.Format})

	if err := run(cfg, log); err != nil {
		log.Fatal().Err(err).Msg("server exited")
	}
}

func run(cfg *configuration.Config, log zerolog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if cfg.Tracing.Enabled {
		tracer.Start(tracer.WithService(cfg.Tracing.ServiceName), tracer.WithEnv(cfg.Tracing.Environment))
		defer tracer.Stop()
	}

	store, closeStore, err := buildStore(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer closeStore()

	coord, cleanup, err := buildCoordinator(ctx, cfg, store, log)
	if err != nil {
		return err
	}
	defer cleanup()

	var auth gin.HandlerFunc
	if cfg.OIDC.IssuerURL != "" {
		verifier, err := middleware.NewOIDCVerifier(ctx, cfg.OIDC.IssuerURL, cfg.OIDC.ClientID)
		if err != nil {
			return fmt.Errorf("failed to initialize OIDC: %w", err)
		}
		auth = middleware.RequireAuth(verifier, logging.Component(log, "auth"))
		log.Info().Str("issuer", cfg.OIDC.IssuerURL).Msg("bearer auth enabled")
	}

	srv := &http.Server{
		Addr:              ":" + cfg.Server.Port,
		Handler:           newRouter(cfg, coord, auth, log),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("addr", srv.Addr).Bool("remote", coord.RemoteAvailable()).Msg("server starting")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Info().Msg("shutting down gracefully")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

func newRouter(cfg *configuration.Config, coord images.Images, auth gin.HandlerFunc, log zerolog.Logger) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())

	h := images.NewHandler(coord, images.Options{
		MaxUploadBytes: cfg.Server.MaxUploadBytes,
		HideLocalPaths: cfg.Server.HideLocalPaths,
	}, logging.Component(log, "http"))

	opts := api.Options{Auth: auth}
	if cfg.Tracing.Enabled {
		opts.TraceService = cfg.Tracing.ServiceName
	}
	api.RegisterRoutes(r, h, logging.Component(log, "http"), opts)
	return r
}

// buildStore picks the metadata store. The returned func releases it.
func buildStore(ctx context.Context, cfg *configuration.Config, log zerolog.Logger) (storage.MetadataStore, func(), error) {
	storeLog := logging.Component(log, "metadata")
	switch cfg.Storage.MetadataBackend {
	case "", "file":
		fs := storage.NewFileStore(cfg.Storage.DataDir, storeLog)
		storeLog.Info().Str("path", fs.Path()).Msg("using file metadata store")
		return fs, func() {}, nil
	case "postgres":
		if cfg.Postgres == "" {
			return nil, nil, errors.New("METADATA_BACKEND=postgres requires DATABASE_URL")
		}
		pg, err := storage.NewPostgresStore(ctx, cfg.Postgres, storeLog)
		if err != nil {
			return nil, nil, err
		}
		return pg, func() { _ = pg.Close() }, nil
	}
	return nil, nil, fmt.Errorf("unknown METADATA_BACKEND %q", cfg.Storage.MetadataBackend)
}

// buildCoordinator wires the backends and the optional scanner and event
// publisher. Optional collaborators that fail to connect are logged and
// left out.
func buildCoordinator(ctx context.Context, cfg *configuration.Config, store storage.MetadataStore, log zerolog.Logger) (*services.Coordinator, func(), error) {
	disk, err := services.NewDiskBackend(cfg.Storage.UploadsDir, logging.Component(log, "disk"))
	if err != nil {
		return nil, nil, err
	}

	remoteLog := logging.Component(log, "minio")
	remote := services.NewRemoteBackend(cfg.Remote, remoteLog)
	if rb, ok := remote.(*services.RemoteBackend); ok {
		checkCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		if err := rb.Client().CheckConnection(checkCtx); err != nil {
			remoteLog.Warn().Err(err).Msg("remote storage check failed; uploads will fall back to disk on error")
		}
		cancel()
	}

	var opts []services.Option
	cleanup := func() {}

	if cfg.ClamAV != "" {
		scanLog := logging.Component(log, "clamav")
		scanner := services.NewClamAVScanner(cfg.ClamAV, scanLog)
		if err := scanner.Ping(); err != nil {
			scanLog.Warn().Err(err).Msg("clamd not reachable; scans will be skipped until it is")
		}
		opts = append(opts, services.WithScanner(scanner))
	}

	if cfg.NATSURL != "" {
		natsLog := logging.Component(log, "nats")
		pub, err := services.ConnectNATS(cfg.NATSURL, natsLog)
		if err != nil {
			natsLog.Warn().Err(err).Msg("NATS unavailable; events disabled")
		} else {
			opts = append(opts, services.WithEvents(pub))
			cleanup = pub.Close
		}
	}

	coord := services.NewCoordinator(store, disk, remote, logging.Component(log, "coordinator"), opts...)
	return coord, cleanup, nil
}
