package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/geopod-io/geopod/internal/api"
	"github.com/geopod-io/geopod/internal/assetgc"
	"github.com/geopod-io/geopod/internal/config"
	"github.com/geopod-io/geopod/internal/lifecycle"
	"github.com/geopod-io/geopod/internal/logger"
	"github.com/geopod-io/geopod/internal/model"
	"github.com/geopod-io/geopod/internal/observability"
	"github.com/geopod-io/geopod/internal/search"
	"github.com/geopod-io/geopod/internal/store"
	"github.com/geopod-io/geopod/internal/store/redisstore"
)

var Version = "dev"

func main() {
	os.Exit(run())
}

func run() int {
	cfg := config.FromEnv()

	zl := logger.Build(logger.Config{
		Level:     cfg.LogLevel,
		Console:   cfg.LogConsole,
		Component: "geopod",
	}, os.Stdout)
	appLog := logger.NewSlog(&zl)

	observability.ExposeBuildInfo(Version)
	appLog.Info("starting geopod",
		"version", Version,
		"redis", cfg.RedisAddr,
		"assets_dir", cfg.AssetsDir)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	st, err := redisstore.New(ctx, cfg.RedisAddr)
	if err != nil {
		appLog.Error("could not reach record store", "addr", cfg.RedisAddr, "err", err)
		return 1
	}
	defer st.Close()

	// persisted listener settings override the env defaults
	if err := overlaySettings(ctx, st.Settings(), &cfg.Server); err != nil {
		appLog.Warn("could not load persisted server settings", "err", err)
	}

	if err := os.MkdirAll(cfg.AssetsDir, 0o755); err != nil {
		appLog.Error("could not create assets directory", "dir", cfg.AssetsDir, "err", err)
		return 1
	}

	if err := seedCatalog(ctx, st, appLog); err != nil {
		appLog.Warn("could not seed sample catalog", "err", err)
	}

	gc := assetgc.New(cfg.AssetsDir, assetgc.Backoff{
		MaxAttempts:  cfg.CleanupMaxAttempts,
		RetryDelay:   cfg.CleanupRetryDelay,
		FailureDelay: cfg.CleanupFailureDelay,
	}, assetgc.SystemClock(), appLog.With("component", "assetgc"), cfg.CleanupQueue)
	gc.Start(2)
	defer gc.Stop()
	gc.ScheduleOrphanSweep()

	engine := search.New(st.Collections(), st.Items(), appLog.With("component", "search"))

	var ctrl *lifecycle.Controller
	handlerFactory := func() http.Handler {
		return api.NewRouter(api.Deps{
			Logger:  appLog.With("component", "api"),
			Store:   st,
			Engine:  engine,
			Cleanup: gc,
			Catalog: cfg.Catalog,
			APIPath: cfg.Server.APIPath,
			BaseURL: func() string { return ctrl.BaseURL(context.Background()) },
		})
	}
	ctrl = lifecycle.New(cfg.Server, st.Settings(), handlerFactory, appLog.With("component", "lifecycle"))
	defer ctrl.Shutdown()

	msg, err := ctrl.Start(ctx)
	if err != nil {
		appLog.Error("could not start listener", "err", err)
		return 1
	}
	appLog.Info(msg)

	// control plane: lifecycle admin always, metrics when enabled
	adminMux := http.NewServeMux()
	adminMux.Handle("/admin/", api.NewAdminRouter(ctrl, appLog.With("component", "admin")))
	if cfg.MetricsEnabled {
		adminMux.Handle(cfg.MetricsPath, promhttp.Handler())
	}
	side := &http.Server{
		Addr:              cfg.MetricsAddr,
		Handler:           adminMux,
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		appLog.Info("control plane listening", "addr", cfg.MetricsAddr)
		if err := side.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			appLog.Error("control plane terminated", "err", err)
		}
	}()

	<-ctx.Done()
	appLog.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_ = side.Shutdown(shutdownCtx)
	return 0
}

// overlaySettings applies listener settings persisted by earlier
// reconfigurations.
func overlaySettings(ctx context.Context, settings store.Settings, server *config.ServerConfig) error {
	if v, ok, err := settings.Get(ctx, store.SettingInternalAddress); err != nil {
		return err
	} else if ok {
		server.InternalAddress = v
	}
	if v, ok, err := settings.Get(ctx, store.SettingExternalAddress); err != nil {
		return err
	} else if ok {
		server.ExternalAddress = v
	}
	if v, ok, err := settings.Get(ctx, store.SettingPort); err != nil {
		return err
	} else if ok {
		if p, convErr := strconv.Atoi(v); convErr == nil {
			server.Port = p
		}
	}
	return nil
}

// seedCatalog creates a small demo collection on a completely empty
// catalog so a fresh install has something to browse.
func seedCatalog(ctx context.Context, st store.Store, log *slog.Logger) error {
	existing, err := st.Collections().GetAll(ctx)
	if err != nil {
		return err
	}
	if len(existing) > 0 {
		return nil
	}

	now := time.Now().UTC().Format(time.RFC3339)
	col := store.CollectionRecord{
		ID:          "sample-collection",
		Type:        "Collection",
		StacVersion: model.StacVersion,
		Title:       "Sample Collection",
		Description: "A sample collection created on first start.",
		License:     "CC-BY-4.0",
		Extent:      model.WorldExtent(),
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := st.Collections().Create(ctx, col); err != nil {
		return err
	}

	dt := "2024-01-01T00:00:00Z"
	item := store.ItemRecord{
		ID:           "sample-item",
		CollectionID: col.ID,
		Type:         "Feature",
		StacVersion:  model.StacVersion,
		Geometry: &model.Geometry{
			Type:        model.GeometryPoint,
			Coordinates: []byte(`[13.404954, 52.520008]`),
		},
		BBox:       []float64{13.404954, 52.520008, 13.404954, 52.520008},
		Properties: model.Properties{Datetime: &dt},
		Assets:     map[string]model.Asset{},
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if err := st.Items().Create(ctx, item); err != nil {
		return err
	}

	log.Info("seeded sample catalog", "collection", col.ID, "item", item.ID)
	return nil
}
