// Package server assembles the application's dependencies and runs the
// HTTP server lifecycle.
package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/launchwire/launchwire/internal/assets"
	"github.com/launchwire/launchwire/internal/clock/system"
	"github.com/launchwire/launchwire/internal/cms/client"
	"github.com/launchwire/launchwire/internal/config"
	"github.com/launchwire/launchwire/internal/logging"
	"github.com/launchwire/launchwire/internal/metrics"
	"github.com/launchwire/launchwire/internal/ratelimit"
	"github.com/launchwire/launchwire/internal/render"
	"github.com/launchwire/launchwire/internal/sections"
	"github.com/launchwire/launchwire/internal/seo"
	"github.com/launchwire/launchwire/internal/sitemap"
	"github.com/launchwire/launchwire/internal/web"
)

// App holds the assembled application.
type App struct {
	cfg    config.Config
	logger *zap.Logger
	site   *web.Server
}

// Build constructs the logger, CMS client, render pipeline, and site
// server from configuration.
func Build(cfg config.Config) (*App, error) {
	logger, err := logging.New(cfg.Logging.Development)
	if err != nil {
		return nil, fmt.Errorf("logger init failed: %w", err)
	}
	zap.ReplaceGlobals(logger)

	metrics.Init()

	var limiter *ratelimit.Limiter
	if cfg.RateLimit.Enabled {
		limiter = ratelimit.New(ratelimit.Config{
			DefaultRPS:   cfg.RateLimit.DefaultRPS,
			DefaultBurst: cfg.RateLimit.DefaultBurst,
		})
		logger.Info("upstream rate limiter enabled",
			zap.Float64("default_rps", cfg.RateLimit.DefaultRPS),
			zap.Int("default_burst", cfg.RateLimit.DefaultBurst),
		)
	}

	cmsClient := client.New(client.Config{
		BaseURL:    cfg.CMS.BaseURL,
		Timeout:    cfg.UpstreamTimeout(),
		Revalidate: cfg.RevalidateWindow(),
		Limiter:    limiter,
		Logger:     logger.Named("cms"),
	})

	images := assets.Resolver{
		BackendOrigin: cfg.BackendOrigin(),
		DevOrigin:     cfg.Site.DevOrigin,
	}

	renderer, err := render.New(images, logger.Named("render"))
	if err != nil {
		return nil, fmt.Errorf("renderer init failed: %w", err)
	}

	seoBuilder := seo.Builder{
		SiteName:           cfg.Site.Name,
		SiteBase:           cfg.Site.BaseURL,
		DefaultDescription: cfg.Site.Description,
		Images:             images,
	}

	site := web.NewServer(
		cmsClient,
		sections.New(images, logger.Named("sections")),
		renderer,
		seoBuilder,
		sitemap.Generator{SiteBase: cfg.Site.BaseURL, Clock: system.New()},
		cfg,
		logger.Named("web"),
	)

	logger.Info("application built",
		zap.Int("port", cfg.Server.Port),
		zap.String("cms_base_url", cfg.CMS.BaseURL),
		zap.String("site_base_url", cfg.Site.BaseURL),
	)

	return &App{cfg: cfg, logger: logger, site: site}, nil
}

// Run starts the HTTP server and blocks until the context is canceled or
// a termination signal arrives, then shuts down gracefully.
func (a *App) Run(ctx context.Context) error {
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", a.cfg.Server.Port),
		Handler:           a.site.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		a.logger.Info("http server started", zap.Int("port", a.cfg.Server.Port))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			a.logger.Error("http server error", zap.Error(err))
			stop()
		}
	}()

	<-ctx.Done()
	a.logger.Info("shutdown initiated")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		a.logger.Error("server shutdown error", zap.Error(err))
	}
	if err := a.logger.Sync(); err != nil {
		a.logger.Debug("logger sync failed", zap.Error(err))
	}
	a.logger.Info("shutdown complete")
	return nil
}
