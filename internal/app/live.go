package app

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/RyanBlaney/sonovision/configs"
	"github.com/RyanBlaney/sonovision/internal/driver"
	"github.com/RyanBlaney/sonovision/internal/server"
	"github.com/RyanBlaney/sonovision/pkg/logging"
)

// LiveApp runs the realtime pipeline: capture feeds the driver, the driver
// emits frames, the server broadcasts features and frames to websocket
// clients.
type LiveApp struct {
	ctx    *Context
	config *configs.Config
	logger logging.Logger
}

// NewLiveApp creates a live application from CLI context
func NewLiveApp(ctx *Context) (*LiveApp, error) {
	logger := setupLogging(ctx)
	ctx.Logger = logger

	config, err := loadAndMergeConfig(ctx)
	if err != nil {
		return nil, err
	}
	ctx.Config = config

	if ctx.ImageFile == "" {
		return nil, fmt.Errorf("an input image is required for live mode")
	}

	logger.Debug("Live application initialized", logging.Fields{
		"source":    config.Audio.Source,
		"preset":    config.Transform.Preset,
		"mask_mode": config.Transform.MaskMode,
		"addr":      config.Server.Addr,
	})

	return &LiveApp{ctx: ctx, config: config, logger: logger}, nil
}

// Run executes the live pipeline until the context is cancelled or the
// configured duration elapses
func (a *LiveApp) Run(ctx context.Context) error {
	base, err := loadBaseImage(a.ctx.ImageFile)
	if err != nil {
		return err
	}

	if a.ctx.Duration > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, a.ctx.Duration)
		defer cancel()
	}

	srv := server.NewServer(&server.Config{
		Addr:   a.config.Server.Addr,
		Logger: a.logger,
	})

	drv, err := buildDriver(a.config, base, srv.BroadcastFrame, a.logger)
	if err != nil {
		return err
	}

	if err := drv.Start(); err != nil {
		return fmt.Errorf("failed to start capture: %w", err)
	}
	defer drv.Stop()
	drv.SetLive(true)

	a.logger.Info("Live mode running", logging.Fields{
		"cooldown": a.config.Transform.Cooldown.Seconds(),
		"image":    a.ctx.ImageFile,
	})

	interval := time.Duration(float64(time.Second) / a.config.Server.FrameRate)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return srv.Run(gctx)
	})
	g.Go(func() error {
		drv.Run(gctx, interval)
		return nil
	})
	g.Go(func() error {
		return a.broadcastFeatures(gctx, drv, srv, interval)
	})

	if err := g.Wait(); err != nil && ctx.Err() == nil {
		return err
	}
	return nil
}

// broadcastFeatures pushes the latest snapshot to websocket clients at the
// configured frame rate
func (a *LiveApp) broadcastFeatures(ctx context.Context, drv *driver.Driver, srv *server.Server, interval time.Duration) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			if snap, ok := drv.Snapshot(); ok {
				srv.BroadcastFeatures(snap, drv.State())
			}
		}
	}
}
