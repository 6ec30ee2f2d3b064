package app

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"time"

	"github.com/RyanBlaney/sonovision/configs"
	"github.com/RyanBlaney/sonovision/internal/driver"
	"github.com/RyanBlaney/sonovision/pkg/logging"
)

// snapshotTimeout bounds how long a one-shot run waits for the capture
// source to fill its first analysis window
const snapshotTimeout = 10 * time.Second

// TransformApp runs a single transform cycle against the current audio
// snapshot and writes the resulting image
type TransformApp struct {
	ctx    *Context
	config *configs.Config
	logger logging.Logger
}

// NewTransformApp creates a one-shot transform application from CLI context
func NewTransformApp(ctx *Context) (*TransformApp, error) {
	logger := setupLogging(ctx)
	ctx.Logger = logger

	config, err := loadAndMergeConfig(ctx)
	if err != nil {
		return nil, err
	}
	ctx.Config = config

	if ctx.ImageFile == "" {
		return nil, fmt.Errorf("an input image is required")
	}
	if ctx.OutputFile == "" {
		return nil, fmt.Errorf("an output path is required")
	}

	return &TransformApp{ctx: ctx, config: config, logger: logger}, nil
}

// Run captures one snapshot, transforms the image once and writes the PNG
func (a *TransformApp) Run(ctx context.Context) error {
	base, err := loadBaseImage(a.ctx.ImageFile)
	if err != nil {
		return err
	}

	drv, err := buildDriver(a.config, base, nil, a.logger)
	if err != nil {
		return err
	}

	if err := drv.Start(); err != nil {
		return fmt.Errorf("failed to start capture: %w", err)
	}
	defer drv.Stop()

	if err := waitForSnapshot(ctx, drv); err != nil {
		return err
	}

	frame, err := drv.TransformOnce(ctx)
	if err != nil {
		return fmt.Errorf("transform failed: %w", err)
	}

	a.logger.Info("Transform complete", logging.Fields{
		"origin":   frame.Origin,
		"volume":   frame.Features.Volume,
		"centroid": frame.Features.Centroid,
		"width":    frame.Image.Width,
		"height":   frame.Image.Height,
	})

	var png bytes.Buffer
	if err := frame.Image.EncodePNG(&png); err != nil {
		return fmt.Errorf("failed to encode result: %w", err)
	}

	if a.ctx.OutputFile == "-" {
		_, err := os.Stdout.Write(png.Bytes())
		return err
	}
	return writeToFile(a.ctx.OutputFile, png.Bytes())
}

// waitForSnapshot ticks the driver until a feature snapshot exists
func waitForSnapshot(ctx context.Context, drv *driver.Driver) error {
	deadline := time.Now().Add(snapshotTimeout)
	ticker := time.NewTicker(50 * time.Millisecond)
	defer ticker.Stop()

	for {
		drv.Tick()
		if _, ok := drv.Snapshot(); ok {
			return nil
		}
		if time.Now().After(deadline) {
			return fmt.Errorf("timed out waiting for an audio snapshot")
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}
