package app

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"time"

	"github.com/RyanBlaney/sonovision/configs"
	"github.com/RyanBlaney/sonovision/pkg/audio/capture"
	"github.com/RyanBlaney/sonovision/pkg/audio/features"
	"github.com/RyanBlaney/sonovision/pkg/logging"
	"github.com/RyanBlaney/sonovision/pkg/output"
)

// AnalyzeApp captures audio and reports extracted features without touching
// the image pipeline
type AnalyzeApp struct {
	ctx    *Context
	config *configs.Config
	logger logging.Logger
}

// NewAnalyzeApp creates an analyze application from CLI context
func NewAnalyzeApp(ctx *Context) (*AnalyzeApp, error) {
	logger := setupLogging(ctx)
	ctx.Logger = logger

	config, err := loadAndMergeConfig(ctx)
	if err != nil {
		return nil, err
	}
	ctx.Config = config

	return &AnalyzeApp{ctx: ctx, config: config, logger: logger}, nil
}

// Run captures one analysis window and writes the feature report
func (a *AnalyzeApp) Run(ctx context.Context) error {
	source, err := buildSource(a.config, a.logger)
	if err != nil {
		return err
	}

	if err := source.Start(); err != nil {
		return fmt.Errorf("failed to start capture: %w", err)
	}
	defer source.Stop()

	extractor := features.NewExtractor(features.Config{
		WindowSize: a.config.Audio.WindowSize,
		Logger:     a.logger,
	})

	snap, err := captureSnapshot(ctx, source, extractor)
	if err != nil {
		return err
	}

	a.logger.Debug("Snapshot captured", logging.Fields{
		"volume": snap.Volume,
		"pitch":  snap.Pitch,
		"energy": snap.Energy,
	})

	report := output.NewFeatureReport(a.config.Audio.Source, snap)

	var buf bytes.Buffer
	format := output.Format(a.config.OutputFormat)
	if err := output.Write(&buf, format, report); err != nil {
		return fmt.Errorf("failed to render report: %w", err)
	}

	if a.ctx.OutputFile != "" {
		return writeToFile(a.ctx.OutputFile, buf.Bytes())
	}
	_, err = os.Stdout.Write(buf.Bytes())
	return err
}

// captureSnapshot polls the source until a full window is available, then
// runs feature extraction on it
func captureSnapshot(ctx context.Context, source capture.Source, extractor *features.Extractor) (features.AudioFeatures, error) {
	deadline := time.Now().Add(snapshotTimeout)
	ticker := time.NewTicker(50 * time.Millisecond)
	defer ticker.Stop()

	for {
		if win, spectrum, ok := source.Latest(); ok {
			return extractor.Analyze(win, spectrum)
		}
		if time.Now().After(deadline) {
			return features.AudioFeatures{}, fmt.Errorf("timed out waiting for audio")
		}
		select {
		case <-ctx.Done():
			return features.AudioFeatures{}, ctx.Err()
		case <-ticker.C:
		}
	}
}
