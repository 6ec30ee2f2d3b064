// Package app wires configuration, capture, the transform pipeline and the
// streaming server into runnable application lifecycles for each subcommand.
package app

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/RyanBlaney/sonovision/configs"
	"github.com/RyanBlaney/sonovision/internal/driver"
	"github.com/RyanBlaney/sonovision/pkg/audio/capture"
	"github.com/RyanBlaney/sonovision/pkg/audio/features"
	"github.com/RyanBlaney/sonovision/pkg/generation"
	"github.com/RyanBlaney/sonovision/pkg/logging"
	"github.com/RyanBlaney/sonovision/pkg/raster"
	"github.com/RyanBlaney/sonovision/pkg/transform"
)

// Context holds the application context and configuration
type Context struct {
	// CLI arguments
	ConfigFile   string
	ImageFile    string
	OutputFile   string
	OutputFormat string
	Source       string
	WAVFile      string
	Preset       string
	Backend      string
	MaskMode     string
	Duration     time.Duration
	Verbose      bool
	Quiet        bool

	// Runtime context
	Logger logging.Logger
	Config *configs.Config
}

// setupLogging configures logging based on context
func setupLogging(ctx *Context) logging.Logger {
	level := "info"
	if ctx.Verbose {
		level = "debug"
	} else if ctx.Quiet {
		level = "error"
	}
	return logging.NewLogger(level)
}

// loadAndMergeConfig loads configuration and overrides it with CLI flags
func loadAndMergeConfig(ctx *Context) (*configs.Config, error) {
	config, err := configs.LoadConfig()
	if err != nil {
		return nil, fmt.Errorf("failed to load base configuration: %w", err)
	}

	if ctx.Source != "" {
		config.Audio.Source = ctx.Source
	}
	if ctx.WAVFile != "" {
		config.Audio.Source = "wav"
		config.Audio.WAVPath = ctx.WAVFile
	}
	if ctx.Preset != "" {
		config.Transform.Preset = ctx.Preset
	}
	if ctx.Backend != "" {
		config.Transform.Backend = ctx.Backend
	}
	if ctx.MaskMode != "" {
		config.Transform.MaskMode = ctx.MaskMode
	}
	if ctx.OutputFormat != "" {
		config.OutputFormat = ctx.OutputFormat
	}
	config.Verbose = ctx.Verbose

	if err := configs.ValidateConfig(config); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return config, nil
}

// buildSource constructs the capture source selected by configuration
func buildSource(config *configs.Config, logger logging.Logger) (capture.Source, error) {
	switch config.Audio.Source {
	case "mic":
		return capture.NewMicrophone(capture.MicrophoneConfig{
			WindowSize: config.Audio.WindowSize,
			Channels:   config.Audio.Channels,
			Logger:     logger,
		}), nil
	case "wav":
		return capture.NewWAVFile(capture.WAVFileConfig{
			Path:       config.Audio.WAVPath,
			WindowSize: config.Audio.WindowSize,
			Logger:     logger,
		}), nil
	case "synthetic":
		return capture.NewSynthetic(capture.SyntheticConfig{
			WindowSize: config.Audio.WindowSize,
			SampleRate: float64(config.Audio.SampleRate),
			Frequency:  config.Audio.ToneFrequency,
		}), nil
	default:
		return nil, fmt.Errorf("unknown audio source: %s", config.Audio.Source)
	}
}

// buildDriver assembles the realtime driver from configuration
func buildDriver(config *configs.Config, base *raster.Buffer, onFrame func(driver.Frame), logger logging.Logger) (*driver.Driver, error) {
	source, err := buildSource(config, logger)
	if err != nil {
		return nil, err
	}

	engine := transform.NewEngine(config.Transform.Backend)

	var generator driver.Generator
	if config.Generation.Enabled {
		generator = generation.NewClient(&generation.Config{
			Endpoint:  config.Generation.Endpoint,
			APIKey:    config.Generation.APIKey,
			Timeout:   config.Generation.Timeout,
			UserAgent: config.Generation.UserAgent,
			Logger:    logger,
		})
	}

	return driver.New(&driver.Config{
		Source:    source,
		Extractor: features.NewExtractor(features.Config{WindowSize: config.Audio.WindowSize, Logger: logger}),
		Engine:    engine,
		Generator: generator,
		BaseImage: base,
		Preset:    transform.Preset(config.Transform.Preset),
		MaskMode:  transform.MaskMode(config.Transform.MaskMode),
		MaskSeed:  config.Transform.MaskSeed,
		NoiseSeed: config.Transform.NoiseSeed,
		Cooldown:  config.Transform.Cooldown,
		OnFrame:   onFrame,
		Logger:    logger,
	}), nil
}

// loadBaseImage reads the PNG the transform pipeline operates on
func loadBaseImage(path string) (*raster.Buffer, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open image file: %w", err)
	}
	defer f.Close()
	return raster.DecodePNG(f)
}

// writeToFile writes data to the given path, creating parent directories
func writeToFile(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write output file: %w", err)
	}
	return nil
}
