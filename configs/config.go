package configs

import (
	"fmt"
	"time"

	"github.com/spf13/viper"
)

// Config represents the application configuration
type Config struct {
	// Application settings
	Verbose      bool   `mapstructure:"verbose"`
	LogLevel     string `mapstructure:"log_level"`
	OutputFormat string `mapstructure:"output_format"`

	// Audio capture configuration
	Audio AudioConfig `mapstructure:"audio"`

	// Transform pipeline configuration
	Transform TransformConfig `mapstructure:"transform"`

	// External generation service configuration
	Generation GenerationConfig `mapstructure:"generation"`

	// Broadcast server configuration
	Server ServerConfig `mapstructure:"server"`
}

// AudioConfig contains audio capture and analysis settings
type AudioConfig struct {
	Source     string  `mapstructure:"source"` // mic, wav, synthetic
	Device     string  `mapstructure:"device"`
	WAVPath    string  `mapstructure:"wav_path"`
	SampleRate float64 `mapstructure:"sample_rate"`
	Channels   int     `mapstructure:"channels"`
	WindowSize int     `mapstructure:"window_size"`
	// ToneFrequency drives the synthetic source
	ToneFrequency float64 `mapstructure:"tone_frequency"`
}

// TransformConfig contains transform pipeline settings
type TransformConfig struct {
	Preset   string `mapstructure:"preset"`  // burst, continuous
	Backend  string `mapstructure:"backend"` // cpu, shader
	MaskMode string `mapstructure:"mask_mode"`
	MaskSeed int64  `mapstructure:"mask_seed"`
	// Cooldown is the minimum interval between transform cycles in live mode
	Cooldown  time.Duration `mapstructure:"cooldown"`
	NoiseSeed float64       `mapstructure:"noise_seed"`
}

// GenerationConfig contains external generation service settings
type GenerationConfig struct {
	Enabled   bool          `mapstructure:"enabled"`
	Endpoint  string        `mapstructure:"endpoint"`
	APIKey    string        `mapstructure:"api_key"`
	Timeout   time.Duration `mapstructure:"timeout"`
	UserAgent string        `mapstructure:"user_agent"`
}

// ServerConfig contains broadcast server settings
type ServerConfig struct {
	Addr      string  `mapstructure:"addr"`
	FrameRate float64 `mapstructure:"frame_rate"`
}

// LoadConfig loads configuration from viper
func LoadConfig() (*Config, error) {
	setDefaults(viper.GetViper())

	config := &Config{}
	if err := viper.Unmarshal(config); err != nil {
		return nil, fmt.Errorf("unable to decode configuration: %w", err)
	}

	return config, nil
}

// ValidateConfig validates the configuration
func ValidateConfig(config *Config) error {
	switch config.Audio.Source {
	case "mic", "wav", "synthetic":
	default:
		return fmt.Errorf("audio source must be one of mic, wav, synthetic")
	}

	if config.Audio.Source == "wav" && config.Audio.WAVPath == "" {
		return fmt.Errorf("audio.wav_path is required for the wav source")
	}

	if config.Audio.SampleRate <= 0 {
		return fmt.Errorf("audio sample rate must be positive")
	}

	if config.Audio.WindowSize <= 0 || config.Audio.WindowSize%2 != 0 {
		return fmt.Errorf("audio window size must be positive and even")
	}

	switch config.Transform.Preset {
	case "burst", "continuous":
	default:
		return fmt.Errorf("transform preset must be burst or continuous")
	}

	if config.Transform.Cooldown <= 0 {
		return fmt.Errorf("transform cooldown must be positive")
	}

	if config.Generation.Enabled && config.Generation.Endpoint == "" {
		return fmt.Errorf("generation.endpoint is required when generation is enabled")
	}

	if config.Server.FrameRate <= 0 {
		return fmt.Errorf("server frame rate must be positive")
	}

	return nil
}
