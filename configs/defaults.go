package configs

import (
	"time"

	"github.com/spf13/viper"
)

// setDefaults sets default configuration values for all components
func setDefaults(v *viper.Viper) {
	// Audio capture defaults
	if !v.IsSet("audio.source") {
		v.Set("audio.source", "mic")
	}
	if !v.IsSet("audio.sample_rate") {
		v.Set("audio.sample_rate", 44100)
	}
	if !v.IsSet("audio.channels") {
		v.Set("audio.channels", 1)
	}
	if !v.IsSet("audio.window_size") {
		v.Set("audio.window_size", 2048)
	}
	if !v.IsSet("audio.tone_frequency") {
		v.Set("audio.tone_frequency", 440)
	}

	// Transform defaults
	if !v.IsSet("transform.preset") {
		v.Set("transform.preset", "continuous")
	}
	if !v.IsSet("transform.backend") {
		v.Set("transform.backend", "cpu")
	}
	if !v.IsSet("transform.mask_mode") {
		v.Set("transform.mask_mode", "radial")
	}
	if !v.IsSet("transform.cooldown") {
		v.Set("transform.cooldown", 8*time.Second)
	}
	if !v.IsSet("transform.noise_seed") {
		v.Set("transform.noise_seed", 0.42)
	}

	// Generation service defaults
	if !v.IsSet("generation.enabled") {
		v.Set("generation.enabled", false)
	}
	if !v.IsSet("generation.timeout") {
		v.Set("generation.timeout", 30*time.Second)
	}
	if !v.IsSet("generation.user_agent") {
		v.Set("generation.user_agent", "sonovision/1.0")
	}

	// Server defaults
	if !v.IsSet("server.addr") {
		v.Set("server.addr", ":8090")
	}
	if !v.IsSet("server.frame_rate") {
		v.Set("server.frame_rate", 30)
	}
}
