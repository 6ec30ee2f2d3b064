package transform

import (
	"math"

	"github.com/RyanBlaney/sonovision/pkg/audio/features"
)

// Preset selects a feature-to-parameter mapping profile
type Preset string

const (
	// PresetBurst is tuned for single-shot transforms: stronger gains, noise
	// gated on instantaneous volume.
	PresetBurst Preset = "burst"
	// PresetContinuous is tuned for streaming cadence: gentler gains, noise
	// gated on spectral energy so sustained content drives it.
	PresetContinuous Preset = "continuous"
)

// Parameters holds the bounded visual-transform parameters derived from one
// AudioFeatures snapshot. Always derived fresh per tick, never mutated.
type Parameters struct {
	// HueShiftDegrees rotates hue, in [0,360)
	HueShiftDegrees float64 `json:"hue_shift_degrees"`
	// SaturationGain multiplies saturation, always > 0
	SaturationGain float64 `json:"saturation_gain"`
	// BrightnessGain multiplies lightness, always > 0
	BrightnessGain float64 `json:"brightness_gain"`
	// NoiseAmplitude scales injected noise, in [0,1]
	NoiseAmplitude float64 `json:"noise_amplitude"`
	// Coverage is the mask coverage fraction, in [0.3,0.8]
	Coverage float64 `json:"coverage"`
}

// Preset tuning constants
const (
	burstSaturationScale      = 1.2
	continuousSaturationScale = 0.8
	burstBrightnessScale      = 0.6
	continuousBrightnessScale = 0.4
	burstNoiseVolumeGate      = 0.4
	continuousNoiseEnergyGate = 50.0
	noiseScale                = 0.1
)

// MapFeatures derives transform parameters from an audio snapshot. It is a
// pure total function: for any well-formed snapshot the result satisfies
// HueShiftDegrees in [0,360), SaturationGain > 0, BrightnessGain > 0 and
// NoiseAmplitude in [0,1].
func MapFeatures(f features.AudioFeatures, preset Preset) Parameters {
	p := Parameters{
		HueShiftDegrees: math.Mod(f.Centroid*360, 360),
		Coverage:        clamp(f.Volume*0.8, 0.3, 0.8),
	}

	switch preset {
	case PresetContinuous:
		p.SaturationGain = 1 + f.Volume*continuousSaturationScale
		p.BrightnessGain = 1 + (f.Volume-0.5)*continuousBrightnessScale
		if f.Energy > continuousNoiseEnergyGate {
			p.NoiseAmplitude = f.Volume * noiseScale
		}
	default:
		p.SaturationGain = 1 + f.Volume*burstSaturationScale
		p.BrightnessGain = 1 + (f.Volume-0.5)*burstBrightnessScale
		if f.Volume > burstNoiseVolumeGate {
			p.NoiseAmplitude = f.Volume * noiseScale
		}
	}

	return p
}

func clamp(v, minVal, maxVal float64) float64 {
	if v < minVal {
		return minVal
	}
	if v > maxVal {
		return maxVal
	}
	return v
}
