package features

import (
	"math"

	"github.com/RyanBlaney/sonovision/pkg/logging"
)

// AudioFeatures is an immutable snapshot of perceptual features extracted
// from one analysis window. One snapshot is produced per tick and shared
// read-only with downstream consumers.
type AudioFeatures struct {
	// Volume is the RMS amplitude of the window, gain-scaled and clamped to [0,1]
	Volume float64 `json:"volume"`
	// FrequencyBins holds per-bin magnitudes in dB, ascending frequency order
	FrequencyBins []float64 `json:"frequency_bins"`
	// Waveform holds the time-domain samples in [-1,1]
	Waveform []float64 `json:"waveform"`
	// Pitch is the index of the dominant bin within the lowest quarter of the
	// spectrum. It is a coarse pitch-class proxy, not a fundamental-frequency
	// estimate, and should not be treated as one.
	Pitch float64 `json:"pitch"`
	// Centroid is the magnitude-weighted mean bin index normalized to [0,1]
	Centroid float64 `json:"centroid"`
	// Rolloff is the normalized bin index below which 90% of the linear
	// magnitude is concentrated, in [0,1]
	Rolloff float64 `json:"rolloff"`
	// Energy is the sum of linear magnitudes across all bins
	Energy float64 `json:"energy"`
}

// volumeGain amplifies raw RMS before clamping. Typical mic input RMS is far
// below 1.0 and would barely register visually without it.
const volumeGain = 10.0

const rolloffThreshold = 0.9

// Extractor computes AudioFeatures snapshots from synchronized time-domain
// and frequency-domain windows of a fixed configured length.
type Extractor struct {
	windowSize int
	logger     logging.Logger
}

// Config controls Extractor behavior
type Config struct {
	// WindowSize is the fixed length of every time-domain window. The
	// spectrum passed to Analyze must have WindowSize/2 bins.
	WindowSize int
	Logger     logging.Logger
}

// DefaultWindowSize matches the common analyser FFT size of 2048 samples
const DefaultWindowSize = 2048

// NewExtractor creates an Extractor for windows of the configured size
func NewExtractor(cfg Config) *Extractor {
	if cfg.WindowSize <= 0 {
		cfg.WindowSize = DefaultWindowSize
	}
	logger := cfg.Logger
	if logger == nil {
		logger = logging.NewDefaultLogger()
	}
	return &Extractor{
		windowSize: cfg.WindowSize,
		logger: logger.WithFields(logging.Fields{
			"component":   "feature_extractor",
			"window_size": cfg.WindowSize,
		}),
	}
}

// WindowSize returns the fixed window length this extractor accepts
func (e *Extractor) WindowSize() int {
	return e.windowSize
}

// BinCount returns the fixed spectrum length this extractor accepts
func (e *Extractor) BinCount() int {
	return e.windowSize / 2
}

// Analyze computes one AudioFeatures snapshot from a time-domain window and
// its corresponding dB-magnitude spectrum, both captured from the same
// instant. It is a pure function of its inputs: silence yields zero-valued
// features, never an error. Length violations fail with InvalidInputLength.
func (e *Extractor) Analyze(window, spectrum []float64) (AudioFeatures, error) {
	if len(window) != e.windowSize || len(spectrum) != e.windowSize/2 {
		return AudioFeatures{}, NewFeatureError(ErrCodeInvalidInputLength,
			"window/spectrum length does not match configured window size", nil)
	}

	snapshot := AudioFeatures{
		Volume:        rmsVolume(window),
		FrequencyBins: append([]float64(nil), spectrum...),
		Waveform:      append([]float64(nil), window...),
	}

	// Linear magnitudes drive all spectral statistics; the dB values are
	// kept only for the snapshot itself.
	linear := make([]float64, len(spectrum))
	total := 0.0
	weighted := 0.0
	for i, db := range spectrum {
		mag := math.Pow(10, db/20)
		linear[i] = mag
		total += mag
		weighted += mag * float64(i)
	}

	snapshot.Energy = total

	if total > 0 {
		snapshot.Centroid = weighted / total / float64(len(spectrum))

		target := rolloffThreshold * total
		cumulative := 0.0
		for i, mag := range linear {
			cumulative += mag
			if cumulative >= target {
				snapshot.Rolloff = float64(i) / float64(len(spectrum))
				break
			}
		}
	}

	snapshot.Pitch = float64(dominantLowBin(spectrum))

	return snapshot, nil
}

// rmsVolume computes gain-scaled RMS clamped to [0,1]
func rmsVolume(window []float64) float64 {
	sumSquares := 0.0
	for _, s := range window {
		sumSquares += s * s
	}
	rms := math.Sqrt(sumSquares / float64(len(window)))
	return math.Min(rms*volumeGain, 1.0)
}

// dominantLowBin returns the index of the loudest bin in the lower quartile
// of the spectrum. Bin 0 is excluded to avoid DC bias.
func dominantLowBin(spectrum []float64) int {
	upper := len(spectrum) / 4
	if upper >= len(spectrum) {
		upper = len(spectrum) - 1
	}
	if upper < 1 {
		return 0
	}

	maxIdx := 1
	maxVal := spectrum[1]
	for i := 2; i <= upper; i++ {
		if spectrum[i] > maxVal {
			maxVal = spectrum[i]
			maxIdx = i
		}
	}
	return maxIdx
}
