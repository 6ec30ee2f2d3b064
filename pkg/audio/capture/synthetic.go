package capture

import (
	"math"
	"sync"
)

// Synthetic generates a pure sine tone, for tests and --no-audio runs. Fully
// deterministic: the same configuration always produces the same window
// sequence.
type Synthetic struct {
	windowSize int
	sampleRate float64
	frequency  float64
	amplitude  float64

	mu      sync.Mutex
	phase   float64
	started bool
}

// SyntheticConfig controls the generated tone
type SyntheticConfig struct {
	WindowSize int
	SampleRate float64
	Frequency  float64
	Amplitude  float64
}

// NewSynthetic creates a synthetic sine source
func NewSynthetic(cfg SyntheticConfig) *Synthetic {
	if cfg.WindowSize <= 0 {
		cfg.WindowSize = 2048
	}
	if cfg.SampleRate <= 0 {
		cfg.SampleRate = 44100
	}
	if cfg.Frequency <= 0 {
		cfg.Frequency = 440
	}
	if cfg.Amplitude <= 0 {
		cfg.Amplitude = 1.0
	}
	return &Synthetic{
		windowSize: cfg.WindowSize,
		sampleRate: cfg.SampleRate,
		frequency:  cfg.Frequency,
		amplitude:  cfg.Amplitude,
	}
}

// Start marks the source active
func (s *Synthetic) Start() error {
	s.mu.Lock()
	s.started = true
	s.phase = 0
	s.mu.Unlock()
	return nil
}

// Latest generates the next window, advancing the phase continuously across
// calls
func (s *Synthetic) Latest() ([]float64, []float64, bool) {
	s.mu.Lock()
	if !s.started {
		s.mu.Unlock()
		return nil, nil, false
	}

	step := 2 * math.Pi * s.frequency / s.sampleRate
	win := make([]float64, s.windowSize)
	for i := range win {
		win[i] = s.amplitude * math.Sin(s.phase)
		s.phase += step
	}
	s.phase = math.Mod(s.phase, 2*math.Pi)
	s.mu.Unlock()

	return win, analyzeWindow(win), true
}

// SampleRate returns the configured sample rate
func (s *Synthetic) SampleRate() float64 {
	return s.sampleRate
}

// Stop marks the source inactive
func (s *Synthetic) Stop() error {
	s.mu.Lock()
	s.started = false
	s.mu.Unlock()
	return nil
}
