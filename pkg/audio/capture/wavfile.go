package capture

import (
	"math"
	"os"
	"sync"

	"github.com/go-audio/wav"

	"github.com/RyanBlaney/sonovision/pkg/logging"
)

// WAVFile replays a WAV file as a capture source. The whole file is decoded
// to mono on Start; each Latest call steps a read cursor by one hop and
// wraps at end of file, so the source never runs dry.
type WAVFile struct {
	path       string
	windowSize int
	hopSize    int
	logger     logging.Logger

	mu         sync.Mutex
	samples    []float64
	cursor     int
	sampleRate float64
}

// WAVFileConfig controls WAV playback analysis
type WAVFileConfig struct {
	Path       string
	WindowSize int
	// HopSize is the cursor advance per Latest call; defaults to half a
	// window (50% overlap).
	HopSize int
	Logger  logging.Logger
}

// NewWAVFile creates an unstarted WAV file source
func NewWAVFile(cfg WAVFileConfig) *WAVFile {
	if cfg.WindowSize <= 0 {
		cfg.WindowSize = 2048
	}
	if cfg.HopSize <= 0 {
		cfg.HopSize = cfg.WindowSize / 2
	}
	logger := cfg.Logger
	if logger == nil {
		logger = logging.NewDefaultLogger()
	}
	return &WAVFile{
		path:       cfg.Path,
		windowSize: cfg.WindowSize,
		hopSize:    cfg.HopSize,
		logger: logger.WithFields(logging.Fields{
			"component": "wav_source",
			"path":      cfg.Path,
		}),
	}
}

// Start decodes the file into memory. Decode failures map to
// InvalidAudioFile; a file shorter than one window is rejected.
func (w *WAVFile) Start() error {
	f, err := os.Open(w.path)
	if err != nil {
		return NewCaptureError(ErrCodeCaptureUnavailable, "failed to open WAV file", err)
	}
	defer f.Close()

	decoder := wav.NewDecoder(f)
	if !decoder.IsValidFile() {
		return NewCaptureError(ErrCodeInvalidAudioFile, "not a valid WAV file", nil)
	}

	buf, err := decoder.FullPCMBuffer()
	if err != nil {
		return NewCaptureError(ErrCodeInvalidAudioFile, "failed to decode WAV data", err)
	}

	channels := buf.Format.NumChannels
	if channels <= 0 {
		channels = 1
	}
	scale := math.Pow(2, float64(decoder.BitDepth-1))

	frames := len(buf.Data) / channels
	samples := make([]float64, frames)
	for i := 0; i < frames; i++ {
		sum := 0.0
		for c := 0; c < channels; c++ {
			sum += float64(buf.Data[i*channels+c])
		}
		samples[i] = sum / float64(channels) / scale
	}

	if len(samples) < w.windowSize {
		return NewCaptureError(ErrCodeInvalidAudioFile,
			"WAV file shorter than one analysis window", nil)
	}

	w.mu.Lock()
	w.samples = samples
	w.cursor = 0
	w.sampleRate = float64(buf.Format.SampleRate)
	w.mu.Unlock()

	w.logger.Info("WAV source loaded", logging.Fields{
		"frames":      frames,
		"sample_rate": w.sampleRate,
		"channels":    channels,
	})
	return nil
}

// Latest returns the window at the cursor and advances by one hop
func (w *WAVFile) Latest() ([]float64, []float64, bool) {
	w.mu.Lock()
	if len(w.samples) == 0 {
		w.mu.Unlock()
		return nil, nil, false
	}

	win := make([]float64, w.windowSize)
	for i := range win {
		win[i] = w.samples[(w.cursor+i)%len(w.samples)]
	}
	w.cursor = (w.cursor + w.hopSize) % len(w.samples)
	w.mu.Unlock()

	return win, analyzeWindow(win), true
}

// SampleRate returns the file sample rate (0 before Start)
func (w *WAVFile) SampleRate() float64 {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.sampleRate
}

// Stop releases the decoded samples
func (w *WAVFile) Stop() error {
	w.mu.Lock()
	w.samples = nil
	w.mu.Unlock()
	return nil
}
