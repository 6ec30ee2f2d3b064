package capture

import (
	"sync"

	"github.com/gordonklaus/portaudio"

	"github.com/RyanBlaney/sonovision/pkg/logging"
)

// Microphone captures live input through PortAudio. The stream callback
// fills a ring buffer; Latest copies out the newest window and runs the
// spectrum analysis outside the audio callback.
type Microphone struct {
	windowSize int
	channels   int
	logger     logging.Logger

	stream     *portaudio.Stream
	device     *portaudio.DeviceInfo
	sampleRate float64

	mu     sync.RWMutex
	ring   []float64
	index  int
	filled bool
}

// MicrophoneConfig controls how the input stream is opened
type MicrophoneConfig struct {
	// WindowSize is the analysis window length; the ring buffer holds
	// exactly one window.
	WindowSize int
	Channels   int
	Logger     logging.Logger
}

// NewMicrophone creates an unstarted microphone source
func NewMicrophone(cfg MicrophoneConfig) *Microphone {
	if cfg.WindowSize <= 0 {
		cfg.WindowSize = 2048
	}
	if cfg.Channels <= 0 {
		cfg.Channels = 1
	}
	logger := cfg.Logger
	if logger == nil {
		logger = logging.NewDefaultLogger()
	}
	return &Microphone{
		windowSize: cfg.WindowSize,
		channels:   cfg.Channels,
		ring:       make([]float64, cfg.WindowSize),
		logger: logger.WithFields(logging.Fields{
			"component": "microphone_source",
		}),
	}
}

// Start initializes PortAudio and opens the default input device. Any
// failure (missing device, denied permission) maps to CaptureUnavailable.
func (m *Microphone) Start() error {
	if err := portaudio.Initialize(); err != nil {
		return NewCaptureError(ErrCodeCaptureUnavailable, "portaudio initialization failed", err)
	}

	device, err := portaudio.DefaultInputDevice()
	if err != nil {
		portaudio.Terminate()
		return NewCaptureError(ErrCodeCaptureUnavailable, "no default input device", err)
	}
	m.device = device
	m.sampleRate = device.DefaultSampleRate

	stream, err := portaudio.OpenStream(portaudio.StreamParameters{
		Input: portaudio.StreamDeviceParameters{
			Device:   device,
			Channels: m.channels,
			Latency:  device.DefaultLowInputLatency,
		},
		SampleRate:      m.sampleRate,
		FramesPerBuffer: m.windowSize / 4,
	}, m.process)
	if err != nil {
		portaudio.Terminate()
		return NewCaptureError(ErrCodeCaptureUnavailable, "failed to open input stream", err)
	}
	m.stream = stream

	if err := stream.Start(); err != nil {
		_ = stream.Close()
		portaudio.Terminate()
		return NewCaptureError(ErrCodeCaptureUnavailable, "failed to start input stream", err)
	}

	m.logger.Info("Microphone capture started", logging.Fields{
		"device":      device.Name,
		"sample_rate": m.sampleRate,
		"window_size": m.windowSize,
	})
	return nil
}

// process runs on the PortAudio callback thread: mix to mono, append to the
// ring. No allocation, no locking beyond the ring mutex.
func (m *Microphone) process(in []float32) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for i := 0; i < len(in); i += m.channels {
		sum := 0.0
		for c := 0; c < m.channels && i+c < len(in); c++ {
			sum += float64(in[i+c])
		}
		m.ring[m.index] = sum / float64(m.channels)
		m.index++
		if m.index == len(m.ring) {
			m.index = 0
			m.filled = true
		}
	}
}

// Latest copies the newest full window out of the ring and computes its
// spectrum. Returns ok=false until the ring has filled once.
func (m *Microphone) Latest() ([]float64, []float64, bool) {
	m.mu.RLock()
	if !m.filled {
		m.mu.RUnlock()
		return nil, nil, false
	}
	win := make([]float64, len(m.ring))
	n := copy(win, m.ring[m.index:])
	copy(win[n:], m.ring[:m.index])
	m.mu.RUnlock()

	return win, analyzeWindow(win), true
}

// SampleRate returns the device sample rate (0 before Start)
func (m *Microphone) SampleRate() float64 {
	return m.sampleRate
}

// Stop stops and closes the stream and terminates PortAudio
func (m *Microphone) Stop() error {
	if m.stream == nil {
		return nil
	}
	if err := m.stream.Stop(); err != nil {
		m.logger.Warn("Failed to stop input stream", logging.Fields{"error": err.Error()})
	}
	err := m.stream.Close()
	m.stream = nil
	portaudio.Terminate()
	return err
}
