package capture

import (
	"errors"
	"math"
	"os"
	"path/filepath"
	"testing"

	goaudio "github.com/go-audio/audio"
	"github.com/go-audio/wav"

	"github.com/RyanBlaney/sonovision/pkg/logging"
)

func TestAnalyzeWindowPeakBin(t *testing.T) {
	const (
		windowSize = 1024
		sampleRate = 44100.0
		freq       = 440.0
	)

	win := make([]float64, windowSize)
	for i := range win {
		win[i] = math.Sin(2 * math.Pi * freq * float64(i) / sampleRate)
	}

	spectrum := analyzeWindow(win)
	if len(spectrum) != windowSize/2 {
		t.Fatalf("spectrum length = %d, want %d", len(spectrum), windowSize/2)
	}

	peak := 0
	for i := 1; i < len(spectrum); i++ {
		if spectrum[i] > spectrum[peak] {
			peak = i
		}
	}

	wantBin := freq * windowSize / sampleRate // ~10.2
	if math.Abs(float64(peak)-wantBin) > 1.5 {
		t.Errorf("peak bin = %d, want ~%.1f", peak, wantBin)
	}
}

func TestAnalyzeWindowSilenceHitsFloor(t *testing.T) {
	spectrum := analyzeWindow(make([]float64, 512))
	for i, db := range spectrum {
		if db != dbFloor {
			t.Fatalf("silent spectrum bin %d = %f, want %f", i, db, dbFloor)
		}
	}
}

func TestSyntheticSource(t *testing.T) {
	src := NewSynthetic(SyntheticConfig{
		WindowSize: 1024,
		SampleRate: 44100,
		Frequency:  440,
		Amplitude:  0.8,
	})

	if _, _, ok := src.Latest(); ok {
		t.Errorf("Latest before Start should report ok=false")
	}

	if err := src.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}
	defer src.Stop()

	win, spectrum, ok := src.Latest()
	if !ok {
		t.Fatalf("Latest after Start reported ok=false")
	}
	if len(win) != 1024 || len(spectrum) != 512 {
		t.Fatalf("window/spectrum lengths %d/%d, want 1024/512", len(win), len(spectrum))
	}

	for i, s := range win {
		if s < -0.8-1e-9 || s > 0.8+1e-9 {
			t.Fatalf("sample %d = %f outside amplitude bound", i, s)
		}
	}

	// Phase continuity: consecutive windows must not restart at zero phase.
	win2, _, _ := src.Latest()
	if win2[0] == win[0] && win2[1] == win[1] {
		t.Errorf("consecutive windows look phase-reset")
	}
}

func writeTestWAV(t *testing.T, path string, samples []float64, sampleRate int) {
	t.Helper()
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("create WAV: %v", err)
	}
	defer f.Close()

	enc := wav.NewEncoder(f, sampleRate, 16, 1, 1)
	data := make([]int, len(samples))
	for i, s := range samples {
		data[i] = int(s * 32767)
	}
	buf := &goaudio.IntBuffer{
		Format:         &goaudio.Format{NumChannels: 1, SampleRate: sampleRate},
		Data:           data,
		SourceBitDepth: 16,
	}
	if err := enc.Write(buf); err != nil {
		t.Fatalf("write WAV: %v", err)
	}
	if err := enc.Close(); err != nil {
		t.Fatalf("close WAV: %v", err)
	}
}

func TestWAVFileSource(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tone.wav")
	samples := make([]float64, 4096)
	for i := range samples {
		samples[i] = 0.5 * math.Sin(2*math.Pi*440*float64(i)/44100)
	}
	writeTestWAV(t, path, samples, 44100)

	src := NewWAVFile(WAVFileConfig{
		Path:       path,
		WindowSize: 1024,
		Logger:     logging.NewNopLogger(),
	})
	if err := src.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}
	defer src.Stop()

	if got := src.SampleRate(); got != 44100 {
		t.Errorf("sample rate = %f, want 44100", got)
	}

	win, spectrum, ok := src.Latest()
	if !ok {
		t.Fatalf("Latest reported ok=false")
	}
	if len(win) != 1024 || len(spectrum) != 512 {
		t.Fatalf("window/spectrum lengths %d/%d, want 1024/512", len(win), len(spectrum))
	}

	maxAbs := 0.0
	for _, s := range win {
		if a := math.Abs(s); a > maxAbs {
			maxAbs = a
		}
	}
	if maxAbs < 0.4 || maxAbs > 0.6 {
		t.Errorf("decoded peak amplitude = %f, want ~0.5", maxAbs)
	}

	// Cursor advances between calls.
	win2, _, _ := src.Latest()
	same := true
	for i := range win {
		if win[i] != win2[i] {
			same = false
			break
		}
	}
	if same {
		t.Errorf("cursor did not advance between Latest calls")
	}
}

func TestWAVFileSourceMissingFile(t *testing.T) {
	src := NewWAVFile(WAVFileConfig{
		Path:   filepath.Join(t.TempDir(), "nope.wav"),
		Logger: logging.NewNopLogger(),
	})
	err := src.Start()
	var capErr *CaptureError
	if !errors.As(err, &capErr) || capErr.Code != ErrCodeCaptureUnavailable {
		t.Errorf("expected %s, got %v", ErrCodeCaptureUnavailable, err)
	}
}

func TestWAVFileSourceRejectsGarbage(t *testing.T) {
	path := filepath.Join(t.TempDir(), "garbage.wav")
	if err := os.WriteFile(path, []byte("definitely not RIFF"), 0o644); err != nil {
		t.Fatalf("write garbage: %v", err)
	}

	src := NewWAVFile(WAVFileConfig{Path: path, Logger: logging.NewNopLogger()})
	err := src.Start()
	var capErr *CaptureError
	if !errors.As(err, &capErr) || capErr.Code != ErrCodeInvalidAudioFile {
		t.Errorf("expected %s, got %v", ErrCodeInvalidAudioFile, err)
	}
}
