// Package capture provides the audio capture collaborators feeding the
// feature pipeline. Every Source hands out synchronized pairs of a
// time-domain window and its dB-magnitude spectrum, both of a fixed length
// per source instance.
package capture

import (
	"math"

	"github.com/mjibson/go-dsp/fft"
	"gonum.org/v1/gonum/dsp/window"
)

// Source delivers fixed-size analysis windows at a steady cadence
type Source interface {
	// Start acquires the underlying device or file. Permission and device
	// failures surface as CaptureUnavailable.
	Start() error
	// Stop releases the underlying resource
	Stop() error
	// Latest returns the newest window with its matching spectrum. ok is
	// false until the source has produced its first full window.
	Latest() (timeDomain, spectrum []float64, ok bool)
	// SampleRate returns the source sample rate in Hz
	SampleRate() float64
}

// dbFloor is the magnitude floor in dB; without it a zero-amplitude bin
// would leak -Inf into downstream math.
const dbFloor = -100.0

// analyzeWindow computes the dB-magnitude spectrum for one time-domain
// window: Hann window, real FFT, amplitude-scaled magnitudes, floored dB.
// The result has len(win)/2 bins in ascending frequency order.
func analyzeWindow(win []float64) []float64 {
	n := len(win)

	windowed := window.Hann(append([]float64(nil), win...))
	result := fft.FFTReal(windowed)

	spectrum := make([]float64, n/2)
	for i := range spectrum {
		re := real(result[i])
		im := imag(result[i])
		amp := 2 * math.Sqrt(re*re+im*im) / float64(n)
		spectrum[i] = amplitudeToDB(amp)
	}
	return spectrum
}

func amplitudeToDB(amp float64) float64 {
	if amp <= 0 {
		return dbFloor
	}
	db := 20 * math.Log10(amp)
	if db < dbFloor {
		return dbFloor
	}
	return db
}
