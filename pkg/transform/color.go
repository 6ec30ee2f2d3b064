package transform

import (
	"math"
	"runtime"
	"sync"

	"github.com/RyanBlaney/sonovision/pkg/raster"
)

// Engine applies audio-derived parameters to an image buffer. Both backends
// implement the same per-pixel color pipeline and differ only in the noise
// hash, so results are deterministic within a backend but not across them.
type Engine interface {
	// Transform returns a new buffer of the same shape with the parameters
	// applied per pixel. The input buffer is never modified.
	Transform(img *raster.Buffer, p Parameters, seed float64) (*raster.Buffer, error)
}

// noiseFunc returns a deterministic pseudo-random value in [0,1) for a pixel
// coordinate and seed
type noiseFunc func(x, y int, seed float64) float64

type colorEngine struct {
	noise   noiseFunc
	workers int
}

// NewCPUEngine creates the default engine using an integer-mix coordinate hash
func NewCPUEngine() Engine {
	return &colorEngine{noise: hashNoise, workers: runtime.NumCPU()}
}

// NewShaderEngine creates the engine variant using the classic
// fract(sin(dot)) shader hash. Visually equivalent to the CPU backend, not
// bit-identical to it.
func NewShaderEngine() Engine {
	return &colorEngine{noise: shaderNoise, workers: runtime.NumCPU()}
}

// NewEngine creates an engine by backend name ("cpu" or "shader")
func NewEngine(backend string) Engine {
	if backend == "shader" {
		return NewShaderEngine()
	}
	return NewCPUEngine()
}

func (e *colorEngine) Transform(img *raster.Buffer, p Parameters, seed float64) (*raster.Buffer, error) {
	if err := img.Validate(); err != nil {
		return nil, err
	}

	out := img.Clone()

	// Rows are independent, so they parallelize safely: each worker writes
	// a disjoint row range and reads only the immutable parameter set.
	workers := e.workers
	if workers < 1 {
		workers = 1
	}
	if workers > img.Height {
		workers = img.Height
	}

	rowsPerWorker := (img.Height + workers - 1) / workers
	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		startRow := w * rowsPerWorker
		endRow := startRow + rowsPerWorker
		if endRow > img.Height {
			endRow = img.Height
		}
		if startRow >= endRow {
			break
		}

		wg.Add(1)
		go func(y0, y1 int) {
			defer wg.Done()
			e.transformRows(out, p, seed, y0, y1)
		}(startRow, endRow)
	}
	wg.Wait()

	return out, nil
}

func (e *colorEngine) transformRows(buf *raster.Buffer, p Parameters, seed float64, y0, y1 int) {
	hueShift := p.HueShiftDegrees / 360
	for y := y0; y < y1; y++ {
		for x := 0; x < buf.Width; x++ {
			i := buf.Offset(x, y)

			r := float64(buf.Pix[i+0]) / 255
			g := float64(buf.Pix[i+1]) / 255
			b := float64(buf.Pix[i+2]) / 255

			h, s, l := rgbToHSL(r, g, b)
			h = math.Mod(h+hueShift, 1)
			s = clamp(s*p.SaturationGain, 0, 1)
			l = clamp(l*p.BrightnessGain, 0, 1)
			r, g, b = hslToRGB(h, s, l)

			if p.NoiseAmplitude > 0 {
				n := (e.noise(x, y, seed) - 0.5) * p.NoiseAmplitude
				r = clamp(r+n, 0, 1)
				g = clamp(g+n, 0, 1)
				b = clamp(b+n, 0, 1)
			}

			buf.Pix[i+0] = quantize(r)
			buf.Pix[i+1] = quantize(g)
			buf.Pix[i+2] = quantize(b)
			// alpha (channel 3, when present) passes through untouched
		}
	}
}

func quantize(v float64) uint8 {
	return uint8(v*255 + 0.5)
}

// rgbToHSL converts normalized RGB to HSL with h in [0,1). The achromatic
// case (max == min) yields h=0, s=0.
func rgbToHSL(r, g, b float64) (h, s, l float64) {
	maxC := math.Max(r, math.Max(g, b))
	minC := math.Min(r, math.Min(g, b))
	l = (maxC + minC) / 2

	if maxC == minC {
		return 0, 0, l
	}

	d := maxC - minC
	if l > 0.5 {
		s = d / (2 - maxC - minC)
	} else {
		s = d / (maxC + minC)
	}

	switch maxC {
	case r:
		h = (g - b) / d
		if g < b {
			h += 6
		}
	case g:
		h = (b-r)/d + 2
	default:
		h = (r-g)/d + 4
	}
	h /= 6
	return h, s, l
}

// hslToRGB converts HSL back to normalized RGB via the standard piecewise
// hue-to-RGB function
func hslToRGB(h, s, l float64) (r, g, b float64) {
	if s == 0 {
		return l, l, l
	}

	var q float64
	if l < 0.5 {
		q = l * (1 + s)
	} else {
		q = l + s - l*s
	}
	p := 2*l - q

	r = hueToRGB(p, q, h+1.0/3.0)
	g = hueToRGB(p, q, h)
	b = hueToRGB(p, q, h-1.0/3.0)
	return r, g, b
}

func hueToRGB(p, q, t float64) float64 {
	if t < 0 {
		t++
	}
	if t > 1 {
		t--
	}
	switch {
	case t < 1.0/6.0:
		return p + (q-p)*6*t
	case t < 1.0/2.0:
		return q
	case t < 2.0/3.0:
		return p + (q-p)*(2.0/3.0-t)*6
	default:
		return p
	}
}
