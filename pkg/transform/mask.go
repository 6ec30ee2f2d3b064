package transform

import (
	"fmt"
	"math"
	"math/rand"

	"github.com/RyanBlaney/sonovision/pkg/audio/features"
	"github.com/RyanBlaney/sonovision/pkg/raster"
)

// MaskMode selects a coverage mask layout
type MaskMode string

const (
	// ModeFull marks the entire image eligible for transformation
	ModeFull MaskMode = "full"
	// ModeCorners marks four volume-scaled corner squares
	ModeCorners MaskMode = "corners"
	// ModeRadial is a single soft disk steered by the spectral centroid
	ModeRadial MaskMode = "radial"
	// ModeComposed is the richer layout: a central disk plus energy-driven
	// satellites and pitch-driven horizontal bands
	ModeComposed MaskMode = "composed"
)

// Mask is a per-pixel weight raster in [0,1] controlling transform strength.
// Built once per tick, consumed by the compositing step, then discarded.
type Mask struct {
	Width   int
	Height  int
	Weights []float64
}

// At returns the weight at (x, y)
func (m *Mask) At(x, y int) float64 {
	return m.Weights[y*m.Width+x]
}

func (m *Mask) set(x, y int, w float64) {
	if x < 0 || x >= m.Width || y < 0 || y >= m.Height {
		return
	}
	if w > m.Weights[y*m.Width+x] {
		m.Weights[y*m.Width+x] = w
	}
}

// GenerateMask builds a coverage mask from an audio snapshot. The seed drives
// any stochastic placement (satellite disks), making the result fully
// deterministic given (features, mode, dimensions, seed).
func GenerateMask(f features.AudioFeatures, mode MaskMode, width, height int, seed int64) (*Mask, error) {
	if width <= 0 || height <= 0 {
		return nil, NewTransformError(ErrCodeInvalidDimensions,
			fmt.Sprintf("invalid mask dimensions %dx%d", width, height), nil)
	}

	m := &Mask{
		Width:   width,
		Height:  height,
		Weights: make([]float64, width*height),
	}

	switch mode {
	case ModeFull:
		for i := range m.Weights {
			m.Weights[i] = 1.0
		}
	case ModeCorners:
		generateCorners(m, f)
	case ModeRadial:
		generateRadial(m, f)
	case ModeComposed:
		generateComposed(m, f, seed)
	default:
		return nil, NewTransformError(ErrCodeInvalidMaskMode,
			fmt.Sprintf("unknown mask mode %q", mode), nil)
	}

	return m, nil
}

// generateCorners fills four axis-aligned corner squares with weight 1.0.
// The side length min(w,h)*volume*0.3 is rounded to the nearest integer.
func generateCorners(m *Mask, f features.AudioFeatures) {
	minDim := math.Min(float64(m.Width), float64(m.Height))
	side := int(math.Round(minDim * f.Volume * 0.3))
	if side <= 0 {
		return
	}

	for y := 0; y < side; y++ {
		for x := 0; x < side; x++ {
			m.set(x, y, 1.0)
			m.set(m.Width-1-x, y, 1.0)
			m.set(x, m.Height-1-y, 1.0)
			m.set(m.Width-1-x, m.Height-1-y, 1.0)
		}
	}
}

// generateRadial paints one soft disk with linear falloff. The center drifts
// horizontally with the centroid and the radius grows with volume.
func generateRadial(m *Mask, f features.AudioFeatures) {
	cx := float64(m.Width)/2 + (f.Centroid-0.5)*200
	cy := float64(m.Height) / 2
	radius := 100 + f.Volume*300
	paintDisk(m, cx, cy, radius)
}

// generateComposed builds the dense variant: a coverage-scaled central disk,
// energy-proportional satellites at evenly spaced angles with seeded random
// distance and radius, and thin horizontal bands once pitch exceeds 50.
func generateComposed(m *Mask, f features.AudioFeatures, seed int64) {
	rng := rand.New(rand.NewSource(seed))

	minDim := math.Min(float64(m.Width), float64(m.Height))
	coverage := clamp(f.Volume*0.8, 0.3, 0.8)
	cx := float64(m.Width) / 2
	cy := float64(m.Height) / 2

	paintDisk(m, cx, cy, minDim/2*coverage)

	satellites := int(math.Floor(f.Energy * 20))
	if satellites < 2 {
		satellites = 2
	}
	for k := 0; k < satellites; k++ {
		angle := 2 * math.Pi * float64(k) / float64(satellites)
		distance := minDim * (0.2 + rng.Float64()*0.25)
		radius := minDim * (0.04 + rng.Float64()*0.08)
		paintDisk(m, cx+math.Cos(angle)*distance, cy+math.Sin(angle)*distance, radius)
	}

	if f.Pitch > 50 {
		bands := int(math.Min(5, math.Floor(f.Pitch/30)))
		stripe := int(math.Max(1, math.Round(coverage*float64(m.Height)*0.04)))
		for k := 0; k < bands; k++ {
			row := (k + 1) * m.Height / (bands + 1)
			for y := row - stripe/2; y <= row+stripe/2; y++ {
				for x := 0; x < m.Width; x++ {
					m.set(x, y, 1.0)
				}
			}
		}
	}
}

// paintDisk writes weight 1.0 at the disk center decaying linearly to 0.0 at
// the radius boundary, keeping the max weight where disks overlap
func paintDisk(m *Mask, cx, cy, radius float64) {
	if radius <= 0 {
		return
	}

	x0 := int(math.Floor(cx - radius))
	x1 := int(math.Ceil(cx + radius))
	y0 := int(math.Floor(cy - radius))
	y1 := int(math.Ceil(cy + radius))

	for y := y0; y <= y1; y++ {
		for x := x0; x <= x1; x++ {
			dx := float64(x) - cx
			dy := float64(y) - cy
			dist := math.Sqrt(dx*dx + dy*dy)
			if dist < radius {
				m.set(x, y, 1-dist/radius)
			}
		}
	}
}

// Composite blends the transformed buffer over the original by mask weight.
// Buffers must share the same shape and match the mask dimensions.
func Composite(original, transformed *raster.Buffer, mask *Mask) (*raster.Buffer, error) {
	if err := original.Validate(); err != nil {
		return nil, err
	}
	if err := transformed.Validate(); err != nil {
		return nil, err
	}
	if original.Width != transformed.Width || original.Height != transformed.Height ||
		original.Channels != transformed.Channels ||
		original.Width != mask.Width || original.Height != mask.Height {
		return nil, NewTransformError(ErrCodeInvalidDimensions,
			"original, transformed and mask dimensions do not match", nil)
	}

	out := original.Clone()
	for y := 0; y < out.Height; y++ {
		for x := 0; x < out.Width; x++ {
			w := mask.At(x, y)
			if w <= 0 {
				continue
			}
			i := out.Offset(x, y)
			for c := 0; c < 3 && c < out.Channels; c++ {
				orig := float64(original.Pix[i+c])
				next := float64(transformed.Pix[i+c])
				out.Pix[i+c] = uint8(orig + (next-orig)*w + 0.5)
			}
		}
	}
	return out, nil
}
