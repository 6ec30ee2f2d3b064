package transform

import (
	"errors"
	"testing"

	"github.com/RyanBlaney/sonovision/pkg/audio/features"
	"github.com/RyanBlaney/sonovision/pkg/raster"
)

func TestGenerateMaskFull(t *testing.T) {
	f := features.AudioFeatures{Volume: 0.2, Centroid: 0.7}
	m, err := GenerateMask(f, ModeFull, 64, 48, 0)
	if err != nil {
		t.Fatalf("GenerateMask: %v", err)
	}
	for i, w := range m.Weights {
		if w != 1.0 {
			t.Fatalf("full mask weight[%d] = %f, want 1.0", i, w)
		}
	}
}

func TestGenerateMaskCorners(t *testing.T) {
	f := features.AudioFeatures{Volume: 1.0}
	m, err := GenerateMask(f, ModeCorners, 512, 512, 0)
	if err != nil {
		t.Fatalf("GenerateMask: %v", err)
	}

	// side = round(512 * 1.0 * 0.3) = 154
	if got := m.At(0, 0); got != 1.0 {
		t.Errorf("corner (0,0) = %f, want 1.0", got)
	}
	if got := m.At(153, 153); got != 1.0 {
		t.Errorf("inside corner square (153,153) = %f, want 1.0", got)
	}
	if got := m.At(154, 0); got != 0.0 {
		t.Errorf("outside corner square (154,0) = %f, want 0.0", got)
	}
	if got := m.At(256, 256); got != 0.0 {
		t.Errorf("center (256,256) = %f, want 0.0", got)
	}
	for _, corner := range [][2]int{{511, 0}, {0, 511}, {511, 511}} {
		if got := m.At(corner[0], corner[1]); got != 1.0 {
			t.Errorf("corner (%d,%d) = %f, want 1.0", corner[0], corner[1], got)
		}
	}
}

func TestGenerateMaskCornersSilent(t *testing.T) {
	m, err := GenerateMask(features.AudioFeatures{Volume: 0}, ModeCorners, 64, 64, 0)
	if err != nil {
		t.Fatalf("GenerateMask: %v", err)
	}
	for i, w := range m.Weights {
		if w != 0 {
			t.Fatalf("silent corners mask weight[%d] = %f, want 0", i, w)
		}
	}
}

func TestGenerateMaskRadialFalloff(t *testing.T) {
	f := features.AudioFeatures{Volume: 0.5, Centroid: 0.5}
	m, err := GenerateMask(f, ModeRadial, 600, 600, 0)
	if err != nil {
		t.Fatalf("GenerateMask: %v", err)
	}

	// Centroid 0.5 keeps the disk centered; radius = 100 + 0.5*300 = 250.
	center := m.At(300, 300)
	if center < 0.99 {
		t.Errorf("radial center weight = %f, want ~1.0", center)
	}
	mid := m.At(300+125, 300)
	if mid < 0.45 || mid > 0.55 {
		t.Errorf("radial half-radius weight = %f, want ~0.5", mid)
	}
	if got := m.At(300+260, 300); got != 0 {
		t.Errorf("radial outside weight = %f, want 0", got)
	}

	// Weights decrease monotonically away from the center.
	prev := center
	for x := 301; x < 549; x++ {
		w := m.At(x, 300)
		if w > prev+1e-9 {
			t.Fatalf("radial weight increased at x=%d: %f > %f", x, w, prev)
		}
		prev = w
	}
}

func TestGenerateMaskComposedDeterministic(t *testing.T) {
	f := features.AudioFeatures{Volume: 0.7, Centroid: 0.4, Energy: 0.4, Pitch: 120}

	a, err := GenerateMask(f, ModeComposed, 128, 128, 7)
	if err != nil {
		t.Fatalf("GenerateMask: %v", err)
	}
	b, err := GenerateMask(f, ModeComposed, 128, 128, 7)
	if err != nil {
		t.Fatalf("GenerateMask: %v", err)
	}
	for i := range a.Weights {
		if a.Weights[i] != b.Weights[i] {
			t.Fatalf("composed mask not deterministic at %d", i)
		}
	}

	c, err := GenerateMask(f, ModeComposed, 128, 128, 8)
	if err != nil {
		t.Fatalf("GenerateMask: %v", err)
	}
	same := true
	for i := range a.Weights {
		if a.Weights[i] != c.Weights[i] {
			same = false
			break
		}
	}
	if same {
		t.Errorf("composed masks identical across different seeds")
	}
}

func TestGenerateMaskComposedBands(t *testing.T) {
	// Pitch 120 -> min(5, floor(120/30)) = 4 bands spanning the full width.
	f := features.AudioFeatures{Volume: 0.5, Pitch: 120}
	m, err := GenerateMask(f, ModeComposed, 200, 200, 1)
	if err != nil {
		t.Fatalf("GenerateMask: %v", err)
	}

	bands := 0
	for k := 1; k <= 4; k++ {
		row := k * 200 / 5
		if m.At(0, row) == 1.0 && m.At(199, row) == 1.0 {
			bands++
		}
	}
	if bands != 4 {
		t.Errorf("found %d full-width bands, want 4", bands)
	}

	// Low pitch produces no bands: edges away from disks stay zero.
	low, err := GenerateMask(features.AudioFeatures{Volume: 0.5, Pitch: 20}, ModeComposed, 200, 200, 1)
	if err != nil {
		t.Fatalf("GenerateMask: %v", err)
	}
	if low.At(0, 40) == 1.0 && low.At(199, 40) == 1.0 {
		t.Errorf("unexpected band at pitch 20")
	}
}

func TestGenerateMaskInvalidDimensions(t *testing.T) {
	cases := [][2]int{{0, 10}, {10, 0}, {-1, 10}, {10, -5}}
	for _, dims := range cases {
		_, err := GenerateMask(features.AudioFeatures{}, ModeFull, dims[0], dims[1], 0)
		if err == nil {
			t.Errorf("dims %v: expected error, got nil", dims)
			continue
		}
		var transformErr *TransformError
		if !errors.As(err, &transformErr) || transformErr.Code != ErrCodeInvalidDimensions {
			t.Errorf("dims %v: expected %s, got %v", dims, ErrCodeInvalidDimensions, err)
		}
	}
}

func TestGenerateMaskUnknownMode(t *testing.T) {
	_, err := GenerateMask(features.AudioFeatures{}, MaskMode("spiral"), 10, 10, 0)
	var transformErr *TransformError
	if !errors.As(err, &transformErr) || transformErr.Code != ErrCodeInvalidMaskMode {
		t.Errorf("expected %s, got %v", ErrCodeInvalidMaskMode, err)
	}
}

func TestCompositeBlendsByWeight(t *testing.T) {
	original, err := raster.New(4, 1, 3)
	if err != nil {
		t.Fatalf("raster.New: %v", err)
	}
	transformed := original.Clone()
	for i := range transformed.Pix {
		transformed.Pix[i] = 200
	}

	mask := &Mask{Width: 4, Height: 1, Weights: []float64{0, 0.5, 1, 0.25}}
	out, err := Composite(original, transformed, mask)
	if err != nil {
		t.Fatalf("Composite: %v", err)
	}

	want := []uint8{0, 100, 200, 50}
	for x, w := range want {
		if got := out.Pix[out.Offset(x, 0)]; got != w {
			t.Errorf("composite pixel %d = %d, want %d", x, got, w)
		}
	}
}

func TestCompositeRejectsMismatchedShapes(t *testing.T) {
	a, _ := raster.New(4, 4, 3)
	b, _ := raster.New(5, 4, 3)
	mask := &Mask{Width: 4, Height: 4, Weights: make([]float64, 16)}
	if _, err := Composite(a, b, mask); err == nil {
		t.Errorf("expected dimension mismatch error, got nil")
	}
}
