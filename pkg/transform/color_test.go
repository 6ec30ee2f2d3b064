package transform

import (
	"bytes"
	"math"
	"testing"

	"github.com/RyanBlaney/sonovision/pkg/raster"
)

func testImage(t *testing.T, width, height, channels int) *raster.Buffer {
	t.Helper()
	buf, err := raster.New(width, height, channels)
	if err != nil {
		t.Fatalf("raster.New: %v", err)
	}
	// Deterministic gradient fill so every test sees varied pixel values.
	for i := range buf.Pix {
		buf.Pix[i] = uint8((i*37 + 11) % 256)
	}
	return buf
}

func TestTransformIdentityRoundTrip(t *testing.T) {
	identity := Parameters{SaturationGain: 1, BrightnessGain: 1}
	engine := NewCPUEngine()

	img := testImage(t, 16, 16, 4)
	// Include the exact triples the HSL round trip is most likely to break on.
	copy(img.Pix, []uint8{
		0, 0, 0, 255,
		255, 255, 255, 255,
		255, 0, 0, 255,
	})

	out, err := engine.Transform(img, identity, 0.42)
	if err != nil {
		t.Fatalf("Transform: %v", err)
	}

	for i := range img.Pix {
		diff := int(out.Pix[i]) - int(img.Pix[i])
		if diff < -1 || diff > 1 {
			t.Fatalf("identity round trip at byte %d: got %d, want %d (±1)",
				i, out.Pix[i], img.Pix[i])
		}
	}
}

func TestTransformDeterministic(t *testing.T) {
	params := Parameters{
		HueShiftDegrees: 137,
		SaturationGain:  1.3,
		BrightnessGain:  0.9,
		NoiseAmplitude:  0.1,
	}

	for _, backend := range []string{"cpu", "shader"} {
		engine := NewEngine(backend)
		img := testImage(t, 32, 24, 4)

		first, err := engine.Transform(img, params, 0.42)
		if err != nil {
			t.Fatalf("%s: Transform: %v", backend, err)
		}
		second, err := engine.Transform(img, params, 0.42)
		if err != nil {
			t.Fatalf("%s: Transform: %v", backend, err)
		}
		if !bytes.Equal(first.Pix, second.Pix) {
			t.Errorf("%s backend: repeated transform with same seed differs", backend)
		}
	}
}

func TestTransformSeedChangesNoise(t *testing.T) {
	params := Parameters{SaturationGain: 1, BrightnessGain: 1, NoiseAmplitude: 0.5}
	engine := NewCPUEngine()
	img := testImage(t, 32, 24, 3)

	a, err := engine.Transform(img, params, 0.42)
	if err != nil {
		t.Fatalf("Transform: %v", err)
	}
	b, err := engine.Transform(img, params, 0.43)
	if err != nil {
		t.Fatalf("Transform: %v", err)
	}
	if bytes.Equal(a.Pix, b.Pix) {
		t.Errorf("different seeds produced identical noise")
	}
}

func TestTransformAlphaPassthrough(t *testing.T) {
	params := Parameters{
		HueShiftDegrees: 200,
		SaturationGain:  2,
		BrightnessGain:  1.4,
		NoiseAmplitude:  1,
	}
	engine := NewCPUEngine()
	img := testImage(t, 8, 8, 4)

	out, err := engine.Transform(img, params, 0.1)
	if err != nil {
		t.Fatalf("Transform: %v", err)
	}
	for y := 0; y < img.Height; y++ {
		for x := 0; x < img.Width; x++ {
			i := img.Offset(x, y)
			if out.Pix[i+3] != img.Pix[i+3] {
				t.Fatalf("alpha changed at (%d,%d): got %d, want %d",
					x, y, out.Pix[i+3], img.Pix[i+3])
			}
		}
	}
}

func TestTransformDoesNotMutateInput(t *testing.T) {
	params := Parameters{HueShiftDegrees: 90, SaturationGain: 1.5, BrightnessGain: 1.2}
	engine := NewCPUEngine()
	img := testImage(t, 8, 8, 3)
	original := append([]uint8(nil), img.Pix...)

	if _, err := engine.Transform(img, params, 0.42); err != nil {
		t.Fatalf("Transform: %v", err)
	}
	if !bytes.Equal(img.Pix, original) {
		t.Errorf("input buffer was mutated")
	}
}

func TestTransformRejectsMalformedBuffer(t *testing.T) {
	engine := NewCPUEngine()
	params := Parameters{SaturationGain: 1, BrightnessGain: 1}

	cases := []struct {
		name string
		buf  *raster.Buffer
	}{
		{"zero width", &raster.Buffer{Width: 0, Height: 4, Channels: 4}},
		{"negative height", &raster.Buffer{Width: 4, Height: -1, Channels: 4}},
		{"two channels", &raster.Buffer{Width: 4, Height: 4, Channels: 2, Pix: make([]uint8, 32)}},
		{"short pix", &raster.Buffer{Width: 4, Height: 4, Channels: 4, Pix: make([]uint8, 8)}},
	}
	for _, tc := range cases {
		if _, err := engine.Transform(tc.buf, params, 0); err == nil {
			t.Errorf("%s: expected InvalidImageFormat error, got nil", tc.name)
		}
	}
}

func TestHSLRoundTripExhaustivePrimaries(t *testing.T) {
	values := []float64{0, 0.25, 0.5, 0.75, 1}
	for _, r := range values {
		for _, g := range values {
			for _, b := range values {
				h, s, l := rgbToHSL(r, g, b)
				r2, g2, b2 := hslToRGB(h, s, l)
				if math.Abs(r-r2) > 1.0/255 || math.Abs(g-g2) > 1.0/255 || math.Abs(b-b2) > 1.0/255 {
					t.Fatalf("round trip (%f,%f,%f) -> (%f,%f,%f)", r, g, b, r2, g2, b2)
				}
			}
		}
	}
}

func TestNoiseHashesAreDeterministicAndBounded(t *testing.T) {
	for _, fn := range []struct {
		name  string
		noise noiseFunc
	}{
		{"hash", hashNoise},
		{"shader", shaderNoise},
	} {
		for x := 0; x < 50; x++ {
			for y := 0; y < 50; y++ {
				a := fn.noise(x, y, 0.42)
				b := fn.noise(x, y, 0.42)
				if a != b {
					t.Fatalf("%s noise not deterministic at (%d,%d)", fn.name, x, y)
				}
				if a < 0 || a >= 1 {
					t.Fatalf("%s noise out of [0,1) at (%d,%d): %f", fn.name, x, y, a)
				}
			}
		}
	}
}
