// Package driver owns the realtime loop tying capture, feature extraction
// and the transform pipeline together. It replaces scattered timer handles
// with one explicit scheduler object holding a single snapshot cell and a
// cancellation point, so cooldown behavior is deterministic and testable.
package driver

import (
	"bytes"
	"context"
	"sync/atomic"
	"time"

	"github.com/RyanBlaney/sonovision/pkg/audio/capture"
	"github.com/RyanBlaney/sonovision/pkg/audio/features"
	"github.com/RyanBlaney/sonovision/pkg/generation"
	"github.com/RyanBlaney/sonovision/pkg/logging"
	"github.com/RyanBlaney/sonovision/pkg/raster"
	"github.com/RyanBlaney/sonovision/pkg/transform"
)

// State identifies the driver lifecycle state
type State int32

const (
	// StateIdle means no capture resource is held
	StateIdle State = iota
	// StateListening means features are updating at capture cadence
	StateListening
	// StateTransforming means one transform cycle is in flight
	StateTransforming
)

// String returns the state name
func (s State) String() string {
	switch s {
	case StateListening:
		return "listening"
	case StateTransforming:
		return "transforming"
	default:
		return "idle"
	}
}

// Generator abstracts the opaque external image-generation service
type Generator interface {
	GenerateImage(ctx context.Context, prompt string, reference []byte) ([]byte, error)
}

// Frame is one emitted transform result
type Frame struct {
	Image    *raster.Buffer
	Features features.AudioFeatures
	Params   transform.Parameters
	// Origin is "generated" when the external service produced the image,
	// "local" when the fallback transform path did
	Origin string
}

// Config contains configuration for the driver
type Config struct {
	Source    capture.Source
	Extractor *features.Extractor
	Engine    transform.Engine
	// Generator is optional; when nil every cycle runs the local path
	Generator Generator
	BaseImage *raster.Buffer
	Preset    transform.Preset
	MaskMode  transform.MaskMode
	MaskSeed  int64
	NoiseSeed float64
	// Cooldown is the minimum interval between transform cycle starts
	Cooldown time.Duration
	// Now is the clock; defaults to time.Now. Injected for tests.
	Now func() time.Time
	// OnFrame receives each completed frame. Frames finishing after Stop
	// are discarded and never delivered.
	OnFrame func(Frame)
	Logger  logging.Logger
}

// DefaultCooldown bounds how often live mode may start a transform cycle
const DefaultCooldown = 8 * time.Second

// Driver is the realtime scheduling loop
type Driver struct {
	source    capture.Source
	extractor *features.Extractor
	engine    transform.Engine
	generator Generator
	baseImage *raster.Buffer
	preset    transform.Preset
	maskMode  transform.MaskMode
	maskSeed  int64
	noiseSeed float64
	cooldown  time.Duration
	now       func() time.Time
	onFrame   func(Frame)
	logger    logging.Logger

	state    atomic.Int32
	live     atomic.Bool
	active   atomic.Bool
	inFlight atomic.Bool

	// snapshot is the single-writer feature cell: the capture loop replaces
	// the whole value, a transform cycle reads one consistent pointer.
	snapshot atomic.Pointer[features.AudioFeatures]

	// lastTransform is written only from Tick, immediately before a
	// transform starts.
	lastTransform time.Time
}

// New creates a driver in the Idle state
func New(cfg *Config) *Driver {
	logger := cfg.Logger
	if logger == nil {
		logger = logging.NewDefaultLogger()
	}
	cooldown := cfg.Cooldown
	if cooldown <= 0 {
		cooldown = DefaultCooldown
	}
	now := cfg.Now
	if now == nil {
		now = time.Now
	}
	preset := cfg.Preset
	if preset == "" {
		preset = transform.PresetContinuous
	}
	maskMode := cfg.MaskMode
	if maskMode == "" {
		maskMode = transform.ModeRadial
	}

	return &Driver{
		source:    cfg.Source,
		extractor: cfg.Extractor,
		engine:    cfg.Engine,
		generator: cfg.Generator,
		baseImage: cfg.BaseImage,
		preset:    preset,
		maskMode:  maskMode,
		maskSeed:  cfg.MaskSeed,
		noiseSeed: cfg.NoiseSeed,
		cooldown:  cooldown,
		now:       now,
		onFrame:   cfg.OnFrame,
		logger: logger.WithFields(logging.Fields{
			"component": "realtime_driver",
		}),
	}
}

// State returns the current lifecycle state
func (d *Driver) State() State {
	return State(d.state.Load())
}

// Snapshot returns the latest feature snapshot, if any exists yet
func (d *Driver) Snapshot() (features.AudioFeatures, bool) {
	snap := d.snapshot.Load()
	if snap == nil {
		return features.AudioFeatures{}, false
	}
	return *snap, true
}

// Start acquires the capture source and moves Idle -> Listening. On capture
// failure the driver stays Idle and the CaptureUnavailable error propagates.
func (d *Driver) Start() error {
	if d.State() != StateIdle {
		return nil
	}
	if err := d.source.Start(); err != nil {
		d.logger.Error("Capture source unavailable", logging.Fields{
			"error": err.Error(),
		})
		return err
	}
	d.active.Store(true)
	d.state.Store(int32(StateListening))
	d.logger.Info("Driver listening", logging.Fields{
		"sample_rate": d.source.SampleRate(),
	})
	return nil
}

// SetLive enables or disables continuous transform mode. Enabling arms the
// cooldown from now, so the first cycle fires one full cooldown later.
func (d *Driver) SetLive(enabled bool) {
	if enabled && !d.live.Load() {
		d.lastTransform = d.now()
	}
	d.live.Store(enabled)
}

// Stop releases the capture source and returns to Idle. Scheduled transforms
// are cancelled immediately; an in-flight cycle runs to completion but its
// frame is discarded.
func (d *Driver) Stop() {
	if d.State() == StateIdle {
		return
	}
	d.active.Store(false)
	d.live.Store(false)
	d.state.Store(int32(StateIdle))
	if err := d.source.Stop(); err != nil {
		d.logger.Warn("Capture source stop failed", logging.Fields{
			"error": err.Error(),
		})
	}
	d.logger.Info("Driver stopped")
}

// Tick runs one capture-cadence step: refresh the snapshot cell and, in live
// mode, start a transform cycle when the cooldown has elapsed and none is in
// flight. Returns true when a cycle was started. Tick never blocks on the
// transform itself.
func (d *Driver) Tick() bool {
	if d.State() == StateIdle {
		return false
	}

	if win, spectrum, ok := d.source.Latest(); ok {
		snap, err := d.extractor.Analyze(win, spectrum)
		if err != nil {
			d.logger.Error("Feature extraction failed", logging.Fields{
				"error": err.Error(),
			})
		} else {
			d.snapshot.Store(&snap)
		}
	}

	if !d.live.Load() {
		return false
	}
	snap := d.snapshot.Load()
	if snap == nil {
		return false
	}
	if d.now().Sub(d.lastTransform) < d.cooldown {
		return false
	}
	if !d.inFlight.CompareAndSwap(false, true) {
		return false
	}

	d.lastTransform = d.now()
	d.state.CompareAndSwap(int32(StateListening), int32(StateTransforming))
	go d.runCycle(*snap)
	return true
}

// Run drives Tick at the given cadence until the context is cancelled
func (d *Driver) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			d.Tick()
		}
	}
}

func (d *Driver) runCycle(snap features.AudioFeatures) {
	defer func() {
		d.state.CompareAndSwap(int32(StateTransforming), int32(StateListening))
		d.inFlight.Store(false)
	}()

	frame, err := d.transformCycle(context.Background(), snap)
	if err != nil {
		d.logger.Error("Transform cycle failed", logging.Fields{
			"error": err.Error(),
		})
		return
	}

	// The caller checks the active flag: frames completing after Stop are
	// discarded, not delivered.
	if d.active.Load() && d.onFrame != nil {
		d.onFrame(frame)
	}
}

// TransformOnce runs a single synchronous transform cycle against the most
// recent snapshot (the burst path).
func (d *Driver) TransformOnce(ctx context.Context) (Frame, error) {
	snap := d.snapshot.Load()
	if snap == nil {
		return Frame{}, capture.NewCaptureError(capture.ErrCodeCaptureUnavailable,
			"no audio snapshot available yet", nil)
	}
	return d.transformCycle(ctx, *snap)
}

// transformCycle produces one frame from one snapshot. A failing generation
// call triggers exactly one fallback to the local engine; the service is
// never retried within the cycle.
func (d *Driver) transformCycle(ctx context.Context, snap features.AudioFeatures) (Frame, error) {
	params := transform.MapFeatures(snap, d.preset)

	if d.generator != nil {
		if frame, ok := d.tryGenerate(ctx, snap, params); ok {
			return frame, nil
		}
	}

	transformed, err := d.engine.Transform(d.baseImage, params, d.noiseSeed)
	if err != nil {
		return Frame{}, err
	}

	mask, err := transform.GenerateMask(snap, d.maskMode, d.baseImage.Width, d.baseImage.Height, d.maskSeed)
	if err != nil {
		return Frame{}, err
	}

	composited, err := transform.Composite(d.baseImage, transformed, mask)
	if err != nil {
		return Frame{}, err
	}

	return Frame{
		Image:    composited,
		Features: snap,
		Params:   params,
		Origin:   "local",
	}, nil
}

func (d *Driver) tryGenerate(ctx context.Context, snap features.AudioFeatures, params transform.Parameters) (Frame, bool) {
	var reference bytes.Buffer
	if err := d.baseImage.EncodePNG(&reference); err != nil {
		d.logger.Warn("Reference image encode failed, using local path", logging.Fields{
			"error": err.Error(),
		})
		return Frame{}, false
	}

	prompt := generation.BuildPrompt(snap, params)
	imageBytes, err := d.generator.GenerateImage(ctx, prompt, reference.Bytes())
	if err != nil {
		d.logger.Warn("Generation service failed, falling back to local transform", logging.Fields{
			"error": err.Error(),
		})
		return Frame{}, false
	}

	decoded, err := raster.DecodePNG(bytes.NewReader(imageBytes))
	if err != nil {
		d.logger.Warn("Generated image undecodable, falling back to local transform", logging.Fields{
			"error": err.Error(),
		})
		return Frame{}, false
	}

	return Frame{
		Image:    decoded,
		Features: snap,
		Params:   params,
		Origin:   "generated",
	}, true
}
