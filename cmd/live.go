package cmd

import (
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/RyanBlaney/sonovision/internal/app"
)

var (
	// Live command flags
	liveImage    string
	liveSource   string
	liveWAVFile  string
	livePreset   string
	liveBackend  string
	liveMaskMode string
	liveDuration time.Duration
)

// liveCmd represents the live command
var liveCmd = &cobra.Command{
	Use:   "live [flags]",
	Short: "Run the realtime audio-reactive pipeline",
	Long: `Continuously capture audio, extract features and transform the input
image, broadcasting features and rendered frames to websocket clients.

A new transform cycle starts at most once per cooldown interval. Frames are
served on the configured address (/ws for the feed, /healthz for health).

Examples:
  # React to the default microphone
  sonovision live --image art.png

  # Replay a WAV file with the burst preset
  sonovision live --image art.png --wav sample.wav --preset burst

  # Run for one minute with the shader noise backend
  sonovision live --image art.png --backend shader --duration 1m`,
	RunE: runLive,
}

func init() {
	rootCmd.AddCommand(liveCmd)

	liveCmd.Flags().StringVarP(&liveImage, "image", "i", "",
		"input image to transform (PNG, required)")
	liveCmd.Flags().StringVar(&liveSource, "source", "",
		"audio source (mic, wav, synthetic)")
	liveCmd.Flags().StringVar(&liveWAVFile, "wav", "",
		"WAV file to use as the audio source")
	liveCmd.Flags().StringVar(&livePreset, "preset", "",
		"mapping preset (burst, continuous)")
	liveCmd.Flags().StringVar(&liveBackend, "backend", "",
		"noise backend (cpu, shader)")
	liveCmd.Flags().StringVar(&liveMaskMode, "mask", "",
		"mask mode (full, corners, radial, composed)")
	liveCmd.Flags().DurationVar(&liveDuration, "duration", 0,
		"stop after this duration (0 runs until interrupted)")

	liveCmd.MarkFlagRequired("image")
}

func runLive(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	liveApp, err := app.NewLiveApp(&app.Context{
		ConfigFile: configFile,
		ImageFile:  liveImage,
		Source:     liveSource,
		WAVFile:    liveWAVFile,
		Preset:     livePreset,
		Backend:    liveBackend,
		MaskMode:   liveMaskMode,
		Duration:   liveDuration,
		Verbose:    verbose,
		Quiet:      quiet,
	})
	if err != nil {
		return err
	}

	return liveApp.Run(ctx)
}
