package cmd

import (
	"github.com/spf13/cobra"

	"github.com/RyanBlaney/sonovision/internal/app"
)

var (
	// Transform command flags
	transformImage    string
	transformOutput   string
	transformSource   string
	transformWAVFile  string
	transformPreset   string
	transformBackend  string
	transformMaskMode string
)

// transformCmd represents the transform command
var transformCmd = &cobra.Command{
	Use:   "transform [flags]",
	Short: "Transform an image from a single audio snapshot",
	Long: `Capture one audio analysis window, map its features to transform
parameters and write the transformed image.

When external generation is enabled and reachable the result comes from the
generation service; otherwise the local transform pipeline produces it.

Examples:
  # One-shot transform from the microphone
  sonovision transform --image art.png --out result.png

  # Transform using a WAV file and the burst preset
  sonovision transform --image art.png --wav sample.wav --preset burst --out result.png

  # Write the PNG to stdout
  sonovision transform --image art.png --source synthetic --out -`,
	RunE: runTransform,
}

func init() {
	rootCmd.AddCommand(transformCmd)

	transformCmd.Flags().StringVarP(&transformImage, "image", "i", "",
		"input image to transform (PNG, required)")
	transformCmd.Flags().StringVar(&transformOutput, "out", "out.png",
		"output path for the transformed PNG (- for stdout)")
	transformCmd.Flags().StringVar(&transformSource, "source", "",
		"audio source (mic, wav, synthetic)")
	transformCmd.Flags().StringVar(&transformWAVFile, "wav", "",
		"WAV file to use as the audio source")
	transformCmd.Flags().StringVar(&transformPreset, "preset", "",
		"mapping preset (burst, continuous)")
	transformCmd.Flags().StringVar(&transformBackend, "backend", "",
		"noise backend (cpu, shader)")
	transformCmd.Flags().StringVar(&transformMaskMode, "mask", "",
		"mask mode (full, corners, radial, composed)")

	transformCmd.MarkFlagRequired("image")
}

func runTransform(cmd *cobra.Command, args []string) error {
	transformApp, err := app.NewTransformApp(&app.Context{
		ConfigFile: configFile,
		ImageFile:  transformImage,
		OutputFile: transformOutput,
		Source:     transformSource,
		WAVFile:    transformWAVFile,
		Preset:     transformPreset,
		Backend:    transformBackend,
		MaskMode:   transformMaskMode,
		Verbose:    verbose,
		Quiet:      quiet,
	})
	if err != nil {
		return err
	}

	return transformApp.Run(cmd.Context())
}
