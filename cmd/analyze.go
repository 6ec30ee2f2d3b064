package cmd

import (
	"github.com/spf13/cobra"

	"github.com/RyanBlaney/sonovision/internal/app"
)

var (
	// Analyze command flags
	analyzeSource  string
	analyzeWAVFile string
	analyzeOutput  string
)

// analyzeCmd represents the analyze command
var analyzeCmd = &cobra.Command{
	Use:   "analyze [flags]",
	Short: "Extract and report audio features",
	Long: `Capture one audio analysis window and report the extracted features
(volume, pitch bin, spectral centroid, rolloff, energy) without running the
image pipeline.

Examples:
  # Analyze the default microphone, JSON to stdout
  sonovision analyze

  # Analyze a WAV file as a table
  sonovision analyze --wav sample.wav -o table

  # Write a YAML report to a file
  sonovision analyze --source synthetic -o yaml --out features.yaml`,
	RunE: runAnalyze,
}

func init() {
	rootCmd.AddCommand(analyzeCmd)

	analyzeCmd.Flags().StringVar(&analyzeSource, "source", "",
		"audio source (mic, wav, synthetic)")
	analyzeCmd.Flags().StringVar(&analyzeWAVFile, "wav", "",
		"WAV file to analyze")
	analyzeCmd.Flags().StringVar(&analyzeOutput, "out", "",
		"write the report to this file instead of stdout")
}

func runAnalyze(cmd *cobra.Command, args []string) error {
	analyzeApp, err := app.NewAnalyzeApp(&app.Context{
		ConfigFile:   configFile,
		OutputFile:   analyzeOutput,
		OutputFormat: outputFormat,
		Source:       analyzeSource,
		WAVFile:      analyzeWAVFile,
		Verbose:      verbose,
		Quiet:        quiet,
	})
	if err != nil {
		return err
	}

	return analyzeApp.Run(cmd.Context())
}
