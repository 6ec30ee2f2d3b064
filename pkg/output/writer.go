// Package output renders analysis results in the formats exposed by the
// --output flag (json, yaml, table).
package output

import (
	"encoding/json"
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/RyanBlaney/sonovision/pkg/audio/features"
)

// Format identifies an output rendering
type Format string

const (
	FormatJSON  Format = "json"
	FormatYAML  Format = "yaml"
	FormatTable Format = "table"
)

// Tabler is implemented by reports that can render as an aligned table
type Tabler interface {
	TableHeader() []string
	TableRows() [][]string
}

// Write renders the report to w in the requested format
func Write(w io.Writer, format Format, report any) error {
	switch format {
	case FormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(report)
	case FormatYAML:
		enc := yaml.NewEncoder(w)
		defer enc.Close()
		return enc.Encode(report)
	case FormatTable:
		tabler, ok := report.(Tabler)
		if !ok {
			return fmt.Errorf("report type %T does not support table output", report)
		}
		return writeTable(w, tabler)
	default:
		return fmt.Errorf("unsupported output format: %s", format)
	}
}

func writeTable(w io.Writer, report Tabler) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	for i, col := range report.TableHeader() {
		if i > 0 {
			fmt.Fprint(tw, "\t")
		}
		fmt.Fprint(tw, col)
	}
	fmt.Fprintln(tw)
	for _, row := range report.TableRows() {
		for i, cell := range row {
			if i > 0 {
				fmt.Fprint(tw, "\t")
			}
			fmt.Fprint(tw, cell)
		}
		fmt.Fprintln(tw)
	}
	return tw.Flush()
}

// FeatureReport wraps an AudioFeatures snapshot for output rendering. The
// raw bin and waveform arrays are summarized, not dumped.
type FeatureReport struct {
	Source    string    `json:"source" yaml:"source"`
	Timestamp time.Time `json:"timestamp" yaml:"timestamp"`
	Volume    float64   `json:"volume" yaml:"volume"`
	Pitch     float64   `json:"pitch" yaml:"pitch"`
	Centroid  float64   `json:"centroid" yaml:"centroid"`
	Rolloff   float64   `json:"rolloff" yaml:"rolloff"`
	Energy    float64   `json:"energy" yaml:"energy"`
	BinCount  int       `json:"bin_count" yaml:"bin_count"`
}

// NewFeatureReport builds a report from a snapshot
func NewFeatureReport(source string, f features.AudioFeatures) FeatureReport {
	return FeatureReport{
		Source:    source,
		Timestamp: time.Now().UTC(),
		Volume:    f.Volume,
		Pitch:     f.Pitch,
		Centroid:  f.Centroid,
		Rolloff:   f.Rolloff,
		Energy:    f.Energy,
		BinCount:  len(f.FrequencyBins),
	}
}

// TableHeader implements Tabler
func (r FeatureReport) TableHeader() []string {
	return []string{"SOURCE", "VOLUME", "PITCH", "CENTROID", "ROLLOFF", "ENERGY"}
}

// TableRows implements Tabler
func (r FeatureReport) TableRows() [][]string {
	return [][]string{{
		r.Source,
		fmt.Sprintf("%.3f", r.Volume),
		fmt.Sprintf("%.0f", r.Pitch),
		fmt.Sprintf("%.3f", r.Centroid),
		fmt.Sprintf("%.3f", r.Rolloff),
		fmt.Sprintf("%.3f", r.Energy),
	}}
}
