package generation

import (
	"fmt"
	"strings"

	"github.com/RyanBlaney/sonovision/pkg/audio/features"
	"github.com/RyanBlaney/sonovision/pkg/transform"
)

// BuildPrompt renders a deterministic textual summary of the audio state for
// the generation service. Glue-level by design: the mapping from features to
// words carries no algorithmic weight.
func BuildPrompt(f features.AudioFeatures, p transform.Parameters) string {
	var sb strings.Builder

	switch {
	case f.Volume > 0.7:
		sb.WriteString("intense, high-energy scene")
	case f.Volume > 0.3:
		sb.WriteString("moderately dynamic scene")
	default:
		sb.WriteString("calm, subdued scene")
	}

	switch {
	case f.Centroid > 0.6:
		sb.WriteString(" with bright, sharp tones")
	case f.Centroid > 0.3:
		sb.WriteString(" with balanced tones")
	default:
		sb.WriteString(" with deep, warm tones")
	}

	fmt.Fprintf(&sb, ", hue rotated %.0f degrees, %.0f%% coverage",
		p.HueShiftDegrees, p.Coverage*100)

	if p.NoiseAmplitude > 0 {
		sb.WriteString(", grainy texture")
	}

	return sb.String()
}
