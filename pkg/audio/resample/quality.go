// ABOUTME: Resampling quality selection
// ABOUTME: Maps quality names to linear interpolation or sinc presets
package resample

import (
	"fmt"

	"github.com/Sendspin/sendspin-transcode/pkg/audio"
	resampling "github.com/tphakala/go-audio-resampling"
)

// Quality selects the rate conversion algorithm.
type Quality string

const (
	QualityLinear   Quality = "linear"
	QualityQuick    Quality = "quick"
	QualityLow      Quality = "low"
	QualityMedium   Quality = "medium"
	QualityHigh     Quality = "high"
	QualityVeryHigh Quality = "very-high"

	// DefaultQuality matches the libsoxr HQ preset
	DefaultQuality = QualityHigh
)

// ParseQuality validates a quality name; the empty string selects the default.
func ParseQuality(s string) (Quality, error) {
	q := Quality(s)
	if q == "" {
		return DefaultQuality, nil
	}
	if q == QualityLinear {
		return q, nil
	}
	if _, err := q.spec(); err != nil {
		return "", err
	}
	return q, nil
}

func (q Quality) spec() (resampling.QualitySpec, error) {
	switch q {
	case QualityQuick:
		return resampling.QualitySpec{Preset: resampling.QualityQuick}, nil
	case QualityLow:
		return resampling.QualitySpec{Preset: resampling.QualityLow}, nil
	case QualityMedium:
		return resampling.QualitySpec{Preset: resampling.QualityMedium}, nil
	case QualityHigh, "":
		return resampling.QualitySpec{Preset: resampling.QualityHigh}, nil
	case QualityVeryHigh:
		return resampling.QualitySpec{Preset: resampling.QualityVeryHigh}, nil
	default:
		return resampling.QualitySpec{}, fmt.Errorf("%w resample quality: %q", audio.ErrUnsupported, string(q))
	}
}
