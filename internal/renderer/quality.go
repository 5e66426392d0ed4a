package renderer

import (
	"fmt"
	"strings"

	xdraw "golang.org/x/image/draw"
)

// Quality selects the interpolation used when photos are scaled onto the
// canvas.
type Quality int

const (
	QualityNone Quality = iota
	QualityLow
	QualityMedium
	QualityHigh
)

func ParseQuality(s string) (Quality, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "none", "nearest":
		return QualityNone, nil
	case "", "low", "default":
		return QualityLow, nil
	case "medium":
		return QualityMedium, nil
	case "high":
		return QualityHigh, nil
	}
	return QualityLow, fmt.Errorf("unknown quality %q (expected none|low|medium|high)", s)
}

func (q Quality) String() string {
	switch q {
	case QualityNone:
		return "none"
	case QualityLow:
		return "low"
	case QualityMedium:
		return "medium"
	case QualityHigh:
		return "high"
	}
	return fmt.Sprintf("quality(%d)", int(q))
}

func (q Quality) interpolator() xdraw.Interpolator {
	switch q {
	case QualityNone:
		return xdraw.NearestNeighbor
	case QualityMedium:
		return xdraw.BiLinear
	case QualityHigh:
		return xdraw.CatmullRom
	}
	return xdraw.ApproxBiLinear
}
