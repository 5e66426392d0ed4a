package renderer

import (
	"image"
	"math"
)

// fadeInset is how far a movement render overshoots the canvas, in pixels.
const fadeInset = 30.0

// rectF builds a pixel rectangle from a float origin and size.
func rectF(x, y, w, h float64) image.Rectangle {
	return image.Rect(
		int(math.Round(x)),
		int(math.Round(y)),
		int(math.Round(x+w)),
		int(math.Round(y+h)),
	)
}

// lerp performs linear interpolation between a and b
func lerp(a, b, t float64) float64 {
	return a + (b-a)*t
}

func clampRate(rate float64) float64 {
	switch {
	case rate < 0 || math.IsNaN(rate):
		return 0
	case rate > 1:
		return 1
	}
	return rate
}

// centered returns a w x h rectangle centered on a canvas of the given size.
func centered(canvas image.Point, w, h float64) image.Rectangle {
	cw, ch := float64(canvas.X), float64(canvas.Y)
	return rectF((cw-w)/2, (ch-h)/2, w, h)
}
