// Package renderer draws one video frame per call: a transition between two
// photos or a camera movement over a single photo.
package renderer

import (
	"image"
	"image/color"
	"image/draw"
	"math"

	xdraw "golang.org/x/image/draw"

	"github.com/ivlev/slides2video/internal/effects"
)

// Compositor renders frames onto canvas-sized RGBA buffers. The output of
// every call depends only on its arguments. A Compositor keeps a scratch
// layer for alpha blending and must not be shared between goroutines.
type Compositor struct {
	size   image.Point
	scaler xdraw.Interpolator
	layer  *image.RGBA
}

func NewCompositor(size image.Point, q Quality) *Compositor {
	return &Compositor{
		size:   size,
		scaler: q.interpolator(),
		layer:  image.NewRGBA(image.Rectangle{Max: size}),
	}
}

func (c *Compositor) Size() image.Point { return c.size }

// Transition draws from -> to at the given rate in [0,1]. A nil to draws
// from alone; a nil from leaves the frame black.
func (c *Compositor) Transition(dst *image.RGBA, t effects.Transition, rate float64, from, to image.Image) {
	c.clear(dst)
	if from == nil {
		return
	}
	rate = clampRate(rate)
	full := c.canvas()
	if to == nil {
		c.draw(dst, full, from)
		return
	}

	w, h := float64(c.size.X), float64(c.size.Y)

	switch t {
	case effects.TransitionNone:
		c.draw(dst, full, from)

	case effects.CrossFade, effects.CrossFadeLong:
		c.draw(dst, full, from)
		c.blend(dst, to, rate)

	case effects.CrossFadeUp:
		scale := lerp(1, 2, rate)
		c.draw(dst, centered(c.size, w*scale, h*scale), from)
		c.blend(dst, to, rate)

	case effects.CrossFadeDown:
		scale := lerp(1, 0, rate)
		c.draw(dst, centered(c.size, w*scale, h*scale), from)
		c.blend(dst, to, rate)

	case effects.WipeRight, effects.WipeLeft, effects.WipeUp, effects.WipeDown:
		c.draw(dst, full, from)
		c.wipe(dst, t, rate, to)

	case effects.SlideLeft:
		c.draw(dst, full, from)
		c.draw(dst, rectF((1-rate)*w, 0, w, h), to)
	case effects.SlideRight:
		c.draw(dst, full, from)
		c.draw(dst, rectF(-(1-rate)*w, 0, w, h), to)
	case effects.SlideUp:
		c.draw(dst, full, from)
		c.draw(dst, rectF(0, (1-rate)*h, w, h), to)
	case effects.SlideDown:
		c.draw(dst, full, from)
		c.draw(dst, rectF(0, -(1-rate)*h, w, h), to)

	case effects.PushRight:
		c.draw(dst, rectF(rate*w, 0, w, h), from)
		c.draw(dst, rectF(-(1-rate)*w, 0, w, h), to)
	case effects.PushLeft:
		c.draw(dst, rectF(-rate*w, 0, w, h), from)
		c.draw(dst, rectF((1-rate)*w, 0, w, h), to)
	case effects.PushUp:
		c.draw(dst, rectF(0, -rate*h, w, h), from)
		c.draw(dst, rectF(0, (1-rate)*h, w, h), to)
	case effects.PushDown:
		c.draw(dst, rectF(0, rate*h, w, h), from)
		c.draw(dst, rectF(0, -(1-rate)*h, w, h), to)

	default:
		// Mixed groupings are resolved by effects.Session before rendering.
		c.draw(dst, full, from)
	}
}

// Movement draws a single photo with a camera movement at the given rate.
func (c *Compositor) Movement(dst *image.RGBA, m effects.Movement, corner effects.FadeCorner, rate float64, img image.Image) {
	c.clear(dst)
	if img == nil {
		return
	}
	rate = clampRate(rate)
	w, h := float64(c.size.X), float64(c.size.Y)

	switch m {
	case effects.Fade:
		fw, fh := w+fadeInset, h+fadeInset
		d := fadeInset * rate
		var x, y float64
		switch corner {
		case effects.UpLeft:
			x, y = -d, -d
		case effects.UpRight:
			x, y = d-fadeInset, -d
		case effects.BottomRight:
			x, y = d-fadeInset, d-fadeInset
		case effects.BottomLeft:
			x, y = -d, d-fadeInset
		}
		c.draw(dst, rectF(x, y, fw, fh), img)

	case effects.Scale:
		grow := rate * fadeInset
		c.draw(dst, rectF(-grow/2, -grow/2, w+grow, h+grow), img)

	default:
		c.draw(dst, c.canvas(), img)
	}
}

func (c *Compositor) canvas() image.Rectangle {
	return image.Rectangle{Max: c.size}
}

// clear paints the frame opaque black so pooled buffers never show a
// previous frame.
func (c *Compositor) clear(dst *image.RGBA) {
	draw.Draw(dst, dst.Bounds(), image.Black, image.Point{}, draw.Src)
}

// draw scales the whole of src into r. Parts of r outside dst are clipped.
func (c *Compositor) draw(dst *image.RGBA, r image.Rectangle, src image.Image) {
	if r.Empty() {
		return
	}
	c.scaler.Scale(dst, r, src, src.Bounds(), xdraw.Over, nil)
}

// blend composites src over the whole canvas at the given opacity.
func (c *Compositor) blend(dst *image.RGBA, src image.Image, opacity float64) {
	a := uint8(math.Round(opacity * 0xff))
	if a == 0 {
		return
	}
	draw.Draw(c.layer, c.layer.Bounds(), image.Transparent, image.Point{}, draw.Src)
	c.scaler.Scale(c.layer, c.layer.Bounds(), src, src.Bounds(), xdraw.Src, nil)
	draw.DrawMask(dst, dst.Bounds(), c.layer, image.Point{}, image.NewUniform(color.Alpha{A: a}), image.Point{}, draw.Over)
}

// wipe reveals a growing crop of to anchored at the edge named by t.
func (c *Compositor) wipe(dst *image.RGBA, t effects.Transition, rate float64, to image.Image) {
	b := to.Bounds()
	tw, th := float64(b.Dx()), float64(b.Dy())
	w, h := float64(c.size.X), float64(c.size.Y)

	var dr, sr image.Rectangle
	switch t {
	case effects.WipeRight:
		dr = rectF(0, 0, w*rate, h)
		sr = rectF(0, 0, tw*rate, th)
	case effects.WipeLeft:
		dr = rectF((1-rate)*w, 0, w*rate, h)
		sr = rectF((1-rate)*tw, 0, tw*rate, th)
	case effects.WipeUp:
		dr = rectF(0, (1-rate)*h, w, h*rate)
		sr = rectF(0, (1-rate)*th, tw, th*rate)
	case effects.WipeDown:
		dr = rectF(0, 0, w, h*rate)
		sr = rectF(0, 0, tw, th*rate)
	}
	sr = sr.Add(b.Min).Intersect(b)
	if dr.Empty() || sr.Empty() {
		return
	}
	c.scaler.Scale(dst, dr, to, sr, xdraw.Over, nil)
}
