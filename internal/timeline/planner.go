// Package timeline derives frame counts, durations and presentation
// timestamps for a slideshow from the photo count and an optional target
// duration.
package timeline

import (
	"errors"
	"math"
)

// ErrNoPhotos is returned when there is nothing to plan.
var ErrNoPhotos = errors.New("no photos to render")

const (
	targetTimescale = 100000

	defaultFrameDuration     = 2
	defaultLongFrameDuration = 3
	defaultMovementDuration  = 2

	transitionFrameRate = 60
	movementFrameRate   = 20
)

type Input struct {
	TotalPhotos int
	// TargetDuration is the whole video length in seconds; <= 0 means unset.
	TargetDuration float64
	MovementMode   bool
	// LongCrossFade only applies to the cross-fade transition.
	LongCrossFade bool
}

// Params is the immutable result of planning a run. Durations are in ticks
// of 1/Timescale seconds.
type Params struct {
	TotalPhotos                  int
	Timescale                    int64
	FrameDuration                int64
	TransitionDuration           int64
	TransitionFrameCount         int
	FramesToWaitBeforeTransition int
	TransitionRate               float64
	VideoDuration                int64
	MovementMode                 bool
	LongCrossFade                bool
}

// Plan is deterministic: identical inputs always yield identical Params.
func Plan(in Input) (Params, error) {
	if in.TotalPhotos <= 0 {
		return Params{}, ErrNoPhotos
	}

	hasTarget := in.TargetDuration > 0
	long := in.LongCrossFade && !in.MovementMode
	n := int64(in.TotalPhotos)

	p := Params{
		TotalPhotos:   in.TotalPhotos,
		Timescale:     1,
		MovementMode:  in.MovementMode,
		LongCrossFade: long,
	}

	var targetTicks, average int64 = 0, defaultFrameDuration
	if hasTarget {
		p.Timescale = targetTimescale
		targetTicks = int64(math.Round(in.TargetDuration * float64(p.Timescale)))
		average = targetTicks / n
	}

	if in.MovementMode {
		p.FrameDuration = 0
		p.TransitionDuration = defaultMovementDuration
		if hasTarget {
			p.TransitionDuration = average
		}
	} else {
		switch {
		case hasTarget:
			p.FrameDuration = average
		case long:
			p.FrameDuration = defaultLongFrameDuration
		default:
			p.FrameDuration = defaultFrameDuration
		}
		if long {
			p.TransitionDuration = p.FrameDuration * 2 / 3
		} else {
			p.TransitionDuration = p.FrameDuration / 2
		}
	}

	base := int64(transitionFrameRate)
	if in.MovementMode {
		base = movementFrameRate
	}
	p.TransitionFrameCount = int(max(1, base*p.TransitionDuration/p.Timescale))

	if long {
		p.FramesToWaitBeforeTransition = p.TransitionFrameCount / 3
	} else {
		p.FramesToWaitBeforeTransition = p.TransitionFrameCount / 2
	}

	p.TransitionRate = 1
	if p.TransitionDuration > 0 {
		rate := float64(p.Timescale) / float64(p.TransitionDuration)
		if rate > 0 && !math.IsInf(rate, 0) && !math.IsNaN(rate) {
			p.TransitionRate = rate
		}
	}

	switch {
	case hasTarget:
		p.VideoDuration = targetTicks
	case in.MovementMode:
		p.VideoDuration = p.TransitionDuration * n
	default:
		p.VideoDuration = p.FrameDuration * n
	}

	return p, nil
}

// PhotoStart is the timestamp of the first frame of photo i.
func (p Params) PhotoStart(i int) Time {
	step := p.FrameDuration
	if p.MovementMode {
		step = p.TransitionDuration
	}
	return NewTime(int64(i)*step, p.Timescale)
}

// HoldAdvance is the gap between a hold frame and the first interpolated frame.
func (p Params) HoldAdvance() Time {
	return NewTime(p.FrameDuration-p.TransitionDuration, p.Timescale)
}

// FrameStep is the even spacing between interpolated sub-frames.
func (p Params) FrameStep() Time {
	count := int64(max(1, p.TransitionFrameCount))
	return NewTime(p.TransitionDuration, count*p.Timescale)
}

// InterpolationFrames is the number of sub-frames in one transition window.
func (p Params) InterpolationFrames() int {
	if p.MovementMode {
		return max(1, p.TransitionFrameCount)
	}
	return max(1, p.TransitionFrameCount-p.FramesToWaitBeforeTransition)
}

// End is the timestamp where the video stops.
func (p Params) End() Time {
	return NewTime(p.VideoDuration, p.Timescale)
}

// Seconds reports the planned video length.
func (p Params) Seconds() float64 {
	return p.End().Seconds()
}
