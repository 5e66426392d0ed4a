// Package engine drives a slideshow render: it plans the timeline, composites
// every frame and feeds the encoder sink with backpressure.
package engine

import (
	"errors"
	"fmt"

	"github.com/ivlev/slides2video/internal/timeline"
)

var (
	ErrNoPhotos    = timeline.ErrNoPhotos
	ErrEncoderInit = errors.New("encoder init failed")
	ErrEncode      = errors.New("encode failed")
	ErrExport      = errors.New("export failed")
	ErrRunning     = errors.New("run already started")
)

// State is the lifecycle of a PlannedRun.
type State int32

const (
	StateIdle State = iota
	StatePlanning
	StateGenerating
	StateFinalizing
	StateExporting
	StateCompleted
	StateFailed
)

var stateNames = map[State]string{
	StateIdle:       "idle",
	StatePlanning:   "planning",
	StateGenerating: "generating",
	StateFinalizing: "finalizing",
	StateExporting:  "exporting",
	StateCompleted:  "completed",
	StateFailed:     "failed",
}

func (s State) String() string {
	if name, ok := stateNames[s]; ok {
		return name
	}
	return fmt.Sprintf("state(%d)", int32(s))
}

// Terminal reports whether no further transitions follow.
func (s State) Terminal() bool {
	return s == StateCompleted || s == StateFailed
}
