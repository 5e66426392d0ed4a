// Package progress keeps a monotonic [0,1] progress value for a render run.
package progress

import "sync"

const (
	// WriterShare is the part of the budget spent on frame generation and
	// encoding. The rest belongs to the export stage.
	WriterShare = 0.9
	ExportShare = 1 - WriterShare

	holdFraction = 0.2
)

// Tracker is mutated by the render worker only; Value may be read from any
// goroutine.
type Tracker struct {
	mu       sync.Mutex
	value    float64
	baseline float64
	onChange func(float64)

	perFrame   float64
	hold       float64
	transition float64
}

func NewTracker(onChange func(float64)) *Tracker {
	return &Tracker{onChange: onChange}
}

// UpdateWeights recomputes per-photo shares. Call it whenever the photo count
// or the movement mode changes.
func (t *Tracker) UpdateWeights(totalPhotos int, movementMode bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if totalPhotos <= 0 {
		t.perFrame, t.hold, t.transition = 0, 0, 0
		return
	}
	t.perFrame = WriterShare / float64(totalPhotos)
	t.hold = 0
	if !movementMode {
		t.hold = t.perFrame * holdFraction
	}
	t.transition = t.perFrame - t.hold
}

// Shares returns the hold and transition share of one photo.
func (t *Tracker) Shares() (hold, transition float64) {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.hold, t.transition
}

func (t *Tracker) Value() float64 {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.value
}

// AddHold accounts for one pushed hold frame.
func (t *Tracker) AddHold() {
	t.mu.Lock()
	v := t.value + t.hold
	t.mu.Unlock()
	t.set(v)
}

// BeginSweep captures the baseline for the interpolation frames that follow.
func (t *Tracker) BeginSweep() {
	t.mu.Lock()
	t.baseline = t.value
	t.mu.Unlock()
}

// Sweep sets progress to baseline + transitionShare*rate. Recomputing from
// the baseline keeps float error from piling up over many sub-frames.
func (t *Tracker) Sweep(rate float64) {
	t.mu.Lock()
	v := t.baseline + t.transition*rate
	t.mu.Unlock()
	t.set(v)
}

// Export maps the export stage's own [0,1] progress into the final share.
func (t *Tracker) Export(p float64) {
	t.set(WriterShare + clamp01(p)*ExportShare)
}

// Complete pins progress to exactly 1.
func (t *Tracker) Complete() {
	t.set(1)
}

func (t *Tracker) set(v float64) {
	t.mu.Lock()
	v = clamp01(v)
	if v < t.value {
		v = t.value
	}
	t.value = v
	cb := t.onChange
	t.mu.Unlock()
	if cb != nil {
		cb(v)
	}
}

func clamp01(v float64) float64 {
	switch {
	case v < 0:
		return 0
	case v > 1:
		return 1
	}
	return v
}
