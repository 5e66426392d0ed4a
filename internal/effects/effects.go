// Package effects defines the transition and camera-movement variants a
// slideshow can use and the fixed orders in which mixed variants cycle.
package effects

import (
	"fmt"
	"strings"
)

type Transition int

const (
	TransitionNone Transition = iota
	CrossFade
	CrossFadeLong
	CrossFadeUp
	CrossFadeDown
	WipeRight
	WipeLeft
	WipeUp
	WipeDown
	SlideLeft
	SlideRight
	SlideUp
	SlideDown
	PushRight
	PushLeft
	PushUp
	PushDown
	WipeMixed
	SlideMixed
	PushMixed
)

type Movement int

const (
	MovementNone Movement = iota
	Fade
	Scale
)

// FadeCorner is the corner a Fade movement pans from.
type FadeCorner int

const (
	UpLeft FadeCorner = iota
	UpRight
	BottomRight
	BottomLeft
)

// Family groups directional variants of one transition.
type Family int

const (
	FamilyNone Family = iota
	FamilyCrossFade
	FamilyWipe
	FamilySlide
	FamilyPush
)

var transitionNames = map[Transition]string{
	TransitionNone: "none",
	CrossFade:      "cross-fade",
	CrossFadeLong:  "cross-fade-long",
	CrossFadeUp:    "cross-fade-up",
	CrossFadeDown:  "cross-fade-down",
	WipeRight:      "wipe-right",
	WipeLeft:       "wipe-left",
	WipeUp:         "wipe-up",
	WipeDown:       "wipe-down",
	SlideLeft:      "slide-left",
	SlideRight:     "slide-right",
	SlideUp:        "slide-up",
	SlideDown:      "slide-down",
	PushRight:      "push-right",
	PushLeft:       "push-left",
	PushUp:         "push-up",
	PushDown:       "push-down",
	WipeMixed:      "wipe-mixed",
	SlideMixed:     "slide-mixed",
	PushMixed:      "push-mixed",
}

var movementNames = map[Movement]string{
	MovementNone: "none",
	Fade:         "fade",
	Scale:        "scale",
}

var cornerNames = map[FadeCorner]string{
	UpLeft:      "up-left",
	UpRight:     "up-right",
	BottomRight: "bottom-right",
	BottomLeft:  "bottom-left",
}

var transitionFamilies = map[Transition]Family{
	CrossFade:     FamilyCrossFade,
	CrossFadeLong: FamilyCrossFade,
	CrossFadeUp:   FamilyCrossFade,
	CrossFadeDown: FamilyCrossFade,
	WipeRight:     FamilyWipe,
	WipeLeft:      FamilyWipe,
	WipeUp:        FamilyWipe,
	WipeDown:      FamilyWipe,
	WipeMixed:     FamilyWipe,
	SlideLeft:     FamilySlide,
	SlideRight:    FamilySlide,
	SlideUp:       FamilySlide,
	SlideDown:     FamilySlide,
	SlideMixed:    FamilySlide,
	PushRight:     FamilyPush,
	PushLeft:      FamilyPush,
	PushUp:        FamilyPush,
	PushDown:      FamilyPush,
	PushMixed:     FamilyPush,
}

var descriptions = map[Transition]string{
	TransitionNone: "hard cut between photos",
	CrossFade:      "next photo fades in over the current one",
	CrossFadeLong:  "cross-fade with longer holds and a longer blend",
	CrossFadeUp:    "current photo grows while the next fades in",
	CrossFadeDown:  "current photo shrinks while the next fades in",
	WipeRight:      "hard edge reveals the next photo left to right",
	WipeLeft:       "hard edge reveals the next photo right to left",
	WipeUp:         "hard edge reveals the next photo bottom to top",
	WipeDown:       "hard edge reveals the next photo top to bottom",
	SlideLeft:      "next photo slides in from the right",
	SlideRight:     "next photo slides in from the left",
	SlideUp:        "next photo slides in from the bottom",
	SlideDown:      "next photo slides in from the top",
	PushRight:      "next photo pushes the current one out to the right",
	PushLeft:       "next photo pushes the current one out to the left",
	PushUp:         "next photo pushes the current one out the top",
	PushDown:       "next photo pushes the current one out the bottom",
	WipeMixed:      "wipe, changing direction every photo",
	SlideMixed:     "slide, changing direction every photo",
	PushMixed:      "push, changing direction every photo",
}

var movementDescriptions = map[Movement]string{
	MovementNone: "still photos, no transition",
	Fade:         "slow pan from a corner, corner changes every photo",
	Scale:        "slow uniform zoom-in",
}

func (t Transition) String() string {
	if name, ok := transitionNames[t]; ok {
		return name
	}
	return fmt.Sprintf("transition(%d)", int(t))
}

func (t Transition) Family() Family { return transitionFamilies[t] }

// Mixed reports whether t cycles through the directions of its family.
func (t Transition) Mixed() bool {
	return t == WipeMixed || t == SlideMixed || t == PushMixed
}

func (t Transition) Description() string { return descriptions[t] }

func (m Movement) String() string {
	if name, ok := movementNames[m]; ok {
		return name
	}
	return fmt.Sprintf("movement(%d)", int(m))
}

func (m Movement) Description() string { return movementDescriptions[m] }

func (c FadeCorner) String() string {
	if name, ok := cornerNames[c]; ok {
		return name
	}
	return fmt.Sprintf("corner(%d)", int(c))
}

// Transitions lists every selectable transition in display order.
func Transitions() []Transition {
	out := make([]Transition, 0, len(transitionNames))
	for t := TransitionNone; t <= PushMixed; t++ {
		out = append(out, t)
	}
	return out
}

func Movements() []Movement {
	return []Movement{MovementNone, Fade, Scale}
}

// ParseTransition accepts the canonical names as well as spellings without
// separators ("crossfade", "wipe_right").
func ParseTransition(s string) (Transition, error) {
	key := normalize(s)
	if key == "" {
		return TransitionNone, nil
	}
	for t, name := range transitionNames {
		if normalize(name) == key {
			return t, nil
		}
	}
	return TransitionNone, fmt.Errorf("unknown transition %q", s)
}

func ParseMovement(s string) (Movement, error) {
	key := normalize(s)
	if key == "" {
		return MovementNone, nil
	}
	for m, name := range movementNames {
		if normalize(name) == key {
			return m, nil
		}
	}
	return MovementNone, fmt.Errorf("unknown movement %q", s)
}

func ParseCorner(s string) (FadeCorner, error) {
	key := normalize(s)
	if key == "" {
		return UpLeft, nil
	}
	for c, name := range cornerNames {
		if normalize(name) == key {
			return c, nil
		}
	}
	return UpLeft, fmt.Errorf("unknown fade corner %q", s)
}

func normalize(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	return strings.NewReplacer("-", "", "_", "", " ", "").Replace(s)
}
