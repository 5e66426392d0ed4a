package effects

// Cycling tables. Every mixed family walks Right -> Left -> Up -> Down.
var mixedStart = map[Transition]Transition{
	WipeMixed:  WipeRight,
	SlideMixed: SlideRight,
	PushMixed:  PushRight,
}

var nextDirection = map[Transition]Transition{
	WipeRight: WipeLeft,
	WipeLeft:  WipeUp,
	WipeUp:    WipeDown,
	WipeDown:  WipeRight,

	SlideRight: SlideLeft,
	SlideLeft:  SlideUp,
	SlideUp:    SlideDown,
	SlideDown:  SlideRight,

	PushRight: PushLeft,
	PushLeft:  PushUp,
	PushUp:    PushDown,
	PushDown:  PushRight,
}

var nextCorner = map[FadeCorner]FadeCorner{
	UpLeft:      UpRight,
	UpRight:     BottomRight,
	BottomRight: BottomLeft,
	BottomLeft:  UpLeft,
}

// Selection is what the user asked for. A non-none Movement selects the
// movement path and the Transition is ignored.
type Selection struct {
	Transition Transition
	Movement   Movement
	Corner     FadeCorner
}

func (s Selection) MovementMode() bool { return s.Movement != MovementNone }

// LongCrossFade reports whether the selection needs the long cross-fade timing.
func (s Selection) LongCrossFade() bool {
	return !s.MovementMode() && s.Transition == CrossFadeLong
}

func (s Selection) String() string {
	if s.MovementMode() {
		return "movement:" + s.Movement.String()
	}
	return "transition:" + s.Transition.String()
}

// Session holds the active variant for one run. It is owned by the render
// worker and advanced once per photo.
type Session struct {
	Transition Transition
	Movement   Movement
	Corner     FadeCorner

	mixed bool
}

// NewSession resolves selection-only members: a mixed grouping becomes its
// first direction and the long cross-fade renders as a plain cross-fade.
func NewSession(sel Selection) *Session {
	s := &Session{
		Transition: sel.Transition,
		Movement:   sel.Movement,
		Corner:     sel.Corner,
	}
	if sel.MovementMode() {
		s.Transition = TransitionNone
		return s
	}
	if sel.Transition == CrossFadeLong {
		s.Transition = CrossFade
	}
	if start, ok := mixedStart[sel.Transition]; ok {
		s.Transition = start
		s.mixed = true
	}
	return s
}

func (s *Session) MovementMode() bool { return s.Movement != MovementNone }

// Advance moves to the next variant. Fixed transitions and movements other
// than Fade are left untouched.
func (s *Session) Advance() {
	if s.MovementMode() {
		if s.Movement == Fade {
			s.Corner = nextCorner[s.Corner]
		}
		return
	}
	if s.mixed {
		if next, ok := nextDirection[s.Transition]; ok {
			s.Transition = next
		}
	}
}
