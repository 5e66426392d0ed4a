package effects

import "testing"

func TestParseTransition(t *testing.T) {
	tests := []struct {
		in      string
		want    Transition
		wantErr bool
	}{
		{"", TransitionNone, false},
		{"none", TransitionNone, false},
		{"cross-fade", CrossFade, false},
		{"crossfade", CrossFade, false},
		{"CrossFadeLong", CrossFadeLong, false},
		{"wipe_right", WipeRight, false},
		{"slide mixed", SlideMixed, false},
		{"push-down", PushDown, false},
		{"pixelize", TransitionNone, true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseTransition(tt.in)
			if (err != nil) != tt.wantErr {
				t.Fatalf("err = %v, wantErr %v", err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("got %v, want %v", got, tt.want)
			}
		})
	}
}

func TestParseMovementAndCorner(t *testing.T) {
	if m, err := ParseMovement("Fade"); err != nil || m != Fade {
		t.Errorf("ParseMovement(Fade) = %v, %v", m, err)
	}
	if _, err := ParseMovement("zoom"); err == nil {
		t.Error("expected error for unknown movement")
	}
	if c, err := ParseCorner("bottom_right"); err != nil || c != BottomRight {
		t.Errorf("ParseCorner = %v, %v", c, err)
	}
}

func TestNamesRoundTrip(t *testing.T) {
	for _, tr := range Transitions() {
		got, err := ParseTransition(tr.String())
		if err != nil || got != tr {
			t.Errorf("%v: parsed back as %v (%v)", tr, got, err)
		}
		if tr.Description() == "" {
			t.Errorf("%v has no description", tr)
		}
	}
	for _, m := range Movements() {
		got, err := ParseMovement(m.String())
		if err != nil || got != m {
			t.Errorf("%v: parsed back as %v (%v)", m, got, err)
		}
	}
}

func TestMixedCyclesWithPeriodFour(t *testing.T) {
	tests := []struct {
		sel  Transition
		want []Transition
	}{
		{WipeMixed, []Transition{WipeRight, WipeLeft, WipeUp, WipeDown, WipeRight}},
		{SlideMixed, []Transition{SlideRight, SlideLeft, SlideUp, SlideDown, SlideRight}},
		{PushMixed, []Transition{PushRight, PushLeft, PushUp, PushDown, PushRight}},
	}
	for _, tt := range tests {
		t.Run(tt.sel.String(), func(t *testing.T) {
			s := NewSession(Selection{Transition: tt.sel})
			for i, want := range tt.want {
				if s.Transition != want {
					t.Fatalf("step %d: got %v, want %v", i, s.Transition, want)
				}
				s.Advance()
			}
		})
	}
}

func TestFadeCornerCycle(t *testing.T) {
	s := NewSession(Selection{Movement: Fade})
	want := []FadeCorner{UpLeft, UpRight, BottomRight, BottomLeft, UpLeft}
	for i, c := range want {
		if s.Corner != c {
			t.Fatalf("step %d: got %v, want %v", i, s.Corner, c)
		}
		s.Advance()
	}
}

func TestAdvanceIsNoOpForFixedEffects(t *testing.T) {
	for _, sel := range []Selection{
		{Transition: WipeLeft},
		{Transition: CrossFade},
		{Transition: TransitionNone},
		{Movement: Scale},
	} {
		s := NewSession(sel)
		before := *s
		for i := 0; i < 5; i++ {
			s.Advance()
		}
		if *s != before {
			t.Errorf("%v changed after Advance: %+v -> %+v", sel, before, *s)
		}
	}
}

func TestSessionResolvesSelectionOnlyMembers(t *testing.T) {
	s := NewSession(Selection{Transition: CrossFadeLong})
	if s.Transition != CrossFade {
		t.Errorf("long cross-fade renders as %v", s.Transition)
	}
	if !(Selection{Transition: CrossFadeLong}).LongCrossFade() {
		t.Error("selection should report long cross-fade")
	}
	m := NewSession(Selection{Transition: WipeMixed, Movement: Fade})
	if !m.MovementMode() || m.Transition != TransitionNone {
		t.Errorf("movement selection should ignore the transition: %+v", m)
	}
}
