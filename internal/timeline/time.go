package timeline

import "fmt"

// Time is an exact presentation timestamp of Value/Timescale seconds.
type Time struct {
	Value     int64
	Timescale int64
}

func NewTime(value, timescale int64) Time {
	if timescale <= 0 {
		timescale = 1
	}
	return Time{Value: value, Timescale: timescale}.reduce()
}

// Add returns t+o on the least common timescale of both operands.
func (t Time) Add(o Time) Time {
	t, o = t.norm(), o.norm()
	if t.Timescale == o.Timescale {
		return Time{Value: t.Value + o.Value, Timescale: t.Timescale}.reduce()
	}
	l := lcm(t.Timescale, o.Timescale)
	v := t.Value*(l/t.Timescale) + o.Value*(l/o.Timescale)
	return Time{Value: v, Timescale: l}.reduce()
}

// Mul scales t by an integer factor.
func (t Time) Mul(n int64) Time {
	t = t.norm()
	return Time{Value: t.Value * n, Timescale: t.Timescale}.reduce()
}

// Cmp returns -1, 0 or +1.
func (t Time) Cmp(o Time) int {
	t, o = t.norm(), o.norm()
	a := t.Value * o.Timescale
	b := o.Value * t.Timescale
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	}
	return 0
}

func (t Time) Seconds() float64 {
	t = t.norm()
	return float64(t.Value) / float64(t.Timescale)
}

// Frames maps t onto a constant frame-rate grid, rounding half up.
func (t Time) Frames(fps int) int64 {
	t = t.norm()
	if fps <= 0 {
		fps = 1
	}
	return (2*t.Value*int64(fps) + t.Timescale) / (2 * t.Timescale)
}

func (t Time) String() string {
	t = t.norm()
	return fmt.Sprintf("%d/%d", t.Value, t.Timescale)
}

func (t Time) norm() Time {
	if t.Timescale <= 0 {
		t.Timescale = 1
	}
	return t
}

func (t Time) reduce() Time {
	g := gcd(abs64(t.Value), t.Timescale)
	if g > 1 {
		t.Value /= g
		t.Timescale /= g
	}
	return t
}

func gcd(a, b int64) int64 {
	for b != 0 {
		a, b = b, a%b
	}
	return a
}

func lcm(a, b int64) int64 {
	return a / gcd(a, b) * b
}

func abs64(v int64) int64 {
	if v < 0 {
		return -v
	}
	return v
}
