package system

import "sync"

// Tail keeps the last bytes written to it. Used to attach the end of an
// ffmpeg stderr stream to errors.
type Tail struct {
	mu  sync.Mutex
	buf []byte
	max int
}

func NewTail(n int) *Tail { return &Tail{max: n} }

func (t *Tail) Write(p []byte) (int, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.buf = append(t.buf, p...)
	if over := len(t.buf) - t.max; over > 0 {
		t.buf = append(t.buf[:0], t.buf[over:]...)
	}
	return len(p), nil
}

func (t *Tail) String() string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return string(t.buf)
}

// Suffix formats the tail for appending to an error message.
func (t *Tail) Suffix() string {
	if s := t.String(); s != "" {
		return ", output: " + s
	}
	return ""
}
