package runner

import "github.com/c2h5oh/datasize"

// streamedStderrTail is how much streamed stderr a Result keeps. The
// operator already saw the full output on the terminal.
const streamedStderrTail = 4 * datasize.KB

// tailBuffer is an io.Writer that keeps only the last limit bytes written.
type tailBuffer struct {
	limit     int
	buf       []byte
	truncated bool
}

func newTailBuffer(limit datasize.ByteSize) *tailBuffer {
	return &tailBuffer{limit: int(limit.Bytes())}
}

func (t *tailBuffer) Write(p []byte) (int, error) {
	n := len(p)
	if n >= t.limit {
		t.truncated = t.truncated || n > t.limit || len(t.buf) > 0
		t.buf = append(t.buf[:0], p[n-t.limit:]...)
		return n, nil
	}
	if over := len(t.buf) + n - t.limit; over > 0 {
		t.buf = append(t.buf[:0], t.buf[over:]...)
		t.truncated = true
	}
	t.buf = append(t.buf, p...)
	return n, nil
}

// String returns the retained bytes, prefixed with "..." once anything
// was dropped.
func (t *tailBuffer) String() string {
	if t.truncated {
		return "..." + string(t.buf)
	}
	return string(t.buf)
}
