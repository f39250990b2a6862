package dance

// history is a fixed-size ring of samples with a running sum.
type history struct {
	buf  []float64
	next int
	n    int
	sum  float64
}

func newHistory(size int) *history {
	if size < 1 {
		size = 1
	}
	return &history{buf: make([]float64, size)}
}

func (h *history) push(v float64) {
	if h.n == len(h.buf) {
		h.sum -= h.buf[h.next]
	} else {
		h.n++
	}
	h.buf[h.next] = v
	h.sum += v
	h.next = (h.next + 1) % len(h.buf)
	if h.next == 0 {
		// Re-sum once per lap so float drift cannot accumulate.
		h.sum = 0
		for _, x := range h.buf[:h.n] {
			h.sum += x
		}
	}
}

// mean of the samples currently held; 0 when empty.
func (h *history) mean() float64 {
	if h.n == 0 {
		return 0
	}
	return h.sum / float64(h.n)
}

func (h *history) reset() {
	clear(h.buf)
	h.next, h.n, h.sum = 0, 0, 0
}

// renewed returns h emptied, or a new ring when h is nil or the wrong size.
func (h *history) renewed(size int) *history {
	if h == nil || len(h.buf) != max(size, 1) {
		return newHistory(size)
	}
	h.reset()
	return h
}

// resized returns a ring of the new size holding the most recent samples.
func (h *history) resized(size int) *history {
	out := newHistory(size)
	start := h.next - h.n
	for i := 0; i < h.n; i++ {
		idx := (start + i + len(h.buf)) % len(h.buf)
		out.push(h.buf[idx])
	}
	return out
}
