package dance

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHistoryMean(t *testing.T) {
	h := newHistory(3)
	assert.Zero(t, h.mean())

	h.push(1)
	h.push(2)
	assert.InDelta(t, 1.5, h.mean(), 1e-12)

	h.push(3)
	h.push(7) // evicts 1
	assert.Equal(t, 3, h.n)
	assert.InDelta(t, 4, h.mean(), 1e-12)

	h.reset()
	assert.Zero(t, h.n)
	assert.Zero(t, h.mean())
}

func TestHistoryResizedKeepsNewest(t *testing.T) {
	h := newHistory(5)
	for i := 1; i <= 7; i++ {
		h.push(float64(i))
	}
	small := h.resized(2)
	assert.InDelta(t, 6.5, small.mean(), 1e-12)

	big := h.resized(10)
	assert.Equal(t, 5, big.n)
	assert.InDelta(t, 5, big.mean(), 1e-12)
}

func TestHistoryRenewed(t *testing.T) {
	var empty *history
	h := empty.renewed(4)
	assert.Len(t, h.buf, 4)

	h.push(3)
	same := h.renewed(4)
	assert.Same(t, h, same, "ring of the right size is reused")
	assert.Zero(t, same.n)
	assert.Zero(t, same.mean())

	other := h.renewed(8)
	assert.NotSame(t, h, other)
	assert.Len(t, other.buf, 8)
}
