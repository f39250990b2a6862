package tasks

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAdvanceRunsDueTasksInOrder(t *testing.T) {
	tbl := New()
	var order []string

	tbl.After("", 300, func() { order = append(order, "c") })
	tbl.After("", 100, func() { order = append(order, "a") })
	tbl.After("", 100, func() { order = append(order, "b") })

	assert.Equal(t, 0, tbl.Advance(99))
	assert.Equal(t, 2, tbl.Advance(1))
	assert.Equal(t, []string{"a", "b"}, order)

	assert.Equal(t, 1, tbl.Advance(500))
	assert.Equal(t, []string{"a", "b", "c"}, order)
	assert.Equal(t, 0, tbl.Len())
	assert.Equal(t, 600.0, tbl.Now())
}

func TestNamedTaskReplacesPrevious(t *testing.T) {
	tbl := New()
	var fired []int

	first := tbl.After("return", 100, func() { fired = append(fired, 1) })
	second := tbl.After("return", 200, func() { fired = append(fired, 2) })

	assert.False(t, tbl.Pending(first), "replaced handle must be invalidated")
	assert.True(t, tbl.Pending(second))

	tbl.Advance(1000)
	assert.Equal(t, []int{2}, fired)
}

func TestCancelledHandleStaysDead(t *testing.T) {
	tbl := New()
	fired := 0

	h := tbl.After("x", 50, func() { fired++ })
	assert.True(t, tbl.Cancel(h))
	assert.False(t, tbl.Cancel(h))

	// A new task under the same name gets a fresh handle.
	h2 := tbl.After("x", 50, func() { fired++ })
	assert.NotEqual(t, h, h2)
	assert.False(t, tbl.Cancel(h))
	assert.True(t, tbl.Pending(h2))

	tbl.Advance(50)
	assert.Equal(t, 1, fired)
	assert.False(t, tbl.Has("x"))
}

func TestCancelAll(t *testing.T) {
	tbl := New()
	fired := 0
	for i := 0; i < 5; i++ {
		tbl.After("", float64(i*10), func() { fired++ })
	}

	assert.Equal(t, 5, tbl.CancelAll())
	tbl.Advance(1000)
	assert.Equal(t, 0, fired)
}

func TestTaskCanCancelSibling(t *testing.T) {
	tbl := New()
	var victim Handle
	ran := false

	tbl.After("", 10, func() { tbl.Cancel(victim) })
	victim = tbl.After("", 10, func() { ran = true })

	tbl.Advance(10)
	assert.False(t, ran)
}

func TestTaskScheduledDuringAdvance(t *testing.T) {
	tbl := New()
	var order []string

	tbl.After("", 10, func() {
		order = append(order, "first")
		tbl.After("", 0, func() { order = append(order, "chained") })
		tbl.After("", 100, func() { order = append(order, "later") })
	})

	tbl.Advance(20)
	assert.Equal(t, []string{"first", "chained"}, order)
}
