// Package tasks provides a table of named, cancellable deferred callbacks
// driven by a virtual millisecond clock.
//
// The table never consults wall time. The owner advances it once per frame,
// which makes teardown deterministic and lets tests run hours of simulated
// time instantly.
package tasks

import "sort"

// Handle identifies one scheduled task. Handles are never reused, so a handle
// kept after its task fired or was cancelled can not affect a newer task.
type Handle uint64

// task is a pending callback.
type task struct {
	id    Handle
	name  string
	dueMs float64
	fn    func()
}

// Table holds pending tasks. It is not safe for concurrent use.
type Table struct {
	nowMs  float64
	nextID Handle
	tasks  map[Handle]*task
	names  map[string]Handle

	due []*task // scratch, reused between Advance calls
}

// New creates an empty table at time zero.
func New() *Table {
	return &Table{
		tasks: make(map[Handle]*task),
		names: make(map[string]Handle),
	}
}

// Now returns the table's current virtual time in milliseconds.
func (t *Table) Now() float64 {
	return t.nowMs
}

// After schedules fn to run delayMs after the current time.
// A non-empty name replaces any pending task with the same name.
func (t *Table) After(name string, delayMs float64, fn func()) Handle {
	if delayMs < 0 {
		delayMs = 0
	}
	if name != "" {
		t.CancelName(name)
	}

	t.nextID++
	tk := &task{id: t.nextID, name: name, dueMs: t.nowMs + delayMs, fn: fn}
	t.tasks[tk.id] = tk
	if name != "" {
		t.names[name] = tk.id
	}
	return tk.id
}

// Cancel removes a pending task. It reports whether the task was pending.
func (t *Table) Cancel(h Handle) bool {
	tk, ok := t.tasks[h]
	if !ok {
		return false
	}
	t.remove(tk)
	return true
}

// CancelName removes the pending task registered under name.
func (t *Table) CancelName(name string) bool {
	h, ok := t.names[name]
	if !ok {
		return false
	}
	return t.Cancel(h)
}

// CancelAll removes every pending task and returns how many were removed.
func (t *Table) CancelAll() int {
	n := len(t.tasks)
	clear(t.tasks)
	clear(t.names)
	return n
}

// Pending reports whether the task behind h has neither fired nor been cancelled.
func (t *Table) Pending(h Handle) bool {
	_, ok := t.tasks[h]
	return ok
}

// Has reports whether a task is pending under name.
func (t *Table) Has(name string) bool {
	_, ok := t.names[name]
	return ok
}

// Len returns the number of pending tasks.
func (t *Table) Len() int {
	return len(t.tasks)
}

// Advance moves the clock forward and runs every task that became due, in due
// order (ties by scheduling order). Tasks scheduled by a running task fire in
// the same call if they are already due. Returns the number of tasks run.
func (t *Table) Advance(deltaMs float64) int {
	if deltaMs > 0 {
		t.nowMs += deltaMs
	}

	fired := 0
	for {
		t.due = t.due[:0]
		for _, tk := range t.tasks {
			if tk.dueMs <= t.nowMs {
				t.due = append(t.due, tk)
			}
		}
		if len(t.due) == 0 {
			return fired
		}
		sort.Slice(t.due, func(i, j int) bool {
			if t.due[i].dueMs != t.due[j].dueMs {
				return t.due[i].dueMs < t.due[j].dueMs
			}
			return t.due[i].id < t.due[j].id
		})

		for _, tk := range t.due {
			// An earlier task in this batch may have cancelled this one.
			if _, ok := t.tasks[tk.id]; !ok {
				continue
			}
			t.remove(tk)
			tk.fn()
			fired++
		}
	}
}

func (t *Table) remove(tk *task) {
	delete(t.tasks, tk.id)
	if tk.name != "" && t.names[tk.name] == tk.id {
		delete(t.names, tk.name)
	}
}
