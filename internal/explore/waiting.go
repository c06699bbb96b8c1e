package explore

// Waiting is the FIFO of arena indices still to be expanded.
//
// It is not safe for concurrent use; each exploration owns one.
type Waiting struct {
	items []int
}

// NewWaiting returns an empty waiting list.
func NewWaiting() *Waiting {
	return &Waiting{items: make([]int, 0, 64)}
}

// Push appends id to the back.
func (w *Waiting) Push(id int) {
	w.items = append(w.items, id)
}

// Pop removes and returns the front index. It returns false when empty.
func (w *Waiting) Pop() (int, bool) {
	if len(w.items) == 0 {
		return 0, false
	}
	id := w.items[0]
	if len(w.items) == 1 {
		// Reuse the backing array once drained.
		w.items = w.items[:0]
	} else {
		w.items = w.items[1:]
	}
	return id, true
}

// Len returns the number of pending indices.
func (w *Waiting) Len() int { return len(w.items) }
