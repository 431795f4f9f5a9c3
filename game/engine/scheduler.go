package engine

// Scheduler is a cyclic cursor over a fixed agent order. It never skips dead
// agents, so a full cycle is always len(order) turns.
type Scheduler struct {
	order []string
	idx   int
}

// NewScheduler creates a scheduler positioned at the first id.
func NewScheduler(order []string) *Scheduler {
	o := make([]string, len(order))
	copy(o, order)
	return &Scheduler{order: o}
}

// Current returns the id whose turn it is.
func (s *Scheduler) Current() string {
	return s.order[s.idx]
}

// Index returns the cursor position.
func (s *Scheduler) Index() int { return s.idx }

// Advance moves to the next id, wrapping after the last.
func (s *Scheduler) Advance() {
	s.idx = (s.idx + 1) % len(s.order)
}

// Reset moves back to the first id.
func (s *Scheduler) Reset() {
	s.idx = 0
}

// Len returns the cycle length.
func (s *Scheduler) Len() int { return len(s.order) }
