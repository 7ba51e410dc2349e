package tasklist

// Sync tracks the background synchronization of one reorder.
type Sync struct {
	done       chan struct{}
	err        error
	applied    bool
	rolledBack bool
}

func newSync(applied bool) *Sync {
	return &Sync{done: make(chan struct{}), applied: applied}
}

// noopSync is returned for reorders that changed nothing.
func noopSync() *Sync {
	s := newSync(false)
	close(s.done)
	return s
}

// Done is closed once the store has answered and any reload has finished.
func (s *Sync) Done() <-chan struct{} {
	return s.done
}

// Wait blocks until the sync finishes and returns the store error, if any.
func (s *Sync) Wait() error {
	<-s.done
	return s.err
}

// Applied reports whether the reorder changed local state and issued a
// request. Out-of-range indices yield an unapplied sync.
func (s *Sync) Applied() bool {
	return s.applied
}

// RolledBack reports whether the optimistic order was replaced by a reload.
// Only meaningful after Done is closed.
func (s *Sync) RolledBack() bool {
	<-s.done
	return s.rolledBack
}
