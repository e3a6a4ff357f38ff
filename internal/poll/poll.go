// Package poll guards against stale fetch results. Each in-flight fetch is
// stamped with a sequence number; when a newer fetch starts, results from
// older ones are discarded on arrival instead of overwriting fresher state.
package poll

// Guard issues sequence numbers for fetches. It is not safe for concurrent
// use; the UI event loop is the only caller.
type Guard struct {
	seq uint64
}

// Begin starts a new fetch generation and returns its sequence number.
// Results from earlier generations become stale immediately.
func (g *Guard) Begin() uint64 {
	g.seq++
	return g.seq
}

// Current reports whether seq is the latest generation. Pages drop any
// result message whose stamp fails this check.
func (g *Guard) Current(seq uint64) bool {
	return seq == g.seq
}

// Invalidate marks every in-flight fetch stale without starting a new one.
// Used when leaving a view or switching the polled subject.
func (g *Guard) Invalidate() {
	g.seq++
}
