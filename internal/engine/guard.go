package engine

// ReentrancyGuard rejects invocations dispatched past a configured call depth.
// Writes the engine performs re-fire the host's triggers; the depth check is
// the first gate in every entry point and the sole protection against
// unbounded recursive invocation. It does not inspect which fields changed.
type ReentrancyGuard struct {
	maxDepth int
}

// NewReentrancyGuard returns a guard allowing invocations up to maxDepth.
func NewReentrancyGuard(maxDepth int) ReentrancyGuard {
	if maxDepth <= 0 {
		maxDepth = 1
	}
	return ReentrancyGuard{maxDepth: maxDepth}
}

// Allow reports whether an invocation at the given depth may proceed.
func (g ReentrancyGuard) Allow(depth int) bool {
	return depth <= g.maxDepth
}
