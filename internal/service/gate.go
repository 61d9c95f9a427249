package service

import "sync/atomic"

// ReentrancyGate serializes the mutating ledger operations. Unlike a mutex
// it never blocks: a second entry while the gate is held fails immediately,
// so a collaborator calling back into the ledger mid-operation is rejected
// instead of deadlocking.
type ReentrancyGate struct {
	busy atomic.Bool
}

// Enter claims the gate. Returns false if an operation is already in flight.
func (g *ReentrancyGate) Enter() bool {
	return g.busy.CompareAndSwap(false, true)
}

// Exit releases the gate.
func (g *ReentrancyGate) Exit() {
	g.busy.Store(false)
}
