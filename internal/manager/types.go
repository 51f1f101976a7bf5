package manager

import (
	"time"

	rt "inferd/internal/runtime"
	"inferd/pkg/types"
)

// State represents lifecycle state of the manager and the resident instance.
type State string

const (
	StateUnloaded State = "unloaded"
	StateLoading  State = "loading"
	StateReady    State = "ready"
	StateDraining State = "draining"
	StateError    State = "error"
)

// Instance is the live context of the resident model. The manager holds at
// most one at a time; swapping models fully releases the predecessor.
type Instance struct {
	Model    types.Model
	State    State
	LastUsed time.Time
	EstMemMB int
	// Queueing primitives
	genCh   chan struct{} // size 1: single in-flight run
	queueCh chan struct{} // buffered: queue slots
	// Runtime backing this instance.
	rt rt.Instance
}

// Snapshot is a read-only projection of the manager state.
type Snapshot struct {
	State         State
	ResidentModel *types.Model
	Err           string
}
