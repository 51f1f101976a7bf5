package manager

import (
	"context"
	"time"
)

// beginInference reserves a queue slot and then the single in-flight slot on
// the resident instance. Returns the admitted instance and a release func to
// be deferred. Callers must run inference against the returned instance, not
// m.resident: a timed-out drain can clear or replace the resident while a
// queued request still holds its slots.
func (m *Manager) beginInference(ctx context.Context, modelID string) (*Instance, func(), error) {
	m.mu.RLock()
	inst := m.resident
	draining := inst != nil && inst.State == StateDraining
	m.mu.RUnlock()
	if inst == nil || inst.Model.ID != modelID {
		return nil, func() {}, modelNotFoundError{id: modelID}
	}
	// If draining, reject new work to allow graceful shutdown/swap.
	if draining {
		return nil, func() {}, tooBusyError{modelID: modelID}
	}

	// Fast path: respect an already-canceled context.
	if err := ctx.Err(); err != nil {
		return nil, func() {}, err
	}

	// Try to reserve a queue slot with timeout.
	timer := time.NewTimer(m.maxWait)
	defer timer.Stop()
	select {
	case inst.queueCh <- struct{}{}:
		// reserved queue slot
	case <-ctx.Done():
		return nil, func() {}, ctx.Err()
	case <-timer.C:
		return nil, func() {}, tooBusyError{modelID: modelID}
	}

	// Wait to acquire the single in-flight slot.
	acquired := false
	defer func() {
		if !acquired {
			<-inst.queueCh
		}
	}()
	if err := ctx.Err(); err != nil {
		return nil, func() {}, err
	}
	timer2 := time.NewTimer(m.maxWait)
	defer timer2.Stop()
	select {
	case inst.genCh <- struct{}{}:
		// A drain may have given up on us while we were queued; its runtime
		// is closed (or replaced) by now, so bounce rather than run on it.
		m.mu.Lock()
		if inst.State == StateDraining {
			m.mu.Unlock()
			<-inst.genCh
			return nil, func() {}, tooBusyError{modelID: modelID}
		}
		inst.LastUsed = time.Now()
		m.mu.Unlock()
		acquired = true
		return inst, func() { <-inst.genCh; <-inst.queueCh }, nil
	case <-ctx.Done():
		return nil, func() {}, ctx.Err()
	case <-timer2.C:
		return nil, func() {}, tooBusyError{modelID: modelID}
	}
}
