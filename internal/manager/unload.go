package manager

import (
	"time"
)

// Unload initiates a graceful drain of the resident model and releases it.
// - Sets instance state to draining to reject new enqueues.
// - Waits up to drainTimeout for in-flight and queued requests to finish.
// - Closes the runtime and removes the instance.
func (m *Manager) Unload(modelID string) error {
	if modelID == "" {
		return ErrModelNotFound("(unspecified)")
	}
	m.loadMu.Lock()
	defer m.loadMu.Unlock()

	m.mu.RLock()
	match := m.resident != nil && m.resident.Model.ID == modelID
	m.mu.RUnlock()
	if !match {
		return ErrModelNotFound(modelID)
	}
	if err := m.drainAndRelease(); err != nil {
		return err
	}
	m.mu.Lock()
	m.state = StateUnloaded
	m.mu.Unlock()
	return nil
}

// drainAndRelease drains the resident instance (if any) and closes its
// runtime. Callers must hold loadMu. The manager is left with no resident.
func (m *Manager) drainAndRelease() error {
	m.mu.Lock()
	inst := m.resident
	if inst == nil {
		m.mu.Unlock()
		return nil
	}
	inst.State = StateDraining
	m.state = StateDraining
	m.mu.Unlock()

	modelID := inst.Model.ID
	m.publisher.Publish(Event{Name: "unload_start", ModelID: modelID, Fields: map[string]any{}})

	deadline := time.Now().Add(m.drainTimeout)
	for {
		qlen := len(inst.queueCh)
		inflight := len(inst.genCh)
		if inflight == 0 && qlen == 0 {
			break
		}
		if time.Now().After(deadline) {
			m.publisher.Publish(Event{Name: "unload_timeout", ModelID: modelID, Fields: map[string]any{"inflight": inflight, "queue": qlen}})
			break
		}
		time.Sleep(10 * time.Millisecond)
	}

	var closeErr error
	if inst.rt != nil {
		closeErr = inst.rt.Close()
	}

	m.mu.Lock()
	m.resident = nil
	m.unloadsTotal++
	m.mu.Unlock()
	unloadsTotalMetric.Inc()

	if closeErr != nil {
		m.log.Error().Str("model", modelID).Err(closeErr).Msg("runtime close failed")
		m.publisher.Publish(Event{Name: "unload_done", ModelID: modelID, Fields: map[string]any{"error": closeErr.Error()}})
		return closeErr
	}
	m.log.Info().Str("model", modelID).Msg("unloaded")
	m.publisher.Publish(Event{Name: "unload_done", ModelID: modelID, Fields: map[string]any{}})
	return nil
}
