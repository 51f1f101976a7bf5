package manager

import (
	"time"

	"inferd/pkg/types"
)

// Status builds a detailed status response for /status.
func (m *Manager) Status() types.StatusResponse {
	m.mu.RLock()
	defer m.mu.RUnlock()
	resp := types.StatusResponse{
		State:          string(m.state),
		Error:          m.err,
		LastError:      m.lastErr,
		BudgetMB:       m.budgetMB,
		LoadsTotal:     m.loadsTotal,
		UnloadsTotal:   m.unloadsTotal,
		HasResult:      m.lastResult != nil,
		Device:         m.device,
		UptimeSeconds:  int64(time.Since(m.startTime).Seconds()),
		ServerTimeUnix: time.Now().Unix(),
	}
	if inst := m.resident; inst != nil {
		resp.UsedMB = inst.EstMemMB
		resp.Resident = &types.ResidentStatus{
			ModelID:       inst.Model.ID,
			Capability:    inst.Model.Capability,
			State:         string(inst.State),
			LastUsed:      inst.LastUsed.Unix(),
			EstMemMB:      inst.EstMemMB,
			QueueLen:      len(inst.queueCh),
			Inflight:      len(inst.genCh),
			MaxQueueDepth: cap(inst.queueCh),
		}
	}
	return resp
}
