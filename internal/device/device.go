// Package device probes host compute characteristics. The result is surfaced
// in /status and used to size the classifier session thread count.
package device

import (
	"os/exec"
	"runtime"

	"github.com/shirou/gopsutil/v4/cpu"
	"github.com/shirou/gopsutil/v4/mem"

	"inferd/pkg/types"
)

// Probe collects CPU, memory and accelerator information. Failures in any
// probe degrade to zero values rather than erroring; a status report must
// never fail because telemetry did.
func Probe() types.DeviceInfo {
	info := types.DeviceInfo{
		OS:          runtime.GOOS,
		Arch:        runtime.GOARCH,
		Accelerator: detectAccelerator(),
	}
	if n, err := cpu.Counts(true); err == nil {
		info.LogicalCPUs = n
	} else {
		info.LogicalCPUs = runtime.NumCPU()
	}
	if vm, err := mem.VirtualMemory(); err == nil {
		info.TotalMemMB = int(vm.Total / (1024 * 1024))
		info.AvailableMemMB = int(vm.Available / (1024 * 1024))
	}
	return info
}

// detectAccelerator reports "cuda" when the NVIDIA driver tooling is present,
// else "cpu". Mirrors the cuda-then-cpu preference order of the desktop tool
// this service replaced.
func detectAccelerator() string {
	if _, err := exec.LookPath("nvidia-smi"); err == nil {
		return "cuda"
	}
	return "cpu"
}

// Threads picks an intra-op thread count for local inference sessions.
// configured wins when positive; otherwise half the logical CPUs, minimum 1.
func Threads(configured int) int {
	if configured > 0 {
		return configured
	}
	n := runtime.NumCPU() / 2
	if n < 1 {
		n = 1
	}
	return n
}
