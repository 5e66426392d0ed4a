package system

import (
	"os"
	"runtime"
	"time"

	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/mem"
	"github.com/shirou/gopsutil/v3/process"
)

// Snapshot is a point-in-time view of host and process resource usage.
type Snapshot struct {
	Taken        time.Time
	CPUs         int
	HostMemTotal uint64
	HostMemUsed  float64 // percent
	ProcRSS      uint64
	ProcCPU      float64 // percent since process start
	HeapAlloc    uint64
	NumGC        uint32
}

// TakeSnapshot collects a Snapshot. Host or process values that cannot be
// read are left zero.
func TakeSnapshot() Snapshot {
	s := Snapshot{Taken: time.Now(), CPUs: runtime.NumCPU()}

	var ms runtime.MemStats
	runtime.ReadMemStats(&ms)
	s.HeapAlloc = ms.HeapAlloc
	s.NumGC = ms.NumGC

	if n, err := cpu.Counts(true); err == nil && n > 0 {
		s.CPUs = n
	}
	if vm, err := mem.VirtualMemory(); err == nil {
		s.HostMemTotal = vm.Total
		s.HostMemUsed = vm.UsedPercent
	}
	if p, err := process.NewProcess(int32(os.Getpid())); err == nil {
		if info, err := p.MemoryInfo(); err == nil {
			s.ProcRSS = info.RSS
		}
		if pct, err := p.CPUPercent(); err == nil {
			s.ProcCPU = pct
		}
	}
	return s
}

// MB formats bytes as mebibytes.
func MB(b uint64) float64 { return float64(b) / 1024 / 1024 }
