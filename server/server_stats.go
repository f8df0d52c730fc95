package server

import (
	"runtime"
	"sync"

	"github.com/jpillora/velox"
	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/host"
	"github.com/shirou/gopsutil/v3/mem"
)

type sysStats struct {
	Set         bool    `json:"set"`
	CPU         float64 `json:"cpu"`
	MemoryUsed  int64   `json:"memoryUsed"`
	MemoryTotal int64   `json:"memoryTotal"`
	HostUptime  uint64  `json:"hostUptime"`
	GoMemory    int64   `json:"goMemory"`
	GoRoutines  int     `json:"goRoutines"`
	//internal
	pusher velox.Pusher
}

// loadStats samples the host, then swaps the values in under the state lock.
func (s *sysStats) loadStats() {
	n := sysStats{pusher: s.pusher}
	//cpu usage since the last call
	if cpu, err := cpu.Percent(0, false); err == nil && len(cpu) > 0 {
		n.CPU = cpu[0]
	}
	if stat, err := mem.VirtualMemory(); err == nil {
		n.MemoryUsed = int64(stat.Used)
		n.MemoryTotal = int64(stat.Total)
	}
	if up, err := host.Uptime(); err == nil {
		n.HostUptime = up
	}
	//count total bytes allocated by the go runtime
	memStats := runtime.MemStats{}
	runtime.ReadMemStats(&memStats)
	n.GoMemory = int64(memStats.Alloc)
	n.GoRoutines = runtime.NumGoroutine()
	n.Set = true

	if l, ok := s.pusher.(sync.Locker); ok {
		l.Lock()
		*s = n
		l.Unlock()
	} else {
		*s = n
	}
	if s.pusher != nil {
		s.pusher.Push()
	}
}
