package collector

import (
	"fmt"
	"strings"
	"sync"

	"github.com/jaypipes/ghw"
	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/disk"
	"github.com/shirou/gopsutil/v3/host"
	"github.com/shirou/gopsutil/v3/mem"

	"github.com/tomek7667/emsboard/internal/domain"
)

// System reads the resources of the machine the server runs on.
type System struct {
	// DataDir is the directory whose volume is reported as disk usage.
	DataDir string

	mu sync.Mutex
	// CPU percent is derived from deltas between successive samples.
	prevTotal   float64
	prevIdle    float64
	havePrevCPU bool

	physicalMemory       uint64
	physicalMemoryLoaded bool
}

func NewSystem(dataDir string) *System {
	return &System{DataDir: dataDir}
}

// CPUPercent returns the busy share of all cpus since the previous call.
// The first call only records a reference point and returns 0.
func (s *System) CPUPercent() (float64, error) {
	times, err := cpu.Times(false)
	if err != nil {
		return 0, err
	}
	if len(times) == 0 {
		return 0, nil
	}
	t := times[0]

	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cpuDelta(cpuTimesTotal(t), t.Idle+t.Iowait), nil
}

func (s *System) cpuDelta(total, idle float64) float64 {
	if !s.havePrevCPU {
		s.prevTotal, s.prevIdle = total, idle
		s.havePrevCPU = true
		return 0
	}
	totalDelta := total - s.prevTotal
	idleDelta := idle - s.prevIdle
	s.prevTotal, s.prevIdle = total, idle
	if totalDelta <= 0 {
		return 0
	}
	usage := (totalDelta - idleDelta) / totalDelta * 100
	switch {
	case usage < 0:
		return 0
	case usage > 100:
		return 100
	}
	return usage
}

func cpuTimesTotal(t cpu.TimesStat) float64 {
	return t.User + t.System + t.Idle + t.Nice + t.Iowait + t.Irq + t.Softirq + t.Steal + t.Guest + t.GuestNice
}

func (s *System) MemPercent() (float64, error) {
	vm, err := mem.VirtualMemory()
	if err != nil {
		return 0, err
	}
	if vm == nil {
		return 0, nil
	}
	return vm.UsedPercent, nil
}

// Info collects static host facts. Partial results are returned together
// with the joined warnings of the probes that failed.
func (s *System) Info() (domain.HostInfo, error) {
	var (
		info     domain.HostInfo
		warnings []string
	)

	if h, err := host.Info(); err != nil {
		warnings = append(warnings, fmt.Sprintf("host info: %v", err))
	} else {
		info.Hostname = h.Hostname
		info.OS = h.OS
		info.Platform = strings.TrimSpace(h.Platform + " " + h.PlatformVersion)
		info.UptimeSeconds = h.Uptime
	}

	if ci, err := cpu.Info(); err != nil {
		warnings = append(warnings, fmt.Sprintf("cpu info: %v", err))
	} else if len(ci) > 0 {
		info.CPUModel = strings.TrimSpace(ci[0].ModelName)
	}
	if n, err := cpu.Counts(true); err != nil {
		warnings = append(warnings, fmt.Sprintf("cpu logical cores: %v", err))
	} else {
		info.LogicalCores = n
	}

	info.PhysicalMemory = s.physicalMemoryBytes()

	if ip, err := PreferredIP(); err != nil {
		warnings = append(warnings, fmt.Sprintf("host ip: %v", err))
	} else {
		info.IP = ip
	}

	if s.DataDir != "" {
		if u, err := disk.Usage(s.DataDir); err != nil {
			warnings = append(warnings, fmt.Sprintf("disk usage: %v", err))
		} else {
			info.Disk = &domain.DiskUsage{
				Path:        u.Path,
				Fstype:      u.Fstype,
				Total:       u.Total,
				Used:        u.Used,
				UsedPercent: u.UsedPercent,
			}
		}
	}

	if len(warnings) > 0 {
		return info, fmt.Errorf("%s", strings.Join(warnings, "; "))
	}
	return info, nil
}

// physicalMemoryBytes prefers the installed module sizes reported by ghw and
// falls back to the total the kernel makes usable.
func (s *System) physicalMemoryBytes() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.physicalMemoryLoaded {
		return s.physicalMemory
	}

	var total uint64
	if info, err := ghw.Memory(); err == nil {
		if info.TotalPhysicalBytes > 0 {
			total = uint64(info.TotalPhysicalBytes)
		} else {
			for _, mod := range info.Modules {
				if mod != nil && mod.SizeBytes > 0 {
					total += uint64(mod.SizeBytes)
				}
			}
		}
	}
	if total == 0 {
		if vm, err := mem.VirtualMemory(); err == nil && vm != nil {
			total = vm.Total
		}
	}
	s.physicalMemory = total
	s.physicalMemoryLoaded = true
	return total
}
