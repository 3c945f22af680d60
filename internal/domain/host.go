package domain

import "time"

// HostSample is one row of the built-in host_resources source table.
type HostSample struct {
	SampledAt  time.Time `json:"sampled_at"`
	CPUPercent float64   `json:"cpu_percent"`
	MemPercent float64   `json:"mem_percent"`
}

type HostInfo struct {
	Hostname       string      `json:"hostname"`
	OS             string      `json:"os"`
	Platform       string      `json:"platform"`
	CPUModel       string      `json:"cpu_model"`
	LogicalCores   int         `json:"logical_cores"`
	PhysicalMemory uint64      `json:"physical_memory_bytes"`
	UptimeSeconds  uint64      `json:"uptime_seconds"`
	IP             string      `json:"ip,omitempty"`
	Disk           *DiskUsage  `json:"disk,omitempty"`
	Latest         *HostSample `json:"latest,omitempty"`
}

// DiskUsage is the usage of the volume holding the database.
type DiskUsage struct {
	Path        string  `json:"path"`
	Fstype      string  `json:"fstype"`
	Total       uint64  `json:"total_bytes"`
	Used        uint64  `json:"used_bytes"`
	UsedPercent float64 `json:"used_percent"`
}
