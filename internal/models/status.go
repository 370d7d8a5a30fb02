package models

// HostStatus is a snapshot of the machine the portal runs on.
type HostStatus struct {
	Hostname      string  `json:"hostname"`
	UptimeSeconds uint64  `json:"uptimeSeconds"`
	CPUPercent    float64 `json:"cpuPercent"`
	MemoryPercent float64 `json:"memoryPercent"`
	Goroutines    int     `json:"goroutines"`
}

// DashboardSummary is the payload of the dashboard landing endpoint.
type DashboardSummary struct {
	User     User       `json:"user"`
	Activity []Activity `json:"activity"`
	Status   HostStatus `json:"status"`
}
