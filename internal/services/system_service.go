package services

import (
	"context"
	"runtime"

	"github.com/isdelr/portal-be/internal/models"
	"github.com/rs/zerolog/log"
	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/host"
	"github.com/shirou/gopsutil/v3/mem"
)

// SystemServiceProvider reports host status for the dashboard.
type SystemServiceProvider interface {
	GetHostStatus(ctx context.Context) (models.HostStatus, error)
}

// SystemService reads host metrics with gopsutil.
type SystemService struct{}

// NewSystemService creates a new SystemService.
func NewSystemService() *SystemService {
	return &SystemService{}
}

// GetHostStatus collects a host snapshot. Individual metrics that cannot be
// read are left at zero; only a failure to read host info is an error.
func (s *SystemService) GetHostStatus(ctx context.Context) (models.HostStatus, error) {
	info, err := host.InfoWithContext(ctx)
	if err != nil {
		return models.HostStatus{}, err
	}

	status := models.HostStatus{
		Hostname:      info.Hostname,
		UptimeSeconds: info.Uptime,
		Goroutines:    runtime.NumGoroutine(),
	}

	// Interval 0 compares against the previous call instead of sleeping.
	if percents, err := cpu.PercentWithContext(ctx, 0, false); err != nil {
		log.Warn().Err(err).Msg("Could not read CPU usage")
	} else if len(percents) > 0 {
		status.CPUPercent = percents[0]
	}

	if vm, err := mem.VirtualMemoryWithContext(ctx); err != nil {
		log.Warn().Err(err).Msg("Could not read memory usage")
	} else {
		status.MemoryPercent = vm.UsedPercent
	}

	return status, nil
}
