package sampler

import (
	"context"
	"os"
	"runtime"
	"strings"
	"time"

	"github.com/shirou/gopsutil/v3/host"
	"github.com/shirou/gopsutil/v3/load"
	"github.com/shirou/gopsutil/v3/mem"
)

// HostSummary is the header information shown above the process list.
type HostSummary struct {
	Hostname      string        `json:"hostname"`
	Platform      string        `json:"platform"`
	Uptime        time.Duration `json:"uptime"`
	MemoryTotal   uint64        `json:"memory_total"`
	MemoryPercent float64       `json:"memory_percent"`
	Load1         float64       `json:"load1"`
}

// ReadHostSummary gathers host level details. Fields that cannot be read are
// left at their zero value.
func ReadHostSummary(ctx context.Context) HostSummary {
	summary := HostSummary{}
	summary.Hostname, _ = os.Hostname()

	if info, err := host.InfoWithContext(ctx); err == nil && info != nil {
		if info.Hostname != "" {
			summary.Hostname = info.Hostname
		}
		summary.Platform = strings.TrimSpace(info.Platform + " " + info.PlatformVersion)
		summary.Uptime = time.Duration(info.Uptime) * time.Second
	}

	if vm, err := mem.VirtualMemoryWithContext(ctx); err == nil && vm != nil {
		summary.MemoryTotal = vm.Total
		summary.MemoryPercent = vm.UsedPercent
	}

	// Load average is not available on Windows.
	if runtime.GOOS != "windows" {
		if avg, err := load.AvgWithContext(ctx); err == nil && avg != nil {
			summary.Load1 = avg.Load1
		}
	}
	return summary
}
