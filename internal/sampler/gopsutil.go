package sampler

import (
	"context"
	"strings"
	"time"

	gopsProcess "github.com/shirou/gopsutil/v3/process"
)

// GopsutilSource reads the process table through gopsutil.
type GopsutilSource struct{}

// NewGopsutilSource returns the default operating system source.
func NewGopsutilSource() *GopsutilSource {
	return &GopsutilSource{}
}

// Observe lists every process and reads its name, CPU times and resident
// memory. Processes that exit mid-read or deny access are skipped.
func (g *GopsutilSource) Observe(ctx context.Context) ([]Observation, error) {
	procs, err := gopsProcess.ProcessesWithContext(ctx)
	if err != nil {
		return nil, err
	}

	result := make([]Observation, 0, len(procs))
	for _, proc := range procs {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		obs, ok := observe(ctx, proc)
		if !ok {
			continue
		}
		result = append(result, obs)
	}
	return result, nil
}

func observe(ctx context.Context, proc *gopsProcess.Process) (Observation, bool) {
	name, err := proc.NameWithContext(ctx)
	if err != nil {
		return Observation{}, false
	}
	times, err := proc.TimesWithContext(ctx)
	if err != nil || times == nil {
		return Observation{}, false
	}
	memInfo, err := proc.MemoryInfoWithContext(ctx)
	if err != nil || memInfo == nil {
		return Observation{}, false
	}

	obs := Observation{
		PID:        proc.Pid,
		Name:       name,
		CPUSeconds: times.User + times.System,
		RSS:        memInfo.RSS,
	}
	if createMs, err := proc.CreateTimeWithContext(ctx); err == nil && createMs > 0 {
		obs.StartTime = time.UnixMilli(createMs)
	}
	if status, err := proc.StatusWithContext(ctx); err == nil && len(status) > 0 {
		obs.Status = strings.Join(status, ",")
	}
	return obs, true
}
