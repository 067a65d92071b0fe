package control

import (
	"context"
	"errors"
	"fmt"
	"time"

	gopsProcess "github.com/shirou/gopsutil/v3/process"
)

type gopsutilInspector struct{}

func (gopsutilInspector) Inspect(ctx context.Context, pid int32) (Identity, error) {
	proc, err := gopsProcess.NewProcessWithContext(ctx, pid)
	if err != nil {
		if errors.Is(err, gopsProcess.ErrorProcessNotRunning) {
			return Identity{}, fmt.Errorf("%w: pid %d", ErrNotFound, pid)
		}
		return Identity{}, err
	}
	identity := Identity{}
	if name, err := proc.NameWithContext(ctx); err == nil {
		identity.Name = name
	}
	if createMs, err := proc.CreateTimeWithContext(ctx); err == nil && createMs > 0 {
		identity.StartTime = time.UnixMilli(createMs)
	}
	return identity, nil
}
