package api

import (
	stdcontext "context"
	"fmt"
	"time"

	"github.com/Paintersrp/prokill/internal/cliutil"
	"github.com/Paintersrp/prokill/internal/control"
	"github.com/Paintersrp/prokill/internal/sampler"
	"github.com/Paintersrp/prokill/internal/session"
	"github.com/Paintersrp/prokill/internal/view"
)

// SessionController adapts a session to the Controller interface.
type SessionController struct {
	controls     session.Controls
	cpuThreshold float64
	host         func(stdcontext.Context) sampler.HostSummary
}

// NewSessionController wraps controls. Records above cpuThreshold are
// reported as hot.
func NewSessionController(controls session.Controls, cpuThreshold float64) *SessionController {
	return &SessionController{
		controls:     controls,
		cpuThreshold: cpuThreshold,
		host:         sampler.ReadHostSummary,
	}
}

func (c *SessionController) Processes(stdcontext.Context) (*ProcessList, error) {
	return c.list(), nil
}

func (c *SessionController) Status(ctx stdcontext.Context) (*StatusReport, error) {
	return &StatusReport{
		GeneratedAt: time.Now().UTC(),
		Session:     c.controls.Status(),
		Host:        c.host(ctx),
	}, nil
}

func (c *SessionController) UpdateView(_ stdcontext.Context, update ViewUpdate) (*ProcessList, error) {
	var key view.SortKey
	if update.Sort != nil {
		parsed, err := view.ParseSortKey(*update.Sort)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrInvalidParams, err)
		}
		key = parsed
	}
	c.controls.UpdateParams(func(params view.Params) view.Params {
		if update.Sort != nil {
			if update.Descending == nil {
				params = params.WithSortKey(key)
			} else {
				params.SortKey = key
			}
		}
		if update.Descending != nil {
			params.Descending = *update.Descending
		}
		if update.Search != nil {
			params.Search = *update.Search
		}
		if update.ShowAll != nil {
			params.ShowAll = *update.ShowAll
		}
		return params
	})
	return c.list(), nil
}

func (c *SessionController) Terminate(ctx stdcontext.Context, pid int32, mode control.Mode) (*TerminationReport, error) {
	if pid <= 0 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidPID, pid)
	}
	var res control.Result
	if mode == control.Forced {
		res = c.controls.ForceKillProcess(ctx, pid)
	} else {
		res = c.controls.KillProcess(ctx, pid)
	}
	report := &TerminationReport{
		PID:     res.Target.PID,
		Name:    res.Target.Name,
		Mode:    res.Mode.String(),
		Outcome: res.Outcome,
		Message: res.Message(),
	}
	return report, res.Err
}

func (c *SessionController) Refresh(stdcontext.Context) error {
	if !c.controls.Refresh() && c.controls.Status().State == session.Idle {
		return ErrNotRunning
	}
	return nil
}

func (c *SessionController) list() *ProcessList {
	visible := c.controls.Visible()
	status := c.controls.Status()
	list := &ProcessList{
		CapturedAt: status.CapturedAt,
		Params:     c.controls.Params(),
		Total:      status.Processes,
		Shown:      len(visible),
		Processes:  make([]ProcessReport, 0, len(visible)),
	}
	for _, rec := range visible {
		list.Processes = append(list.Processes, NewProcessReport(rec, c.cpuThreshold))
	}
	return list
}

// NewProcessReport converts a record for JSON output. Hot is set when the CPU
// usage exceeds a positive threshold.
func NewProcessReport(rec sampler.Record, cpuThreshold float64) ProcessReport {
	return ProcessReport{
		PID:         rec.PID,
		Name:        rec.Name,
		CPUPercent:  rec.CPUPercent,
		MemoryBytes: rec.MemoryBytes,
		Memory:      cliutil.FormatBytes(rec.MemoryBytes),
		Status:      rec.Status,
		StartTime:   rec.StartTime,
		Hot:         cpuThreshold > 0 && rec.CPUPercent > cpuThreshold,
	}
}

var _ Controller = (*SessionController)(nil)
