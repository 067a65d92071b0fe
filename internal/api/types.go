package api

import (
	stdcontext "context"
	"errors"
	"time"

	"github.com/Paintersrp/prokill/internal/control"
	"github.com/Paintersrp/prokill/internal/sampler"
	"github.com/Paintersrp/prokill/internal/session"
	"github.com/Paintersrp/prokill/internal/view"
)

var (
	ErrInvalidPID    = errors.New("invalid pid")
	ErrInvalidParams = errors.New("invalid view parameters")
	ErrNotRunning    = errors.New("session not running")
)

// ProcessReport is one row of the rendered process list.
type ProcessReport struct {
	PID         int32     `json:"pid"`
	Name        string    `json:"name"`
	CPUPercent  float64   `json:"cpu_percent"`
	MemoryBytes uint64    `json:"memory_bytes"`
	Memory      string    `json:"memory"`
	Status      string    `json:"status,omitempty"`
	StartTime   time.Time `json:"start_time,omitempty"`
	Hot         bool      `json:"hot"`
}

// ProcessList is the rendered view together with the parameters that
// produced it.
type ProcessList struct {
	CapturedAt time.Time       `json:"captured_at"`
	Params     view.Params     `json:"params"`
	Total      int             `json:"total"`
	Shown      int             `json:"shown"`
	Processes  []ProcessReport `json:"processes"`
}

// StatusReport aggregates session and host information.
type StatusReport struct {
	GeneratedAt time.Time           `json:"generated_at"`
	Session     session.Status      `json:"session"`
	Host        sampler.HostSummary `json:"host"`
}

// ViewUpdate is a partial update of the view parameters. Nil fields are left
// unchanged.
type ViewUpdate struct {
	Sort       *string `json:"sort,omitempty"`
	Descending *bool   `json:"descending,omitempty"`
	Search     *string `json:"search,omitempty"`
	ShowAll    *bool   `json:"show_all,omitempty"`
}

// TerminationReport captures the outcome of a termination request.
type TerminationReport struct {
	PID     int32           `json:"pid"`
	Name    string          `json:"name,omitempty"`
	Mode    string          `json:"mode"`
	Outcome control.Outcome `json:"outcome"`
	Message string          `json:"message"`
}

// Controller exposes session operations required by control servers.
type Controller interface {
	Processes(stdcontext.Context) (*ProcessList, error)
	Status(stdcontext.Context) (*StatusReport, error)
	UpdateView(stdcontext.Context, ViewUpdate) (*ProcessList, error)
	Terminate(stdcontext.Context, int32, control.Mode) (*TerminationReport, error)
	Refresh(stdcontext.Context) error
}
