package session

import (
	"context"

	"github.com/Paintersrp/prokill/internal/control"
	"github.com/Paintersrp/prokill/internal/sampler"
	"github.com/Paintersrp/prokill/internal/view"
)

// Controls is the query and command surface a presentation layer may use.
// *Session implements it.
type Controls interface {
	Visible() []sampler.Record
	Params() view.Params
	Status() Status
	UpdateParams(fn func(view.Params) view.Params)
	SetSortKey(key view.SortKey)
	SetSearchText(text string)
	SetShowAll(all bool)
	KillProcess(ctx context.Context, pid int32) control.Result
	ForceKillProcess(ctx context.Context, pid int32) control.Result
	Refresh() bool
	Subscribe(buffer int) (<-chan Event, func())
}

// Renderer is a presentation variant driven by a session. Run blocks until
// the operator quits or ctx is cancelled.
type Renderer interface {
	Run(ctx context.Context, controls Controls) error
}

var _ Controls = (*Session)(nil)
