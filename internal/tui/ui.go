package tui

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/gdamore/tcell/v2"
	"github.com/rivo/tview"

	"github.com/Paintersrp/prokill/internal/control"
	"github.com/Paintersrp/prokill/internal/sampler"
	"github.com/Paintersrp/prokill/internal/session"
	"github.com/Paintersrp/prokill/internal/view"
)

const (
	tableTitle     = "Processes"
	mainPageName   = "main"
	searchPageName = "search"
	dialogPageName = "dialog"

	messageTTL      = 5 * time.Second
	hostRefresh     = 5 * time.Second
	refreshInterval = time.Second
)

// Option configures UI behaviour.
type Option func(*UI)

// WithCompact selects the narrow panel layout: no host header and fewer
// columns.
func WithCompact() Option {
	return func(u *UI) {
		u.compact = true
	}
}

// WithCPUThreshold highlights processes whose CPU usage exceeds p percent.
// Zero disables highlighting.
func WithCPUThreshold(p float64) Option {
	return func(u *UI) {
		if p >= 0 {
			u.cpuThreshold = p
		}
	}
}

// WithProtected lists process names the UI refuses to offer for termination.
func WithProtected(names []string) Option {
	return func(u *UI) {
		u.protected = append([]string(nil), names...)
	}
}

// WithHostSummary replaces the host header source.
func WithHostSummary(fn func(context.Context) sampler.HostSummary) Option {
	return func(u *UI) {
		if fn != nil {
			u.hostFn = fn
		}
	}
}

// UI is the interactive process table backed by tview. It implements
// session.Renderer.
type UI struct {
	app    *tview.Application
	pages  *tview.Pages
	header *tview.TextView
	table  *tview.Table
	footer *tview.TextView

	compact      bool
	cpuThreshold float64
	protected    []string
	hostFn       func(context.Context) sampler.HostSummary

	controls session.Controls
	ctx      context.Context

	// visible and selected belong to the draw loop.
	visible  []sampler.Record
	selected int32

	mu         sync.Mutex
	host       sampler.HostSummary
	message    string
	messageErr bool
	messageAt  time.Time

	stopOnce sync.Once
	done     chan struct{}
}

var _ session.Renderer = (*UI)(nil)

// New constructs a UI configured with the supplied options.
func New(opts ...Option) *UI {
	app := tview.NewApplication()
	table := tview.NewTable().SetFixed(1, 0).SetSelectable(true, false)
	table.SetBorder(true).SetTitle(tableTitle)

	header := tview.NewTextView().SetDynamicColors(true)
	footer := tview.NewTextView().SetDynamicColors(true)

	ui := &UI{
		app:          app,
		header:       header,
		table:        table,
		footer:       footer,
		cpuThreshold: 50,
		protected:    control.DefaultProtected(),
		hostFn:       sampler.ReadHostSummary,
		ctx:          context.Background(),
		done:         make(chan struct{}),
	}
	for _, opt := range opts {
		opt(ui)
	}

	flex := tview.NewFlex().SetDirection(tview.FlexRow)
	if !ui.compact {
		flex.AddItem(header, 1, 0, false)
	}
	flex.AddItem(table, 0, 1, true).
		AddItem(footer, 2, 0, false)
	ui.pages = tview.NewPages().AddPage(mainPageName, flex, true, true)

	table.SetSelectionChangedFunc(func(row, column int) {
		ui.syncSelection(row)
	})
	table.SetSelectedFunc(func(row, column int) {
		ui.showActions()
	})

	app.SetRoot(ui.pages, true)
	app.SetInputCapture(ui.handleKey)
	return ui
}

// Done returns a channel that is closed when the UI stops.
func (u *UI) Done() <-chan struct{} {
	return u.done
}

// Run drives the interface from controls until the operator quits or ctx is
// cancelled.
func (u *UI) Run(ctx context.Context, controls session.Controls) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	u.controls = controls
	u.ctx = ctx
	events, release := controls.Subscribe(64)
	defer release()

	u.render()
	go u.consumeEvents(ctx, events)
	go func() {
		<-ctx.Done()
		select {
		case <-u.done:
			return
		default:
		}
		// Stopping from the draw loop guarantees the screen exists.
		u.app.QueueUpdate(u.Stop)
	}()

	err := u.app.Run()
	u.Stop()
	return err
}

// Stop terminates the application loop.
func (u *UI) Stop() {
	u.stopOnce.Do(func() {
		close(u.done)
		u.app.Stop()
	})
}

func (u *UI) consumeEvents(ctx context.Context, events <-chan session.Event) {
	ticker := time.NewTicker(refreshInterval)
	defer ticker.Stop()

	var hostAt time.Time
	readHost := func(now time.Time) {
		if u.compact || now.Sub(hostAt) < hostRefresh {
			return
		}
		host := u.hostFn(ctx)
		u.mu.Lock()
		u.host = host
		u.mu.Unlock()
		hostAt = now
	}
	readHost(time.Now())
	u.queueRender()

	for {
		select {
		case <-ctx.Done():
			return
		case evt, ok := <-events:
			if !ok {
				return
			}
			if evt.Type == session.EventSampleError && evt.Err != nil {
				u.setMessage(fmt.Sprintf("sampling failed: %v", evt.Err), true)
			}
			u.queueRender()
		case now := <-ticker.C:
			readHost(now)
			u.queueRender()
		}
	}
}

// queueRender schedules a redraw from a goroutine other than the draw loop.
func (u *UI) queueRender() {
	select {
	case <-u.done:
		return
	default:
	}
	u.app.QueueUpdateDraw(u.render)
}

func (u *UI) handleKey(event *tcell.EventKey) *tcell.EventKey {
	if u.app.GetFocus() != u.table {
		// Overlays handle their own keys.
		return event
	}
	switch event.Key() {
	case tcell.KeyDelete:
		if event.Modifiers()&tcell.ModShift != 0 {
			u.confirmTerminate(control.Forced)
		} else {
			u.confirmTerminate(control.Graceful)
		}
		return nil
	case tcell.KeyEscape:
		if u.controls != nil && u.controls.Params().Search != "" {
			u.controls.SetSearchText("")
			u.render()
			return nil
		}
		return event
	case tcell.KeyF5:
		u.refresh()
		return nil
	case tcell.KeyRune:
		switch event.Rune() {
		case 'q', 'Q':
			u.Stop()
			return nil
		case '/':
			u.showSearchPrompt()
			return nil
		case 'c':
			u.setSort(view.SortCPU)
			return nil
		case 'm':
			u.setSort(view.SortMemory)
			return nil
		case 'p':
			u.setSort(view.SortPID)
			return nil
		case 'n':
			u.setSort(view.SortName)
			return nil
		case 'a':
			u.toggleShowAll()
			return nil
		case 'r':
			u.refresh()
			return nil
		case 'x':
			u.confirmTerminate(control.Graceful)
			return nil
		case 'X':
			u.confirmTerminate(control.Forced)
			return nil
		case '?':
			u.showHelp()
			return nil
		}
	}
	return event
}

func (u *UI) setSort(key view.SortKey) {
	if u.controls == nil {
		return
	}
	u.controls.SetSortKey(key)
	u.render()
}

func (u *UI) toggleShowAll() {
	if u.controls == nil {
		return
	}
	u.controls.SetShowAll(!u.controls.Params().ShowAll)
	u.render()
}

func (u *UI) refresh() {
	if u.controls == nil {
		return
	}
	if u.controls.Refresh() {
		u.setMessage("refreshing", false)
	}
	u.render()
}

func (u *UI) showSearchPrompt() {
	if u.controls == nil {
		return
	}
	previous := u.controls.Params().Search

	input := tview.NewInputField().
		SetLabel("Search: ").
		SetText(previous).
		SetFieldWidth(40)
	input.SetChangedFunc(func(text string) {
		u.controls.SetSearchText(text)
		u.render()
	})
	input.SetDoneFunc(func(key tcell.Key) {
		if key == tcell.KeyEscape {
			u.controls.SetSearchText(previous)
		}
		u.closeOverlay(searchPageName)
	})
	input.SetBorder(true).SetTitle("Filter by name or PID")

	grid := tview.NewGrid().
		SetColumns(0, 56, 0).
		SetRows(0, 3, 0).
		AddItem(input, 1, 1, 1, 1, 0, 0, true)

	u.pages.AddPage(searchPageName, grid, true, true)
	u.app.SetFocus(input)
}

func (u *UI) showActions() {
	rec, ok := u.selectedRecord()
	if !ok {
		return
	}
	modal := tview.NewModal().
		SetText(fmt.Sprintf("%s (PID %d)", rec.Name, rec.PID)).
		AddButtons([]string{"End process", "Force kill", "Cancel"}).
		SetDoneFunc(func(buttonIndex int, buttonLabel string) {
			u.closeOverlay(dialogPageName)
			switch buttonIndex {
			case 0:
				u.confirmTerminate(control.Graceful)
			case 1:
				u.confirmTerminate(control.Forced)
			}
		})
	u.pages.AddPage(dialogPageName, modal, true, true)
	u.app.SetFocus(modal)
}

// confirmTerminate asks the operator before signalling the selected process.
// Protected processes are refused up front.
func (u *UI) confirmTerminate(mode control.Mode) {
	rec, ok := u.selectedRecord()
	if !ok {
		return
	}
	if control.IsProtected(u.protected, rec.Name) {
		u.setMessage(fmt.Sprintf("%s (PID %d) is protected", rec.Name, rec.PID), true)
		u.render()
		return
	}

	question := fmt.Sprintf("End %s (PID %d)?\nThe process will be asked to exit.", rec.Name, rec.PID)
	confirm := "End process"
	if mode == control.Forced {
		question = fmt.Sprintf("Force kill %s (PID %d)?\nUnsaved work will be lost.", rec.Name, rec.PID)
		confirm = "Force kill"
	}
	modal := tview.NewModal().
		SetText(question).
		AddButtons([]string{confirm, "Cancel"}).
		SetDoneFunc(func(buttonIndex int, buttonLabel string) {
			u.closeOverlay(dialogPageName)
			if buttonIndex == 0 {
				u.terminate(rec.PID, mode)
			}
		})
	u.pages.RemovePage(dialogPageName)
	u.pages.AddPage(dialogPageName, modal, true, true)
	u.app.SetFocus(modal)
}

// terminate runs the request on a worker goroutine so the draw loop never
// blocks on a signal.
func (u *UI) terminate(pid int32, mode control.Mode) {
	controls, ctx := u.controls, u.ctx
	if controls == nil {
		return
	}
	u.setMessage(fmt.Sprintf("signalling PID %d", pid), false)
	go func() {
		var res control.Result
		if mode == control.Forced {
			res = controls.ForceKillProcess(ctx, pid)
		} else {
			res = controls.KillProcess(ctx, pid)
		}
		u.setMessage(res.Message(), res.Failed())
		u.queueRender()
	}()
}

func (u *UI) showHelp() {
	modal := tview.NewModal().
		SetText(helpText).
		AddButtons([]string{"Close"}).
		SetDoneFunc(func(int, string) {
			u.closeOverlay(dialogPageName)
		})
	u.pages.AddPage(dialogPageName, modal, true, true)
	u.app.SetFocus(modal)
}

func (u *UI) closeOverlay(name string) {
	u.pages.RemovePage(name)
	u.app.SetFocus(u.table)
	u.render()
}

func (u *UI) setMessage(text string, isErr bool) {
	u.mu.Lock()
	defer u.mu.Unlock()
	u.message = text
	u.messageErr = isErr
	u.messageAt = time.Now()
}

func (u *UI) selectedRecord() (sampler.Record, bool) {
	for _, rec := range u.visible {
		if rec.PID == u.selected {
			return rec, true
		}
	}
	return sampler.Record{}, false
}

// render rebuilds every widget from the session. It must run on the draw loop.
func (u *UI) render() {
	if u.controls == nil {
		return
	}
	visible := u.controls.Visible()
	params := u.controls.Params()
	status := u.controls.Status()

	u.mu.Lock()
	if u.message != "" && time.Since(u.messageAt) > messageTTL {
		u.message = ""
	}
	host, message, messageErr := u.host, u.message, u.messageErr
	u.mu.Unlock()

	u.visible = visible
	u.renderTable(params)
	if !u.compact {
		u.header.SetText(headerText(host, status))
	}
	u.footer.SetText(footerText(status, params, len(visible), message, messageErr))
}

func (u *UI) renderTable(params view.Params) {
	u.table.Clear()
	columns := tableColumns(u.compact)
	for col, c := range columns {
		cell := tview.NewTableCell(headerLabel(c, params)).
			SetSelectable(false).
			SetAttributes(tcell.AttrBold).
			SetExpansion(c.expansion).
			SetAlign(c.align)
		u.table.SetCell(0, col, cell)
	}

	for row, rec := range u.visible {
		hot := u.cpuThreshold > 0 && rec.CPUPercent > u.cpuThreshold
		for col, c := range columns {
			cell := tview.NewTableCell(c.value(rec)).
				SetExpansion(c.expansion).
				SetAlign(c.align).
				SetReference(rec.PID)
			if hot {
				cell.SetTextColor(tcell.ColorRed)
			}
			u.table.SetCell(row+1, col, cell)
		}
	}

	title := tableTitle
	if params.Search != "" {
		title = fmt.Sprintf("%s [%s]", tableTitle, tview.Escape(params.Search))
	}
	u.table.SetTitle(title)
	u.ensureSelection()
}

func (u *UI) ensureSelection() {
	if len(u.visible) == 0 {
		u.selected = 0
		u.table.Select(0, 0)
		return
	}
	idx := 0
	for i, rec := range u.visible {
		if rec.PID == u.selected {
			idx = i
			break
		}
	}
	u.selected = u.visible[idx].PID
	u.table.Select(idx+1, 0)
}

func (u *UI) syncSelection(row int) {
	if row <= 0 || row-1 >= len(u.visible) {
		return
	}
	u.selected = u.visible[row-1].PID
}
