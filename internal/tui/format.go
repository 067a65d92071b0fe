package tui

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/rivo/tview"

	"github.com/Paintersrp/prokill/internal/cliutil"
	"github.com/Paintersrp/prokill/internal/sampler"
	"github.com/Paintersrp/prokill/internal/session"
	"github.com/Paintersrp/prokill/internal/view"
)

const helpText = `Keys
c/m/p/n  sort by cpu, memory, pid, name
         (again to reverse)
/        search by name or pid
a        toggle all processes
r, F5    refresh now
x, Del   end selected process
X        force kill selected process
Enter    actions for selected process
q        quit`

type column struct {
	title     string
	key       view.SortKey
	sortable  bool
	align     int
	expansion int
	value     func(sampler.Record) string
}

func tableColumns(compact bool) []column {
	pid := column{title: "PID", key: view.SortPID, sortable: true, align: tview.AlignRight, value: func(r sampler.Record) string {
		return strconv.FormatInt(int64(r.PID), 10)
	}}
	name := column{title: "NAME", key: view.SortName, sortable: true, align: tview.AlignLeft, expansion: 1, value: func(r sampler.Record) string {
		return tview.Escape(r.Name)
	}}
	cpu := column{title: "CPU", key: view.SortCPU, sortable: true, align: tview.AlignRight, value: func(r sampler.Record) string {
		return cliutil.FormatPercent(r.CPUPercent)
	}}
	memory := column{title: "MEMORY", key: view.SortMemory, sortable: true, align: tview.AlignRight, value: func(r sampler.Record) string {
		return cliutil.FormatBytes(r.MemoryBytes)
	}}
	status := column{title: "STATUS", align: tview.AlignLeft, value: func(r sampler.Record) string {
		if r.Status == "" {
			return "-"
		}
		return r.Status
	}}

	if compact {
		memory.title = "MEM"
		name.value = func(r sampler.Record) string {
			return tview.Escape(cliutil.Truncate(r.Name, 24))
		}
		return []column{name, cpu, memory}
	}
	return []column{pid, name, cpu, memory, status}
}

// headerLabel marks the active sort column with its direction.
func headerLabel(c column, params view.Params) string {
	if !c.sortable || c.key != params.SortKey {
		return c.title
	}
	if params.Descending {
		return c.title + " ▼"
	}
	return c.title + " ▲"
}

func headerText(host sampler.HostSummary, status session.Status) string {
	parts := make([]string, 0, 5)
	if host.Hostname != "" {
		parts = append(parts, "[::b]"+tview.Escape(host.Hostname)+"[::-]")
	}
	if host.Platform != "" {
		parts = append(parts, tview.Escape(host.Platform))
	}
	if host.Uptime > 0 {
		parts = append(parts, "up "+cliutil.FormatUptime(host.Uptime))
	}
	if host.MemoryTotal > 0 {
		parts = append(parts, fmt.Sprintf("mem %.0f%% of %s", host.MemoryPercent, cliutil.FormatBytes(host.MemoryTotal)))
	}
	if host.Load1 > 0 {
		parts = append(parts, fmt.Sprintf("load %.2f", host.Load1))
	}
	if len(parts) == 0 {
		parts = append(parts, "prokill")
	}
	line := strings.Join(parts, " · ")
	if status.State == session.Refreshing {
		line += " [yellow]refreshing[-]"
	}
	return line
}

func footerText(status session.Status, params view.Params, shown int, message string, isErr bool) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%d of %d processes · sort %s", shown, status.Processes, params.SortKey)
	if params.Descending {
		b.WriteString(" desc")
	} else {
		b.WriteString(" asc")
	}
	if params.ShowAll {
		b.WriteString(" · all")
	} else {
		limit := params.TopN
		if limit <= 0 {
			limit = view.DefaultTopN
		}
		fmt.Fprintf(&b, " · top %d", limit)
	}
	if params.Search != "" {
		fmt.Fprintf(&b, " · search %q", tview.Escape(params.Search))
	}
	if !status.CapturedAt.IsZero() {
		fmt.Fprintf(&b, " · updated %s", status.CapturedAt.Format("15:04:05"))
	}
	b.WriteString(" · ? help\n")

	switch {
	case message != "" && isErr:
		fmt.Fprintf(&b, "[red]%s[-]", tview.Escape(message))
	case message != "":
		b.WriteString(tview.Escape(message))
	case status.LastError != "" && status.LastErrorAt.After(status.CapturedAt):
		fmt.Fprintf(&b, "[yellow]last sample failed: %s[-]", tview.Escape(status.LastError))
	}
	return b.String()
}
