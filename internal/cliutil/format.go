package cliutil

import (
	"fmt"
	"io"
	"strconv"
	"strings"
	"text/tabwriter"
	"time"

	units "github.com/docker/go-units"

	"github.com/Paintersrp/prokill/internal/sampler"
)

// FormatBytes renders a byte count with binary units, e.g. "1.5MiB".
func FormatBytes(bytes uint64) string {
	return units.BytesSize(float64(bytes))
}

// FormatPercent renders a CPU percentage with one decimal place.
func FormatPercent(p float64) string {
	return strconv.FormatFloat(p, 'f', 1, 64) + "%"
}

// FormatUptime renders a duration at the precision a header needs.
func FormatUptime(d time.Duration) string {
	if d <= 0 {
		return "-"
	}
	return units.HumanDuration(d)
}

// Truncate shortens s to at most width runes, marking the cut with an ellipsis.
func Truncate(s string, width int) string {
	runes := []rune(s)
	if width <= 0 || len(runes) <= width {
		return s
	}
	if width == 1 {
		return "…"
	}
	return string(runes[:width-1]) + "…"
}

// WriteProcessTable prints records as an aligned table.
func WriteProcessTable(out io.Writer, records []sampler.Record) error {
	w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "PID\tNAME\tCPU\tMEMORY\tSTATUS")
	for _, rec := range records {
		status := rec.Status
		if status == "" {
			status = "-"
		}
		fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%s\n",
			rec.PID,
			Truncate(strings.TrimSpace(rec.Name), 40),
			FormatPercent(rec.CPUPercent),
			FormatBytes(rec.MemoryBytes),
			status,
		)
	}
	return w.Flush()
}
