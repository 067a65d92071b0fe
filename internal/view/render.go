// Package view derives the ordered, displayable process list from a snapshot.
// Every function here is pure: the same snapshot and parameters always produce
// the same sequence, and neither input is modified.
package view

import (
	"cmp"
	"slices"
	"strconv"
	"strings"

	"github.com/Paintersrp/prokill/internal/sampler"
)

// Render applies the search filter, the top-N CPU cut (unless ShowAll is set)
// and finally the display sort.
//
// The top-N selection is always by CPU, independent of the chosen sort key;
// the sort key only orders the selected subset.
func Render(snap *sampler.Snapshot, params Params) []sampler.Record {
	records := Filter(snap.Records(), params.Search)
	if !params.ShowAll {
		records = TopByCPU(records, params.limit())
	}
	Sort(records, params.SortKey, params.Descending)
	return records
}

// Filter keeps the records whose name contains query case-insensitively or
// whose decimal pid contains query. An empty query keeps everything; any other
// query, whitespace included, is matched literally.
func Filter(records []sampler.Record, query string) []sampler.Record {
	if query == "" {
		return records
	}
	query = strings.ToLower(query)
	out := make([]sampler.Record, 0, len(records))
	for _, rec := range records {
		if Matches(rec, query) {
			out = append(out, rec)
		}
	}
	return out
}

// Matches reports whether rec satisfies an already lower-cased query.
func Matches(rec sampler.Record, query string) bool {
	if strings.Contains(strings.ToLower(rec.Name), query) {
		return true
	}
	return strings.Contains(strconv.FormatInt(int64(rec.PID), 10), query)
}

// TopByCPU returns the n records with the highest CPU usage, ties broken by
// ascending pid. The input slice is not reordered.
func TopByCPU(records []sampler.Record, n int) []sampler.Record {
	ranked := append([]sampler.Record(nil), records...)
	Sort(ranked, SortCPU, true)
	if n >= 0 && len(ranked) > n {
		ranked = ranked[:n]
	}
	return ranked
}

// Sort orders records in place by key. Exact ties on the key are always
// broken by ascending pid so the result is fully deterministic.
func Sort(records []sampler.Record, key SortKey, descending bool) {
	slices.SortFunc(records, func(a, b sampler.Record) int {
		c := compareBy(a, b, key)
		if descending {
			c = -c
		}
		if c != 0 {
			return c
		}
		return cmp.Compare(a.PID, b.PID)
	})
}

func compareBy(a, b sampler.Record, key SortKey) int {
	switch key {
	case SortMemory:
		return cmp.Compare(a.MemoryBytes, b.MemoryBytes)
	case SortPID:
		return cmp.Compare(a.PID, b.PID)
	case SortName:
		return strings.Compare(strings.ToLower(a.Name), strings.ToLower(b.Name))
	default:
		return cmp.Compare(a.CPUPercent, b.CPUPercent)
	}
}
