package view

import (
	"fmt"
	"slices"
	"testing"
	"time"

	"github.com/Paintersrp/prokill/internal/sampler"
)

func snapshotOf(records ...sampler.Record) *sampler.Snapshot {
	return sampler.NewSnapshot(time.Unix(1_700_000_000, 0), records)
}

func rec(pid int32, name string, cpu float64, mem uint64) sampler.Record {
	return sampler.Record{PID: pid, Name: name, CPUPercent: cpu, MemoryBytes: mem}
}

func pids(records []sampler.Record) []int32 {
	out := make([]int32, 0, len(records))
	for _, r := range records {
		out = append(out, r.PID)
	}
	return out
}

func TestRenderDefaultViewOrdersByCPU(t *testing.T) {
	snap := snapshotOf(
		rec(1, "a", 50, 100),
		rec(2, "b", 10, 500),
		rec(3, "c", 90, 50),
	)
	got := pids(Render(snap, DefaultParams()))
	if want := []int32{3, 1, 2}; !slices.Equal(got, want) {
		t.Fatalf("expected %v, got %v", want, got)
	}
}

func TestRenderSortsByMemoryAndName(t *testing.T) {
	snap := snapshotOf(
		rec(1, "beta", 50, 100),
		rec(2, "Alpha", 10, 500),
		rec(3, "gamma", 90, 50),
	)

	params := DefaultParams().WithSortKey(SortMemory)
	if got, want := pids(Render(snap, params)), []int32{2, 1, 3}; !slices.Equal(got, want) {
		t.Fatalf("memory desc: expected %v, got %v", want, got)
	}

	params = DefaultParams().WithSortKey(SortName)
	if params.Descending {
		t.Fatalf("expected name to default to ascending")
	}
	if got, want := pids(Render(snap, params)), []int32{2, 1, 3}; !slices.Equal(got, want) {
		t.Fatalf("name asc: expected %v, got %v", want, got)
	}
}

func TestRenderTiesBreakByPID(t *testing.T) {
	snap := snapshotOf(
		rec(9, "x", 20, 1),
		rec(4, "y", 20, 1),
		rec(6, "z", 20, 1),
	)
	for _, params := range []Params{
		{SortKey: SortCPU, Descending: true},
		{SortKey: SortCPU, Descending: false},
		{SortKey: SortMemory, Descending: true},
	} {
		if got, want := pids(Render(snap, params)), []int32{4, 6, 9}; !slices.Equal(got, want) {
			t.Fatalf("%+v: expected %v, got %v", params, want, got)
		}
	}
}

func TestRenderTopNSelectsByCPURegardlessOfSortKey(t *testing.T) {
	records := make([]sampler.Record, 0, 15)
	for i := int32(1); i <= 15; i++ {
		// pid 15 is the busiest and uses the least memory.
		records = append(records, rec(i, fmt.Sprintf("p%02d", i), float64(i), uint64(100-i)))
	}
	snap := snapshotOf(records...)

	params := Params{SortKey: SortMemory, Descending: true, TopN: 10}
	got := Render(snap, params)
	if len(got) != 10 {
		t.Fatalf("expected 10 records, got %d", len(got))
	}
	for _, r := range got {
		if r.PID < 6 {
			t.Fatalf("pid %d is not among the top ten by cpu", r.PID)
		}
	}
	if got[0].PID != 6 {
		t.Fatalf("expected the selected subset to be ordered by memory, got first pid %d", got[0].PID)
	}
}

func TestRenderShowAllKeepsEveryRecord(t *testing.T) {
	records := make([]sampler.Record, 0, 25)
	for i := int32(1); i <= 25; i++ {
		records = append(records, rec(i, "p", float64(i%7), 1))
	}
	snap := snapshotOf(records...)

	params := DefaultParams()
	params.ShowAll = true
	if got := Render(snap, params); len(got) != 25 {
		t.Fatalf("expected all 25 records, got %d", len(got))
	}
	params.ShowAll = false
	if got := Render(snap, params); len(got) != DefaultTopN {
		t.Fatalf("expected %d records, got %d", DefaultTopN, len(got))
	}
}

func TestRenderSearchMatchesNameAndPID(t *testing.T) {
	snap := snapshotOf(
		rec(1234, "sshd", 1, 1),
		rec(77, "Chrome", 2, 1),
		rec(88, "chromedriver", 3, 1),
		rec(99, "bash", 4, 1),
	)

	params := DefaultParams()
	params.Search = "CHROME"
	if got, want := pids(Render(snap, params)), []int32{88, 77}; !slices.Equal(got, want) {
		t.Fatalf("name search: expected %v, got %v", want, got)
	}

	params.Search = "23"
	if got, want := pids(Render(snap, params)), []int32{1234}; !slices.Equal(got, want) {
		t.Fatalf("pid search: expected %v, got %v", want, got)
	}

	params.Search = "nothing-matches"
	if got := Render(snap, params); len(got) != 0 {
		t.Fatalf("expected empty result, got %v", pids(got))
	}
}

func TestRenderSearchMatchesWhitespaceLiterally(t *testing.T) {
	snap := snapshotOf(
		rec(1, "Web Content", 1, 1),
		rec(2, "sshd", 2, 1),
	)

	params := DefaultParams()
	params.Search = " "
	if got, want := pids(Render(snap, params)), []int32{1}; !slices.Equal(got, want) {
		t.Fatalf("expected only the name containing a space, got %v", got)
	}

	params.Search = " sshd"
	if got := Render(snap, params); len(got) != 0 {
		t.Fatalf("expected leading space to be significant, got %v", pids(got))
	}
}

func TestRenderSearchAppliesBeforeTopN(t *testing.T) {
	records := make([]sampler.Record, 0, 12)
	for i := int32(1); i <= 12; i++ {
		records = append(records, rec(i, "busy", 90, 1))
	}
	records = append(records, rec(100, "quiet", 0.1, 1))
	snap := snapshotOf(records...)

	params := DefaultParams()
	params.Search = "quiet"
	if got, want := pids(Render(snap, params)), []int32{100}; !slices.Equal(got, want) {
		t.Fatalf("expected the filtered process despite low cpu, got %v", got)
	}
}

func TestRenderAscendingReversesDescending(t *testing.T) {
	snap := snapshotOf(
		rec(1, "a", 3, 30),
		rec(2, "b", 1, 10),
		rec(3, "c", 2, 20),
	)
	for _, key := range []SortKey{SortCPU, SortMemory, SortPID, SortName} {
		desc := pids(Render(snap, Params{SortKey: key, Descending: true}))
		asc := pids(Render(snap, Params{SortKey: key, Descending: false}))
		slices.Reverse(asc)
		if !slices.Equal(desc, asc) {
			t.Fatalf("%s: ascending is not the reverse of descending: %v vs %v", key, desc, asc)
		}
	}
}

func TestRenderIsPureAndIdempotent(t *testing.T) {
	snap := snapshotOf(
		rec(5, "e", 1, 5),
		rec(3, "c", 9, 3),
		rec(4, "d", 4, 4),
	)
	before := snap.Records()
	params := Params{SortKey: SortName, Descending: true}

	first := Render(snap, params)
	second := Render(snap, params)
	if !slices.Equal(pids(first), pids(second)) {
		t.Fatalf("render is not deterministic: %v vs %v", pids(first), pids(second))
	}
	if !slices.Equal(pids(snap.Records()), pids(before)) {
		t.Fatalf("render reordered the snapshot")
	}
}

func TestRenderEmptySnapshot(t *testing.T) {
	if got := Render(nil, DefaultParams()); len(got) != 0 {
		t.Fatalf("expected empty render of nil snapshot, got %d", len(got))
	}
	if got := Render(snapshotOf(), DefaultParams()); len(got) != 0 {
		t.Fatalf("expected empty render, got %d", len(got))
	}
}

func TestWithSortKeyToggles(t *testing.T) {
	params := DefaultParams()
	params = params.WithSortKey(SortCPU)
	if params.Descending {
		t.Fatalf("expected reselecting cpu to flip to ascending")
	}
	params = params.WithSortKey(SortPID)
	if params.SortKey != SortPID || params.Descending {
		t.Fatalf("expected pid ascending, got %+v", params)
	}
	params = params.WithSortKey(SortMemory)
	if !params.Descending {
		t.Fatalf("expected memory to start descending")
	}
}

func TestParseSortKey(t *testing.T) {
	cases := map[string]SortKey{
		"cpu":    SortCPU,
		"MEM":    SortMemory,
		"memory": SortMemory,
		" pid ":  SortPID,
		"name":   SortName,
	}
	for raw, want := range cases {
		got, err := ParseSortKey(raw)
		if err != nil {
			t.Fatalf("parse %q: %v", raw, err)
		}
		if got != want {
			t.Fatalf("parse %q: expected %s, got %s", raw, want, got)
		}
	}
	if _, err := ParseSortKey("uptime"); err == nil {
		t.Fatalf("expected error for unknown key")
	}
}
