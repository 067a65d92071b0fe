package cli

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/Paintersrp/prokill/internal/api"
	"github.com/Paintersrp/prokill/internal/cliutil"
	"github.com/Paintersrp/prokill/internal/view"
)

const defaultListWindow = time.Second

type listOptions struct {
	all    bool
	sort   string
	asc    bool
	search string
	json   bool
	window time.Duration
	top    int
}

func newListCmd(ctx *context) *cobra.Command {
	opts := listOptions{}
	cmd := &cobra.Command{
		Use:   "list",
		Short: "Print the busiest processes",
		Long:  "Takes two samples --window apart so CPU usage reflects recent activity, then prints the view.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runList(cmd, ctx, opts)
		},
	}
	cmd.Flags().BoolVarP(&opts.all, "all", "a", false, "show every process instead of the top N by CPU")
	cmd.Flags().StringVarP(&opts.sort, "sort", "s", "cpu", "sort column: cpu, mem, pid or name")
	cmd.Flags().BoolVar(&opts.asc, "asc", false, "sort ascending (default depends on the column)")
	cmd.Flags().StringVar(&opts.search, "search", "", "only show processes whose name or PID contains this text")
	cmd.Flags().BoolVar(&opts.json, "json", false, "print JSON instead of a table")
	cmd.Flags().DurationVarP(&opts.window, "window", "w", defaultListWindow, "time between the two samples")
	cmd.Flags().IntVarP(&opts.top, "top", "n", 0, "number of processes to show (default from config)")
	return cmd
}

func runList(cmd *cobra.Command, ctx *context, opts listOptions) error {
	key, err := view.ParseSortKey(opts.sort)
	if err != nil {
		return err
	}
	if opts.window <= 0 {
		return fmt.Errorf("--window must be positive, got %s", opts.window)
	}
	cfg := ctx.getConfig()

	params := defaultParams(cfg)
	params.SortKey = key
	params.Descending = key.DefaultDescending()
	if cmd.Flags().Changed("asc") {
		params.Descending = !opts.asc
	}
	params.Search = opts.search
	params.ShowAll = opts.all
	if opts.top > 0 {
		params.TopN = opts.top
	}

	smp := newSampler()
	if _, err := smp.Sample(cmd.Context()); err != nil {
		return err
	}
	select {
	case <-cmd.Context().Done():
		return cmd.Context().Err()
	case <-time.After(opts.window):
	}
	snap, err := smp.Sample(cmd.Context())
	if err != nil {
		return err
	}
	ctx.getLogger().Debug("sampled process table", "processes", snap.Len(), "window", opts.window)

	records := view.Render(snap, params)
	if !opts.json {
		return cliutil.WriteProcessTable(cmd.OutOrStdout(), records)
	}

	list := api.ProcessList{
		CapturedAt: snap.CapturedAt(),
		Params:     params,
		Total:      snap.Len(),
		Shown:      len(records),
		Processes:  make([]api.ProcessReport, 0, len(records)),
	}
	for _, rec := range records {
		list.Processes = append(list.Processes, api.NewProcessReport(rec, cfg.CPUThreshold))
	}
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(list)
}
