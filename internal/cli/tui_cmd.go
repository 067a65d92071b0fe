package cli

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/Paintersrp/prokill/internal/config"
	"github.com/Paintersrp/prokill/internal/session"
	"github.com/Paintersrp/prokill/internal/tui"
	"github.com/Paintersrp/prokill/internal/view"
)

// Replaced in tests.
var newRenderer = func(opts ...tui.Option) session.Renderer {
	return tui.New(opts...)
}

func newPanelCmd(ctx *context) *cobra.Command {
	return &cobra.Command{
		Use:         "panel",
		Short:       "Launch the compact process panel",
		Args:        cobra.NoArgs,
		Annotations: map[string]string{fullScreenAnnotation: "true"},
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTUI(cmd, ctx, true)
		},
	}
}

func runTUI(cmd *cobra.Command, ctx *context, compact bool) error {
	if !supportsInteractiveOutput(cmd) {
		return errors.New("the interactive view requires a terminal; try 'prokill list'")
	}
	cfg := ctx.getConfig()

	sess := ctx.newSession()
	if err := sess.Start(cmd.Context()); err != nil {
		return fmt.Errorf("start session: %w", err)
	}
	defer func() {
		sess.Stop()
		sess.Wait()
	}()

	opts := []tui.Option{
		tui.WithCPUThreshold(cfg.CPUThreshold),
		tui.WithProtected(cfg.Protected),
	}
	if compact {
		opts = append(opts, tui.WithCompact())
	}
	ctx.getLogger().Debug("starting interface", "compact", compact, "interval", cfg.RefreshInterval.Duration)
	return newRenderer(opts...).Run(cmd.Context(), sess)
}

// supportsInteractiveOutput reports whether stdin and stdout are terminals.
func supportsInteractiveOutput(cmd *cobra.Command) bool {
	if f, ok := cmd.OutOrStdout().(*os.File); !ok || !term.IsTerminal(int(f.Fd())) {
		return false
	}
	if f, ok := cmd.InOrStdin().(*os.File); !ok || !term.IsTerminal(int(f.Fd())) {
		return false
	}
	return true
}

func defaultParams(cfg *config.Config) view.Params {
	params := view.DefaultParams()
	if cfg.TopN > 0 {
		params.TopN = cfg.TopN
	}
	return params
}
