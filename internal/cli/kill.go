package cli

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/Paintersrp/prokill/internal/control"
)

func newKillCmd(ctx *context) *cobra.Command {
	var force bool
	cmd := &cobra.Command{
		Use:   "kill PID",
		Short: "Terminate a process by PID",
		Long:  "Asks the process to exit (SIGTERM). With --force it is killed immediately (SIGKILL).\nOn Windows both modes terminate the process immediately.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			pid, err := strconv.ParseInt(args[0], 10, 32)
			if err != nil || pid <= 0 {
				return &exitError{code: 2, message: fmt.Sprintf("invalid PID %q", args[0])}
			}
			mode := control.Graceful
			if force {
				mode = control.Forced
			}

			term := newTerminator(ctx.getConfig().Protected)
			res := term.Terminate(cmd.Context(), control.Target{PID: int32(pid)}, mode)

			logger := ctx.getLogger()
			if res.Outcome != control.Success {
				logger.Debug("termination failed", "pid", pid, "mode", mode, "outcome", res.Outcome, "err", res.Err)
				return &exitError{code: 1, message: res.Message()}
			}
			logger.Debug("termination delivered", "pid", pid, "mode", mode, "outcome", res.Outcome)
			fmt.Fprintln(cmd.OutOrStdout(), res.Message())
			return nil
		},
	}
	cmd.Flags().BoolVarP(&force, "force", "f", false, "kill immediately instead of asking the process to exit")
	return cmd
}
