package cli

import (
	"fmt"
	"net"

	"github.com/spf13/cobra"

	"github.com/Paintersrp/prokill/internal/api"
	apihttp "github.com/Paintersrp/prokill/internal/api/http"
	"github.com/Paintersrp/prokill/internal/config"
)

// Replaced in tests.
var listen = func(addr string) (net.Listener, error) {
	return net.Listen("tcp", addr)
}

func newServeCmd(ctx *context) *cobra.Command {
	var apiAddr string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Sample continuously and expose the HTTP control API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := ctx.getConfig()
			addr := cfg.API.Addr
			if cmd.Flags().Changed("api") {
				addr = apiAddr
			}
			logger := ctx.getLogger()

			ln, err := listen(addr)
			if err != nil {
				return fmt.Errorf("listen on %s: %w", addr, err)
			}

			sess := ctx.newSession()
			server, err := apihttp.NewServer(apihttp.Config{
				Controller: api.NewSessionController(sess, cfg.CPUThreshold),
				Listener:   ln,
				Logger:     logger,
			})
			if err != nil {
				ln.Close()
				return err
			}

			if err := sess.Start(cmd.Context()); err != nil {
				ln.Close()
				return fmt.Errorf("start session: %w", err)
			}
			defer func() {
				sess.Stop()
				sess.Wait()
			}()

			fmt.Fprintf(cmd.OutOrStdout(), "Control API listening on http://%s\n", server.Addr())
			logger.Info("serving", "addr", server.Addr(), "interval", cfg.RefreshInterval.Duration)
			if err := server.Run(cmd.Context()); err != nil {
				return err
			}
			logger.Info("shutting down")
			return nil
		},
	}
	cmd.Flags().StringVar(&apiAddr, "api", "", "address for the HTTP control API (default from config, "+config.DefaultAPIAddr+")")
	return cmd
}
