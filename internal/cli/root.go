package cli

import (
	stdcontext "context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/Paintersrp/prokill/internal/config"
	"github.com/Paintersrp/prokill/internal/control"
	"github.com/Paintersrp/prokill/internal/sampler"
	"github.com/Paintersrp/prokill/internal/session"
)

// Build metadata injected by main.
var (
	version = "dev"
	commit  = "none"
)

// SetVersionInfo records build metadata for --version.
func SetVersionInfo(v, c string) {
	version = v
	commit = c
}

// Replaced in tests.
var (
	newSampler = func() session.Sampler {
		return sampler.New(sampler.NewGopsutilSource())
	}
	newTerminator = func(protected []string) session.Terminator {
		return control.New(control.WithProtected(protected))
	}
)

// exitError carries a process exit code without printing usage.
type exitError struct {
	code    int
	message string
}

func (e *exitError) Error() string { return e.message }

type context struct {
	configPath string
	verbose    bool
	quiet      bool

	cfg    *config.Config
	logger *log.Logger
	closer io.Closer
}

// NewRootCmd builds the prokill command tree.
func NewRootCmd() *cobra.Command {
	root, _ := newRootCommand()
	return root
}

func newRootCommand() (*cobra.Command, *context) {
	ctx := &context{}

	root := &cobra.Command{
		Use:     "prokill",
		Short:   "Inspect and terminate running processes",
		Long:    "prokill shows the busiest processes on this machine and lets you end them.\nRun without arguments for the interactive view.",
		Version: fmt.Sprintf("%s (%s)", version, commit),
		Args:    cobra.NoArgs,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if err := config.LoadDotEnv(""); err != nil {
				return err
			}
			return ctx.load(cmd)
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTUI(cmd, ctx, false)
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.PersistentFlags().StringVarP(&ctx.configPath, "config", "c", "", "path to config file (default "+defaultConfigHint()+")")
	root.PersistentFlags().BoolVarP(&ctx.verbose, "verbose", "v", false, "enable debug logging")
	root.PersistentFlags().BoolVarP(&ctx.quiet, "quiet", "q", false, "only log errors")
	root.CompletionOptions.DisableDefaultCmd = true
	root.Annotations = map[string]string{fullScreenAnnotation: "true"}

	root.AddCommand(newPanelCmd(ctx))
	root.AddCommand(newListCmd(ctx))
	root.AddCommand(newKillCmd(ctx))
	root.AddCommand(newServeCmd(ctx))
	root.AddCommand(newConfigCmd(ctx))

	return root, ctx
}

// Execute runs the CLI entrypoint and returns the process exit code.
func Execute() int {
	ctx, stop := signal.NotifyContext(stdcontext.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	root, cliCtx := newRootCommand()
	err := root.ExecuteContext(ctx)
	if closeErr := cliCtx.close(); err == nil {
		err = closeErr
	}
	if err == nil {
		return 0
	}
	var ee *exitError
	if errors.As(err, &ee) {
		if ee.message != "" {
			fmt.Fprintln(os.Stderr, ee.message)
		}
		return ee.code
	}
	if ctx.Err() != nil {
		return 130
	}
	fmt.Fprintln(os.Stderr, "Error:", err)
	return 1
}

func defaultConfigHint() string {
	path, err := config.DefaultPath()
	if err != nil {
		return "$XDG_CONFIG_HOME/prokill/config.yaml"
	}
	return path
}

// load reads configuration and prepares the logger. Commands that draw a
// full-screen interface log to the configured file or nowhere.
func (c *context) load(cmd *cobra.Command) error {
	cfg, err := config.Load(c.configPath)
	if err != nil {
		return err
	}
	c.cfg = cfg

	logger, closer, err := newLogger(cfg.Log, cmd.ErrOrStderr(), usesFullScreen(cmd), c.verbose, c.quiet)
	if err != nil {
		return err
	}
	c.logger = logger
	c.closer = closer
	return nil
}

func (c *context) close() error {
	if c.closer == nil {
		return nil
	}
	err := c.closer.Close()
	c.closer = nil
	return err
}

func (c *context) getConfig() *config.Config {
	if c.cfg == nil {
		return config.Default()
	}
	return c.cfg
}

func (c *context) getLogger() *log.Logger {
	if c.logger == nil {
		return log.New(io.Discard)
	}
	return c.logger
}

// newSession wires a session from configuration.
func (c *context) newSession() *session.Session {
	cfg := c.getConfig()
	return session.New(
		newSampler(),
		newTerminator(cfg.Protected),
		session.WithLogger(c.getLogger()),
		session.WithInterval(cfg.RefreshInterval.Duration),
		session.WithSampleTimeout(cfg.SampleTimeout.Duration),
		session.WithParams(defaultParams(cfg)),
	)
}
