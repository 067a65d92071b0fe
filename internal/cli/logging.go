package cli

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/Paintersrp/prokill/internal/config"
)

const fullScreenAnnotation = "prokill/fullscreen"

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

// newLogger builds the diagnostic logger. Full-screen commands never write to
// the terminal: they log to cfg.File when set and discard otherwise.
func newLogger(cfg config.LogConfig, stderr io.Writer, fullScreen, verbose, quiet bool) (*log.Logger, io.Closer, error) {
	level, err := log.ParseLevel(cfg.Level)
	if err != nil {
		return nil, nil, err
	}
	if verbose {
		level = log.DebugLevel
	}
	if quiet {
		level = log.ErrorLevel
	}

	out := stderr
	var closer io.Closer = nopCloser{}
	switch {
	case cfg.File != "":
		if err := os.MkdirAll(filepath.Dir(cfg.File), 0o755); err != nil {
			return nil, nil, fmt.Errorf("create log dir: %w", err)
		}
		f, err := os.OpenFile(cfg.File, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return nil, nil, fmt.Errorf("open log file: %w", err)
		}
		out, closer = f, f
	case fullScreen:
		out = io.Discard
	}

	logger := log.NewWithOptions(out, log.Options{
		Prefix:          "prokill",
		Level:           level,
		ReportTimestamp: cfg.File != "",
	})
	return logger, closer, nil
}

func usesFullScreen(cmd *cobra.Command) bool {
	return cmd.Annotations[fullScreenAnnotation] == "true"
}
