package main

import (
	"os"

	"github.com/Paintersrp/prokill/internal/cli"
	"github.com/Paintersrp/prokill/internal/metrics"
)

var (
	version = "dev"
	commit  = "none"
)

func main() {
	metrics.EmitBuildInfo()
	cli.SetVersionInfo(version, commit)
	os.Exit(cli.Execute())
}
