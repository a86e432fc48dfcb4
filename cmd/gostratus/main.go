package main

import "github.com/3leaps/gostratus/internal/cmd"

// Populated via -ldflags at build time.
var (
	version   = "dev"
	commit    = "HEAD"
	buildDate = "unknown"
)

func main() {
	cmd.SetVersionInfo(version, commit, buildDate)
	cmd.Execute()
}
