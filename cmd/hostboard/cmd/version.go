package cmd

import (
	"fmt"
	"runtime"

	"github.com/spf13/cobra"
)

// Set via -ldflags at build time.
var (
	Version   = "dev"
	GitCommit = "none"
	BuildDate = "unknown"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print hostboard version information.",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("hostboard %s (commit %s, built %s, %s/%s)\n",
			Version, GitCommit, BuildDate, runtime.GOOS, runtime.GOARCH)
	},
}
