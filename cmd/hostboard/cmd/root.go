package cmd

import (
	"github.com/spf13/cobra"

	"github.com/mensylisir/hostboard/pkg/config"
	"github.com/mensylisir/hostboard/pkg/logger"
)

var (
	verboseFlag bool
	cfgFile     string

	loadedConfig *config.Config
)

var rootCmd = &cobra.Command{
	Use:   "hostboard",
	Short: "hostboard is the host introspection backend of the infrastructure dashboard.",
	Long: `hostboard inspects the local host through whatever tools it finds
installed (ip/ifconfig, ss/netstat, ufw/iptables/firewalld, virsh/docker
and friends), normalizes their output into typed records, and serves the
result over a REST API.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		loadedConfig, err = config.Load(cfgFile)
		if err != nil {
			return err
		}

		logOpts := logger.DefaultOptions()
		logOpts.ColorConsole = loadedConfig.Log.Color
		if verboseFlag {
			logOpts.ConsoleLevel = logger.DebugLevel
		} else {
			logOpts.ConsoleLevel = logger.ParseLevel(loadedConfig.Log.ConsoleLevel)
		}
		if loadedConfig.Log.FilePath != "" {
			logOpts.FileOutput = true
			logOpts.LogFilePath = loadedConfig.Log.FilePath
			logOpts.FileLevel = logger.ParseLevel(loadedConfig.Log.FileLevel)
			logOpts.MaxFileSizeMB = loadedConfig.Log.MaxFileSizeMB
			logOpts.MaxBackups = loadedConfig.Log.MaxBackups
		}
		logger.Init(logOpts)
		return nil
	},
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verboseFlag, "verbose", "v", false, "Enable verbose output")
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "Path to a hostboard config file (YAML or TOML)")

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(factsCmd)
	rootCmd.AddCommand(versionCmd)
}
