package cmd

import (
	"fmt"

	"github.com/common-nighthawk/go-figure"
	"github.com/spf13/cobra"

	"github.com/mensylisir/hostboard/pkg/logger"
	"github.com/mensylisir/hostboard/rest/server"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the hostboard REST API server.",
	RunE: func(cmd *cobra.Command, args []string) error {
		fmt.Println(figure.NewFigure("hostboard", "", true).String())
		defer logger.SyncGlobal()

		srv := server.NewAPIServer(loadedConfig, logger.Get())
		return srv.Start()
	},
}
