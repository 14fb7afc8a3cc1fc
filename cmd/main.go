package cmd

import (
	"github.com/spf13/cobra"

	"github.com/shvtools/shvjournal/cmd/connect"
	"github.com/shvtools/shvjournal/cmd/start"
	"github.com/shvtools/shvjournal/cmd/tool"
	"github.com/shvtools/shvjournal/utils"
	"github.com/shvtools/shvjournal/utils/log"
)

// flagPrintVersion set flag to show the current shvjournal version.
var flagPrintVersion bool

// Execute builds the command tree and executes commands.
func Execute() error {
	// c is the root command.
	c := &cobra.Command{
		Use: "shvjournal",
		RunE: func(cmd *cobra.Command, args []string) error {
			// Print version if specified.
			if flagPrintVersion {
				log.Info("version: %v", utils.Version)
				return nil
			}
			// Print information regarding usage.
			return cmd.Usage()
		},
	}

	// Adds subcommands and version flag.
	c.AddCommand(start.Cmd)
	c.AddCommand(tool.Cmd)
	c.AddCommand(connect.Cmd)
	c.Flags().BoolVarP(&flagPrintVersion, "version", "v", false, "show the version info and exit")

	return c.Execute()
}
