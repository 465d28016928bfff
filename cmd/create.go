package cmd

import (
	"github.com/spf13/cobra"

	"bitbucket.org/sinbad/filestore-client/util"
)

var createCmd = &cobra.Command{
	Use:   "create",
	Short: "Write a bundled default configuration file to ./config",
	RunE: func(c *cobra.Command, args []string) error {
		return util.WriteDefaultConfig("config")
	},
}
