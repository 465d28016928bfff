package cmd

import (
	"github.com/spf13/cobra"

	"bitbucket.org/sinbad/filestore-client/core"
	"bitbucket.org/sinbad/filestore-client/util"
)

var (
	pullSave      string
	pullAsync     bool
	pullBlock     int
	pullOverwrite bool
)

var pullCmd = &cobra.Command{
	Use:   "pull <file>",
	Short: "Download a single remote file",
	Args:  cobra.ExactArgs(1),
	RunE: func(c *cobra.Command, args []string) error {
		remote := args[0]

		sess, err := connect()
		if err != nil {
			return err
		}
		defer sess.Close()

		util.Info("pulling %s", remote)
		return core.Pull(ctx(), sess.stub, sess.transport, sess.registry, remote, core.PullOptions{
			Save:      pullSave,
			Async:     pullAsync,
			Block:     pullBlock,
			Overwrite: pullOverwrite,
			Progress:  progressPrinter(remote),
		})
	},
}

func init() {
	pullCmd.Flags().StringVar(&pullSave, "save", "", "local save location")
	pullCmd.Flags().BoolVar(&pullAsync, "async", false, "use asynchronous download")
	pullCmd.Flags().IntVar(&pullBlock, "block", core.DefaultBlockSize, "block size in bytes")
	pullCmd.Flags().BoolVar(&pullOverwrite, "overwrite", false, "overwrite an existing local file")
}
