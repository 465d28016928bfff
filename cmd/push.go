package cmd

import (
	"github.com/spf13/cobra"

	"bitbucket.org/sinbad/filestore-client/core"
	"bitbucket.org/sinbad/filestore-client/util"
)

var (
	pushDir       string
	pushAsync     bool
	pushBlock     int
	pushOverwrite bool
)

var pushCmd = &cobra.Command{
	Use:   "push <file>",
	Short: "Upload a single local file",
	Args:  cobra.ExactArgs(1),
	RunE: func(c *cobra.Command, args []string) error {
		local := args[0]
		logical := core.LogicalPathFor(local, pushDir)

		sess, err := connect()
		if err != nil {
			return err
		}
		defer sess.Close()

		util.Info("pushing %s as %s", local, logical)
		return core.Push(ctx(), sess.stub, logical, local, core.PushOptions{
			Async:     pushAsync,
			Block:     pushBlock,
			Overwrite: pushOverwrite,
			Progress:  progressPrinter(local),
		})
	},
}

func init() {
	pushCmd.Flags().StringVar(&pushDir, "dir", "", "logical destination directory")
	pushCmd.Flags().BoolVar(&pushAsync, "async", false, "use asynchronous upload")
	pushCmd.Flags().IntVar(&pushBlock, "block", core.DefaultBlockSize, "block size in bytes")
	pushCmd.Flags().BoolVar(&pushOverwrite, "overwrite", false, "overwrite an existing remote file")
}

// progressPrinter is the CLI's sole consumer of util.ProgressFunc: a
// one-line debug log per update, rate-limiting is the terminal's problem.
func progressPrinter(name string) util.ProgressFunc {
	return func(done, total int64) {
		util.Debug("%s: %d/%d bytes", name, done, total)
	}
}
