package cmd

import (
	"github.com/spf13/cobra"

	"bitbucket.org/sinbad/filestore-client/core"
	"bitbucket.org/sinbad/filestore-client/util"
)

var (
	imagePushDir       string
	imagePushAsync     bool
	imagePushBlock     int
	imagePushOverwrite bool
)

var imageCmd = &cobra.Command{
	Use:   "image",
	Short: "Directory-tree transfer commands",
}

var imagePushCmd = &cobra.Command{
	Use:   "push <path>",
	Short: "Upload a local directory tree",
	Args:  cobra.ExactArgs(1),
	RunE: func(c *cobra.Command, args []string) error {
		local := args[0]

		sess, err := connect()
		if err != nil {
			return err
		}
		defer sess.Close()

		util.Info("pushing image tree %s", local)
		return core.ImagePush(ctx(), sess.stub, local, core.ImagePushOptions{
			Dir:       imagePushDir,
			Async:     imagePushAsync,
			Block:     imagePushBlock,
			Overwrite: imagePushOverwrite,
			Progress:  progressPrinter(local),
		})
	},
}

func init() {
	imagePushCmd.Flags().StringVar(&imagePushDir, "dir", "", "logical destination directory")
	imagePushCmd.Flags().BoolVar(&imagePushAsync, "async", false, "use asynchronous upload")
	imagePushCmd.Flags().IntVar(&imagePushBlock, "block", core.DefaultBlockSize, "block size in bytes")
	imagePushCmd.Flags().BoolVar(&imagePushOverwrite, "overwrite", false, "overwrite existing remote files")
	imageCmd.AddCommand(imagePushCmd)
}
