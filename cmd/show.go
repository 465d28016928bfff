package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"bitbucket.org/sinbad/filestore-client/core"
)

var showCmd = &cobra.Command{
	Use:   "show <dir>",
	Short: "List a remote directory",
	Args:  cobra.ExactArgs(1),
	RunE: func(c *cobra.Command, args []string) error {
		sess, err := connect()
		if err != nil {
			return err
		}
		defer sess.Close()

		entries, err := core.NewInspector(sess.stub).ShowDirectoryContents(ctx(), args[0])
		if err != nil {
			return err
		}
		for _, e := range entries {
			kind := "file"
			if e.FileType == core.FileTypeDir {
				kind = "dir"
			}
			fmt.Printf("%-4s %10d  %s\n", kind, e.Size, e.Name)
		}
		return nil
	},
}
