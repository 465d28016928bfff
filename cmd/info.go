package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"bitbucket.org/sinbad/filestore-client/core"
)

var (
	infoBlake3 bool
	infoSha256 bool
)

var infoCmd = &cobra.Command{
	Use:   "info <file>",
	Short: "Show remote file info",
	Args:  cobra.ExactArgs(1),
	RunE: func(c *cobra.Command, args []string) error {
		sess, err := connect()
		if err != nil {
			return err
		}
		defer sess.Close()

		info, err := core.NewInspector(sess.stub).GetFileInfo(ctx(), args[0], infoBlake3, infoSha256)
		if err != nil {
			return err
		}
		fmt.Printf("name:       %s\n", info.Name)
		fmt.Printf("size:       %d\n", info.Size)
		fmt.Printf("created:    %s\n", info.CreateTime)
		fmt.Printf("can_modify: %v\n", info.CanModify)
		if info.Blake3 != nil {
			fmt.Printf("blake3:     %s\n", *info.Blake3)
		}
		if info.Sha256 != nil {
			fmt.Printf("sha256:     %s\n", *info.Sha256)
		}
		return nil
	},
}

func init() {
	infoCmd.Flags().BoolVar(&infoBlake3, "blake3", true, "request the blake3 digest")
	infoCmd.Flags().BoolVar(&infoSha256, "sha256", false, "request the sha256 digest")
}
