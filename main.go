package main

import (
	"os"

	"bitbucket.org/sinbad/filestore-client/cmd"
	"bitbucket.org/sinbad/filestore-client/util"
)

func main() {
	if err := cmd.RootCmd.Execute(); err != nil {
		util.Error("%v", err)
		os.Exit(1)
	}
}
