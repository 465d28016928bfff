// Package cmd wires the CLI surface to the core engines: create, push,
// pull, image push, show, info.
package cmd

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"bitbucket.org/sinbad/filestore-client/core"
	"bitbucket.org/sinbad/filestore-client/providers"
	"bitbucket.org/sinbad/filestore-client/providers/tagged"
	"bitbucket.org/sinbad/filestore-client/util"
)

var verbose bool

// RootCmd is the top-level command; main.go calls RootCmd.Execute().
var RootCmd = &cobra.Command{
	Use:           "filestore-client",
	Short:         "Client for the remote file-store service",
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	RootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
	RootCmd.AddCommand(createCmd, pushCmd, pullCmd, imageCmd, showCmd, infoCmd)
}

// session bundles the connected transport, stub, and registry a command
// needs; built once per invocation from the loaded config.
type session struct {
	transport providers.Transport
	stub      *core.ServerStub
	registry  *core.Registry
}

func (s *session) Close() {
	s.registry.Shutdown()
	s.transport.Close()
}

// connect loads the config file, dials the transport, and wraps it in a
// ServerStub and a fresh Registry. Every subcommand but create calls this
// first.
func connect() (*session, error) {
	util.SetVerbose(verbose)

	cfg, err := util.Load()
	if err != nil {
		var tlsErr *util.TlsMaterialError
		if errors.As(err, &tlsErr) {
			return nil, core.NewTlsMaterialMissingError(tlsErr.Field, tlsErr.Path)
		}
		return nil, core.NewConfigMissingError(err.Error())
	}

	addr, _ := cfg.Server["addr"].(string)
	if addr == "" {
		return nil, fmt.Errorf("config [server]: addr is required")
	}

	if cfg.Tls != nil && cfg.Tls.Ca == "" {
		util.Warn("no tls.ca configured: accepting any server certificate")
	}

	transport, err := tagged.Dial(addr, cfg.Tls)
	if err != nil {
		return nil, core.NewTransportError(err)
	}

	return &session{
		transport: transport,
		stub:      core.NewServerStub(transport),
		registry:  core.NewRegistry(),
	}, nil
}

// ctx is the context passed to every engine call. The CLI has no
// user-initiated cancellation path, so a background context suffices.
func ctx() context.Context {
	return context.Background()
}
