// Package versioncmder prints build information.
package versioncmder

import (
	"io"
	"os"
	"runtime"

	"github.com/spf13/cobra"

	"github.com/papercomputeco/helpbot/pkg/cliui"
	"github.com/papercomputeco/helpbot/pkg/utils"
)

type versionCommander struct {
	out io.Writer
}

func NewVersionCmd() *cobra.Command {
	cmder := &versionCommander{out: os.Stdout}

	cmd := &cobra.Command{
		Use:   "version",
		Short: "displays version",
		Long:  "displays the version of this CLI",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cmder.out = cmd.OutOrStdout()
			return cmder.run()
		},
	}

	return cmd
}

func (c *versionCommander) run() error {
	const width = 8
	cliui.KeyValue(c.out, width, "Version", utils.Version)
	cliui.KeyValue(c.out, width, "Sha", utils.Sha)
	cliui.KeyValue(c.out, width, "Built at", utils.Buildtime)
	cliui.KeyValue(c.out, width, "Go", runtime.Version())
	return nil
}
