// Package helpbotcmder is the root helpbot command.
package helpbotcmder

import (
	"github.com/spf13/cobra"

	chatcmder "github.com/papercomputeco/helpbot/cmd/helpbot/chat"
	configcmder "github.com/papercomputeco/helpbot/cmd/helpbot/config"
	ingestcmder "github.com/papercomputeco/helpbot/cmd/helpbot/ingest"
	initcmder "github.com/papercomputeco/helpbot/cmd/helpbot/init"
	searchcmder "github.com/papercomputeco/helpbot/cmd/helpbot/search"
	servecmder "github.com/papercomputeco/helpbot/cmd/helpbot/serve"
	versioncmder "github.com/papercomputeco/helpbot/cmd/helpbot/version"
	"github.com/papercomputeco/helpbot/pkg/config"
)

const helpbotLongDesc string = `Helpbot answers questions about the AWS documentation.

Build the indexes once, then chat in the browser or the terminal:
  helpbot ingest       Parse the HTML corpus and build the vector indexes
  helpbot serve        Run the web chat, HTTP API and MCP endpoint
  helpbot chat         Chat in the terminal
  helpbot search       Query the index without the language model`

const helpbotShortDesc string = "Helpbot - AWS documentation assistant"

func NewHelpbotCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:           "helpbot",
		Short:         helpbotShortDesc,
		Long:          helpbotLongDesc,
		SilenceUsage:  true,
		SilenceErrors: false,
		PersistentPreRunE: func(_ *cobra.Command, _ []string) error {
			return config.LoadDotEnv()
		},
	}

	// Global flags
	cmd.PersistentFlags().BoolP("debug", "d", false, "Enable debug logging")
	cmd.PersistentFlags().String("config-dir", "", "Override path to .helpbot/ config directory")

	// Add subcommands
	cmd.AddCommand(ingestcmder.NewIngestCmd())
	cmd.AddCommand(servecmder.NewServeCmd())
	cmd.AddCommand(chatcmder.NewChatCmd())
	cmd.AddCommand(searchcmder.NewSearchCmd())
	cmd.AddCommand(configcmder.NewConfigCmd())
	cmd.AddCommand(initcmder.NewInitCmd())
	cmd.AddCommand(versioncmder.NewVersionCmd())

	return cmd
}
