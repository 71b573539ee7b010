// Package configcmder provides the config command for managing persistent
// helpbot configuration stored in the .helpbot/ directory.
package configcmder

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/papercomputeco/helpbot/pkg/cliui"
	"github.com/papercomputeco/helpbot/pkg/config"
)

const configLongDesc string = `Manage persistent helpbot configuration.

Configuration is stored as config.toml in the .helpbot/ directory and provides
default values for command flags. CLI flags and HELPBOT_* environment
variables take precedence over config file values.

Keys use dotted notation matching the TOML section structure, for example:
  corpus.root, corpus.collections, corpus.merged,
  embedding.provider, embedding.model, embedding.dimensions,
  llm.provider, llm.endpoint, llm.region,
  chat.max_history_length, sources.rewrites

Use subcommands to get, set, or list configuration values:
  helpbot config set <key> <value>    Set a configuration value
  helpbot config get <key>            Get a configuration value
  helpbot config list                 List all configuration values

Examples:
  helpbot config set llm.endpoint jumpstart-dft-meta-textgeneration-llama-2-7b-f
  helpbot config set corpus.collections lambda,sagemaker
  helpbot config get embedding.model
  helpbot config list`

const configShortDesc string = "Manage persistent helpbot configuration"

func NewConfigCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: configShortDesc,
		Long:  configLongDesc,
	}

	cmd.AddCommand(newSetCmd())
	cmd.AddCommand(newGetCmd())
	cmd.AddCommand(newListCmd())

	return cmd
}

func validKey(key string) error {
	if config.IsValidConfigKey(key) {
		return nil
	}
	return fmt.Errorf("unknown config key: %q\n\nValid keys: %s",
		key, strings.Join(config.ValidConfigKeys(), ", "))
}

func completeKeys(_ *cobra.Command, args []string, _ string) ([]string, cobra.ShellCompDirective) {
	if len(args) == 0 {
		return config.ValidConfigKeys(), cobra.ShellCompDirectiveNoFileComp
	}
	return nil, cobra.ShellCompDirectiveNoFileComp
}

func printTarget(w io.Writer, target string) {
	if target != "" {
		fmt.Fprintf(w, "\n  %s %s\n\n",
			cliui.KeyStyle.Render("Config file:"),
			cliui.DimStyle.Render(target),
		)
		return
	}
	fmt.Fprintf(w, "\n  %s\n\n", cliui.DimStyle.Render("No config file found. Using defaults."))
}
