// Package initcmder provides the init command for initializing a local
// .helpbot directory in the current working directory.
package initcmder

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/papercomputeco/helpbot/pkg/cliui"
	"github.com/papercomputeco/helpbot/pkg/config"
)

const (
	dirName    = ".helpbot"
	configFile = "config.toml"
)

type initCommander struct {
	preset string
	out    io.Writer
}

const initLongDesc string = `Initialize a new .helpbot/ directory in the current working directory.

Creates a local .helpbot/ directory, which takes precedence over ~/.helpbot/,
with a config.toml holding the defaults of the chosen preset:

  sagemaker   in-process embeddings, Llama 2 on a SageMaker endpoint (default)
  ollama      embeddings and chat served by a local Ollama

An existing config.toml is left untouched.

Examples:
  helpbot init
  helpbot init --preset ollama`

const initShortDesc string = "Initialize a local .helpbot/ directory"

func NewInitCmd() *cobra.Command {
	cmder := &initCommander{}

	cmd := &cobra.Command{
		Use:   "init",
		Short: initShortDesc,
		Long:  initLongDesc,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cmder.out = cmd.OutOrStdout()
			return cmder.run()
		},
	}

	cmd.Flags().StringVar(&cmder.preset, "preset", "",
		"Provider preset ("+strings.Join(config.ValidPresetNames(), ", ")+")")

	return cmd
}

func (c *initCommander) run() error {
	preset := c.preset
	if preset == "" {
		preset = "sagemaker"
	}
	cfg, err := config.PresetConfig(preset)
	if err != nil {
		return err
	}

	cwd, err := os.Getwd()
	if err != nil {
		return fmt.Errorf("getting current directory: %w", err)
	}
	dir := filepath.Join(cwd, dirName)

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating .helpbot directory: %w", err)
	}

	path := filepath.Join(dir, configFile)
	if _, err := os.Stat(path); err == nil {
		fmt.Fprintf(c.out, "  %s Already initialized: %s\n", cliui.SuccessMark, cliui.DimStyle.Render(dir))
		return nil
	} else if !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("checking config: %w", err)
	}

	cfger, err := config.NewConfiger(dir)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	if err := cfger.SaveConfig(cfg); err != nil {
		return err
	}

	fmt.Fprintf(c.out, "  %s Initialized %s %s\n",
		cliui.SuccessMark,
		cliui.ValueStyle.Render(dir),
		cliui.DimStyle.Render("(preset: "+preset+")"),
	)
	return nil
}
