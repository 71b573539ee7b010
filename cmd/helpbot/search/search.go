// Package searchcmder provides the search command for semantic search over
// the documentation index, without the language model.
package searchcmder

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	apisearch "github.com/papercomputeco/helpbot/api/search"
	"github.com/papercomputeco/helpbot/cmd/helpbot/stack"
	"github.com/papercomputeco/helpbot/pkg/chat"
	"github.com/papercomputeco/helpbot/pkg/config"
	"github.com/papercomputeco/helpbot/pkg/logger"
)

var (
	rankStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("82")).Bold(true)
	scoreStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
	titleStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("39"))
	previewStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("252"))
	headerStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("252")).Bold(true)
	dimStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
)

type searchCommander struct {
	flags config.FlagSet

	cfg       *config.Config
	configDir string

	query    string
	topK     int
	full     bool
	quiet    bool
	jsonOut  bool
	index    string
	indexDir string

	vectorProvider string
	vectorTarget   string
	embedProvider  string
	embedTarget    string
	embedModel     string
	embedDims      uint

	debug bool

	out    io.Writer
	logger *slog.Logger
}

var searchFlags = []string{
	config.FlagMerged,
	config.FlagIndexDir,
	config.FlagVectorStoreProv,
	config.FlagVectorStoreTgt,
	config.FlagEmbeddingProv,
	config.FlagEmbeddingTgt,
	config.FlagEmbeddingModel,
	config.FlagEmbeddingDims,
}

const searchLongDesc string = `Search the documentation index.

Embeds the query and prints the nearest documentation pages with their score,
public URL and a preview. The language model is not called.

Use --quiet to print only the URLs, one per line.

Examples:
  helpbot search "how do I configure a lambda timeout"
  helpbot search "studio notebooks" --top 10
  helpbot search "training jobs" --json --full`

const searchShortDesc string = "Search the documentation index"

func NewSearchCmd() *cobra.Command {
	cmder := &searchCommander{flags: config.Flags}

	cmd := &cobra.Command{
		Use:   "search <query>",
		Short: searchShortDesc,
		Long:  searchLongDesc,
		Args:  cobra.ExactArgs(1),
		PreRunE: func(cmd *cobra.Command, _ []string) error {
			var err error
			cmder.cfg, cmder.configDir, err = stack.Resolve(cmd, searchFlags)
			return err
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			cmder.query = args[0]

			var err error
			cmder.debug, err = cmd.Flags().GetBool("debug")
			if err != nil {
				return fmt.Errorf("could not get debug flag: %w", err)
			}
			cmder.out = cmd.OutOrStdout()
			return cmder.run(cmd.Context())
		},
	}

	cmd.Flags().IntVarP(&cmder.topK, "top", "k", apisearch.DefaultTopK, "Number of results to return")
	cmd.Flags().BoolVar(&cmder.full, "full", false, "Include the full page text")
	cmd.Flags().BoolVarP(&cmder.quiet, "quiet", "q", false, "Output only URLs, one per line (for piping)")
	cmd.Flags().BoolVar(&cmder.jsonOut, "json", false, "Output results as JSON")
	config.AddStringFlag(cmd, cmder.flags, config.FlagMerged, &cmder.index)
	config.AddStringFlag(cmd, cmder.flags, config.FlagIndexDir, &cmder.indexDir)
	config.AddStringFlag(cmd, cmder.flags, config.FlagVectorStoreProv, &cmder.vectorProvider)
	config.AddStringFlag(cmd, cmder.flags, config.FlagVectorStoreTgt, &cmder.vectorTarget)
	config.AddStringFlag(cmd, cmder.flags, config.FlagEmbeddingProv, &cmder.embedProvider)
	config.AddStringFlag(cmd, cmder.flags, config.FlagEmbeddingTgt, &cmder.embedTarget)
	config.AddStringFlag(cmd, cmder.flags, config.FlagEmbeddingModel, &cmder.embedModel)
	config.AddUintFlag(cmd, cmder.flags, config.FlagEmbeddingDims, &cmder.embedDims)

	return cmd
}

func (c *searchCommander) run(ctx context.Context) error {
	c.logger = logger.New(logger.WithDebug(c.debug), logger.WithFormat(logger.FormatPretty), logger.WithWriter(os.Stderr))

	idx, err := stack.OpenIndex(ctx, c.cfg, c.configDir, c.logger)
	if err != nil {
		return err
	}
	defer idx.Close()

	output, err := apisearch.Search(
		ctx,
		c.query,
		apisearch.Options{TopK: c.topK, FullText: c.full},
		idx,
		chat.NewSourceRewriter(stack.Rewrites(c.cfg)),
		c.logger,
	)
	if err != nil {
		return err
	}

	return c.print(output)
}

func (c *searchCommander) print(output *apisearch.SearchOutput) error {
	if c.jsonOut {
		enc := json.NewEncoder(c.out)
		enc.SetIndent("", "  ")
		return enc.Encode(output)
	}

	if output.Count == 0 {
		if !c.quiet {
			fmt.Fprintln(c.out, "No results found.")
		}
		return nil
	}

	if c.quiet {
		for _, r := range output.Results {
			fmt.Fprintln(c.out, r.URL)
		}
		return nil
	}

	fmt.Fprintf(c.out, "\n%s %s\n\n",
		headerStyle.Render("Search Results for:"),
		titleStyle.Render(fmt.Sprintf("%q", output.Query)),
	)
	for i, r := range output.Results {
		c.printResult(i+1, r)
	}
	return nil
}

func (c *searchCommander) printResult(rank int, r apisearch.SearchResult) {
	fmt.Fprintf(c.out, "  %s  %s  %s\n",
		rankStyle.Render(fmt.Sprintf("#%d", rank)),
		scoreStyle.Render(fmt.Sprintf("score: %.4f", r.Score)),
		titleStyle.Render(r.Title),
	)
	fmt.Fprintf(c.out, "  %s\n", dimStyle.Render(r.URL))

	if c.full {
		fmt.Fprintf(c.out, "\n%s\n\n", previewStyle.Render(r.Text))
		return
	}
	fmt.Fprintf(c.out, "  %s\n\n", previewStyle.Render(r.Preview))
}
