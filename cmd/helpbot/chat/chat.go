// Package chatcmder provides the chat command, a terminal REPL over the
// same pipeline the web chat uses.
package chatcmder

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/papercomputeco/helpbot/cmd/helpbot/stack"
	"github.com/papercomputeco/helpbot/pkg/chat"
	"github.com/papercomputeco/helpbot/pkg/cliui"
	"github.com/papercomputeco/helpbot/pkg/config"
	"github.com/papercomputeco/helpbot/pkg/logger"
)

var (
	userPrompt      = lipgloss.NewStyle().Foreground(lipgloss.Color("82")).Bold(true).Render("you> ")
	assistantPrompt = lipgloss.NewStyle().Foreground(lipgloss.Color("245")).Render("helpbot> ")
)

const (
	cmdExit  = "/exit"
	cmdClear = "/clear"
)

type chatCommander struct {
	flags config.FlagSet

	cfg       *config.Config
	configDir string

	merged         string
	indexDir       string
	topK           uint
	maxHistory     int
	vectorProvider string
	vectorTarget   string
	embedProvider  string
	embedTarget    string
	embedModel     string
	embedDims      uint
	llmProvider    string
	endpoint       string
	region         string
	llmTarget      string
	llmModel       string

	plain bool
	debug bool

	in     io.Reader
	out    io.Writer
	logger *slog.Logger
}

var chatFlags = []string{
	config.FlagMerged,
	config.FlagIndexDir,
	config.FlagTopK,
	config.FlagMaxHistory,
	config.FlagVectorStoreProv,
	config.FlagVectorStoreTgt,
	config.FlagEmbeddingProv,
	config.FlagEmbeddingTgt,
	config.FlagEmbeddingModel,
	config.FlagEmbeddingDims,
	config.FlagLLMProvider,
	config.FlagLLMEndpoint,
	config.FlagLLMRegion,
	config.FlagLLMTarget,
	config.FlagLLMModel,
}

const chatLongDesc string = `Start an interactive chat about the AWS documentation.

Each question is rephrased against the conversation so far, answered from the
most relevant documentation pages, and printed with its sources.

Commands:
  /clear   Clear the conversation history
  /exit    Quit (Ctrl+D also works)

Answers are rendered as markdown when stdout is a terminal; use --plain to
print them verbatim.

Examples:
  helpbot chat
  helpbot chat --llm-provider ollama --llm-model llama2`

const chatShortDesc string = "Chat with the documentation assistant in the terminal"

func NewChatCmd() *cobra.Command {
	cmder := &chatCommander{flags: config.Flags}

	cmd := &cobra.Command{
		Use:   "chat",
		Short: chatShortDesc,
		Long:  chatLongDesc,
		Args:  cobra.NoArgs,
		PreRunE: func(cmd *cobra.Command, _ []string) error {
			var err error
			cmder.cfg, cmder.configDir, err = stack.Resolve(cmd, chatFlags)
			return err
		},
		RunE: func(cmd *cobra.Command, _ []string) error {
			var err error
			cmder.debug, err = cmd.Flags().GetBool("debug")
			if err != nil {
				return fmt.Errorf("could not get debug flag: %w", err)
			}
			cmder.in = cmd.InOrStdin()
			cmder.out = cmd.OutOrStdout()
			return cmder.run(cmd.Context())
		},
	}

	config.AddStringFlag(cmd, cmder.flags, config.FlagMerged, &cmder.merged)
	config.AddStringFlag(cmd, cmder.flags, config.FlagIndexDir, &cmder.indexDir)
	config.AddUintFlag(cmd, cmder.flags, config.FlagTopK, &cmder.topK)
	config.AddIntFlag(cmd, cmder.flags, config.FlagMaxHistory, &cmder.maxHistory)
	config.AddStringFlag(cmd, cmder.flags, config.FlagVectorStoreProv, &cmder.vectorProvider)
	config.AddStringFlag(cmd, cmder.flags, config.FlagVectorStoreTgt, &cmder.vectorTarget)
	config.AddStringFlag(cmd, cmder.flags, config.FlagEmbeddingProv, &cmder.embedProvider)
	config.AddStringFlag(cmd, cmder.flags, config.FlagEmbeddingTgt, &cmder.embedTarget)
	config.AddStringFlag(cmd, cmder.flags, config.FlagEmbeddingModel, &cmder.embedModel)
	config.AddUintFlag(cmd, cmder.flags, config.FlagEmbeddingDims, &cmder.embedDims)
	config.AddStringFlag(cmd, cmder.flags, config.FlagLLMProvider, &cmder.llmProvider)
	config.AddStringFlag(cmd, cmder.flags, config.FlagLLMEndpoint, &cmder.endpoint)
	config.AddStringFlag(cmd, cmder.flags, config.FlagLLMRegion, &cmder.region)
	config.AddStringFlag(cmd, cmder.flags, config.FlagLLMTarget, &cmder.llmTarget)
	config.AddStringFlag(cmd, cmder.flags, config.FlagLLMModel, &cmder.llmModel)
	cmd.Flags().BoolVar(&cmder.plain, "plain", false, "Print answers without markdown rendering")

	return cmd
}

func (c *chatCommander) run(ctx context.Context) error {
	// Logs go to stderr so they do not interleave with the conversation.
	c.logger = logger.New(logger.WithDebug(c.debug), logger.WithFormat(logger.FormatPretty), logger.WithWriter(os.Stderr))

	idx, err := stack.OpenIndex(ctx, c.cfg, c.configDir, c.logger)
	if err != nil {
		return err
	}
	defer idx.Close()

	engine, err := stack.NewEngine(ctx, c.cfg, idx, c.logger)
	if err != nil {
		return err
	}

	session := chat.NewSession(uuid.NewString(), engine, c.cfg.Chat.MaxHistoryLength, c.logger)
	rewriter := chat.NewSourceRewriter(stack.Rewrites(c.cfg))

	fmt.Fprintln(c.out)
	fmt.Fprintf(c.out, "  %s %s %s\n",
		cliui.KeyStyle.Render("Index:"),
		cliui.ValueStyle.Render(idx.Name()),
		cliui.DimStyle.Render(fmt.Sprintf("(%d documents)", idx.Size())),
	)
	fmt.Fprintf(c.out, "  %s\n\n", cliui.DimStyle.Render("Ask a question and press Enter. /clear resets the conversation, /exit or Ctrl+D quits."))

	return c.loop(ctx, session, rewriter)
}

// loop reads questions until EOF or /exit.
func (c *chatCommander) loop(ctx context.Context, session *chat.Session, rewriter *chat.SourceRewriter) error {
	scanner := bufio.NewScanner(c.in)
	render := !c.plain && isTerminal(c.out)

	for {
		fmt.Fprint(c.out, userPrompt)
		if !scanner.Scan() {
			fmt.Fprintln(c.out)
			return scanner.Err()
		}

		input := strings.TrimSpace(scanner.Text())
		switch input {
		case "":
			continue
		case cmdExit:
			return nil
		case cmdClear:
			session.Clear()
			fmt.Fprintf(c.out, "  %s %s\n\n", cliui.SuccessMark, cliui.DimStyle.Render("History cleared"))
			continue
		}

		var reply chat.Reply
		_ = cliui.Step(c.out, "Thinking", func() error {
			reply = session.Ask(ctx, input)
			if reply.Failed {
				return errFailedTurn
			}
			return nil
		})

		c.printReply(reply, rewriter.Links(reply.Sources), render)
	}
}

var errFailedTurn = errors.New("turn failed")

func (c *chatCommander) printReply(reply chat.Reply, sources []chat.SourceLink, render bool) {
	answer := reply.Answer
	if render {
		// On a renderer error the raw answer comes back; print that.
		answer, _ = cliui.RenderMarkdown(answer)
		fmt.Fprintf(c.out, "%s\n%s", assistantPrompt, answer)
	} else {
		fmt.Fprintf(c.out, "%s%s\n", assistantPrompt, answer)
	}

	if len(sources) > 0 {
		fmt.Fprintf(c.out, "\n  %s\n", cliui.TitleStyle.Render("Sources"))
		for _, s := range sources {
			fmt.Fprintf(c.out, "  %s %s %s\n",
				cliui.DimStyle.Render("•"),
				cliui.ValueStyle.Render(s.Title),
				cliui.DimStyle.Render("--> "+s.URL),
			)
		}
	}
	fmt.Fprintln(c.out)
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}
