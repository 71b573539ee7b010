// Package servecmder provides the serve command, which runs the web chat,
// the HTTP API and the MCP endpoint over the merged index.
package servecmder

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/papercomputeco/helpbot/api"
	"github.com/papercomputeco/helpbot/api/mcp"
	"github.com/papercomputeco/helpbot/cmd/helpbot/stack"
	"github.com/papercomputeco/helpbot/pkg/chat"
	"github.com/papercomputeco/helpbot/pkg/config"
	"github.com/papercomputeco/helpbot/pkg/logger"
)

type ServeCommander struct {
	flags config.FlagSet

	cfg       *config.Config
	configDir string

	listen         string
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

	noMCP    bool
	jsonLogs bool
	logFile  string
	debug    bool

	logger *slog.Logger
}

var serveFlags = []string{
	config.FlagListen,
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

const serveLongDesc string = `Run the helpbot web chat.

Serves the chat page at /, the JSON API under /v1 and an MCP endpoint at /mcp
with the search_docs and ask tools. The merged index must already exist; run
"helpbot ingest" first.

Examples:
  helpbot serve
  helpbot serve --listen :8080 --endpoint jumpstart-dft-meta-textgeneration-llama-2-7b-f
  helpbot serve --llm-provider ollama --llm-model llama2
  helpbot serve --json-logs --log-file helpbot.log`

const serveShortDesc string = "Run the web chat and API server"

func NewServeCmd() *cobra.Command {
	cmder := &ServeCommander{flags: config.Flags}

	cmd := &cobra.Command{
		Use:   "serve",
		Short: serveShortDesc,
		Long:  serveLongDesc,
		Args:  cobra.NoArgs,
		PreRunE: func(cmd *cobra.Command, _ []string) error {
			var err error
			cmder.cfg, cmder.configDir, err = stack.Resolve(cmd, serveFlags)
			return err
		},
		RunE: func(cmd *cobra.Command, _ []string) error {
			var err error
			cmder.debug, err = cmd.Flags().GetBool("debug")
			if err != nil {
				return fmt.Errorf("could not get debug flag: %w", err)
			}
			return cmder.run(cmd.Context())
		},
	}

	config.AddStringFlag(cmd, cmder.flags, config.FlagListen, &cmder.listen)
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
	cmd.Flags().BoolVar(&cmder.noMCP, "no-mcp", false, "Do not mount the MCP endpoint")
	cmd.Flags().BoolVar(&cmder.jsonLogs, "json-logs", false, "Log JSON records instead of pretty console output")
	cmd.Flags().StringVar(&cmder.logFile, "log-file", "", "Also append JSON log records to this file")

	return cmd
}

func (c *ServeCommander) run(ctx context.Context) error {
	var err error
	c.logger, err = c.newLogger()
	if err != nil {
		return err
	}

	idx, err := stack.OpenIndex(ctx, c.cfg, c.configDir, c.logger)
	if err != nil {
		return err
	}
	defer idx.Close()

	engine, err := stack.NewEngine(ctx, c.cfg, idx, c.logger)
	if err != nil {
		return err
	}

	registry := chat.NewRegistry(engine, c.cfg.Chat.MaxHistoryLength, c.cfg.SessionTTLDuration(), c.logger)
	rewriter := chat.NewSourceRewriter(stack.Rewrites(c.cfg))

	mcpServer, err := mcp.NewServer(mcp.Config{
		Searcher: idx,
		Registry: registry,
		Rewriter: rewriter,
		Noop:     c.noMCP,
		Logger:   c.logger,
	})
	if err != nil {
		return fmt.Errorf("creating MCP server: %w", err)
	}

	server, err := api.NewServer(api.Config{
		ListenAddr: c.cfg.API.Listen,
		Registry:   registry,
		Searcher:   idx,
		Rewriter:   rewriter,
		MCPHandler: mcpServer.Handler(),
	}, c.logger)
	if err != nil {
		return fmt.Errorf("creating API server: %w", err)
	}

	c.logger.Info("index loaded",
		"index", idx.Name(),
		"documents", idx.Size(),
		"llm_provider", c.cfg.LLM.Provider,
	)

	// Channel to capture errors from the server goroutine
	errChan := make(chan error, 1)
	go func() {
		if err := server.Run(); err != nil {
			errChan <- fmt.Errorf("API server error: %w", err)
		}
	}()

	// Wait for interrupt signal or error
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errChan:
		return err
	case sig := <-sigChan:
		c.logger.Info("received signal, shutting down", "signal", sig.String())
		return server.Shutdown()
	}
}

// newLogger builds the console logger and, with --log-file, tees JSON
// records into the file.
func (c *ServeCommander) newLogger() (*slog.Logger, error) {
	format := logger.FormatPretty
	if c.jsonLogs {
		format = logger.FormatJSON
	}
	console := logger.New(
		logger.WithDebug(c.debug),
		logger.WithFormat(format),
	)
	if c.logFile == "" {
		return console, nil
	}

	f, err := os.OpenFile(c.logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, fmt.Errorf("opening log file: %w", err)
	}

	return logger.Multi(console, logger.New(
		logger.WithDebug(c.debug),
		logger.WithFormat(logger.FormatJSON),
		logger.WithWriter(f),
	)), nil
}
