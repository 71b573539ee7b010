// Package sagemaker implements llm.Caller over an Amazon SageMaker real-time
// endpoint serving a Llama 2 chat model.
package sagemaker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/sagemakerruntime"

	"github.com/papercomputeco/helpbot/pkg/llm"
	"github.com/papercomputeco/helpbot/pkg/utils"
)

const (
	providerName = "sagemaker"

	contentType = "application/json"

	// The Llama 2 JumpStart containers refuse requests without this.
	eulaAttribute = "accept_eula=true"
)

// InvokeEndpointAPI is the subset of the SageMaker runtime client used here.
type InvokeEndpointAPI interface {
	InvokeEndpoint(ctx context.Context, params *sagemakerruntime.InvokeEndpointInput, optFns ...func(*sagemakerruntime.Options)) (*sagemakerruntime.InvokeEndpointOutput, error)
}

// Config configures a Caller.
type Config struct {
	Endpoint     string
	Region       string
	SystemPrompt string
	Parameters   llm.Parameters
}

// Caller invokes a SageMaker endpoint once per prompt.
type Caller struct {
	client InvokeEndpointAPI
	cfg    Config
	logger *slog.Logger
}

// New loads the default AWS credential chain for cfg.Region and returns a
// Caller for cfg.Endpoint.
func New(ctx context.Context, cfg Config, logger *slog.Logger) (*Caller, error) {
	if cfg.Endpoint == "" {
		return nil, errors.New("sagemaker endpoint name is required")
	}

	opts := []func(*awsconfig.LoadOptions) error{}
	if cfg.Region != "" {
		opts = append(opts, awsconfig.WithRegion(cfg.Region))
	}
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("loading aws config: %w", err)
	}

	return NewWithClient(sagemakerruntime.NewFromConfig(awsCfg), cfg, logger), nil
}

// NewWithClient returns a Caller using an existing runtime client.
func NewWithClient(client InvokeEndpointAPI, cfg Config, logger *slog.Logger) *Caller {
	return &Caller{
		client: client,
		cfg:    cfg,
		logger: logger,
	}
}

// Complete sends prompt as the user message of a single dialog.
func (c *Caller) Complete(ctx context.Context, prompt string) (string, error) {
	body, err := c.encode(prompt)
	if err != nil {
		return "", llm.Malformed(providerName, err)
	}

	start := time.Now()
	out, err := c.client.InvokeEndpoint(ctx, &sagemakerruntime.InvokeEndpointInput{
		EndpointName:     aws.String(c.cfg.Endpoint),
		Body:             body,
		ContentType:      aws.String(contentType),
		Accept:           aws.String(contentType),
		CustomAttributes: aws.String(eulaAttribute),
	})
	if err != nil {
		return "", llm.Unreachable(providerName, err)
	}

	content, err := decode(out.Body)
	if err != nil {
		c.logger.Debug("unexpected sagemaker response", "body", utils.Truncate(string(out.Body), 300))
		return "", llm.Malformed(providerName, err)
	}

	c.logger.Debug("sagemaker completion",
		"endpoint", c.cfg.Endpoint,
		"prompt_chars", len(prompt),
		"answer_chars", len(content),
		"duration", time.Since(start),
	)
	return content, nil
}

func (c *Caller) encode(prompt string) ([]byte, error) {
	req := llm.NewChatRequest("", c.cfg.SystemPrompt, prompt, c.cfg.Parameters)

	dialog := make([]sagemakerMessage, 0, len(req.Messages))
	for _, m := range req.Messages {
		dialog = append(dialog, sagemakerMessage{Role: m.Role, Content: m.Content})
	}

	return json.Marshal(invokeRequest{
		Inputs: [][]sagemakerMessage{dialog},
		Parameters: invokeParameters{
			MaxNewTokens: req.Parameters.MaxNewTokens,
			TopP:         req.Parameters.TopP,
			Temperature:  req.Parameters.Temperature,
		},
	})
}

func decode(body []byte) (string, error) {
	var resp invokeResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return "", fmt.Errorf("decoding response: %w", err)
	}
	if len(resp) == 0 {
		return "", errors.New("response holds no generations")
	}
	if resp[0].Generation == nil || resp[0].Generation.Content == nil {
		return "", errors.New("response has no generation content")
	}
	return *resp[0].Generation.Content, nil
}

var _ llm.Caller = (*Caller)(nil)
