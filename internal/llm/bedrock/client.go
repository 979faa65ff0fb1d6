package bedrock

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime"

	"documind-backend/internal/llm"
)

const anthropicVersion = "bedrock-2023-05-31"

// Client implements llm.Client against Amazon Bedrock using the Anthropic
// messages payload format.
type Client struct {
	runtime *bedrockruntime.Client
	modelID string
}

// NewClient constructs a Bedrock client for the given model.
func NewClient(ctx context.Context, modelID, region string) (*Client, error) {
	if strings.TrimSpace(modelID) == "" {
		return nil, fmt.Errorf("bedrock client: model id is required")
	}
	opts := []func(*awsconfig.LoadOptions) error{}
	if strings.TrimSpace(region) != "" {
		opts = append(opts, awsconfig.WithRegion(region))
	}
	cfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("bedrock client: load aws config: %w", err)
	}
	return &Client{runtime: bedrockruntime.NewFromConfig(cfg), modelID: modelID}, nil
}

type message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type invokeBody struct {
	AnthropicVersion string    `json:"anthropic_version"`
	MaxTokens        int       `json:"max_tokens"`
	Temperature      float64   `json:"temperature"`
	System           string    `json:"system,omitempty"`
	Messages         []message `json:"messages"`
}

type invokeResponse struct {
	Content []struct {
		Type string `json:"type"`
		Text string `json:"text"`
	} `json:"content"`
}

// Complete invokes the model once and returns the concatenated text blocks.
func (c *Client) Complete(ctx context.Context, req llm.Request) (string, error) {
	maxTokens := req.MaxTokens
	if maxTokens <= 0 {
		maxTokens = 1000
	}

	body, err := json.Marshal(invokeBody{
		AnthropicVersion: anthropicVersion,
		MaxTokens:        maxTokens,
		Temperature:      req.Temperature,
		System:           req.System,
		Messages:         []message{{Role: "user", Content: req.Prompt}},
	})
	if err != nil {
		return "", err
	}

	contentType := "application/json"
	out, err := c.runtime.InvokeModel(ctx, &bedrockruntime.InvokeModelInput{
		ModelId:     &c.modelID,
		ContentType: &contentType,
		Accept:      &contentType,
		Body:        body,
	})
	if err != nil {
		return "", fmt.Errorf("bedrock invoke model=%s: %w", c.modelID, err)
	}

	var parsed invokeResponse
	if err := json.Unmarshal(out.Body, &parsed); err != nil {
		return "", fmt.Errorf("bedrock response parse: %w", err)
	}

	var b strings.Builder
	for _, block := range parsed.Content {
		if block.Type == "text" || block.Type == "" {
			b.WriteString(block.Text)
		}
	}
	text := strings.TrimSpace(b.String())
	if text == "" {
		return "", fmt.Errorf("bedrock response empty content")
	}
	return text, nil
}

var _ llm.Client = (*Client)(nil)
