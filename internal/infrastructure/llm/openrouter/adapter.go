package openrouter

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"ufunda-orchestrator/internal/application/port/output"
	"ufunda-orchestrator/internal/infrastructure/prompts"

	"github.com/sashabaranov/go-openai"
)

var _ output.UniversityClassifier = (*OpenRouterAdapter)(nil)

const (
	selectBotTool = "select_bot"
	noMatch       = "none"
)

type OpenRouterAdapter struct {
	client *openai.Client
	model  string
	logger output.LoggerPort
}

type Config struct {
	APIKey  string
	Model   string
	BaseURL string
	Logger  output.LoggerPort
}

func DefaultConfig(apiKey, model string) Config {
	return Config{
		APIKey:  apiKey,
		Model:   model,
		BaseURL: "https://openrouter.ai/api/v1",
	}
}

type loggingTransport struct {
	base   http.RoundTripper
	logger output.LoggerPort
}

func (t *loggingTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	var bodyBytes []byte
	if req.Body != nil {
		bodyBytes, _ = io.ReadAll(req.Body)
		req.Body = io.NopCloser(bytes.NewBuffer(bodyBytes))
	}

	var requestData map[string]any
	if len(bodyBytes) > 0 {
		_ = json.Unmarshal(bodyBytes, &requestData)
	}
	t.logger.Debug("HTTP Request", "method", req.Method, "url", req.URL.String(), "body", requestData)

	resp, err := t.base.RoundTrip(req)
	if resp != nil {
		t.logger.Debug("HTTP Response", "status", resp.Status, "statusCode", resp.StatusCode)
	}
	return resp, err
}

func NewOpenRouterAdapter(cfg Config) *OpenRouterAdapter {
	config := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		config.BaseURL = cfg.BaseURL
	}

	if cfg.Logger != nil {
		config.HTTPClient = &http.Client{
			Transport: &loggingTransport{
				base:   http.DefaultTransport,
				logger: cfg.Logger,
			},
		}
	}

	return &OpenRouterAdapter{
		client: openai.NewClientWithConfig(config),
		model:  cfg.Model,
		logger: cfg.Logger,
	}
}

// Classify asks the model which of bots the notification text is about. Answers outside
// bots are treated as no match.
func (a *OpenRouterAdapter) Classify(ctx context.Context, text string, bots []string) (string, error) {
	if len(bots) == 0 {
		return "", nil
	}

	systemPrompt, err := prompts.GenerateClassifierPrompt(prompts.ClassifierPrompt, bots)
	if err != nil {
		return "", fmt.Errorf("render classifier prompt: %w", err)
	}

	resp, err := a.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: a.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: systemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: text},
		},
		Tools: []openai.Tool{selectBotDefinition(bots)},
		ToolChoice: openai.ToolChoice{
			Type:     openai.ToolTypeFunction,
			Function: openai.ToolFunction{Name: selectBotTool},
		},
		Temperature: 0,
	})
	if err != nil {
		return "", fmt.Errorf("chat completion failed: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("no choices in response")
	}

	answer, err := parseAnswer(resp.Choices[0].Message)
	if err != nil {
		return "", err
	}
	for _, b := range bots {
		if strings.EqualFold(answer, b) {
			if a.logger != nil {
				a.logger.Info("Notification classified", "bot", b)
			}
			return b, nil
		}
	}
	return "", nil
}

func selectBotDefinition(bots []string) openai.Tool {
	return openai.Tool{
		Type: openai.ToolTypeFunction,
		Function: &openai.FunctionDefinition{
			Name:        selectBotTool,
			Description: "Select the bot that should handle this notification.",
			Parameters: map[string]any{
				"type": "object",
				"properties": map[string]any{
					"bot": map[string]any{
						"type": "string",
						"enum": append(append([]string{}, bots...), noMatch),
					},
				},
				"required": []string{"bot"},
			},
		},
	}
}

// parseAnswer prefers the tool call and falls back to plain content for models that
// ignore tool_choice.
func parseAnswer(msg openai.ChatCompletionMessage) (string, error) {
	for _, tc := range msg.ToolCalls {
		if tc.Function.Name != selectBotTool {
			continue
		}
		var args struct {
			Bot string `json:"bot"`
		}
		if err := json.Unmarshal([]byte(tc.Function.Arguments), &args); err != nil {
			return "", fmt.Errorf("bad %s arguments: %w", selectBotTool, err)
		}
		return strings.TrimSpace(args.Bot), nil
	}
	return strings.Trim(strings.TrimSpace(msg.Content), `"'.`), nil
}
