package provider

import (
	"context"
	"strings"

	openai "github.com/sashabaranov/go-openai"

	"github.com/sri11223/Advanced-ui-workflow-sub001/internal/config"
	"github.com/sri11223/Advanced-ui-workflow-sub001/pkg/logger"
)

// OpenAIProvider OpenAI 兼容接口的后端
type OpenAIProvider struct {
	name        string
	client      *openai.Client
	model       string
	maxTokens   int
	temperature float32
	topP        float32
}

func NewOpenAIProvider(cfg config.ProviderConfig) (*OpenAIProvider, error) {
	clientConfig := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientConfig.BaseURL = cfg.BaseURL
	}
	clientConfig.HTTPClient = newHTTPClient(cfg)

	name := cfg.Name
	if name == "" {
		name = "openai"
	}
	logger.Infof("Using OpenAI-compatible provider %s, model: %s", name, cfg.Model)

	return &OpenAIProvider{
		name:        name,
		client:      openai.NewClientWithConfig(clientConfig),
		model:       cfg.Model,
		maxTokens:   cfg.MaxTokens,
		temperature: cfg.Temperature,
		topP:        cfg.TopP,
	}, nil
}

func (p *OpenAIProvider) Name() string { return p.name }

func (p *OpenAIProvider) Invoke(ctx context.Context, prompt string) (Response, error) {
	resp, err := p.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: p.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
		MaxTokens:   p.maxTokens,
		Temperature: p.temperature,
		TopP:        p.topP,
	})
	if err != nil {
		return Response{}, Classify(p.name, err)
	}
	if len(resp.Choices) == 0 || strings.TrimSpace(resp.Choices[0].Message.Content) == "" {
		return Response{}, Classify(p.name, ErrEmptyCompletion)
	}
	return Response{Content: resp.Choices[0].Message.Content, Provider: p.name}, nil
}
