package provider

import (
	"context"
	"fmt"
	"strings"

	"github.com/cloudwego/eino-ext/components/model/ark"
	"github.com/cloudwego/eino-ext/components/model/qwen"
	einoModel "github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"

	"github.com/sri11223/Advanced-ui-workflow-sub001/internal/config"
	"github.com/sri11223/Advanced-ui-workflow-sub001/pkg/logger"
)

// ChatModelProvider 把 eino 的 ChatModel 包装成 Provider
type ChatModelProvider struct {
	name  string
	model einoModel.BaseChatModel
}

func NewChatModelProvider(name string, m einoModel.BaseChatModel) *ChatModelProvider {
	return &ChatModelProvider{name: name, model: m}
}

func (p *ChatModelProvider) Name() string { return p.name }

func (p *ChatModelProvider) Invoke(ctx context.Context, prompt string) (Response, error) {
	msg, err := p.model.Generate(ctx, []*schema.Message{schema.UserMessage(prompt)})
	if err != nil {
		return Response{}, Classify(p.name, err)
	}
	if msg == nil || strings.TrimSpace(msg.Content) == "" {
		return Response{}, Classify(p.name, ErrEmptyCompletion)
	}
	return Response{Content: msg.Content, Provider: p.name}, nil
}

// NewDoubaoProvider 创建火山方舟（豆包）后端
func NewDoubaoProvider(ctx context.Context, cfg config.ProviderConfig) (*ChatModelProvider, error) {
	logger.Infof("Using Doubao API Key: %s, Model: %s", maskKey(cfg.APIKey), cfg.Model)

	arkCfg := &ark.ChatModelConfig{
		APIKey:  cfg.APIKey,
		Model:   cfg.Model,
		BaseURL: cfg.BaseURL,
		CustomHeader: map[string]string{
			"X-Ark-Thinking-Mode": "disable",
		},
	}
	if cfg.MaxTokens > 0 {
		arkCfg.MaxTokens = &cfg.MaxTokens
	}
	if cfg.Temperature > 0 {
		arkCfg.Temperature = &cfg.Temperature
	}
	if cfg.TopP > 0 {
		arkCfg.TopP = &cfg.TopP
	}

	chatModel, err := ark.NewChatModel(ctx, arkCfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create Doubao model: %w", err)
	}
	return NewChatModelProvider(nameOr(cfg, "doubao"), chatModel), nil
}

// NewQwenProvider 创建通义千问后端，HTTP 客户端带可选的请求调试
func NewQwenProvider(ctx context.Context, cfg config.ProviderConfig) (*ChatModelProvider, error) {
	logger.Infof("Using Qwen Model: %s, BaseURL: %s, API Key: %s", cfg.Model, cfg.BaseURL, maskKey(cfg.APIKey))

	qwenCfg := &qwen.ChatModelConfig{
		BaseURL:    cfg.BaseURL,
		APIKey:     cfg.APIKey,
		Model:      cfg.Model,
		Timeout:    cfg.Timeout,
		HTTPClient: newHTTPClient(cfg),
	}
	if cfg.MaxTokens > 0 {
		qwenCfg.MaxTokens = &cfg.MaxTokens
	}
	if cfg.Temperature > 0 {
		qwenCfg.Temperature = &cfg.Temperature
	}
	if cfg.TopP > 0 {
		qwenCfg.TopP = &cfg.TopP
	}

	chatModel, err := qwen.NewChatModel(ctx, qwenCfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create Qwen model: %w", err)
	}
	return NewChatModelProvider(nameOr(cfg, "qwen"), chatModel), nil
}

func nameOr(cfg config.ProviderConfig, def string) string {
	if cfg.Name != "" {
		return cfg.Name
	}
	return def
}

func maskKey(key string) string {
	if len(key) > 10 {
		return key[:10] + "..."
	}
	if key == "" {
		return "(empty)"
	}
	return "***"
}
