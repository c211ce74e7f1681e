// Package provider talks to text-generation backends and hides their failures
// behind retry, failover and a response cache.
package provider

import (
	"context"
	"fmt"
	"strings"

	"github.com/sri11223/Advanced-ui-workflow-sub001/internal/config"
)

// Response 后端回复，已统一为纯文本
type Response struct {
	Content  string
	Provider string
	Cached   bool
}

// Provider 单个文本生成后端
type Provider interface {
	Name() string
	Invoke(ctx context.Context, prompt string) (Response, error)
}

// Invoker 编排器对外暴露的调用接口，便于上层在测试中替换
type Invoker interface {
	Invoke(ctx context.Context, prompt string, opts ...InvokeOption) (Response, error)
}

type invokeOptions struct {
	skipCache bool
}

type InvokeOption func(*invokeOptions)

// SkipCache 跳过缓存读取，结果仍会写入缓存
func SkipCache() InvokeOption {
	return func(o *invokeOptions) { o.skipCache = true }
}

// New 按 kind 创建后端
func New(ctx context.Context, cfg config.ProviderConfig) (Provider, error) {
	if cfg.Name == "" {
		cfg.Name = cfg.Kind
	}
	switch strings.ToLower(cfg.Kind) {
	case "openai", "":
		return NewOpenAIProvider(cfg)
	case "doubao", "ark":
		return NewDoubaoProvider(ctx, cfg)
	case "qwen":
		return NewQwenProvider(ctx, cfg)
	default:
		return nil, fmt.Errorf("unsupported provider kind: %s", cfg.Kind)
	}
}

// NewFromConfig 创建主后端和按顺序排列的备用后端
func NewFromConfig(ctx context.Context, cfg config.ProvidersConfig) (Provider, []Provider, error) {
	primary, err := New(ctx, cfg.Primary)
	if err != nil {
		return nil, nil, fmt.Errorf("primary provider: %w", err)
	}
	fallbacks := make([]Provider, 0, len(cfg.Fallbacks))
	for i, fc := range cfg.Fallbacks {
		p, err := New(ctx, fc)
		if err != nil {
			return nil, nil, fmt.Errorf("fallback provider %d: %w", i, err)
		}
		fallbacks = append(fallbacks, p)
	}
	return primary, fallbacks, nil
}
