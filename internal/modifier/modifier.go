// Package modifier applies natural-language edits to an existing wireframe.
package modifier

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/sri11223/Advanced-ui-workflow-sub001/internal/model"
	"github.com/sri11223/Advanced-ui-workflow-sub001/internal/provider"
	"github.com/sri11223/Advanced-ui-workflow-sub001/internal/rag"
	"github.com/sri11223/Advanced-ui-workflow-sub001/internal/repair"
	"github.com/sri11223/Advanced-ui-workflow-sub001/pkg/logger"
)

type Path string

const (
	PathAI        Path = "ai"
	PathRules     Path = "rules"
	PathUnchanged Path = "unchanged"
)

// ErrUnusableResult 后端回复解析不出任何组件
var ErrUnusableResult = errors.New("modification result has no components")

type Result struct {
	Wireframe model.WireframeSpec
	Path      Path
}

const modifyPrompt = `You are editing a UI wireframe for a design tool.
Apply the instruction to the wireframe JSON below and return the complete updated wireframe.
Return a single JSON object with exactly this schema and nothing else:
{"title": string, "components": [{"type": "text"|"input"|"button", "label": string, "x": number, "y": number, "width": number, "height": number, "fontSize": number, "fontWeight": string, "backgroundColor": "#RRGGBB", "textColor": "#RRGGBB", "placeholder": string}]}
Components must stay flat. Button captions go in "label". Leave components the instruction does not mention unchanged.

%sInstruction: %s

Wireframe:
%s`

type Modifier struct {
	invoker  provider.Invoker
	grounder *rag.Grounder
}

// New invoker 为 nil 时只走规则路径
func New(invoker provider.Invoker) *Modifier {
	return &Modifier{invoker: invoker}
}

// WithGrounder 后端修改前按聊天模式检索参考资料
func (m *Modifier) WithGrounder(g *rag.Grounder) *Modifier {
	m.grounder = g
	return m
}

// Apply 先让后端修改；失败、超时或结果不可用时退回规则路径。
// 只有调用方取消（context.Canceled）时才返回错误。
func (m *Modifier) Apply(ctx context.Context, instruction string, wf model.WireframeSpec) (Result, error) {
	if m.invoker != nil {
		spec, err := m.viaProvider(ctx, instruction, wf)
		if err == nil {
			return Result{Wireframe: spec, Path: PathAI}, nil
		}
		if ctxErr := ctx.Err(); errors.Is(ctxErr, context.Canceled) {
			return Result{}, ctxErr
		}
		logger.Warnf("AI modification unusable, applying rules: %v", err)
	}

	out, applied := ApplyRules(instruction, wf)
	if !applied {
		return Result{Wireframe: out, Path: PathUnchanged}, nil
	}
	return Result{Wireframe: out, Path: PathRules}, nil
}

func (m *Modifier) viaProvider(ctx context.Context, instruction string, wf model.WireframeSpec) (model.WireframeSpec, error) {
	current, err := json.MarshalIndent(wf, "", "  ")
	if err != nil {
		return model.WireframeSpec{}, fmt.Errorf("encode wireframe: %w", err)
	}
	var guidelines string
	if m.grounder != nil {
		if ref := m.grounder.Ground(ctx, instruction, rag.ModeChat).Context(); ref != "" {
			guidelines = ref + "\n"
		}
	}
	resp, err := m.invoker.Invoke(ctx, fmt.Sprintf(modifyPrompt, guidelines, instruction, current))
	if err != nil {
		return model.WireframeSpec{}, err
	}
	obj, err := repair.TryRepair(resp.Content)
	if err != nil {
		return model.WireframeSpec{}, err
	}
	if !repair.HasComponents(obj) {
		return model.WireframeSpec{}, ErrUnusableResult
	}
	return repair.ValidateWireframe(obj, wf.Title), nil
}
