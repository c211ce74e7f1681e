package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cloudwego/eino/compose"

	"github.com/sri11223/Advanced-ui-workflow-sub001/internal/conversation"
	"github.com/sri11223/Advanced-ui-workflow-sub001/internal/model"
	"github.com/sri11223/Advanced-ui-workflow-sub001/internal/rag"
	"github.com/sri11223/Advanced-ui-workflow-sub001/internal/repair"
	"github.com/sri11223/Advanced-ui-workflow-sub001/pkg/logger"
)

const (
	nodeGround   = "Ground"
	nodeInvoke   = "Invoke"
	nodeRepair   = "Repair"
	nodeFallback = "Fallback"
)

// generation 在生成图的各节点之间传递
type generation struct {
	prompt   string
	progress ProgressFunc

	grounding string
	content   string
	invokeErr error

	wireframe model.WireframeSpec
	fallback  bool
	err       error
}

// composePipeline 生成图：Ground -> Invoke -> (Repair | Fallback) -> END。
// 节点不返回错误，失败记在 generation 上，由 generate 决定如何处理。
func (s *WireframeService) composePipeline(ctx context.Context) (compose.Runnable[*generation, *generation], error) {
	g := compose.NewGraph[*generation, *generation]()

	ground := compose.InvokableLambda(func(ctx context.Context, in *generation) (*generation, error) {
		if s.grounder == nil {
			return in, nil
		}
		s.emit(in.progress, PhaseGround, "Gathering UX guidelines")
		in.grounding = s.grounder.Ground(ctx, in.prompt, rag.ModeGeneration).Context()
		return in, nil
	})

	invoke := compose.InvokableLambda(func(ctx context.Context, in *generation) (*generation, error) {
		s.emit(in.progress, PhaseGenerate, "Generating wireframe")
		resp, err := s.invoker.Invoke(ctx, buildGenerationPrompt(in.prompt, in.grounding))
		if err != nil {
			in.invokeErr = err
			return in, nil
		}
		in.content = resp.Content
		return in, nil
	})

	repairNode := compose.InvokableLambda(func(ctx context.Context, in *generation) (*generation, error) {
		s.emit(in.progress, PhaseRepair, "Validating wireframe")
		in.wireframe = repair.ValidateRaw(in.content, conversation.TitleFor(in.prompt))
		return in, nil
	})

	fallback := compose.InvokableLambda(func(ctx context.Context, in *generation) (*generation, error) {
		// 预算耗尽同样退回模板，只有调用方取消才放弃
		if canceled(ctx) {
			in.err = ctx.Err()
			return in, nil
		}
		logger.Warnf("Generation failed, using template wireframe: %v", in.invokeErr)
		s.emit(in.progress, PhaseFallback, "Using a built-in template")
		in.wireframe = conversation.FallbackWireframe(in.prompt)
		in.fallback = true
		return in, nil
	})

	for name, node := range map[string]*compose.Lambda{
		nodeGround:   ground,
		nodeInvoke:   invoke,
		nodeRepair:   repairNode,
		nodeFallback: fallback,
	} {
		if err := g.AddLambdaNode(name, node); err != nil {
			return nil, fmt.Errorf("add node %s: %w", name, err)
		}
	}

	if err := g.AddEdge(compose.START, nodeGround); err != nil {
		return nil, err
	}
	if err := g.AddEdge(nodeGround, nodeInvoke); err != nil {
		return nil, err
	}
	err := g.AddBranch(nodeInvoke, compose.NewGraphBranch(func(ctx context.Context, in *generation) (string, error) {
		if in.invokeErr != nil {
			return nodeFallback, nil
		}
		return nodeRepair, nil
	}, map[string]bool{nodeRepair: true, nodeFallback: true}))
	if err != nil {
		return nil, err
	}
	if err := g.AddEdge(nodeRepair, compose.END); err != nil {
		return nil, err
	}
	if err := g.AddEdge(nodeFallback, compose.END); err != nil {
		return nil, err
	}

	return g.Compile(ctx)
}

func canceled(ctx context.Context) bool {
	return errors.Is(ctx.Err(), context.Canceled)
}

// withBudget 生成预算取配置值和调用方剩余时间的四分之三中较小者，
// 预算耗尽时调用方仍有时间拿到模板
func (s *WireframeService) withBudget(ctx context.Context) (context.Context, context.CancelFunc) {
	budget := s.config.GenerationTimeout
	if deadline, ok := ctx.Deadline(); ok {
		if remaining := time.Until(deadline) * 3 / 4; budget <= 0 || remaining < budget {
			budget = remaining
		}
	}
	if budget <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, budget)
}

// generate 检索增强后调用编排器；所有后端都失败或预算耗尽时退回分类模板
func (s *WireframeService) generate(ctx context.Context, prompt string, progress ProgressFunc) (model.WireframeSpec, bool, error) {
	genCtx, cancel := s.withBudget(ctx)
	defer cancel()

	out, err := s.pipeline.Invoke(genCtx, &generation{prompt: prompt, progress: progress})
	if err != nil {
		if canceled(ctx) {
			return model.WireframeSpec{}, false, ctx.Err()
		}
		logger.Errorf("Generation pipeline failed, using template wireframe: %v", err)
		s.emit(progress, PhaseFallback, "Using a built-in template")
		return conversation.FallbackWireframe(prompt), true, nil
	}
	if out.err != nil {
		return model.WireframeSpec{}, false, out.err
	}
	return out.wireframe, out.fallback, nil
}
