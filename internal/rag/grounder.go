package rag

import (
	"context"
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/sri11223/Advanced-ui-workflow-sub001/pkg/logger"
)

// Grounding 一次检索增强的结果
type Grounding struct {
	Queries   []string
	Documents []Document
}

// Context 格式化成可直接拼进 prompt 的参考文本；没有文档时为空串
func (g Grounding) Context() string {
	if len(g.Documents) == 0 {
		return ""
	}
	var b strings.Builder
	b.WriteString("Reference UX guidelines:\n")
	for i, d := range g.Documents {
		fmt.Fprintf(&b, "%d. %s\n", i+1, d.Content)
	}
	return b.String()
}

type Grounder struct {
	decomposer     *Decomposer
	retriever      Retriever
	fusionK        int
	maxConcurrency int
}

func NewGrounder(decomposer *Decomposer, retriever Retriever, fusionK, maxConcurrency int) *Grounder {
	return &Grounder{
		decomposer:     decomposer,
		retriever:      retriever,
		fusionK:        fusionK,
		maxConcurrency: maxConcurrency,
	}
}

// Ground 拆分主题、并发检索全部子问题、融合排序。
// 单个子问题检索失败只记日志，贡献空列表。
func (g *Grounder) Ground(ctx context.Context, topic string, mode Mode) Grounding {
	queries := g.decomposer.Expand(ctx, topic, mode)
	if g.retriever == nil {
		return Grounding{Queries: queries}
	}

	lists := make([][]Document, len(queries))
	eg, egCtx := errgroup.WithContext(ctx)
	if g.maxConcurrency > 0 {
		eg.SetLimit(g.maxConcurrency)
	}
	for i, q := range queries {
		i, q := i, q
		eg.Go(func() error {
			docs, err := g.retriever.Retrieve(egCtx, q)
			if err != nil {
				logger.WithFields(logrus.Fields{"query": q, "mode": mode.String()}).
					Warnf("sub-query retrieval failed: %v", err)
				return nil
			}
			lists[i] = docs
			return nil
		})
	}
	_ = eg.Wait()

	return Grounding{Queries: queries, Documents: Fuse(lists, g.fusionK)}
}
