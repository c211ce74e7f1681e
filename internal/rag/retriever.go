// Package rag grounds generation prompts in reference passages: it expands a
// topic into sub-queries, retrieves for each, and fuses the ranked results.
package rag

import "context"

// Document 检索到的参考段落，只按内容判等
type Document struct {
	Content string `json:"content" yaml:"content"`
}

// Retriever 按查询返回有序的参考段落
type Retriever interface {
	Retrieve(ctx context.Context, query string) ([]Document, error)
}

// RetrieverFunc 让普通函数满足 Retriever
type RetrieverFunc func(ctx context.Context, query string) ([]Document, error)

func (f RetrieverFunc) Retrieve(ctx context.Context, query string) ([]Document, error) {
	return f(ctx, query)
}
