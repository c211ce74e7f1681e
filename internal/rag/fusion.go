package rag

import "sort"

const (
	DefaultFusionK = 60
	MaxFused       = 5
)

// Fuse 倒数排名融合：每次出现在第 r 位（从 0 开始）贡献 1/(r+k)，按内容累加后取前 5。
// 同一文档的各项贡献排序后再求和，结果与列表顺序无关；同分按内容字典序。
func Fuse(lists [][]Document, k int) []Document {
	if k <= 0 {
		k = DefaultFusionK
	}
	contributions := make(map[string][]float64)
	for _, list := range lists {
		for rank, doc := range list {
			contributions[doc.Content] = append(contributions[doc.Content], 1/float64(rank+k))
		}
	}

	type scored struct {
		content string
		score   float64
	}
	ranked := make([]scored, 0, len(contributions))
	for content, parts := range contributions {
		sort.Float64s(parts)
		sum := 0.0
		for _, p := range parts {
			sum += p
		}
		ranked = append(ranked, scored{content: content, score: sum})
	}
	sort.Slice(ranked, func(i, j int) bool {
		if ranked[i].score != ranked[j].score {
			return ranked[i].score > ranked[j].score
		}
		return ranked[i].content < ranked[j].content
	})

	if len(ranked) > MaxFused {
		ranked = ranked[:MaxFused]
	}
	out := make([]Document, len(ranked))
	for i, s := range ranked {
		out[i] = Document{Content: s.content}
	}
	return out
}
