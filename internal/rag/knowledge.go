package rag

import (
	"context"
	"fmt"
	"os"
	"regexp"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/sri11223/Advanced-ui-workflow-sub001/pkg/logger"
)

// Passage 知识库中的一条 UX 指南
type Passage struct {
	Topic   string   `yaml:"topic"`
	Tags    []string `yaml:"tags"`
	Content string   `yaml:"content"`
}

type knowledgeFile struct {
	Passages []Passage `yaml:"passages"`
}

// KnowledgeBase 进程内检索器，按查询词与段落的重合度排序
type KnowledgeBase struct {
	passages []Passage
	terms    []map[string]struct{}
	topK     int
}

var termRe = regexp.MustCompile(`[a-z0-9]+`)

var stopwords = map[string]struct{}{
	"the": {}, "and": {}, "for": {}, "what": {}, "are": {}, "how": {}, "should": {}, "with": {},
	"that": {}, "this": {}, "best": {}, "most": {}, "work": {}, "works": {}, "apply": {}, "screen": {},
	"page": {}, "from": {}, "into": {}, "which": {}, "does": {}, "matter": {}, "well": {},
}

func NewKnowledgeBase(passages []Passage, topK int) *KnowledgeBase {
	if topK <= 0 {
		topK = 5
	}
	kb := &KnowledgeBase{passages: passages, topK: topK}
	kb.terms = make([]map[string]struct{}, len(passages))
	for i, p := range passages {
		set := make(map[string]struct{})
		for _, t := range tokenize(p.Topic + " " + strings.Join(p.Tags, " ") + " " + p.Content) {
			set[t] = struct{}{}
		}
		kb.terms[i] = set
	}
	return kb
}

// LoadKnowledgeBase 从 YAML 文件加载；路径为空时使用内置指南
func LoadKnowledgeBase(path string, topK int) (*KnowledgeBase, error) {
	if path == "" {
		return NewKnowledgeBase(DefaultPassages(), topK), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read knowledge base: %w", err)
	}
	var f knowledgeFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse knowledge base: %w", err)
	}
	if len(f.Passages) == 0 {
		return nil, fmt.Errorf("knowledge base %s has no passages", path)
	}
	logger.Infof("Loaded %d knowledge base passages from %s", len(f.Passages), path)
	return NewKnowledgeBase(f.Passages, topK), nil
}

func (kb *KnowledgeBase) Len() int { return len(kb.passages) }

func (kb *KnowledgeBase) Retrieve(ctx context.Context, query string) ([]Document, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	qterms := tokenize(query)
	if len(qterms) == 0 {
		return nil, nil
	}

	type hit struct {
		idx   int
		score int
	}
	var hits []hit
	for i, set := range kb.terms {
		score := 0
		for _, t := range qterms {
			if _, ok := set[t]; ok {
				score++
			}
		}
		if score > 0 {
			hits = append(hits, hit{idx: i, score: score})
		}
	}
	sort.SliceStable(hits, func(i, j int) bool { return hits[i].score > hits[j].score })
	if len(hits) > kb.topK {
		hits = hits[:kb.topK]
	}

	docs := make([]Document, len(hits))
	for i, h := range hits {
		docs[i] = Document{Content: kb.passages[h.idx].Content}
	}
	return docs, nil
}

func tokenize(s string) []string {
	seen := make(map[string]struct{})
	var out []string
	for _, w := range termRe.FindAllString(strings.ToLower(s), -1) {
		if len(w) < 3 {
			continue
		}
		w = strings.TrimSuffix(w, "s")
		if _, stop := stopwords[w]; stop {
			continue
		}
		if _, dup := seen[w]; dup {
			continue
		}
		seen[w] = struct{}{}
		out = append(out, w)
	}
	return out
}

// DefaultPassages 内置的 UX 指南
func DefaultPassages() []Passage {
	return []Passage{
		{Topic: "login", Tags: []string{"auth", "sign in", "form", "password"},
			Content: "Login screens keep to two inputs (email or username, password), one primary button labelled with the action, and a secondary link for password recovery placed directly below the button."},
		{Topic: "signup", Tags: []string{"register", "form", "account"},
			Content: "Registration forms ask only for what is needed now; group name, email and password, show password rules next to the field, and end with a single full-width primary button."},
		{Topic: "forms", Tags: []string{"input", "label", "field", "validation"},
			Content: "Place labels above inputs, keep one column, align inputs to a shared left edge, and keep at least 16px vertical spacing between fields so touch targets do not collide."},
		{Topic: "buttons", Tags: []string{"cta", "action", "primary", "color"},
			Content: "Use one high-contrast primary call-to-action per screen; secondary actions use a neutral or outline style. Buttons should be at least 40px tall and labelled with verbs."},
		{Topic: "ecommerce", Tags: []string{"store", "shop", "product", "cart", "checkout"},
			Content: "Storefront homepages lead with a hero banner and search, followed by featured categories and a product grid; each product card shows image, name, price and an add-to-cart button."},
		{Topic: "checkout", Tags: []string{"ecommerce", "payment", "cart", "order"},
			Content: "Checkout flows show an order summary beside the form, minimise required fields, and keep the pay button visible with the total amount in its label."},
		{Topic: "dashboard", Tags: []string{"analytics", "admin", "metrics", "chart"},
			Content: "Dashboards place the most important KPIs in a top row of summary cards, charts in the middle, and detailed tables last; filters sit in a single toolbar above the content."},
		{Topic: "blog", Tags: []string{"article", "post", "content", "reading"},
			Content: "Blog layouts prioritise readable text: a measure of 60 to 75 characters, generous line height, a clear title and author line, and related posts after the article."},
		{Topic: "landing", Tags: []string{"marketing", "hero", "conversion", "signup"},
			Content: "Landing pages open with a headline, a one-sentence value proposition and a single primary call-to-action above the fold, followed by benefits, social proof and a repeated call-to-action."},
		{Topic: "portfolio", Tags: []string{"gallery", "projects", "showcase", "designer"},
			Content: "Portfolios foreground the work: a short introduction, a grid of project thumbnails with titles, and a simple contact call-to-action."},
		{Topic: "corporate", Tags: []string{"business", "company", "about", "services"},
			Content: "Corporate sites use a restrained palette, a navigation bar with About, Services and Contact, a hero statement, and a services overview in cards."},
		{Topic: "navigation", Tags: []string{"header", "menu", "navbar", "layout"},
			Content: "Top navigation keeps five or fewer primary items, places the logo on the left and the main action on the right, and stays consistent across screens."},
		{Topic: "accessibility", Tags: []string{"contrast", "a11y", "usability", "color"},
			Content: "Text needs a contrast ratio of at least 4.5:1 against its background; never rely on color alone to convey state, and keep interactive elements at least 44px in their smaller dimension."},
		{Topic: "spacing", Tags: []string{"layout", "grid", "alignment", "hierarchy"},
			Content: "Use an 8px spacing scale, align elements to a grid, and create hierarchy with size and weight before adding color."},
		{Topic: "search", Tags: []string{"input", "filter", "results"},
			Content: "Search inputs should be wide enough for typical queries, include a visible submit button or icon, and sit where users expect them, usually in the header."},
		{Topic: "profile", Tags: []string{"settings", "account", "user"},
			Content: "Profile and settings screens group related options under clear section headings and place destructive actions last, visually separated from save."},
	}
}
