package modifier

import (
	"math"
	"regexp"
	"strings"

	"github.com/sri11223/Advanced-ui-workflow-sub001/internal/model"
	"github.com/sri11223/Advanced-ui-workflow-sub001/internal/palette"
)

// Gap 规则排版时组件之间的固定间距
const Gap = 20.0

var (
	verticalRe   = regexp.MustCompile(`(?i)\b(vertical(?:ly)?|stack(?:ed)?|column|top\s+to\s+bottom|one\s+below\s+(?:the\s+)?other)\b`)
	horizontalRe = regexp.MustCompile(`(?i)\b(horizontal(?:ly)?|side\s+by\s+side|in\s+a\s+row|inline|left\s+to\s+right)\b`)
	textColorRe  = regexp.MustCompile(`(?i)\b(text|font|label)\s+colou?r\b`)
	wordRe       = regexp.MustCompile(`[a-z0-9]+`)
)

var typeWords = map[string]model.ComponentType{
	"button":  model.ComponentButton,
	"btn":     model.ComponentButton,
	"cta":     model.ComponentButton,
	"input":   model.ComponentInput,
	"field":   model.ComponentInput,
	"textbox": model.ComponentInput,
	"text":    model.ComponentText,
	"label":   model.ComponentText,
	"heading": model.ComponentText,
	"title":   model.ComponentText,
}

var stopwords = map[string]struct{}{
	"change": {}, "make": {}, "set": {}, "turn": {}, "update": {}, "paint": {}, "recolor": {}, "recolour": {},
	"color": {}, "colour": {}, "background": {}, "font": {}, "to": {}, "the": {}, "a": {}, "an": {}, "all": {},
	"of": {}, "my": {}, "it": {}, "its": {}, "and": {}, "into": {}, "be": {}, "please": {}, "in": {}, "on": {},
	"with": {}, "this": {}, "that": {}, "them": {}, "every": {}, "each": {}, "so": {}, "is": {}, "are": {},
	"should": {}, "bg": {}, "use": {}, "vertical": {}, "horizontal": {}, "stack": {}, "side": {}, "by": {},
}

var defaultHeights = map[model.ComponentType]float64{
	model.ComponentText:   30,
	model.ComponentInput:  40,
	model.ComponentButton: 40,
}

var defaultWidths = map[model.ComponentType]float64{
	model.ComponentText:   200,
	model.ComponentInput:  240,
	model.ComponentButton: 120,
}

func heightOf(c model.Component) float64 {
	if c.Height > 0 {
		return c.Height
	}
	return defaultHeights[c.Type]
}

func widthOf(c model.Component) float64 {
	if c.Width > 0 {
		return c.Width
	}
	return defaultWidths[c.Type]
}

// ApplyRules 不依赖网络的确定性修改；第二个返回值表示是否命中了任何规则
func ApplyRules(instruction string, wf model.WireframeSpec) (model.WireframeSpec, bool) {
	out := wf.Clone()
	applied := false

	switch {
	case verticalRe.MatchString(instruction):
		Vertical(out.Components)
		applied = true
	case horizontalRe.MatchString(instruction):
		Horizontal(out.Components)
		applied = true
	}

	if _, hex, ok := palette.Find(instruction); ok {
		textColor := textColorRe.MatchString(instruction)
		for _, i := range SelectTargets(instruction, out.Components) {
			if textColor {
				out.Components[i].TextColor = hex
			} else {
				out.Components[i].BackgroundColor = hex
			}
		}
		applied = true
	}
	return out, applied
}

// Vertical 共享最小的 x，按列表顺序自上而下排列
func Vertical(cs []model.Component) {
	if len(cs) == 0 {
		return
	}
	x, y := minXY(cs)
	for i := range cs {
		cs[i].Height = heightOf(cs[i])
		cs[i].X, cs[i].Y = x, y
		y += cs[i].Height + Gap
	}
}

// Horizontal 共享最小的 y，按列表顺序从左到右排列
func Horizontal(cs []model.Component) {
	if len(cs) == 0 {
		return
	}
	x, y := minXY(cs)
	for i := range cs {
		cs[i].Width = widthOf(cs[i])
		cs[i].X, cs[i].Y = x, y
		x += cs[i].Width + Gap
	}
}

func minXY(cs []model.Component) (float64, float64) {
	x, y := math.Inf(1), math.Inf(1)
	for _, c := range cs {
		x = math.Min(x, c.X)
		y = math.Min(y, c.Y)
	}
	return x, y
}

// SelectTargets 选出要改色的组件下标：
// 先按说明里的关键词匹配组件文字（提到类型词时只在该类型中找），
// 其次按类型词，最后默认所有按钮。
func SelectTargets(instruction string, cs []model.Component) []int {
	stripped := textColorRe.ReplaceAllString(strings.ToLower(instruction), " ")

	types := make(map[model.ComponentType]bool)
	var keywords []string
	for _, w := range wordRe.FindAllString(stripped, -1) {
		w = singular(w)
		if t, ok := typeWords[w]; ok {
			types[t] = true
			continue
		}
		if _, stop := stopwords[w]; stop || palette.IsColorWord(w) {
			continue
		}
		keywords = append(keywords, w)
	}

	var candidates []int
	for i, c := range cs {
		if len(types) == 0 || types[c.Type] {
			candidates = append(candidates, i)
		}
	}

	if len(keywords) > 0 {
		var matched []int
		for _, i := range candidates {
			if captionMatches(cs[i], keywords) {
				matched = append(matched, i)
			}
		}
		if len(matched) > 0 {
			return matched
		}
	}
	if len(types) > 0 {
		return candidates
	}

	var buttons []int
	for i, c := range cs {
		if c.Type == model.ComponentButton {
			buttons = append(buttons, i)
		}
	}
	return buttons
}

func captionMatches(c model.Component, keywords []string) bool {
	caption := strings.ToLower(c.Label + " " + c.Placeholder)
	words := make(map[string]struct{})
	for _, w := range wordRe.FindAllString(caption, -1) {
		words[singular(w)] = struct{}{}
	}
	for _, k := range keywords {
		if _, ok := words[k]; ok {
			return true
		}
	}
	return false
}

func singular(w string) string {
	if len(w) > 3 && strings.HasSuffix(w, "s") && !strings.HasSuffix(w, "ss") {
		return w[:len(w)-1]
	}
	return w
}
