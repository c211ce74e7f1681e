package conversation

import (
	"regexp"
	"strings"

	"github.com/sri11223/Advanced-ui-workflow-sub001/internal/model"
	"github.com/sri11223/Advanced-ui-workflow-sub001/internal/palette"
)

// Preferences 从追问回答里提取的偏好
type Preferences struct {
	ColorName string `json:"color_name,omitempty"`
	ColorHex  string `json:"color_hex,omitempty"`
	Objective string `json:"objective,omitempty"`
}

func (p Preferences) Empty() bool {
	return p.ColorHex == "" && p.Objective == ""
}

var (
	objectiveRe       = regexp.MustCompile(`(?i)\b(?:goal|objective|aim|purpose)\b\s*(?:is|:)?\s*(?:to\s+)?([^.!?\n]+)`)
	objectiveKeywords = []struct {
		re        *regexp.Regexp
		objective string
	}{
		{regexp.MustCompile(`(?i)\b(sell|sales|revenue|purchases?|conversions?)\b`), "increase sales"},
		{regexp.MustCompile(`(?i)\b(sign-?ups?|leads?|subscribers?|newsletter)\b`), "collect sign-ups"},
		{regexp.MustCompile(`(?i)\b(engagement|read(?:ers|ing)?)\b`), "reader engagement"},
		{regexp.MustCompile(`(?i)\b(brand|awareness|trust)\b`), "build brand awareness"},
		{regexp.MustCompile(`(?i)\b(monitor(?:ing)?|track(?:ing)?)\b`), "monitoring"},
	}
)

// ExtractPreferences 找出颜色词和目标描述
func ExtractPreferences(answer string) Preferences {
	var p Preferences
	if name, hex, ok := palette.Find(answer); ok {
		p.ColorName, p.ColorHex = name, hex
	}
	if m := objectiveRe.FindStringSubmatch(answer); m != nil {
		p.Objective = strings.TrimSpace(m[1])
	}
	if p.Objective == "" {
		for _, k := range objectiveKeywords {
			if k.re.MatchString(answer) {
				p.Objective = k.objective
				break
			}
		}
	}
	return p
}

// ApplyPreferences 把偏好色应用到所有按钮，返回新线框图和是否有改动
func ApplyPreferences(wf model.WireframeSpec, p Preferences) (model.WireframeSpec, bool) {
	out := wf.Clone()
	if p.ColorHex == "" {
		return out, false
	}
	changed := false
	for i := range out.Components {
		if out.Components[i].Type == model.ComponentButton && out.Components[i].BackgroundColor != p.ColorHex {
			out.Components[i].BackgroundColor = p.ColorHex
			changed = true
		}
	}
	return out, changed
}
