package repair

import (
	"encoding/json"
	"math"
	"regexp"
	"strconv"
	"strings"

	"github.com/sri11223/Advanced-ui-workflow-sub001/internal/model"
	"github.com/sri11223/Advanced-ui-workflow-sub001/internal/palette"
)

const (
	DefaultTitle     = "Untitled Wireframe"
	maxFlattenDepth  = 32
	legacyX          = 40.0
	legacyStartY     = 40.0
	legacyGap        = 16.0
	legacyFieldWidth = 320.0
)

var (
	envelopeKeys = []string{"json", "wireframe", "data", "layout"}
	captionKeys  = []string{"label", "text", "content", "title", "value", "caption"}
	numPrefixRe  = regexp.MustCompile(`^\s*-?\d+(\.\d+)?`)
)

// ValidateWireframe 把任意解析结果规整成合法的扁平线框图。
// 不会 panic；对自身输出再次调用结果不变。
func ValidateWireframe(obj map[string]any, titleFallback string) model.WireframeSpec {
	var spec model.WireframeSpec

	root := locateRoot(obj, 0)
	if root != nil {
		spec.Title = firstString(root, "title")
		spec.Components = flatten(root["components"], 0, 0, 0)
	} else {
		spec.Title, spec.Components = fromLegacy(obj)
	}
	if spec.Title == "" && obj != nil {
		spec.Title = firstString(obj, "title")
	}
	if spec.Title == "" {
		spec.Title = strings.TrimSpace(titleFallback)
	}
	if spec.Title == "" {
		spec.Title = DefaultTitle
	}
	if len(spec.Components) == 0 {
		spec.Components = []model.Component{placeholderComponent()}
	}
	return spec
}

// ValidateRaw 修复并校验模型原始输出
func ValidateRaw(raw, titleFallback string) model.WireframeSpec {
	return ValidateWireframe(RepairAndParse(raw), titleFallback)
}

func placeholderComponent() model.Component {
	return model.Component{
		Type:   model.ComponentText,
		Label:  "Empty wireframe",
		X:      20,
		Y:      20,
		Width:  200,
		Height: 30,
	}
}

// locateRoot 找到带 components 数组的对象，必要时拆开 json/wireframe 等外层包装
func locateRoot(obj map[string]any, depth int) map[string]any {
	if obj == nil || depth > 3 {
		return nil
	}
	if _, ok := obj["components"].([]any); ok {
		return obj
	}
	for _, k := range envelopeKeys {
		inner, ok := obj[k].(map[string]any)
		if !ok {
			continue
		}
		if r := locateRoot(inner, depth+1); r != nil {
			if firstString(r, "title") == "" {
				if t := firstString(obj, "title"); t != "" {
					r = withTitle(r, t)
				}
			}
			return r
		}
	}
	return nil
}

func withTitle(m map[string]any, title string) map[string]any {
	out := make(map[string]any, len(m)+1)
	for k, v := range m {
		out[k] = v
	}
	out["title"] = title
	return out
}

// flatten 深度优先展开嵌套组件，父节点绝对坐标作为参数向下传递
func flatten(nodes any, offX, offY float64, depth int) []model.Component {
	list, ok := nodes.([]any)
	if !ok || depth > maxFlattenDepth {
		return nil
	}
	var out []model.Component
	for _, n := range list {
		m, ok := n.(map[string]any)
		if !ok {
			continue
		}
		absX := offX + number(m["x"])
		absY := offY + number(m["y"])

		kids := childNodes(m)
		caption := firstString(m, captionKeys...)
		if len(kids) == 0 || caption != "" {
			c := toComponent(m, absX, absY, caption)
			if len(kids) > 0 {
				c.Height = 0
			}
			out = append(out, c)
		}
		if len(kids) > 0 {
			out = append(out, flatten(kids, absX, absY, depth+1)...)
		}
	}
	return out
}

func childNodes(m map[string]any) []any {
	var kids []any
	for _, k := range []string{"components", "children"} {
		if arr, ok := m[k].([]any); ok {
			kids = append(kids, arr...)
		}
	}
	return kids
}

func toComponent(m map[string]any, x, y float64, caption string) model.Component {
	typ := coerceType(firstString(m, "type"))
	c := model.Component{
		Type:        typ,
		Label:       caption,
		X:           x,
		Y:           y,
		Width:       positive(number(m["width"])),
		Height:      positive(number(m["height"])),
		FontSize:    positive(number(firstValue(m, "fontSize", "font_size"))),
		FontWeight:  fontWeight(firstValue(m, "fontWeight", "font_weight")),
		Placeholder: firstString(m, "placeholder"),
		BackgroundColor: palette.Normalize(firstString(m,
			"backgroundColor", "background_color", "bgColor", "background")),
		TextColor: palette.Normalize(firstString(m, "textColor", "text_color", "color")),
	}
	if c.Label == "" {
		c.Label = defaultLabel(c)
	}
	return c
}

func coerceType(t string) model.ComponentType {
	switch strings.ToLower(strings.TrimSpace(t)) {
	case "text", "container", "form":
		return model.ComponentText
	case "button":
		return model.ComponentButton
	default:
		return model.ComponentInput
	}
}

func defaultLabel(c model.Component) string {
	switch c.Type {
	case model.ComponentButton:
		return "Button"
	case model.ComponentText:
		return "Text"
	default:
		if c.Placeholder != "" {
			return c.Placeholder
		}
		return "Input"
	}
}

// fromLegacy 旧格式 {screen, fields, buttons, links} 转成纵向排列的组件
func fromLegacy(obj map[string]any) (string, []model.Component) {
	if obj == nil {
		return "", nil
	}
	title := ""
	sources := []map[string]any{obj}
	switch s := obj["screen"].(type) {
	case string:
		title = strings.TrimSpace(s)
	case map[string]any:
		title = firstString(s, "title", "name")
		sources = append(sources, s)
	}

	var comps []model.Component
	y := legacyStartY
	add := func(c model.Component) {
		c.X, c.Y = legacyX, y
		y += c.Height + legacyGap
		comps = append(comps, c)
	}
	for _, src := range sources {
		for _, f := range anyList(src["fields"]) {
			label, placeholder := legacyCaption(f)
			if label == "" {
				continue
			}
			if placeholder == "" {
				placeholder = label
			}
			add(model.Component{Type: model.ComponentInput, Label: label, Placeholder: placeholder,
				Width: legacyFieldWidth, Height: 44})
		}
		for _, b := range anyList(src["buttons"]) {
			label, _ := legacyCaption(b)
			if label == "" {
				continue
			}
			add(model.Component{Type: model.ComponentButton, Label: label, Width: legacyFieldWidth, Height: 44})
		}
		for _, l := range anyList(src["links"]) {
			label, _ := legacyCaption(l)
			if label == "" {
				continue
			}
			add(model.Component{Type: model.ComponentText, Label: label, Width: legacyFieldWidth, Height: 24,
				TextColor: palette.Normalize("blue")})
		}
	}
	return title, comps
}

func legacyCaption(v any) (label, placeholder string) {
	switch t := v.(type) {
	case string:
		return strings.TrimSpace(t), ""
	case map[string]any:
		return firstString(t, "label", "name", "text", "title"), firstString(t, "placeholder")
	}
	return "", ""
}

func anyList(v any) []any {
	if arr, ok := v.([]any); ok {
		return arr
	}
	return nil
}

func firstValue(m map[string]any, keys ...string) any {
	for _, k := range keys {
		if v, ok := m[k]; ok && v != nil {
			return v
		}
	}
	return nil
}

func firstString(m map[string]any, keys ...string) string {
	for _, k := range keys {
		switch v := m[k].(type) {
		case string:
			if s := strings.TrimSpace(v); s != "" {
				return s
			}
		case float64:
			if k != "title" && k != "type" {
				return strconv.FormatFloat(v, 'f', -1, 64)
			}
		}
	}
	return ""
}

// number 接受数字或带单位的数字字符串（"120px"），其它返回 0
func number(v any) float64 {
	var f float64
	switch t := v.(type) {
	case float64:
		f = t
	case int:
		f = float64(t)
	case int64:
		f = float64(t)
	case json.Number:
		f, _ = t.Float64()
	case string:
		if m := numPrefixRe.FindString(t); m != "" {
			f, _ = strconv.ParseFloat(strings.TrimSpace(m), 64)
		}
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0
	}
	return f
}

func positive(f float64) float64 {
	if f < 0 {
		return 0
	}
	return f
}

func fontWeight(v any) string {
	switch t := v.(type) {
	case string:
		return strings.TrimSpace(t)
	case float64:
		if t > 0 {
			return strconv.FormatFloat(t, 'f', -1, 64)
		}
	}
	return ""
}

// HasComponents 解析结果中是否有至少一个真实组件（不含占位组件）
func HasComponents(obj map[string]any) bool {
	if root := locateRoot(obj, 0); root != nil {
		return len(flatten(root["components"], 0, 0, 0)) > 0
	}
	_, comps := fromLegacy(obj)
	return len(comps) > 0
}
