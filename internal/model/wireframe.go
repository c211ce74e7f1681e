package model

// ComponentType 组件类型，校验后只会是下面三种之一
type ComponentType string

const (
	ComponentText   ComponentType = "text"
	ComponentInput  ComponentType = "input"
	ComponentButton ComponentType = "button"
)

// Component 画布上的单个定位组件。按钮文字只放在 Label 中。
type Component struct {
	Type            ComponentType `json:"type"`
	Label           string        `json:"label"`
	X               float64       `json:"x"`
	Y               float64       `json:"y"`
	Width           float64       `json:"width,omitempty"`
	Height          float64       `json:"height,omitempty"`
	FontSize        float64       `json:"fontSize,omitempty"`
	FontWeight      string        `json:"fontWeight,omitempty"`
	BackgroundColor string        `json:"backgroundColor,omitempty"`
	TextColor       string        `json:"textColor,omitempty"`
	Placeholder     string        `json:"placeholder,omitempty"`
}

// WireframeSpec 扁平的线框图：标题 + 有序组件列表
type WireframeSpec struct {
	Title      string      `json:"title"`
	Components []Component `json:"components"`
}

// Clone 深拷贝，修改副本不会影响原线框图
func (w WireframeSpec) Clone() WireframeSpec {
	out := WireframeSpec{Title: w.Title}
	if w.Components != nil {
		out.Components = make([]Component, len(w.Components))
		copy(out.Components, w.Components)
	}
	return out
}

// WireframeEnvelope 对外的线框图包装 {"json": {...}}
type WireframeEnvelope struct {
	JSON WireframeSpec `json:"json"`
}

// PushMessage 推送给设计工具插件的消息
type PushMessage struct {
	Type string        `json:"type"`
	Data WireframeSpec `json:"data"`
}

const PushTypeWireframe = "wireframe-json"
