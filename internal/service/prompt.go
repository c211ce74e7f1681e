package service

import (
	"fmt"
	"strings"
)

const generationPrompt = `You are a senior UX designer producing a low-fidelity wireframe for a design-tool plugin.
Design the screen described by the request and answer with a single JSON object and nothing else:
{"title": string, "components": [{"type": "text"|"input"|"button", "label": string, "x": number, "y": number, "width": number, "height": number, "fontSize": number, "fontWeight": string, "backgroundColor": "#RRGGBB", "textColor": "#RRGGBB", "placeholder": string}]}
Rules:
- Components are flat. Never nest components inside other components.
- Coordinates are absolute pixels on a 1440px wide canvas, top-left origin.
- Button captions go in "label".
- Use "text" for headings, paragraphs and links, "input" for any form control.
%s
Request: %s`

// buildGenerationPrompt 把检索到的参考文本拼进生成 prompt
func buildGenerationPrompt(request, grounding string) string {
	if grounding != "" {
		grounding = "\n" + strings.TrimSpace(grounding) + "\n"
	}
	return fmt.Sprintf(generationPrompt, grounding, strings.TrimSpace(request))
}
