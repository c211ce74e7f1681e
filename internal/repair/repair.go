// Package repair turns unreliable model output into a well-formed wireframe.
package repair

import (
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/sri11223/Advanced-ui-workflow-sub001/pkg/logger"
)

// ErrUnrecoverable 所有修复阶段和抢救都失败
var ErrUnrecoverable = errors.New("response could not be repaired into a JSON object")

// ParseError 记录最后一个尝试的阶段和解析错误
type ParseError struct {
	Stage string
	Err   error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("repair failed after stage %q: %v", e.Stage, e.Err)
}

func (e *ParseError) Unwrap() error { return ErrUnrecoverable }

var (
	componentsKeyRe = regexp.MustCompile(`"?components"?\s*:\s*\[`)
	titleRe         = regexp.MustCompile(`"?title"?\s*:\s*"((?:[^"\\]|\\.)*)"`)
)

// TryRepair 依次应用修复阶段，任意一步能解析出对象即返回。
// 全部失败时尝试抢救 components 数组，再失败返回 *ParseError。
func TryRepair(raw string) (map[string]any, error) {
	text := OutermostObject(StripCodeFences(raw))

	var lastErr error
	lastStage := "extract"
	for _, st := range Stages {
		text = st.Apply(text)
		obj, err := parseObject(text)
		if err == nil {
			if st.Name != "as-is" {
				logger.Debugf("response repaired at stage %s", st.Name)
			}
			return obj, nil
		}
		lastErr, lastStage = err, st.Name
	}

	if obj, ok := salvage(text); ok {
		logger.Debugf("response salvaged from components array")
		return obj, nil
	}
	return nil, &ParseError{Stage: lastStage, Err: lastErr}
}

// RepairAndParse 与 TryRepair 相同，但失败时返回占位对象而不是错误
func RepairAndParse(raw string) map[string]any {
	obj, err := TryRepair(raw)
	if err != nil {
		logger.Warnf("using placeholder wireframe: %v", err)
		return Placeholder()
	}
	return obj
}

// Placeholder 无法解析时使用的占位线框
func Placeholder() map[string]any {
	return map[string]any{
		"title": "Generated Wireframe",
		"components": []any{
			map[string]any{
				"type":   "text",
				"label":  "The generated layout could not be read. Try rephrasing your request.",
				"x":      20.0,
				"y":      20.0,
				"width":  360.0,
				"height": 40.0,
			},
		},
	}
}

func parseObject(text string) (map[string]any, error) {
	var v any
	if err := json.Unmarshal([]byte(text), &v); err != nil {
		return nil, err
	}
	obj, ok := v.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("top-level JSON value is %T, not an object", v)
	}
	return obj, nil
}

// salvage 从损坏的文本里找出 components 数组；数组被截断时丢弃最后一个残缺元素
func salvage(text string) (map[string]any, bool) {
	loc := componentsKeyRe.FindStringIndex(text)
	if loc == nil {
		return nil, false
	}
	open := loc[1] - 1
	body := text[open:]

	var arr []any
	if end := matchingBracket(body); end > 0 {
		if err := json.Unmarshal([]byte(StripTrailingCommas(body[:end+1])), &arr); err != nil {
			arr = nil
		}
	}
	if arr == nil {
		last := strings.LastIndex(body, "}")
		if last < 0 {
			return nil, false
		}
		candidate := StripTrailingCommas(body[:last+1] + "]")
		if err := json.Unmarshal([]byte(candidate), &arr); err != nil {
			return nil, false
		}
	}
	if len(arr) == 0 {
		return nil, false
	}

	obj := map[string]any{"components": arr}
	if m := titleRe.FindStringSubmatch(text[:loc[0]]); m != nil {
		var title string
		if err := json.Unmarshal([]byte(`"`+m[1]+`"`), &title); err == nil {
			obj["title"] = title
		}
	}
	return obj, true
}

// matchingBracket 返回与 s[0] 的 '[' 配对的 ']' 下标，忽略字符串内的括号
func matchingBracket(s string) int {
	depth := 0
	inString, escaped := false, false
	for i := 0; i < len(s); i++ {
		c := s[i]
		if inString {
			if escaped {
				escaped = false
			} else if c == '\\' {
				escaped = true
			} else if c == '"' {
				inString = false
			}
			continue
		}
		switch c {
		case '"':
			inString = true
		case '[', '{':
			depth++
		case ']', '}':
			depth--
			if depth == 0 {
				if c == ']' {
					return i
				}
				return -1
			}
		}
	}
	return -1
}
