package repair

import (
	"regexp"
	"strings"
)

// Stage 一个纯文本修复步骤，按顺序累积应用
type Stage struct {
	Name  string
	Apply func(string) string
}

// Stages 修复阶梯：每一步在前一步结果上继续修复，并在每一步之后尝试解析
var Stages = []Stage{
	{Name: "as-is", Apply: func(s string) string { return s }},
	{Name: "normalize-quotes", Apply: NormalizeQuotes},
	{Name: "quote-bare-keys", Apply: QuoteBareKeys},
	{Name: "strip-trailing-commas", Apply: StripTrailingCommas},
	{Name: "collapse-string-newlines", Apply: CollapseStringNewlines},
}

var (
	fenceLineRe   = regexp.MustCompile("(?m)^[ \t]*```[A-Za-z0-9_-]*[ \t]*$")
	bareKeyRe     = regexp.MustCompile(`([{,]\s*)([A-Za-z_$][A-Za-z0-9_$-]*)\s*:`)
	trailingComma = regexp.MustCompile(`,(\s*[}\]])`)
)

// StripCodeFences 去掉 markdown 代码块标记
func StripCodeFences(s string) string {
	s = fenceLineRe.ReplaceAllString(s, "")
	s = strings.ReplaceAll(s, "```", "")
	return strings.TrimSpace(s)
}

// OutermostObject 截取第一个 '{' 到最后一个 '}' 之间的内容
func OutermostObject(s string) string {
	start := strings.Index(s, "{")
	end := strings.LastIndex(s, "}")
	if start < 0 || end <= start {
		return s
	}
	return s[start : end+1]
}

// NormalizeQuotes 把结构位置上的弯引号和单引号字符串改写为双引号字符串。
// 直双引号字符串内部的内容原样保留。
func NormalizeQuotes(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	inDouble, inSingle, escaped := false, false, false
	// 字符串由弯引号打开时，对应的弯引号也可以关闭它
	smartOpen := false
	for _, r := range s {
		switch {
		case inDouble:
			switch {
			case escaped:
				escaped = false
				b.WriteRune(r)
			case r == '\\':
				escaped = true
				b.WriteRune(r)
			case r == '"', smartOpen && isSmartDouble(r):
				inDouble = false
				b.WriteRune('"')
			default:
				b.WriteRune(r)
			}
		case inSingle:
			if escaped {
				escaped = false
				if r == '\'' {
					b.WriteRune('\'')
					continue
				}
				b.WriteRune('\\')
				b.WriteRune(r)
				continue
			}
			switch {
			case r == '\\':
				escaped = true
			case r == '\'', smartOpen && isSmartSingle(r):
				inSingle = false
				b.WriteRune('"')
			case r == '"':
				b.WriteString(`\"`)
			default:
				b.WriteRune(r)
			}
		default:
			switch {
			case r == '"' || isSmartDouble(r):
				inDouble, smartOpen = true, r != '"'
				b.WriteRune('"')
			case r == '\'' || isSmartSingle(r):
				inSingle, smartOpen = true, r != '\''
				b.WriteRune('"')
			default:
				b.WriteRune(r)
			}
		}
	}
	if inSingle {
		b.WriteRune('"')
	}
	return b.String()
}

func isSmartDouble(r rune) bool {
	return r == '“' || r == '”' || r == '„' || r == '″'
}

func isSmartSingle(r rune) bool {
	return r == '‘' || r == '’' || r == '‚' || r == '′'
}

// QuoteBareKeys 给未加引号的对象键补上双引号，只作用于字符串字面量之外
func QuoteBareKeys(s string) string {
	return outsideStrings(s, func(seg string) string {
		return bareKeyRe.ReplaceAllString(seg, `$1"$2":`)
	})
}

// StripTrailingCommas 删除 '}' 或 ']' 前多余的逗号
func StripTrailingCommas(s string) string {
	return outsideStrings(s, func(seg string) string {
		return trailingComma.ReplaceAllString(seg, "$1")
	})
}

// CollapseStringNewlines 把字符串值内部的原始换行和制表符替换为空格
func CollapseStringNewlines(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	inString, escaped := false, false
	for _, r := range s {
		if !inString {
			if r == '"' {
				inString = true
			}
			b.WriteRune(r)
			continue
		}
		if escaped {
			escaped = false
			b.WriteRune(r)
			continue
		}
		switch r {
		case '\\':
			escaped = true
			b.WriteRune(r)
		case '"':
			inString = false
			b.WriteRune(r)
		case '\n', '\r', '\t':
			b.WriteRune(' ')
		default:
			b.WriteRune(r)
		}
	}
	return b.String()
}

// outsideStrings 只对双引号字符串之外的片段应用 fn。
// 片段在字符串边界处切开，所以正则不会跨越字符串字面量。
func outsideStrings(s string, fn func(string) string) string {
	var b strings.Builder
	b.Grow(len(s))
	segStart := 0
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
				b.WriteString(s[segStart : i+1])
				segStart = i + 1
			}
			continue
		}
		if c == '"' {
			b.WriteString(fn(s[segStart:i]))
			segStart = i
			inString = true
		}
	}
	if inString {
		b.WriteString(s[segStart:])
	} else {
		b.WriteString(fn(s[segStart:]))
	}
	return b.String()
}
