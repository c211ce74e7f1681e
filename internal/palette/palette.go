// Package palette maps color words to the fixed hex values used across wireframes.
package palette

import (
	"regexp"
	"strings"
)

var named = map[string]string{
	"red":    "#EF4444",
	"blue":   "#3B82F6",
	"green":  "#22C55E",
	"yellow": "#EAB308",
	"orange": "#F97316",
	"purple": "#8B5CF6",
	"pink":   "#EC4899",
	"teal":   "#14B8A6",
	"indigo": "#6366F1",
	"gray":   "#6B7280",
	"grey":   "#6B7280",
	"black":  "#000000",
	"white":  "#FFFFFF",
	"navy":   "#1E3A8A",
	"brown":  "#92400E",
}

var (
	hexLong  = regexp.MustCompile(`^#[0-9a-fA-F]{6}$`)
	hexShort = regexp.MustCompile(`^#[0-9a-fA-F]{3}$`)
	wordRe   = regexp.MustCompile(`[a-z]+`)
)

// Hex returns the hex value for a color name.
func Hex(name string) (string, bool) {
	h, ok := named[strings.ToLower(strings.TrimSpace(name))]
	return h, ok
}

// Find returns the first color word that appears in text.
func Find(text string) (name, hex string, ok bool) {
	for _, w := range wordRe.FindAllString(strings.ToLower(text), -1) {
		if h, found := named[w]; found {
			return w, h, true
		}
	}
	return "", "", false
}

// IsColorWord reports whether word is a known color name.
func IsColorWord(word string) bool {
	_, ok := named[strings.ToLower(word)]
	return ok
}

// Normalize converts a color value into #RRGGBB; invalid values return "".
func Normalize(value string) string {
	v := strings.TrimSpace(value)
	if v == "" {
		return ""
	}
	switch {
	case hexLong.MatchString(v):
		return strings.ToUpper(v)
	case hexShort.MatchString(v):
		up := strings.ToUpper(v)
		return "#" + strings.Repeat(up[1:2], 2) + strings.Repeat(up[2:3], 2) + strings.Repeat(up[3:4], 2)
	}
	if h, ok := Hex(v); ok {
		return h
	}
	return ""
}
