package palette

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalize(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"#3b82f6", "#3B82F6"},
		{"#abc", "#AABBCC"},
		{"Blue", "#3B82F6"},
		{" red ", "#EF4444"},
		{"#12345", ""},
		{"rgb(1,2,3)", ""},
		{"", ""},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, Normalize(tt.in))
		})
	}
}

func TestNormalize_FixedPoint(t *testing.T) {
	for _, in := range []string{"#abc", "green", "#FFFFFF"} {
		once := Normalize(in)
		assert.Equal(t, once, Normalize(once))
	}
}

func TestFind(t *testing.T) {
	name, hex, ok := Find("Change button color to Blue please")
	assert.True(t, ok)
	assert.Equal(t, "blue", name)
	assert.Equal(t, "#3B82F6", hex)

	_, _, ok = Find("make it vertical")
	assert.False(t, ok)

	// "reddish" is not the word "red"
	_, _, ok = Find("reddish tone")
	assert.False(t, ok)
}
