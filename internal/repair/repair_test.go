package repair

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

func TestTryRepair_Stages(t *testing.T) {
	tests := []struct {
		name  string
		raw   string
		title string
	}{
		{"plain", `{"title":"Login","components":[]}`, "Login"},
		{"fenced", "```json\n{\"title\":\"Login\",\"components\":[]}\n```", "Login"},
		{"prose around", "Sure! Here is the layout:\n{\"title\":\"Login\"}\nLet me know.", "Login"},
		{"single quotes", `{'title': 'Login', 'components': []}`, "Login"},
		{"smart quotes", `{“title”: “Login”}`, "Login"},
		{"bare keys", `{title: "Login", components: [{type: "button", label: "Go"}]}`, "Login"},
		{"trailing commas", `{"title":"Login","components":[{"type":"text",},],}`, "Login"},
		{"raw newline in string", "{\"title\":\"Log\nin\"}", "Log in"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			obj, err := TryRepair(tt.raw)
			require.NoError(t, err)
			assert.Equal(t, tt.title, obj["title"])
		})
	}
}

func TestTryRepair_SalvagesTruncatedComponents(t *testing.T) {
	raw := `{"title": "Shop", "components": [{"type":"button","label":"Buy"}, {"type":"text","lab`

	obj, err := TryRepair(raw)
	require.NoError(t, err)
	assert.Equal(t, "Shop", obj["title"])
	comps, ok := obj["components"].([]any)
	require.True(t, ok)
	require.Len(t, comps, 1)
	assert.Equal(t, "Buy", comps[0].(map[string]any)["label"])
}

func TestTryRepair_Unrecoverable(t *testing.T) {
	_, err := TryRepair("I am unable to produce a layout for that request.")
	require.Error(t, err)

	var pe *ParseError
	assert.True(t, errors.As(err, &pe))
	assert.True(t, errors.Is(err, ErrUnrecoverable))
}

func TestRepairAndParse_Placeholder(t *testing.T) {
	obj := RepairAndParse("no json here")
	assert.Equal(t, Placeholder(), obj)

	spec := ValidateWireframe(obj, "")
	assert.NotEmpty(t, spec.Components)
}

func TestStagesDoNotTouchStringContents(t *testing.T) {
	in := `{"label": "a, b: c,]"}`
	assert.Equal(t, in, QuoteBareKeys(in))
	assert.Equal(t, in, StripTrailingCommas(in))
}

func TestNormalizeQuotes_EscapesInnerDoubleQuote(t *testing.T) {
	out := NormalizeQuotes(`{'label': 'say "hi"'}`)
	var m map[string]any
	require.NoError(t, json.Unmarshal([]byte(out), &m))
	assert.Equal(t, `say "hi"`, m["label"])
}

func TestTryRepair_KeepsCurlyQuotesInsideStrings(t *testing.T) {
	raw := `{"title":"Shop","components":[` +
		`{"type":"text","label":"Say “hello” now","x":10,"y":10},` +
		`{"type":"button","label":"It’s ‘on’","x":10,"y":60},]}`

	obj, err := TryRepair(raw)
	require.NoError(t, err)
	spec := ValidateWireframe(obj, "")
	assert.Equal(t, "Shop", spec.Title)
	require.Len(t, spec.Components, 2)
	assert.Equal(t, "Say “hello” now", spec.Components[0].Label)
	assert.Equal(t, "It’s ‘on’", spec.Components[1].Label)
}

// 合法 JSON 经过引号规整后保持不变
func TestNormalizeQuotes_IdentityOnValidJSON(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		label := rapid.StringMatching(`[A-Za-z “”‘’„'"]{0,20}`).Draw(t, "label")
		body, err := json.Marshal(map[string]string{"label": label})
		if err != nil {
			t.Fatal(err)
		}
		if got := NormalizeQuotes(string(body)); got != string(body) {
			t.Fatalf("NormalizeQuotes changed valid JSON:\n got %s\nwant %s", got, body)
		}
	})
}

// 包在说明文字和代码块里的合法 JSON，修复后字段值不变
func TestTryRepair_RecoversEmbeddedRegion(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		keys := rapid.SliceOfNDistinct(rapid.StringMatching(`[a-z]{1,8}`), 1, 6, rapid.ID[string]).Draw(t, "keys")
		obj := make(map[string]any, len(keys))
		for _, k := range keys {
			if rapid.Bool().Draw(t, "isNum_"+k) {
				obj[k] = float64(rapid.IntRange(-5000, 5000).Draw(t, "num_"+k))
			} else {
				obj[k] = rapid.StringMatching(`[A-Za-z0-9 ,:'"#.!?-]{0,16}`).Draw(t, "str_"+k)
			}
		}
		body, err := json.Marshal(obj)
		if err != nil {
			t.Fatal(err)
		}
		prefix := rapid.SampledFrom([]string{"", "Here is your wireframe:\n", "Sure.\n```json\n"}).Draw(t, "prefix")
		suffix := rapid.SampledFrom([]string{"", "\n```", "\nHope this helps!"}).Draw(t, "suffix")

		got, err := TryRepair(prefix + string(body) + suffix)
		if err != nil {
			t.Fatalf("repair failed: %v", err)
		}
		if len(got) != len(obj) {
			t.Fatalf("got %d fields, want %d", len(got), len(obj))
		}
		for k, v := range obj {
			if got[k] != v {
				t.Fatalf("field %q: got %#v, want %#v", k, got[k], v)
			}
		}
	})
}
