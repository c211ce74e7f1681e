package repair

import (
	"encoding/json"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"github.com/sri11223/Advanced-ui-workflow-sub001/internal/model"
)

func decode(t *testing.T, s string) map[string]any {
	t.Helper()
	var m map[string]any
	require.NoError(t, json.Unmarshal([]byte(s), &m))
	return m
}

func TestValidateWireframe_FlattensWithAbsoluteCoordinates(t *testing.T) {
	obj := decode(t, `{
		"title": "Login",
		"components": [
			{"type": "container", "x": 100, "y": 50, "components": [
				{"type": "input", "x": 10, "y": 20, "placeholder": "Email"},
				{"type": "form", "x": 5, "y": 60, "children": [
					{"type": "button", "x": 0, "y": 10, "text": "Sign in"}
				]}
			]}
		]
	}`)

	spec := ValidateWireframe(obj, "")
	require.Len(t, spec.Components, 2)

	assert.Equal(t, model.ComponentInput, spec.Components[0].Type)
	assert.Equal(t, 110.0, spec.Components[0].X)
	assert.Equal(t, 70.0, spec.Components[0].Y)
	assert.Equal(t, "Email", spec.Components[0].Label)

	assert.Equal(t, model.ComponentButton, spec.Components[1].Type)
	assert.Equal(t, "Sign in", spec.Components[1].Label)
	assert.Equal(t, 105.0, spec.Components[1].X)
	assert.Equal(t, 120.0, spec.Components[1].Y)
}

func TestValidateWireframe_CaptionedContainerBecomesText(t *testing.T) {
	obj := decode(t, `{"components":[{"type":"form","title":"Checkout","x":0,"y":0,"height":400,
		"components":[{"type":"button","label":"Pay","x":10,"y":10}]}]}`)

	spec := ValidateWireframe(obj, "fallback")
	require.Len(t, spec.Components, 2)
	assert.Equal(t, model.ComponentText, spec.Components[0].Type)
	assert.Equal(t, "Checkout", spec.Components[0].Label)
	assert.Zero(t, spec.Components[0].Height)
	assert.Equal(t, "fallback", spec.Title)
}

func TestValidateWireframe_Coercion(t *testing.T) {
	obj := decode(t, `{"title":"T","components":[
		{"type":"dropdown","content":"Country","x":"20px","y":"40","width":"120px"},
		{"type":"BUTTON","value":"Go","backgroundColor":"blue","textColor":"#fff"},
		{"type":"text","label":"Hi","backgroundColor":"not-a-color","fontWeight":700}
	]}`)

	spec := ValidateWireframe(obj, "")
	require.Len(t, spec.Components, 3)

	dd := spec.Components[0]
	assert.Equal(t, model.ComponentInput, dd.Type)
	assert.Equal(t, "Country", dd.Label)
	assert.Equal(t, 20.0, dd.X)
	assert.Equal(t, 40.0, dd.Y)
	assert.Equal(t, 120.0, dd.Width)

	btn := spec.Components[1]
	assert.Equal(t, model.ComponentButton, btn.Type)
	assert.Equal(t, "Go", btn.Label)
	assert.Equal(t, "#3B82F6", btn.BackgroundColor)
	assert.Equal(t, "#FFFFFF", btn.TextColor)

	txt := spec.Components[2]
	assert.Empty(t, txt.BackgroundColor)
	assert.Equal(t, "700", txt.FontWeight)
}

func TestValidateWireframe_Envelopes(t *testing.T) {
	for _, raw := range []string{
		`{"json":{"title":"Wrapped","components":[{"type":"text","label":"a"}]}}`,
		`{"wireframe":{"json":{"title":"Wrapped","components":[{"type":"text","label":"a"}]}}}`,
		`{"title":"Wrapped","wireframe":{"components":[{"type":"text","label":"a"}]}}`,
	} {
		spec := ValidateWireframe(decode(t, raw), "")
		assert.Equal(t, "Wrapped", spec.Title, raw)
		require.Len(t, spec.Components, 1, raw)
		assert.Equal(t, "a", spec.Components[0].Label)
	}
}

func TestValidateWireframe_Legacy(t *testing.T) {
	obj := decode(t, `{"screen":"Sign Up","fields":["Name",{"name":"Email","placeholder":"you@example.com"}],
		"buttons":["Create account"],"links":["Already registered?"]}`)

	spec := ValidateWireframe(obj, "")
	assert.Equal(t, "Sign Up", spec.Title)
	require.Len(t, spec.Components, 4)
	assert.Equal(t, model.ComponentInput, spec.Components[0].Type)
	assert.Equal(t, "you@example.com", spec.Components[1].Placeholder)
	assert.Equal(t, model.ComponentButton, spec.Components[2].Type)
	assert.Equal(t, model.ComponentText, spec.Components[3].Type)
	for i := 1; i < len(spec.Components); i++ {
		assert.Greater(t, spec.Components[i].Y, spec.Components[i-1].Y)
	}
}

func TestValidateWireframe_EmptyInputs(t *testing.T) {
	spec := ValidateWireframe(nil, "")
	assert.Equal(t, DefaultTitle, spec.Title)
	require.Len(t, spec.Components, 1)
	assert.Equal(t, model.ComponentText, spec.Components[0].Type)

	spec = ValidateWireframe(map[string]any{"components": []any{}}, "Dashboard")
	assert.Equal(t, "Dashboard", spec.Title)
	assert.Len(t, spec.Components, 1)

	spec = ValidateWireframe(map[string]any{"components": []any{"junk", 4.0, nil}}, "")
	assert.Len(t, spec.Components, 1)
}

func genNode(depth int) *rapid.Generator[map[string]any] {
	return rapid.Custom(func(t *rapid.T) map[string]any {
		n := map[string]any{
			"type": rapid.SampledFrom([]string{"text", "input", "button", "container", "form", "image", ""}).Draw(t, "type"),
			"x":    float64(rapid.IntRange(-50, 800).Draw(t, "x")),
			"y":    float64(rapid.IntRange(-50, 800).Draw(t, "y")),
		}
		if rapid.Bool().Draw(t, "hasLabel") {
			key := rapid.SampledFrom([]string{"label", "text", "content", "title", "value"}).Draw(t, "captionKey")
			n[key] = rapid.StringMatching(`[A-Za-z ]{0,10}`).Draw(t, "caption")
		}
		if rapid.Bool().Draw(t, "hasSize") {
			n["width"] = rapid.SampledFrom([]any{120.0, "80px", "abc", -4.0}).Draw(t, "width")
			n["height"] = rapid.SampledFrom([]any{40.0, "32", 0.0}).Draw(t, "height")
		}
		if rapid.Bool().Draw(t, "hasColor") {
			n["backgroundColor"] = rapid.SampledFrom([]string{"red", "#abc", "#3B82F6", "#zzz", ""}).Draw(t, "bg")
		}
		if depth > 0 && rapid.Bool().Draw(t, "hasKids") {
			key := rapid.SampledFrom([]string{"components", "children"}).Draw(t, "kidsKey")
			kids := rapid.SliceOfN(genNode(depth-1), 0, 3).Draw(t, "kids")
			arr := make([]any, len(kids))
			for i, k := range kids {
				arr[i] = k
			}
			n[key] = arr
		}
		return n
	})
}

func roundTrip(t *rapid.T, spec model.WireframeSpec) map[string]any {
	b, err := json.Marshal(spec)
	if err != nil {
		t.Fatal(err)
	}
	var m map[string]any
	if err := json.Unmarshal(b, &m); err != nil {
		t.Fatal(err)
	}
	return m
}

// 校验结果是扁平的，并且再校验一次不变
func TestValidateWireframe_FlatAndIdempotent(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		nodes := rapid.SliceOfN(genNode(3), 0, 4).Draw(t, "nodes")
		comps := make([]any, len(nodes))
		for i, n := range nodes {
			comps[i] = n
		}
		obj := map[string]any{"components": comps}
		if rapid.Bool().Draw(t, "hasTitle") {
			obj["title"] = rapid.StringMatching(`[A-Za-z ]{0,12}`).Draw(t, "title")
		}

		once := ValidateWireframe(obj, "fallback")
		m := roundTrip(t, once)
		for _, c := range m["components"].([]any) {
			cm := c.(map[string]any)
			if _, nested := cm["components"]; nested {
				t.Fatalf("nested components in %v", cm)
			}
		}
		twice := ValidateWireframe(m, "fallback")
		if fmt.Sprintf("%+v", once) != fmt.Sprintf("%+v", twice) {
			t.Fatalf("not idempotent:\n%+v\n%+v", once, twice)
		}
		if once.Title == "" || len(once.Components) == 0 {
			t.Fatalf("invalid spec %+v", once)
		}
	})
}

func TestHasComponents(t *testing.T) {
	assert.True(t, HasComponents(decode(t, `{"components":[{"type":"text","label":"a"}]}`)))
	assert.True(t, HasComponents(decode(t, `{"screen":"x","buttons":["Go"]}`)))
	assert.False(t, HasComponents(decode(t, `{"components":[]}`)))
	assert.False(t, HasComponents(decode(t, `{"message":"sorry"}`)))
	assert.False(t, HasComponents(nil))
}
