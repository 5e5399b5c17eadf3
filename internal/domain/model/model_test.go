package model

import (
	"testing"

	"github.com/GriffinCanCode/dicthub/internal/lang"
	"github.com/GriffinCanCode/dicthub/internal/shared/failure"
	"github.com/bytedance/sonic"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPluginSetIdentityByID(t *testing.T) {
	set := NewPluginSet(
		PluginInfo{ID: "a", Version: "1.0.0"},
		PluginInfo{ID: "b", Version: "1.0.0"},
		PluginInfo{ID: "a", Version: "2.0.0"},
	)

	assert.Equal(t, 2, set.Len())
	assert.Equal(t, []string{"a", "b"}, set.IDs())

	a, ok := set.Get("a")
	require.True(t, ok)
	assert.Equal(t, "2.0.0", a.Version)

	assert.True(t, set.Remove("a"))
	assert.False(t, set.Remove("a"))
	assert.False(t, set.Contains("a"))
	assert.Equal(t, []string{"b"}, set.IDs())
}

func TestPluginSetZeroValue(t *testing.T) {
	var set PluginSet
	assert.Equal(t, 0, set.Len())
	assert.False(t, set.Contains("x"))

	set.Put(PluginInfo{ID: "x"})
	assert.True(t, set.Contains("x"))

	out, err := sonic.Marshal(PluginSet{})
	require.NoError(t, err)
	assert.Equal(t, "[]", string(out))
}

func TestPluginSetCloneIsIndependent(t *testing.T) {
	set := NewPluginSet(PluginInfo{ID: "a"}, PluginInfo{ID: "b"})
	clone := set.Clone()
	clone.Remove("a")
	clone.Put(PluginInfo{ID: "c"})

	assert.Equal(t, []string{"a", "b"}, set.IDs())
	assert.Equal(t, []string{"b", "c"}, clone.IDs())
}

func TestPluginSetJSON(t *testing.T) {
	var set PluginSet
	err := sonic.Unmarshal([]byte(`[
		{"id":"p1","name":"One","version":"1.0.0","contentUrl":"https://x/p1.js","options":{"key":{"type":"string","default":"abc"}}},
		{"id":"p1","name":"One","version":"1.0.1","contentUrl":"https://x/p1.js"}
	]`), &set)
	require.NoError(t, err)
	require.Equal(t, 1, set.Len())

	p1, _ := set.Get("p1")
	assert.Equal(t, "1.0.1", p1.Version)

	out, err := sonic.Marshal(set)
	require.NoError(t, err)
	assert.JSONEq(t, `[{"id":"p1","name":"One","version":"1.0.1","contentUrl":"https://x/p1.js"}]`, string(out))
}

func TestDefaultOptions(t *testing.T) {
	info := PluginInfo{
		ID: "p1",
		Options: map[string]OptionConfig{
			"apiKey": {Type: "string"},
			"region": {Type: "string", Default: "us"},
		},
	}
	assert.Equal(t, PluginOptions{"region": "us"}, info.DefaultOptions())
}

func TestPluginOptionsClone(t *testing.T) {
	var nilOpts PluginOptions
	assert.Nil(t, nilOpts.Clone())

	opts := PluginOptions{"a": "1"}
	clone := opts.Clone()
	clone["a"] = "2"
	assert.Equal(t, "1", opts["a"])
}

func TestNewQuery(t *testing.T) {
	tests := []struct {
		name    string
		text    string
		from    string
		to      string
		wantErr error
	}{
		{name: "valid", text: "hola", from: "es", to: "en"},
		{name: "regional fallback", text: "hello", from: "en-US", to: "pt-BR"},
		{name: "empty text", text: "  ", from: "es", to: "en"},
		{name: "unknown from", text: "x", from: "xx", to: "en", wantErr: failure.ErrUnknownLang},
		{name: "unknown to", text: "x", from: "en", to: "qq", wantErr: failure.ErrUnknownLang},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			q, err := NewQuery(tt.text, tt.from, tt.to)
			switch {
			case tt.wantErr != nil:
				assert.ErrorIs(t, err, tt.wantErr)
			case tt.name == "empty text":
				assert.Error(t, err)
			default:
				require.NoError(t, err)
				assert.NoError(t, q.Validate())
			}
		})
	}
}

func TestQueryWire(t *testing.T) {
	q, err := NewQuery("hola", "es", "en")
	require.NoError(t, err)
	q = q.WithID("q_1")

	out, err := sonic.Marshal(q)
	require.NoError(t, err)
	assert.JSONEq(t, `{"id":"q_1","text":"hola","from":"es","to":"en"}`, string(out))

	var back Query
	require.NoError(t, sonic.Unmarshal(out, &back))
	assert.Equal(t, q, back)
	assert.Equal(t, lang.ES, back.From)

	assert.Error(t, Query{Text: "x", From: "zz", To: "en"}.Validate())
}

func TestTranslationResultSuccessDefault(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want bool
	}{
		{name: "missing", raw: `{"pluginId":"p1","query":{"text":"a","from":"en","to":"es"},"htmlContent":"<b>a</b>"}`, want: true},
		{name: "true", raw: `{"pluginId":"p1","success":true,"htmlContent":""}`, want: true},
		{name: "false", raw: `{"pluginId":"p1","success":false,"htmlContent":""}`, want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var r TranslationResult
			require.NoError(t, sonic.Unmarshal([]byte(tt.raw), &r))
			assert.Equal(t, tt.want, r.Success)
			assert.Equal(t, "p1", r.PluginID)
		})
	}
}

func TestNewTranslationResult(t *testing.T) {
	r := NewTranslationResult("p1", Query{Text: "a"}, "<p>a</p>")
	assert.True(t, r.Success)
}
