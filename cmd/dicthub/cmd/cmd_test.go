package cmd

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/GriffinCanCode/dicthub/internal/domain/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const echoSource = `({
	create_echo: function () {
		return {
			canTranslate: function (q) { return true; },
			translate: function (q) { return Promise.resolve("<b>" + q.text + "</b> &amp; <i>more</i>"); }
		};
	}
})`

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	return out.String(), err
}

func TestPlainText(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"tags stripped", "<p>hello <b>world</b></p>", "hello world"},
		{"entities decoded", "fish &amp; chips", "fish & chips"},
		{"whitespace collapsed", "<div>\n  a\n\n  b </div>", "a b"},
		{"script dropped", "ok<script>alert(1)</script>", "ok"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, plainText(tt.in))
		})
	}
}

func TestPrintResult(t *testing.T) {
	res := model.TranslationResult{PluginID: "p1", Success: false, HTMLContent: "<p>nope</p>"}

	var buf bytes.Buffer
	require.NoError(t, printResult(&buf, res))
	assert.Equal(t, "[p1] (failed)\nnope\n\n", buf.String())

	translateJSON = true
	defer func() { translateJSON = false }()
	buf.Reset()
	require.NoError(t, printResult(&buf, res))
	assert.Contains(t, buf.String(), `"pluginId":"p1"`)
}

func TestPluginWorkflow(t *testing.T) {
	mux := http.NewServeMux()
	repo := httptest.NewServer(mux)
	defer repo.Close()
	mux.HandleFunc("/index.json", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`[{"id":"echo","name":"Echo","version":"1.0.0","contentUrl":"` + repo.URL + `/echo.js"}]`))
	})
	mux.HandleFunc("/echo.js", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(echoSource))
	})

	t.Setenv("DICTHUB_STORAGE_DRIVER", "sqlite")
	t.Setenv("DICTHUB_STORAGE_PATH", filepath.Join(t.TempDir(), "dicthub.db"))
	t.Setenv("DICTHUB_HTTP_RETRIES", "0")

	out, err := execute(t, "plugins", "repo", repo.URL+"/index.json")
	require.NoError(t, err, out)
	assert.Contains(t, out, repo.URL)

	out, err = execute(t, "plugins", "list")
	require.NoError(t, err, out)
	assert.Contains(t, out, "echo")

	out, err = execute(t, "plugins", "enable", "echo")
	require.NoError(t, err, out)
	assert.Contains(t, out, "Enabled echo 1.0.0")

	out, err = execute(t, "plugins", "check")
	require.NoError(t, err, out)
	assert.Contains(t, out, "new       echo")

	out, err = execute(t, "translate", "--from", "es", "--to", "en", "hola")
	require.NoError(t, err, out)
	assert.True(t, strings.HasPrefix(out, "[echo]\n"), out)
	assert.Contains(t, out, "hola & more")
	assert.NotContains(t, out, "<b>")

	out, err = execute(t, "plugins", "disable", "echo")
	require.NoError(t, err, out)

	_, err = execute(t, "translate", "--from", "es", "hola")
	assert.Error(t, err)
}
