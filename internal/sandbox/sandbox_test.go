package sandbox

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/GriffinCanCode/dicthub/internal/domain/model"
	"github.com/GriffinCanCode/dicthub/internal/infrastructure/httpclient"
	"github.com/GriffinCanCode/dicthub/internal/infrastructure/monitoring"
	"github.com/GriffinCanCode/dicthub/internal/lang"
	"github.com/GriffinCanCode/dicthub/internal/messaging"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// pluginSource builds a plugin whose translate body is given as JS.
func pluginSource(id, canTranslate, translate string) string {
	return fmt.Sprintf(`({
	%s: function () {
		var options = {};
		return {
			id: function () { return %q; },
			meta: function () { return { name: "Plugin " + %q, author: "tests" }; },
			updateOptions: function (o) { options = o; },
			canTranslate: function (q) { return %s; },
			translate: function (q) { %s }
		};
	}
})`, FactoryName(id), id, id, canTranslate, translate)
}

func entry(id, source string) messaging.PluginEntry {
	return messaging.PluginEntry{Content: model.PluginContent{ID: id, Version: "1", Content: source}}
}

type harness struct {
	t       *testing.T
	host    *messaging.PipeEnd
	sandbox *Sandbox
	cancel  context.CancelFunc
	stopped chan error
}

func start(t *testing.T, opts ...Option) *harness {
	t.Helper()
	host, end := messaging.NewPipe(messaging.PipeOptions{})
	ctx, cancel := context.WithCancel(context.Background())

	sb := New(end, opts...)
	h := &harness{t: t, host: host, sandbox: sb, cancel: cancel, stopped: make(chan error, 1)}
	go func() { h.stopped <- sb.Run(ctx) }()
	t.Cleanup(func() {
		cancel()
		<-h.stopped
	})

	assert.Equal(t, messaging.SandboxStart{}, h.next(time.Second))
	return h
}

func (h *harness) next(wait time.Duration) messaging.Message {
	h.t.Helper()
	select {
	case msg := <-h.host.Receive():
		return msg
	case <-time.After(wait):
		h.t.Fatal("timed out waiting for packet")
		return nil
	}
}

func (h *harness) none(wait time.Duration) {
	h.t.Helper()
	select {
	case msg := <-h.host.Receive():
		h.t.Fatalf("unexpected %s packet", msg.Command())
	case <-time.After(wait):
	}
}

func (h *harness) load(entries ...messaging.PluginEntry) {
	h.t.Helper()
	require.NoError(h.t, h.host.Send(context.Background(), messaging.Plugins{Plugins: entries}))
	assert.Equal(h.t, messaging.SandboxReady{}, h.next(2*time.Second))
}

func (h *harness) query(text string) model.Query {
	h.t.Helper()
	q := model.Query{ID: "q_test", Text: text, From: lang.ES, To: lang.EN}
	require.NoError(h.t, h.host.Send(context.Background(), messaging.Query{Query: q}))
	return q
}

func (h *harness) result() model.TranslationResult {
	h.t.Helper()
	msg := h.next(2 * time.Second)
	res, ok := msg.(messaging.TranslationResult)
	require.True(h.t, ok, "got %s", msg.Command())
	return res.TranslationResult
}

func TestFactoryName(t *testing.T) {
	tests := map[string]string{
		"p1":                 "create_p1",
		"google-translate":   "create_google_translate",
		"org.dicthub.bing_x": "create_org_dicthub_bing_x",
	}
	for id, want := range tests {
		assert.Equal(t, want, FactoryName(id))
	}
}

func TestEndToEndSinglePlugin(t *testing.T) {
	h := start(t)
	require.Equal(t, Started, h.sandbox.State())

	h.load(entry("p1", pluginSource("p1", "true", `return "<b>" + q.text + "</b>";`)))
	q := h.query("hola")

	res := h.result()
	assert.Equal(t, "p1", res.PluginID)
	assert.True(t, res.Success)
	assert.Equal(t, "<b>hola</b>", res.HTMLContent)
	assert.Equal(t, q, res.Query)
	assert.Equal(t, QueryServing, h.sandbox.State())
}

func TestInstantiationIsolated(t *testing.T) {
	metrics := monitoring.NewMetrics()
	h := start(t, WithMetrics(metrics))

	h.load(
		entry("broken", `throw new Error("boom")`),
		entry("nofactory", `var x = 1;`),
		entry("notobject", `function create_notobject() { return 42; }`),
		entry("good", pluginSource("good", "true", `return "ok";`)),
	)

	providers, err := h.sandbox.Providers(context.Background())
	require.NoError(t, err)
	assert.Len(t, providers, 1)
	assert.Equal(t, "Plugin good", providers["good"].Name)
	assert.Equal(t, "tests", providers["good"].Author)

	assert.Equal(t, float64(1), testutil.ToFloat64(metrics.PluginsLoaded))
	assert.Equal(t, float64(1), testutil.ToFloat64(metrics.PluginFailures.WithLabelValues("broken", "instantiate")))
}

func TestGlobalFactory(t *testing.T) {
	h := start(t)
	h.load(entry("p-2", `function create_p_2() {
		return { canTranslate: function () { return true; }, translate: function () { return "x"; } };
	}`))

	h.query("hola")
	res := h.result()
	assert.Equal(t, "p-2", res.PluginID)
}

func TestCanTranslateFilter(t *testing.T) {
	h := start(t)
	h.load(
		entry("yes", pluginSource("yes", `q.from === "es"`, `return "yes";`)),
		entry("no", pluginSource("no", `q.from === "ja"`, `return "no";`)),
	)

	h.query("hola")
	assert.Equal(t, "yes", h.result().PluginID)
	h.none(100 * time.Millisecond)
}

func TestResultsStreamAsTheySettle(t *testing.T) {
	h := start(t)
	h.load(
		entry("slow", pluginSource("slow", "true",
			`return new Promise(function (resolve) { setTimeout(function () { resolve("slow"); }, 300); });`)),
		entry("fast", pluginSource("fast", "true", `return Promise.resolve("fast");`)),
	)

	h.query("hola")
	first := h.next(200 * time.Millisecond).(messaging.TranslationResult)
	assert.Equal(t, "fast", first.PluginID)
	second := h.next(2 * time.Second).(messaging.TranslationResult)
	assert.Equal(t, "slow", second.PluginID)
}

func TestRejectionsAreNotEmitted(t *testing.T) {
	h := start(t)
	h.load(
		entry("rejects", pluginSource("rejects", "true", `return Promise.reject(new Error("nope"));`)),
		entry("throws", pluginSource("throws", "true", `throw new Error("sync");`)),
	)

	h.query("hola")
	h.none(150 * time.Millisecond)
}

func TestEmptyResolutionsAreNotEmitted(t *testing.T) {
	h := start(t)
	h.load(
		entry("undef", pluginSource("undef", "true", `return Promise.resolve();`)),
		entry("null", pluginSource("null", "true", `return null;`)),
		entry("ok", pluginSource("ok", "true", `return "<p>hi</p>";`)),
	)

	h.query("hola")
	res := h.result()
	assert.Equal(t, "ok", res.PluginID)
	assert.Equal(t, "<p>hi</p>", res.HTMLContent)
	h.none(150 * time.Millisecond)
}

func TestResultsKeepManifestID(t *testing.T) {
	source := strings.Replace(pluginSource("p1", "true", `return "<p>hi</p>";`),
		`return "p1";`, `return "Plugin One";`, 1)
	require.Contains(t, source, `"Plugin One"`)

	h := start(t)
	h.load(entry("p1", source))

	h.query("hola")
	res := h.result()
	assert.Equal(t, "p1", res.PluginID)
	assert.True(t, res.Success)
}

func TestFailureMarker(t *testing.T) {
	h := start(t)
	h.load(entry("p1", pluginSource("p1", "true",
		`return '<div class="translation-failure">No result</div>';`)))

	h.query("hola")
	assert.False(t, h.result().Success)
}

func TestUpdateOptions(t *testing.T) {
	h := start(t)
	e := entry("p1", pluginSource("p1", "true", `return options.greeting + " " + q.text;`))
	e.Options = model.PluginOptions{"greeting": "hi"}
	h.load(e)

	h.query("hola")
	assert.Equal(t, "hi hola", h.result().HTMLContent)
}

func TestNoAmbientGlobals(t *testing.T) {
	h := start(t)
	h.load(entry("p1", pluginSource("p1", "true",
		`return [typeof require, typeof process, typeof module, typeof exports, typeof chrome].join(",");`)))

	h.query("hola")
	assert.Equal(t, "undefined,undefined,undefined,undefined,undefined", h.result().HTMLContent)
}

func TestScriptTimeout(t *testing.T) {
	h := start(t, WithConfig(Config{ScriptTimeout: 100 * time.Millisecond}))
	h.load(
		entry("spin", `function create_spin() { for (;;) {} }`),
		entry("ok", pluginSource("ok", "true", `return "ok";`)),
	)

	h.query("hola")
	assert.Equal(t, "ok", h.result().PluginID)
}

func TestHTTPBridge(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodPost:
			body, _ := io.ReadAll(r.Body)
			_, _ = io.WriteString(w, "posted:"+string(body)+":"+r.Header.Get("X-Key"))
		default:
			if strings.HasSuffix(r.URL.Path, "/missing") {
				http.NotFound(w, r)
				return
			}
			_, _ = io.WriteString(w, "dictionary for "+r.URL.Query().Get("q"))
		}
	}))
	defer srv.Close()

	client := httpclient.New(httpclient.Options{Timeout: 5 * time.Second})
	h := start(t, WithHTTP(client))
	h.load(
		entry("getter", pluginSource("getter", "true",
			fmt.Sprintf(`return http.get(%q + "/lookup?q=" + q.text).then(function (t) { return "<p>" + t + "</p>"; });`, srv.URL))),
		entry("poster", pluginSource("poster", "true",
			fmt.Sprintf(`return http.post(%q, "text=" + q.text, {"X-Key": "secret"});`, srv.URL))),
		entry("missing", pluginSource("missing", "true",
			fmt.Sprintf(`return http.get(%q + "/missing");`, srv.URL))),
	)

	h.query("hola")
	got := map[string]string{}
	for i := 0; i < 2; i++ {
		res := h.result()
		got[res.PluginID] = res.HTMLContent
	}
	assert.Equal(t, "<p>dictionary for hola</p>", got["getter"])
	assert.Equal(t, "posted:text=hola:secret", got["poster"])
	h.none(100 * time.Millisecond)
}

func TestStopsWhenPortCloses(t *testing.T) {
	host, end := messaging.NewPipe(messaging.PipeOptions{})
	sb := New(end)
	stopped := make(chan error, 1)
	go func() { stopped <- sb.Run(context.Background()) }()

	<-host.Receive()
	require.NoError(t, end.Close())

	select {
	case err := <-stopped:
		assert.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("sandbox did not stop")
	}
}
