package messaging

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/GriffinCanCode/dicthub/internal/domain/model"
	"github.com/GriffinCanCode/dicthub/internal/infrastructure/monitoring"
	"github.com/GriffinCanCode/dicthub/internal/lang"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func receive(t *testing.T, p Port) Message {
	t.Helper()
	select {
	case msg := <-p.Receive():
		return msg
	case <-time.After(time.Second):
		t.Fatal("no message received")
		return nil
	}
}

func assertEmpty(t *testing.T, p Port) {
	t.Helper()
	select {
	case msg := <-p.Receive():
		t.Fatalf("unexpected message %T", msg)
	case <-time.After(20 * time.Millisecond):
	}
}

func TestPipeDeliversCopies(t *testing.T) {
	ctx := context.Background()
	host, sandbox := NewPipe(PipeOptions{})

	opts := model.PluginOptions{"k": "v"}
	require.NoError(t, host.Send(ctx, Plugins{Plugins: []PluginEntry{{
		Content: model.PluginContent{ID: "p1", Version: "1"},
		Options: opts,
	}}}))
	opts["k"] = "changed"

	got := receive(t, sandbox).(Plugins)
	assert.Equal(t, "v", got.Plugins[0].Options["k"])

	require.NoError(t, sandbox.Send(ctx, SandboxReady{}))
	assert.Equal(t, SandboxReady{}, receive(t, host))
}

func TestPipeCarriesLargePackets(t *testing.T) {
	ctx := context.Background()
	host, sandbox := NewPipe(PipeOptions{})

	source := strings.Repeat("x", 6*1024*1024)
	require.NoError(t, host.Send(ctx, Plugins{Plugins: []PluginEntry{{
		Content: model.PluginContent{ID: "p1", Version: "1", Content: source},
	}}}))

	got := receive(t, sandbox).(Plugins)
	require.Len(t, got.Plugins, 1)
	assert.Len(t, got.Plugins[0].Content.Content, len(source))
}

func TestPipeDropsForeignAndMalformed(t *testing.T) {
	ctx := context.Background()
	host, sandbox := NewPipe(PipeOptions{HostOrigin: "https://popup.test", SandboxOrigin: "https://sandbox.test"})

	require.NoError(t, sandbox.Post(ctx, "https://evil.test", []byte(`{"cmd":"QUERY","payload":{"text":"x","from":"es","to":"en"}}`)))
	require.NoError(t, sandbox.Post(ctx, host.Origin(), []byte(`{"cmd":"NOPE"}`)))
	assertEmpty(t, sandbox)

	require.NoError(t, sandbox.Post(ctx, host.Origin(), []byte(`{"cmd":"QUERY","payload":{"text":"x","from":"es","to":"en"}}`)))
	q := receive(t, sandbox).(Query)
	assert.Equal(t, lang.ES, q.From)
}

func TestPipeClose(t *testing.T) {
	host, sandbox := NewPipe(PipeOptions{})
	require.NoError(t, sandbox.Close())

	err := host.Send(context.Background(), SandboxStart{})
	assert.ErrorIs(t, err, ErrPortClosed)
	err = sandbox.Send(context.Background(), SandboxStart{})
	assert.ErrorIs(t, err, ErrPortClosed)

	select {
	case <-sandbox.Done():
	default:
		t.Fatal("done not closed")
	}
}

func TestPipeMetrics(t *testing.T) {
	metrics := monitoring.NewMetrics()
	host, sandbox := NewPipe(PipeOptions{Metrics: metrics})

	require.NoError(t, sandbox.Send(context.Background(), SandboxStart{}))
	receive(t, host)

	assert.Equal(t, float64(1), testutil.ToFloat64(metrics.Packets.WithLabelValues(DirectionOut, string(CmdSandboxStart))))
	assert.Equal(t, float64(1), testutil.ToFloat64(metrics.Packets.WithLabelValues(DirectionIn, string(CmdSandboxStart))))
}
