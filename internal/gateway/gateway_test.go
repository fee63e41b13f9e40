package gateway

import (
	"context"
	"fmt"
	"io"
	"net"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vyrodovalexey/authgw/internal/config"
)

func TestState_String(t *testing.T) {
	t.Parallel()

	tests := []struct {
		state State
		want  string
	}{
		{StateStopped, "stopped"},
		{StateStarting, "starting"},
		{StateRunning, "running"},
		{StateStopping, "stopping"},
		{State(42), "unknown"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, tt.state.String())
	}
}

func TestNew_NilConfig(t *testing.T) {
	t.Parallel()

	_, err := New(nil)
	assert.ErrorIs(t, err, ErrNilConfig)
}

func testGatewayConfig() *config.GatewayConfig {
	return &config.GatewayConfig{
		Metadata: config.Metadata{Name: "test"},
		Spec: config.GatewaySpec{
			Listeners: []config.Listener{{Name: "http", Bind: "127.0.0.1", Port: 0}},
		},
	}
}

func TestGateway_Lifecycle(t *testing.T) {
	t.Parallel()

	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, r.Method+" "+r.URL.Path)
	})
	gw, err := New(testGatewayConfig(), WithRouteHandler(handler), WithShutdownTimeout(time.Second))
	require.NoError(t, err)
	assert.Equal(t, StateStopped, gw.State())
	assert.Zero(t, gw.Uptime())

	ctx := context.Background()
	require.NoError(t, gw.Start(ctx))
	assert.True(t, gw.IsRunning())
	assert.NotNil(t, gw.Engine())
	require.Len(t, gw.Listeners(), 1)
	assert.ErrorIs(t, gw.Start(ctx), ErrGatewayNotStopped)

	addr := gw.Listeners()[0].BoundAddr()
	require.NotNil(t, addr)

	for _, method := range []string{http.MethodGet, http.MethodDelete} {
		req, err := http.NewRequestWithContext(ctx, method, fmt.Sprintf("http://%s/api/users/1", addr), nil)
		require.NoError(t, err)
		resp, err := http.DefaultClient.Do(req)
		require.NoError(t, err)
		body, _ := io.ReadAll(resp.Body)
		_ = resp.Body.Close()
		assert.Equal(t, method+" /api/users/1", string(body))
	}

	require.NoError(t, gw.Stop(ctx))
	assert.Equal(t, StateStopped, gw.State())
	assert.ErrorIs(t, gw.Stop(ctx), ErrGatewayNotRunning)
}

func TestGateway_DefaultNotFound(t *testing.T) {
	t.Parallel()

	gw, err := New(testGatewayConfig())
	require.NoError(t, err)
	require.NoError(t, gw.Start(context.Background()))
	t.Cleanup(func() { _ = gw.Stop(context.Background()) })

	resp, err := http.Get(fmt.Sprintf("http://%s/anything", gw.Listeners()[0].BoundAddr()))
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestGateway_StartFailsOnBusyPort(t *testing.T) {
	t.Parallel()

	first, err := New(testGatewayConfig())
	require.NoError(t, err)
	require.NoError(t, first.Start(context.Background()))
	t.Cleanup(func() { _ = first.Stop(context.Background()) })

	cfg := testGatewayConfig()
	cfg.Spec.Listeners[0].Port = first.Listeners()[0].BoundAddr().(*net.TCPAddr).Port
	second, err := New(cfg)
	require.NoError(t, err)

	err = second.Start(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to start listener http")
	assert.Equal(t, StateStopped, second.State())
}

func TestListener_StartTwice(t *testing.T) {
	t.Parallel()

	l := NewListener(config.Listener{Name: "x", Bind: "127.0.0.1"}, http.NotFoundHandler())
	assert.Equal(t, "127.0.0.1:0", l.Address())
	assert.Nil(t, l.BoundAddr())
	assert.NoError(t, l.Stop(context.Background()))

	require.NoError(t, l.Start(context.Background()))
	t.Cleanup(func() { _ = l.Stop(context.Background()) })
	assert.True(t, l.IsRunning())
	assert.ErrorIs(t, l.Start(context.Background()), ErrListenerRunning)
}
