package websocket

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/c360/riverkit/metric"
)

// channelHandler forwards received messages to a channel for assertions.
type channelHandler struct {
	messages chan []byte
}

func newChannelHandler() *channelHandler {
	return &channelHandler{messages: make(chan []byte, 16)}
}

func (h *channelHandler) HandleMessage(_ context.Context, raw []byte) {
	h.messages <- raw
}

func dialTestServer(t *testing.T, input *Input) *websocket.Conn {
	t.Helper()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		input.handleUpgrade(context.Background(), w, r)
	}))
	t.Cleanup(server.Close)

	wsURL := "ws" + server.URL[4:]
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })

	return conn
}

func TestNewInput_RequiresHandler(t *testing.T) {
	_, err := NewInput(DefaultConfig(), nil, nil, nil)
	assert.Error(t, err)
}

func TestNewInput_Defaults(t *testing.T) {
	input, err := NewInput(Config{}, newChannelHandler(), nil, nil)
	require.NoError(t, err)

	assert.Equal(t, "/ws", input.config.Path)
	assert.Equal(t, int64(1<<20), input.config.MaxMessageBytes)
}

func TestInput_ForwardsTextFrames(t *testing.T) {
	handler := newChannelHandler()
	input, err := NewInput(DefaultConfig(), handler, nil, metric.NewMetricsRegistry())
	require.NoError(t, err)

	conn := dialTestServer(t, input)

	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte(`{"type":"drawcard"}`)))

	select {
	case msg := <-handler.messages:
		assert.Equal(t, `{"type":"drawcard"}`, string(msg))
	case <-time.After(2 * time.Second):
		t.Fatal("Timeout waiting for forwarded message")
	}
}

func TestInput_IgnoresBinaryFrames(t *testing.T) {
	handler := newChannelHandler()
	input, err := NewInput(DefaultConfig(), handler, nil, nil)
	require.NoError(t, err)

	conn := dialTestServer(t, input)

	require.NoError(t, conn.WriteMessage(websocket.BinaryMessage, []byte{0x01, 0x02}))
	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte(`{"after":"binary"}`)))

	select {
	case msg := <-handler.messages:
		assert.Equal(t, `{"after":"binary"}`, string(msg), "binary frame must be skipped")
	case <-time.After(2 * time.Second):
		t.Fatal("Timeout waiting for forwarded message")
	}
}

func TestInput_Lifecycle(t *testing.T) {
	input, err := NewInput(Config{Addr: "127.0.0.1:0"}, newChannelHandler(), nil, nil)
	require.NoError(t, err)

	require.NoError(t, input.Start(context.Background()))
	assert.Error(t, input.Start(context.Background()), "second start must fail")

	require.NoError(t, input.Stop(2*time.Second))
	// Stopping a stopped input is a no-op.
	require.NoError(t, input.Stop(2*time.Second))
}
