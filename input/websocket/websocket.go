package websocket

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/c360/riverkit/errors"
	"github.com/c360/riverkit/metric"
)

// MessageHandler consumes one raw inbound message. river.River satisfies
// this with HandleMessage.
type MessageHandler interface {
	HandleMessage(ctx context.Context, raw []byte)
}

// Config holds configuration for the WebSocket ingress.
type Config struct {
	Addr            string `yaml:"addr"`
	Path            string `yaml:"path"`
	MaxMessageBytes int64  `yaml:"max_message_bytes"`
	ReadBufferSize  int    `yaml:"read_buffer_size"`
	WriteBufferSize int    `yaml:"write_buffer_size"`
}

// DefaultConfig returns the default ingress configuration.
func DefaultConfig() Config {
	return Config{
		Addr:            ":8080",
		Path:            "/ws",
		MaxMessageBytes: 1 << 20, // 1 MiB
		ReadBufferSize:  4096,
		WriteBufferSize: 4096,
	}
}

// Input is a WebSocket server that forwards every received text frame to a
// message handler.
type Input struct {
	config   Config
	handler  MessageHandler
	logger   *slog.Logger
	upgrader websocket.Upgrader
	metrics  *wsMetrics

	server *http.Server

	lifecycleMu sync.Mutex
	running     bool
	wg          sync.WaitGroup
}

// NewInput creates a WebSocket ingress. The registry may be nil to disable
// metrics.
func NewInput(config Config, handler MessageHandler, logger *slog.Logger, registry *metric.MetricsRegistry) (*Input, error) {
	if handler == nil {
		return nil, errors.WrapInvalid(errors.ErrMissingConfig,
			"WebSocketInput", "NewInput", "message handler required")
	}
	if logger == nil {
		logger = slog.Default()
	}
	if config.Path == "" {
		config.Path = DefaultConfig().Path
	}
	if config.MaxMessageBytes <= 0 {
		config.MaxMessageBytes = DefaultConfig().MaxMessageBytes
	}

	metrics, err := newWSMetrics(registry)
	if err != nil {
		logger.Error("Failed to initialize websocket metrics", "error", err)
		metrics = nil // Continue without metrics
	}

	return &Input{
		config:  config,
		handler: handler,
		logger:  logger,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  config.ReadBufferSize,
			WriteBufferSize: config.WriteBufferSize,
		},
		metrics: metrics,
	}, nil
}

// Start begins accepting WebSocket connections.
func (i *Input) Start(ctx context.Context) error {
	i.lifecycleMu.Lock()
	defer i.lifecycleMu.Unlock()

	if i.running {
		return errors.WrapFatal(errors.ErrAlreadyStarted, "WebSocketInput", "Start", "check running state")
	}

	mux := http.NewServeMux()
	mux.HandleFunc(i.config.Path, func(w http.ResponseWriter, r *http.Request) {
		i.handleUpgrade(ctx, w, r)
	})

	i.server = &http.Server{
		Addr:              i.config.Addr,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	i.wg.Add(1)
	go func() {
		defer i.wg.Done()
		if err := i.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			i.logger.Error("WebSocket server failed", "addr", i.config.Addr, "error", err)
		}
	}()

	i.running = true
	i.logger.Info("WebSocket ingress started",
		"addr", i.config.Addr,
		"path", i.config.Path)

	return nil
}

// Stop shuts the server down and waits for connection loops to finish.
func (i *Input) Stop(timeout time.Duration) error {
	i.lifecycleMu.Lock()
	defer i.lifecycleMu.Unlock()

	if !i.running {
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	err := i.server.Shutdown(ctx)

	waitCh := make(chan struct{})
	go func() {
		i.wg.Wait()
		close(waitCh)
	}()

	select {
	case <-waitCh:
	case <-time.After(timeout):
		return errors.WrapTransient(
			fmt.Errorf("shutdown timeout after %v", timeout),
			"WebSocketInput", "Stop", "graceful shutdown")
	}

	i.running = false
	if err != nil {
		return errors.WrapTransient(err, "WebSocketInput", "Stop", "shutdown server")
	}
	return nil
}

// handleUpgrade upgrades one HTTP request and runs its read loop.
func (i *Input) handleUpgrade(ctx context.Context, w http.ResponseWriter, r *http.Request) {
	conn, err := i.upgrader.Upgrade(w, r, nil)
	if err != nil {
		i.metrics.recordError("upgrade")
		i.logger.Debug("WebSocket upgrade failed",
			"remote", r.RemoteAddr,
			"error", err)
		return
	}

	i.metrics.connectionOpened()
	i.logger.Debug("WebSocket client connected", "remote", r.RemoteAddr)

	i.wg.Add(1)
	go func() {
		defer i.wg.Done()
		defer conn.Close()
		defer i.metrics.connectionClosed()

		i.readLoop(ctx, conn, r.RemoteAddr)
	}()
}

// readLoop forwards frames to the handler until the connection closes.
func (i *Input) readLoop(ctx context.Context, conn *websocket.Conn, remote string) {
	conn.SetReadLimit(i.config.MaxMessageBytes)

	for {
		messageType, data, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				i.metrics.recordError("read")
				i.logger.Debug("WebSocket read failed", "remote", remote, "error", err)
			}
			return
		}

		if messageType != websocket.TextMessage {
			i.metrics.recordError("frame_type")
			i.logger.Debug("Ignoring non-text frame", "remote", remote, "type", messageType)
			continue
		}

		i.metrics.recordMessage(len(data))
		i.handler.HandleMessage(ctx, data)
	}
}
