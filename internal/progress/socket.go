package progress

import (
	"context"
	"crypto/tls"
	"fmt"
	"net/url"
	"time"

	"github.com/vk/graft/internal/ctxlog"
	"github.com/zishang520/engine.io-client-go/transports"
	"github.com/zishang520/engine.io/v2/types"
	"github.com/zishang520/socket.io-client-go/socket"
)

// EventName is the socket.io event carrying a milestone.
const EventName = "progress"

// DefaultDialTimeout bounds how long Dial waits for the connect event.
const DefaultDialTimeout = 15 * time.Second

// SocketSink forwards milestones to a socket.io endpoint as
// {"description": ..., "fraction": ...} payloads.
type SocketSink struct {
	io  *socket.Socket
	url string
}

// SocketOptions tunes Dial.
type SocketOptions struct {
	Namespace          string
	InsecureSkipVerify bool
	Timeout            time.Duration
}

// Dial connects to rawURL ("http://host:port/socket.io") over the websocket
// transport and waits for the connect event.
func Dial(ctx context.Context, rawURL string, o SocketOptions) (*SocketSink, error) {
	logger := ctxlog.FromContext(ctx).With("sink", "socketio", "url", rawURL)

	parsed, err := url.Parse(rawURL)
	if err != nil {
		return nil, fmt.Errorf("progress socket: parse URL: %w", err)
	}
	if parsed.Scheme == "" || parsed.Host == "" {
		return nil, fmt.Errorf("progress socket: URL %q needs a scheme and host", rawURL)
	}
	timeout := o.Timeout
	if timeout <= 0 {
		timeout = DefaultDialTimeout
	}
	namespace := o.Namespace
	if namespace == "" {
		namespace = "/"
	}

	opts := socket.DefaultOptions()
	if parsed.Path != "" && parsed.Path != "/" {
		opts.SetPath(parsed.Path)
	}
	if o.InsecureSkipVerify {
		logger.Warn("Skipping TLS certificate verification.")
		opts.SetTLSClientConfig(&tls.Config{InsecureSkipVerify: true})
	}
	opts.SetTransports(types.NewSet(transports.WebSocket))

	connected := make(chan error, 1)
	manager := socket.NewManager(fmt.Sprintf("%s://%s", parsed.Scheme, parsed.Host), opts)
	io := manager.Socket(namespace, opts)
	io.Once(types.EventName("connect"), func(...any) {
		logger.Debug("Progress socket connected.", "sid", io.Id())
		connected <- nil
	})
	io.Once(types.EventName("connect_error"), func(errs ...any) {
		err := fmt.Errorf("connect error")
		if len(errs) > 0 {
			if e, ok := errs[0].(error); ok {
				err = e
			}
		}
		connected <- err
	})
	io.Connect()

	select {
	case err := <-connected:
		if err != nil {
			io.Disconnect()
			return nil, fmt.Errorf("progress socket: connection failed: %w", err)
		}
	case <-ctx.Done():
		io.Disconnect()
		return nil, fmt.Errorf("progress socket: %w", ctx.Err())
	case <-time.After(timeout):
		io.Disconnect()
		return nil, fmt.Errorf("progress socket: timed out after %s waiting for connection", timeout)
	}
	logger.Info("Progress socket ready.")
	return &SocketSink{io: io, url: rawURL}, nil
}

// Func returns the sink as a progress function. Emit failures are logged and
// never reach the load.
func (s *SocketSink) Func(ctx context.Context) Func {
	logger := ctxlog.FromContext(ctx)
	return func(description string, fraction float64) {
		payload := map[string]any{"description": description, "fraction": fraction}
		if err := s.io.Emit(EventName, payload); err != nil {
			logger.Warn("Failed to emit progress event.", "url", s.url, "step", description, "error", err)
		}
	}
}

// Close disconnects the socket.
func (s *SocketSink) Close() {
	s.io.Disconnect()
}
