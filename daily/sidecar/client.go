// Package sidecar implements daily.CallClient on top of a call client hosted
// in a separate process and driven over a websocket.
package sidecar

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/babelforce/rtvi-go/daily"
	"github.com/babelforce/rtvi-go/metrics"
	"github.com/babelforce/rtvi-go/proto"
)

type wsMessage struct {
	mt   int
	data []byte
}

type pendingRequest struct {
	id string
	ch chan *proto.Response
}

type Client struct {
	cfg    Config
	conn   *websocket.Conn
	logger *slog.Logger
	mirror *mirror

	msgOut chan wsMessage // msgOut holds messages to be sent out

	muPending sync.Mutex
	pending   map[string]*pendingRequest

	incoming chan daily.Event
	events   chan daily.Event

	closeOnce   sync.Once
	closing     chan struct{} // closed by Close
	readDone    chan struct{} // closed when the connection fails on reading
	forwardDone chan struct{}
	done        chan struct{} // closed once the connection is gone
}

func dial(ctx context.Context, cfg *Config) (*websocket.Conn, *http.Response, error) {
	u, err := url.Parse(cfg.URL)
	if err != nil {
		return nil, nil, err
	}

	header := http.Header{}
	if cfg.AuthHeaderFunc != nil {
		authToken, err := cfg.AuthHeaderFunc(ctx)
		if err != nil {
			return nil, nil, err
		}
		if authToken != "" {
			header.Add("Authorization", fmt.Sprintf("Bearer %s", authToken))
		}
	}
	for k, v := range cfg.Headers {
		for _, vv := range v {
			header.Add(k, vv)
		}
	}

	dialCtx, cancel := context.WithTimeout(ctx, cfg.ConnectTimeout)
	defer cancel()
	return websocket.DefaultDialer.DialContext(dialCtx, u.String(), header)
}

// Dial connects to the sidecar and loads its current view of the call.
func Dial(ctx context.Context, cfg Config) (*Client, error) {
	cfg.Defaults()

	logger := cfg.Logger.With(
		slog.String("component", "daily.sidecar"),
		slog.String("endpoint", cfg.URL),
	)

	logger.Debug("connecting to sidecar")

	conn, resp, err := dial(ctx, &cfg)
	if err != nil {
		return nil, fmt.Errorf("dial sidecar: %w", err)
	}
	if resp.StatusCode != http.StatusSwitchingProtocols {
		_ = conn.Close()
		return nil, fmt.Errorf("dial sidecar: unexpected status code: %d", resp.StatusCode)
	}

	c := newClient(conn, cfg, logger.With(slog.String("remote_addr", conn.RemoteAddr().String())))

	var snap callSnapshot
	if err := c.request(ctx, callStateRequest{}, &snap); err != nil {
		_ = c.Close()
		return nil, fmt.Errorf("load call state: %w", err)
	}
	if err := c.mirror.apply(&snap); err != nil {
		_ = c.Close()
		return nil, fmt.Errorf("load call state: %w", err)
	}

	c.logger.Info("connected to sidecar")
	return c, nil
}

func newClient(conn *websocket.Conn, cfg Config, logger *slog.Logger) *Client {
	c := &Client{
		cfg:         cfg,
		conn:        conn,
		logger:      logger,
		mirror:      newMirror(),
		msgOut:      make(chan wsMessage, 1),
		pending:     make(map[string]*pendingRequest),
		incoming:    make(chan daily.Event),
		events:      make(chan daily.Event, cfg.EventBuffer),
		closing:     make(chan struct{}),
		readDone:    make(chan struct{}),
		forwardDone: make(chan struct{}),
		done:        make(chan struct{}),
	}

	conn.SetPingHandler(func(message string) error {
		logger.Debug("received ping")
		err := conn.WriteControl(websocket.PongMessage, []byte(message), time.Now().Add(time.Second))
		var netErr net.Error
		if errors.Is(err, websocket.ErrCloseSent) || (errors.As(err, &netErr) && netErr.Timeout()) {
			return nil
		}
		return err
	})

	conn.SetPongHandler(func(string) error {
		logger.Debug("received pong")
		return nil
	})

	metrics.SidecarConnected.Set(1)

	go c.readLoop()
	go c.forwardEvents()
	go c.writeLoop()

	return c
}

// Done is closed once the sidecar connection is gone.
func (c *Client) Done() <-chan struct{} {
	return c.done
}

// Close closes the connection. The Events channel is closed afterwards.
func (c *Client) Close() error {
	c.closeOnce.Do(func() {
		c.logger.Info("closing sidecar connection")
		close(c.closing)
	})
	<-c.done
	<-c.forwardDone
	return nil
}

func (c *Client) Events() <-chan daily.Event {
	return c.events
}

func (c *Client) closeConn() {
	if err := c.conn.Close(); err != nil && !errors.Is(err, net.ErrClosed) {
		c.logger.Error("connection close failed", slog.Any("err", err))
	}
}

func (c *Client) readLoop() {
	defer close(c.readDone)
	defer close(c.incoming)

	for {
		mt, data, err := c.conn.ReadMessage()
		if err != nil {
			select {
			case <-c.closing:
				c.logger.Debug("connection closed")
			default:
				if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
					c.logger.Info("connection was closed by sidecar")
				} else {
					c.logger.Error("read failed", slog.Any("err", err))
				}
			}
			return
		}

		if mt != websocket.TextMessage {
			continue
		}
		c.handleMessage(data)
	}
}

func (c *Client) writeLoop() {
	defer close(c.done)
	defer metrics.SidecarConnected.Set(0)

	ping := time.NewTicker(c.cfg.PingInterval)
	defer ping.Stop()

	for {
		select {
		case <-c.readDone:
			c.closeConn()
			return

		case <-c.closing:
			c.shutdown()
			return

		case <-ping.C:
			if err := c.conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(time.Second)); err != nil {
				c.logger.Warn("ping failed", slog.Any("err", err))
			}

		case msg := <-c.msgOut:
			c.logger.Debug("send text", slog.String("data", string(msg.data)))
			if err := c.conn.WriteMessage(msg.mt, msg.data); err != nil {
				c.logger.Error("write failed", slog.Any("err", err))
				c.closeConn()
			}
		}
	}
}

// shutdown sends a close frame and waits briefly for the sidecar to echo it.
func (c *Client) shutdown() {
	err := c.conn.WriteControl(
		websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, "closed"),
		time.Now().Add(time.Second),
	)
	if err == nil {
		select {
		case <-c.readDone:
		case <-time.After(time.Second):
		}
	}
	c.closeConn()
	<-c.readDone
}

// forwardEvents moves events from the reader to the Events channel through an
// unbounded queue, so a slow consumer never stalls responses.
func (c *Client) forwardEvents() {
	defer close(c.forwardDone)
	defer close(c.events)

	var (
		queue []daily.Event
		in    = c.incoming
	)
	for in != nil || len(queue) > 0 {
		var (
			out  chan<- daily.Event
			next daily.Event
		)
		if len(queue) > 0 {
			out, next = c.events, queue[0]
		}

		select {
		case evt, ok := <-in:
			if !ok {
				in = nil
				continue
			}
			queue = append(queue, evt)
		case out <- next:
			queue = queue[1:]
		case <-c.closing:
			return
		}
	}
}

func (c *Client) handleMessage(data []byte) {
	frame, err := proto.Parse(data)
	if err != nil {
		c.logger.Warn("invalid frame from sidecar", slog.Any("err", err))
		return
	}

	switch m := frame.(type) {
	case *proto.Response:
		c.resolvePendingRequest(m)
	case *proto.Event:
		c.handleEvent(m)
	case *proto.Request:
		c.rejectRequest(m)
	}
}

func (c *Client) handleEvent(evt *proto.Event) {
	h, ok := eventHandlers[evt.Event]
	if !ok {
		c.logger.Debug("ignoring unknown event", slog.String("event", evt.Event))
		return
	}

	out, err := h.handle(c, evt.Data)
	if err != nil {
		c.logger.Warn("failed to handle event", slog.String("event", evt.Event), slog.Any("err", err))
		return
	}

	select {
	case c.incoming <- out:
	case <-c.closing:
	}
}

func (c *Client) rejectRequest(req *proto.Request) {
	c.logger.Warn("sidecar sent a request", slog.String("method", req.Method))

	resp := req.Reject(proto.Errorf(proto.CodeNotImplemented, "method not supported: %s", req.Method))
	data, err := json.Marshal(resp)
	if err != nil {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), c.cfg.RequestTimeout)
	defer cancel()
	if err := c.writeMsgData(ctx, data); err != nil {
		c.logger.Warn("failed to reject request", slog.Any("err", err))
	}
}

func (c *Client) writeMsgData(ctx context.Context, data []byte) error {
	select {
	case <-ctx.Done():
		return fmt.Errorf("write failed: %w", proto.ErrRequestTimeout)
	case <-c.done:
		return proto.ErrClosed
	case <-c.closing:
		return proto.ErrClosed
	case c.msgOut <- wsMessage{mt: websocket.TextMessage, data: data}:
		return nil
	}
}

func (c *Client) newPendingRequest(id string) *pendingRequest {
	c.muPending.Lock()
	defer c.muPending.Unlock()

	pr := &pendingRequest{
		id: id,
		ch: make(chan *proto.Response, 1),
	}
	c.pending[id] = pr
	return pr
}

func (c *Client) dropPendingRequest(id string) {
	c.muPending.Lock()
	defer c.muPending.Unlock()
	delete(c.pending, id)
}

func (c *Client) resolvePendingRequest(resp *proto.Response) {
	c.muPending.Lock()
	defer c.muPending.Unlock()

	pr, ok := c.pending[resp.Response]
	if !ok {
		c.logger.Debug("response without pending request", slog.String("response", resp.Response))
		return
	}

	pr.ch <- resp
	delete(c.pending, resp.Response)
}

// request sends req and waits for the response. A non nil result receives the
// decoded response result.
func (c *Client) request(ctx context.Context, payload namedRequest, result any) error {
	ctx, cancel := context.WithTimeout(ctx, c.cfg.RequestTimeout)
	defer cancel()

	req, err := proto.NewRequest(payload.MethodName(), payload)
	if err != nil {
		return err
	}

	start := time.Now()
	defer func() {
		metrics.SidecarRequestDuration.WithLabelValues(req.Method).Observe(time.Since(start).Seconds())
	}()

	c.logger.Debug(
		"request",
		slog.String("request_id", req.ID),
		slog.String("method", req.Method),
	)

	data, err := json.Marshal(req)
	if err != nil {
		return err
	}

	pr := c.newPendingRequest(req.ID)
	defer c.dropPendingRequest(req.ID)

	if err := c.writeMsgData(ctx, data); err != nil {
		return fmt.Errorf("request [method=%s, id=%s]: %w", req.Method, req.ID, err)
	}

	select {
	case <-ctx.Done():
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return fmt.Errorf("request [method=%s, id=%s] failed: %w", req.Method, req.ID, proto.ErrRequestTimeout)
		}
		return ctx.Err()
	case <-c.done:
		return fmt.Errorf("request [method=%s, id=%s] failed: %w", req.Method, req.ID, proto.ErrClosed)
	case resp := <-pr.ch:
		if err := resp.Err(); err != nil {
			return fmt.Errorf("request [method=%s, id=%s] failed: %w", req.Method, req.ID, err)
		}
		return decodeResult(resp, result)
	}
}

func decodeResult(resp *proto.Response, result any) error {
	if result == nil {
		return nil
	}
	if len(resp.Result) == 0 || string(resp.Result) == "null" {
		return nil
	}
	if err := json.Unmarshal(resp.Result, result); err != nil {
		return fmt.Errorf("decode result: %w", err)
	}
	return nil
}

var _ daily.CallClient = &Client{}
