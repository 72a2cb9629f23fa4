package sidecar

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/require"

	"github.com/babelforce/rtvi-go/proto"
)

type requestHandler func(req *proto.Request) (any, *proto.ResponseError)

// fakeSidecar answers requests with the registered handlers and lets tests
// push events to the connected client.
type fakeSidecar struct {
	t   *testing.T
	srv *httptest.Server

	mu        sync.Mutex
	conn      *websocket.Conn
	handlers  map[string]requestHandler
	silent    map[string]bool
	requests  []*proto.Request
	connected chan struct{}

	writeMu sync.Mutex
}

func newFakeSidecar(t *testing.T) *fakeSidecar {
	f := &fakeSidecar{
		t:         t,
		handlers:  make(map[string]requestHandler),
		silent:    make(map[string]bool),
		connected: make(chan struct{}),
	}
	f.handle("call.state", func(*proto.Request) (any, *proto.ResponseError) {
		return map[string]any{}, nil
	})

	upgrader := websocket.Upgrader{}
	f.srv = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()

		f.mu.Lock()
		f.conn = conn
		f.mu.Unlock()
		close(f.connected)

		f.serve(conn)
	}))
	return f
}

func (f *fakeSidecar) url() string {
	return "ws" + strings.TrimPrefix(f.srv.URL, "http")
}

func (f *fakeSidecar) close() {
	f.srv.Close()
}

func (f *fakeSidecar) handle(method string, h requestHandler) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.handlers[method] = h
}

// ignore makes the sidecar swallow requests of method without answering.
func (f *fakeSidecar) ignore(method string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.silent[method] = true
}

func (f *fakeSidecar) received(method string) []*proto.Request {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*proto.Request
	for _, r := range f.requests {
		if r.Method == method {
			out = append(out, r)
		}
	}
	return out
}

func (f *fakeSidecar) serve(conn *websocket.Conn) {
	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			return
		}

		frame, err := proto.Parse(data)
		if err != nil {
			continue
		}
		req, ok := frame.(*proto.Request)
		if !ok {
			continue
		}

		f.mu.Lock()
		f.requests = append(f.requests, req)
		h, ok := f.handlers[req.Method]
		silent := f.silent[req.Method]
		f.mu.Unlock()

		if silent {
			continue
		}
		if !ok {
			h = func(*proto.Request) (any, *proto.ResponseError) { return nil, nil }
		}

		result, respErr := h(req)

		var resp *proto.Response
		if respErr != nil {
			resp = req.Reject(respErr)
		} else {
			resp = req.Reply(result)
		}
		f.write(resp)
	}
}

func (f *fakeSidecar) write(v any) {
	data, err := json.Marshal(v)
	require.NoError(f.t, err)

	f.mu.Lock()
	conn := f.conn
	f.mu.Unlock()

	f.writeMu.Lock()
	defer f.writeMu.Unlock()
	_ = conn.WriteMessage(websocket.TextMessage, data)
}

func (f *fakeSidecar) emit(name string, data any) {
	<-f.connected
	evt, err := proto.NewEvent(name, data)
	require.NoError(f.t, err)
	f.write(evt)
}

// decodeParams decodes the raw params of a recorded request.
func decodeParams[T any](t *testing.T, req *proto.Request) *T {
	t.Helper()
	p, err := proto.Decode[T](req.Params)
	require.NoError(t, err)
	require.NotNil(t, p)
	return p
}

// disconnect closes the connection from the sidecar side.
func (f *fakeSidecar) disconnect() {
	f.mu.Lock()
	conn := f.conn
	f.mu.Unlock()

	f.writeMu.Lock()
	defer f.writeMu.Unlock()
	_ = conn.WriteControl(
		websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseGoingAway, "bye"),
		time.Now().Add(time.Second),
	)
}
