package ws

import (
	"encoding/json"
	"io"
	"log"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/vicksonzero/shroom-io/internal/protocol"
	"github.com/vicksonzero/shroom-io/internal/sim/game"
)

type fakeGame struct {
	connect chan game.ConnectRequest
	leave   chan string
	inbox   chan game.Command
}

func newFakeGame() *fakeGame {
	return &fakeGame{
		connect: make(chan game.ConnectRequest, 4),
		leave:   make(chan string, 4),
		inbox:   make(chan game.Command, 16),
	}
}

func (f *fakeGame) Connect() chan<- game.ConnectRequest { return f.connect }
func (f *fakeGame) Leave() chan<- string                { return f.leave }
func (f *fakeGame) Inbox() chan<- game.Command          { return f.inbox }
func (f *fakeGame) WorldParams() protocol.WorldParams {
	return protocol.WorldParams{FrameSizeMs: 16, Width: 2000, Height: 2000}
}

func dial(t *testing.T, srv *httptest.Server, query string) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/v1/ws" + query
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	return conn
}

func TestSessionLifecycle(t *testing.T) {
	fg := newFakeGame()
	s := NewServer(fg, Config{}, log.New(io.Discard, "", 0))
	srv := httptest.NewServer(s.Handler())
	defer srv.Close()

	conn := dial(t, srv, "")
	_ = conn.SetReadDeadline(time.Now().Add(5 * time.Second))

	var welcome protocol.WelcomeMsg
	if err := conn.ReadJSON(&welcome); err != nil {
		t.Fatalf("read welcome: %v", err)
	}
	if welcome.Type != protocol.TypeWelcome || welcome.SessionID == "" || welcome.WorldParams.FrameSizeMs != 16 {
		t.Fatalf("welcome=%+v", welcome)
	}
	req := <-fg.connect
	if req.SessionID != welcome.SessionID || req.Encoding != protocol.EncodingJSON {
		t.Fatalf("connect=%+v", req)
	}

	if err := conn.WriteJSON(map[string]any{"type": "PING", "id": 9}); err != nil {
		t.Fatalf("write ping: %v", err)
	}
	var pong protocol.PongMsg
	if err := conn.ReadJSON(&pong); err != nil {
		t.Fatalf("read pong: %v", err)
	}
	if pong.Type != protocol.TypePong || pong.PingID != 9 || pong.ServerTimestamp == 0 {
		t.Fatalf("pong=%+v", pong)
	}

	if err := conn.WriteJSON(map[string]any{"type": "MORPH_NODE", "entity_id": 4, "to_node_type": "shooter"}); err != nil {
		t.Fatalf("write morph: %v", err)
	}
	select {
	case cmd := <-fg.inbox:
		m, ok := cmd.Msg.(*protocol.MorphNodeMsg)
		if !ok || cmd.SessionID != welcome.SessionID || m.EntityID != 4 {
			t.Fatalf("cmd=%+v", cmd)
		}
	case <-time.After(5 * time.Second):
		t.Fatalf("command not forwarded")
	}

	// Frames pushed by the game reach the client.
	req.Out <- []byte(`{"type":"NODE_KILLED","tick":16,"entity_list":[3]}`)
	var killed protocol.NodeKilledMsg
	if err := conn.ReadJSON(&killed); err != nil || killed.Tick != 16 {
		t.Fatalf("killed=%+v err=%v", killed, err)
	}

	conn.Close()
	select {
	case id := <-fg.leave:
		if id != welcome.SessionID {
			t.Fatalf("leave=%s", id)
		}
	case <-time.After(5 * time.Second):
		t.Fatalf("leave not sent")
	}
}

func TestMsgpackSession(t *testing.T) {
	fg := newFakeGame()
	s := NewServer(fg, Config{}, log.New(io.Discard, "", 0))
	srv := httptest.NewServer(s.Handler())
	defer srv.Close()

	conn := dial(t, srv, "?encoding=msgpack")
	defer conn.Close()
	_ = conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	mt, b, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if mt != websocket.BinaryMessage {
		t.Fatalf("frame type=%d", mt)
	}
	var welcome protocol.WelcomeMsg
	if err := protocol.EncodingMsgpack.Unmarshal(b, &welcome); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if welcome.SessionID == "" || welcome.WorldParams.Width != 2000 {
		t.Fatalf("welcome=%+v", welcome)
	}
	if req := <-fg.connect; req.Encoding != protocol.EncodingMsgpack {
		t.Fatalf("encoding=%s", req.Encoding)
	}
}

func TestRateLimitDropsCommands(t *testing.T) {
	fg := newFakeGame()
	s := NewServer(fg, Config{CommandRate: 0.001, CommandBurst: 2}, log.New(io.Discard, "", 0))
	srv := httptest.NewServer(s.Handler())
	defer srv.Close()

	conn := dial(t, srv, "")
	defer conn.Close()
	_ = conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	var welcome protocol.WelcomeMsg
	if err := conn.ReadJSON(&welcome); err != nil {
		t.Fatalf("welcome: %v", err)
	}
	for i := 0; i < 5; i++ {
		if err := conn.WriteJSON(map[string]any{"type": "START", "name": "x"}); err != nil {
			t.Fatalf("write: %v", err)
		}
	}
	// PING is never rate limited and is answered after the STARTs were read.
	if err := conn.WriteJSON(map[string]any{"type": "PING", "id": 1}); err != nil {
		t.Fatalf("write ping: %v", err)
	}
	rejections := readUntilPong(t, conn)
	if got := len(fg.inbox); got != 2 {
		t.Fatalf("forwarded=%d, want burst of 2", got)
	}
	if len(rejections) != 3 {
		t.Fatalf("rejections=%d, want 3", len(rejections))
	}
	for _, rej := range rejections {
		if rej.Code != protocol.ErrRateLimit || rej.Command != protocol.TypeStart {
			t.Fatalf("rejection=%+v", rej)
		}
	}
}

func TestMalformedFrameRejected(t *testing.T) {
	fg := newFakeGame()
	s := NewServer(fg, Config{}, log.New(io.Discard, "", 0))
	srv := httptest.NewServer(s.Handler())
	defer srv.Close()

	conn := dial(t, srv, "")
	defer conn.Close()
	_ = conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	var welcome protocol.WelcomeMsg
	if err := conn.ReadJSON(&welcome); err != nil {
		t.Fatalf("welcome: %v", err)
	}
	for _, frame := range []string{`{"type":`, `{"type":"FLY"}`, `{"type":"CREATE_NODE","x":"far"}`} {
		if err := conn.WriteMessage(websocket.TextMessage, []byte(frame)); err != nil {
			t.Fatalf("write: %v", err)
		}
	}
	if err := conn.WriteJSON(map[string]any{"type": "PING", "id": 2}); err != nil {
		t.Fatalf("write ping: %v", err)
	}
	rejections := readUntilPong(t, conn)
	if len(rejections) != 3 {
		t.Fatalf("rejections=%d, want 3", len(rejections))
	}
	for _, rej := range rejections {
		if rej.Code != protocol.ErrProtoBadRequest || rej.Message == "" {
			t.Fatalf("rejection=%+v", rej)
		}
	}
	if got := len(fg.inbox); got != 0 {
		t.Fatalf("malformed frames forwarded: %d", got)
	}
}

// readUntilPong collects COMMAND_REJECTED frames until a PONG arrives.
func readUntilPong(t *testing.T, conn *websocket.Conn) []protocol.CommandRejectedMsg {
	t.Helper()
	var out []protocol.CommandRejectedMsg
	for {
		_, b, err := conn.ReadMessage()
		if err != nil {
			t.Fatalf("read: %v", err)
		}
		base, err := protocol.DecodeBase(b)
		if err != nil {
			t.Fatalf("decode: %v", err)
		}
		switch base.Type {
		case protocol.TypePong:
			return out
		case protocol.TypeCommandRejected:
			var rej protocol.CommandRejectedMsg
			if err := json.Unmarshal(b, &rej); err != nil {
				t.Fatalf("decode rejection: %v", err)
			}
			out = append(out, rej)
		default:
			t.Fatalf("unexpected frame %s", base.Type)
		}
	}
}

func TestRejectsUnknownEncoding(t *testing.T) {
	s := NewServer(newFakeGame(), Config{}, log.New(io.Discard, "", 0))
	srv := httptest.NewServer(s.Handler())
	defer srv.Close()
	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/?encoding=xml"
	if _, _, err := websocket.DefaultDialer.Dial(url, nil); err == nil {
		t.Fatalf("dial with bad encoding succeeded")
	}
}
