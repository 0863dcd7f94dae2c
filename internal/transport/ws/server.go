package ws

import (
	"context"
	"log"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"golang.org/x/time/rate"

	"github.com/vicksonzero/shroom-io/internal/protocol"
	"github.com/vicksonzero/shroom-io/internal/sim/game"
)

// Game is the part of *game.Game the transport talks to.
type Game interface {
	Connect() chan<- game.ConnectRequest
	Leave() chan<- string
	Inbox() chan<- game.Command
	WorldParams() protocol.WorldParams
}

type Config struct {
	// Commands per second and burst allowed per connection.
	CommandRate  float64
	CommandBurst int
	// Outbound queue length per connection.
	OutQueue int
}

type Server struct {
	game Game
	cfg  Config
	log  *log.Logger

	upgrader websocket.Upgrader
}

func NewServer(g Game, cfg Config, logger *log.Logger) *Server {
	if cfg.CommandRate <= 0 {
		cfg.CommandRate = 20
	}
	if cfg.CommandBurst <= 0 {
		cfg.CommandBurst = 40
	}
	if cfg.OutQueue <= 0 {
		cfg.OutQueue = 64
	}
	s := &Server{
		game: g,
		cfg:  cfg,
		log:  logger,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  64 * 1024,
			WriteBufferSize: 64 * 1024,
			CheckOrigin:     func(r *http.Request) bool { return true }, // dev default
		},
	}
	return s
}

func (s *Server) Handler() http.HandlerFunc {
	return func(rw http.ResponseWriter, r *http.Request) {
		enc, err := protocol.ParseEncoding(r.URL.Query().Get("encoding"))
		if err != nil {
			http.Error(rw, err.Error(), http.StatusBadRequest)
			return
		}
		conn, err := s.upgrader.Upgrade(rw, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()

		sessionID := uuid.New().String()
		out := make(chan []byte, s.cfg.OutQueue)
		s.game.Connect() <- game.ConnectRequest{SessionID: sessionID, Encoding: enc, Out: out}
		defer func() { s.game.Leave() <- sessionID }()

		welcome := protocol.WelcomeMsg{
			Type:            protocol.TypeWelcome,
			ProtocolVersion: protocol.Version,
			SessionID:       sessionID,
			WorldParams:     s.game.WorldParams(),
		}
		if err := writeMsg(conn, enc, welcome); err != nil {
			return
		}
		s.log.Printf("session %s connected from %s (%s)", sessionID, r.RemoteAddr, enc)

		ctx, cancel := context.WithCancel(r.Context())
		defer cancel()

		frameType := websocket.TextMessage
		if enc.Binary() {
			frameType = websocket.BinaryMessage
		}

		// Writer goroutine.
		go func() {
			for {
				select {
				case <-ctx.Done():
					return
				case b, ok := <-out:
					if !ok {
						return
					}
					_ = conn.SetWriteDeadline(time.Now().Add(5 * time.Second))
					if err := conn.WriteMessage(frameType, b); err != nil {
						cancel()
						return
					}
				}
			}
		}()

		limiter := rate.NewLimiter(rate.Limit(s.cfg.CommandRate), s.cfg.CommandBurst)
		dropped := 0

		// Reader loop.
		for {
			_ = conn.SetReadDeadline(time.Now().Add(60 * time.Second))
			_, msg, err := conn.ReadMessage()
			if err != nil {
				cancel()
				break
			}
			decoded, err := protocol.DecodeClient(msg)
			if err != nil {
				s.queue(out, enc, rejected("", "", protocol.ErrProtoBadRequest, err.Error()))
				continue
			}
			if ping, ok := decoded.(*protocol.PingMsg); ok {
				s.queue(out, enc, protocol.PongMsg{
					Type:            protocol.TypePong,
					ProtocolVersion: protocol.Version,
					PingID:          ping.ID,
					ServerTimestamp: time.Now().UnixMilli(),
				})
				continue
			}
			if !limiter.Allow() {
				dropped++
				typ, ref := protocol.CommandMeta(decoded)
				s.queue(out, enc, rejected(typ, ref, protocol.ErrRateLimit, "command rate exceeded"))
				continue
			}
			select {
			case s.game.Inbox() <- game.Command{SessionID: sessionID, Msg: decoded}:
			case <-ctx.Done():
			}
		}

		if dropped > 0 {
			s.log.Printf("session %s disconnected, %d commands dropped by rate limit", sessionID, dropped)
		} else {
			s.log.Printf("session %s disconnected", sessionID)
		}
	}
}

// queue hands v to the writer goroutine, the only one allowed to write. PONG
// and transport rejections are dropped when the outbound queue is full.
func (s *Server) queue(out chan []byte, enc protocol.Encoding, v any) {
	b, err := enc.Marshal(v)
	if err != nil {
		s.log.Printf("encode %T: %v", v, err)
		return
	}
	select {
	case out <- b:
	default:
	}
}

// rejected is a COMMAND_REJECTED raised before the command reaches the game.
// It carries no tick and is not journaled.
func rejected(typ, ref, code, message string) protocol.CommandRejectedMsg {
	return protocol.CommandRejectedMsg{
		Type:            protocol.TypeCommandRejected,
		ProtocolVersion: protocol.Version,
		Ref:             ref,
		Command:         typ,
		Code:            code,
		Message:         message,
	}
}

func writeMsg(conn *websocket.Conn, enc protocol.Encoding, v any) error {
	b, err := enc.Marshal(v)
	if err != nil {
		return err
	}
	frameType := websocket.TextMessage
	if enc.Binary() {
		frameType = websocket.BinaryMessage
	}
	_ = conn.SetWriteDeadline(time.Now().Add(5 * time.Second))
	return conn.WriteMessage(frameType, b)
}
