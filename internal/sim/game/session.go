package game

import (
	"github.com/vicksonzero/shroom-io/internal/protocol"
	"github.com/vicksonzero/shroom-io/internal/sim/entity"
)

// ConnectRequest registers a session's outbound channel. Out may be nil for
// replayed sessions.
type ConnectRequest struct {
	SessionID string
	Encoding  protocol.Encoding
	Out       chan []byte
}

// Command is one decoded client message. Msg is one of *protocol.StartMsg,
// *protocol.CreateNodeMsg, *protocol.MorphNodeMsg or *protocol.DebugInspectMsg.
type Command struct {
	SessionID string
	Msg       any
}

type client struct {
	sessionID string
	enc       protocol.Encoding
	out       chan []byte
	wantFull  bool
	dropped   int
}

func (g *Game) handleConnect(req ConnectRequest) {
	enc := req.Encoding
	if enc == "" {
		enc = protocol.EncodingJSON
	}
	g.clients[req.SessionID] = &client{sessionID: req.SessionID, enc: enc, out: req.Out}
}

// handleLeave drops the session and its player. The player's nodes survive
// as orphans.
func (g *Game) handleLeave(sessionID string) bool {
	_, known := g.clients[sessionID]
	delete(g.clients, sessionID)
	p := g.reg.PlayerBySession(sessionID)
	if p == nil {
		return known
	}
	g.removeEntity(p)
	g.broadcast(protocol.PlayerDisconnectedMsg{
		Type:            protocol.TypePlayerDisconnected,
		ProtocolVersion: protocol.Version,
		PlayerID:        p.ID,
	})
	return true
}

func (g *Game) sendTo(sessionID string, msg any) {
	c := g.clients[sessionID]
	if c == nil || c.out == nil {
		return
	}
	b, err := c.enc.Marshal(msg)
	if err != nil {
		g.log.Printf("encode %T for %s: %v", msg, sessionID, err)
		return
	}
	if !sendEvent(c.out, b) {
		c.dropped++
	}
}

// broadcast encodes msg once per encoding in use and delivers it to every session.
func (g *Game) broadcast(msg any) {
	encoded := map[protocol.Encoding][]byte{}
	for _, id := range g.sessionIDs() {
		c := g.clients[id]
		if c.out == nil {
			continue
		}
		b, ok := encoded[c.enc]
		if !ok {
			var err error
			b, err = c.enc.Marshal(msg)
			if err != nil {
				g.log.Printf("encode %T: %v", msg, err)
				return
			}
			encoded[c.enc] = b
		}
		if !sendEvent(c.out, b) {
			c.dropped++
		}
	}
}

func (g *Game) playerForSession(sessionID string) *entity.Player {
	return g.reg.PlayerBySession(sessionID)
}
