package game

import (
	"encoding/json"
	"fmt"
	"math"
	"strings"

	"github.com/vicksonzero/shroom-io/internal/protocol"
	"github.com/vicksonzero/shroom-io/internal/sim/entity"
)

const maxNameRunes = 32

// rejection is a command refused by validation. The world is unchanged.
type rejection struct {
	code string
	msg  string
}

func (r *rejection) Error() string { return r.code + ": " + r.msg }

func reject(code, format string, args ...any) *rejection {
	return &rejection{code: code, msg: fmt.Sprintf(format, args...)}
}

func (g *Game) applyCommand(cmd Command) {
	typ, ref := protocol.CommandMeta(cmd.Msg)
	if typ == "" {
		g.log.Printf("tick=%d session=%s unsupported command %T", g.rec.tick, cmd.SessionID, cmd.Msg)
		return
	}
	if payload, err := json.Marshal(cmd.Msg); err == nil {
		g.rec.commands = append(g.rec.commands, RecordedCommand{SessionID: cmd.SessionID, Type: typ, Payload: payload})
	}

	// A panicking handler costs only its own command.
	defer func() {
		if r := recover(); r != nil {
			g.log.Printf("tick=%d session=%s %s panic: %v", g.rec.tick, cmd.SessionID, typ, r)
			g.rejectCommand(cmd.SessionID, typ, ref, reject(protocol.ErrInternal, "internal error"))
		}
	}()

	var rej *rejection
	switch m := cmd.Msg.(type) {
	case *protocol.StartMsg:
		g.handleStart(cmd.SessionID, m)
	case *protocol.CreateNodeMsg:
		_, rej = g.handleCreateNode(cmd.SessionID, m)
	case *protocol.MorphNodeMsg:
		rej = g.handleMorphNode(cmd.SessionID, m)
	case *protocol.DebugInspectMsg:
		rej = g.handleDebugInspect(cmd.SessionID, m)
	}
	if rej != nil {
		g.rejectCommand(cmd.SessionID, typ, ref, rej)
	}
}

func (g *Game) rejectCommand(sessionID, typ, ref string, rej *rejection) {
	g.rec.rejections = append(g.rec.rejections, RecordedRejection{
		SessionID: sessionID, Command: typ, Ref: ref, Code: rej.code, Message: rej.msg,
	})
	g.window.rejections++
	g.sendTo(sessionID, protocol.CommandRejectedMsg{
		Type:            protocol.TypeCommandRejected,
		ProtocolVersion: protocol.Version,
		Ref:             ref,
		Command:         typ,
		Code:            rej.code,
		Message:         rej.msg,
		Tick:            g.rec.tick,
	})
}

// handleStart spawns the session's player, or resends full state if it is
// already alive.
func (g *Game) handleStart(sessionID string, m *protocol.StartMsg) {
	c := g.clients[sessionID]
	if c == nil {
		g.log.Printf("tick=%d START from unknown session %s", g.rec.tick, sessionID)
		return
	}
	c.wantFull = true
	if g.playerForSession(sessionID) != nil {
		return
	}
	name := strings.TrimSpace(m.Name)
	if name == "" {
		name = "Player"
	}
	if r := []rune(name); len(r) > maxNameRunes {
		name = string(r[:maxNameRunes])
	}
	x, y := g.randomPosition(g.tu.Entities.PlayerRadius * 2)
	p := g.spawnPlayer(x, y, name, true)
	p.SessionID = sessionID
	g.rec.spawns = append(g.rec.spawns, RecordedSpawn{SessionID: sessionID, PlayerID: p.ID, Name: name, Human: true})
	g.log.Printf("tick=%d session=%s player %d (%s) spawned at (%.0f,%.0f)", g.rec.tick, sessionID, p.ID, name, x, y)
}

// buildRequest is the validated form of CREATE_NODE shared by sessions and NPCs.
type buildRequest struct {
	playerID int
	parentID int
	x, y     float64
}

func (g *Game) handleCreateNode(sessionID string, m *protocol.CreateNodeMsg) (*entity.Node, *rejection) {
	p := g.playerForSession(sessionID)
	if p == nil {
		return nil, reject(protocol.ErrNoPlayer, "session has no live player")
	}
	if m.PlayerEntityID != p.ID {
		return nil, reject(protocol.ErrNotOwner, "player_entity_id %d is not yours", m.PlayerEntityID)
	}
	return g.build(buildRequest{playerID: p.ID, parentID: m.ParentNodeID, x: m.X, y: m.Y})
}

// build validates and applies a node placement. On rejection nothing changes.
func (g *Game) build(req buildRequest) (*entity.Node, *rejection) {
	p := g.reg.Player(req.playerID)
	if p == nil {
		return nil, reject(protocol.ErrNoPlayer, "player %d not found", req.playerID)
	}
	parent := g.reg.Get(req.parentID)
	switch v := parent.(type) {
	case *entity.Player:
		if v.ID != p.ID {
			return nil, reject(protocol.ErrNotOwner, "parent %d is another player", v.ID)
		}
	case *entity.Node:
		if v.PlayerEntityID != p.ID {
			return nil, reject(protocol.ErrNotOwner, "parent node %d is not yours", v.ID)
		}
	case *entity.Resource:
		return nil, reject(protocol.ErrNoParent, "parent %d is a resource", v.ID)
	default:
		return nil, reject(protocol.ErrNoParent, "parent %d not found", req.parentID)
	}
	if math.IsNaN(req.x) || math.IsNaN(req.y) || math.IsInf(req.x, 0) || math.IsInf(req.y, 0) {
		return nil, reject(protocol.ErrOutOfBounds, "position is not finite")
	}
	pb := parent.Ref()
	d := math.Hypot(req.x-pb.X, req.y-pb.Y)
	if d < g.tu.Build.RadiusMin || d > g.tu.Build.RadiusMax+g.tu.Build.Tolerance {
		return nil, reject(protocol.ErrTooFar, "distance %.1f to parent outside [%.0f,%.0f]", d, g.tu.Build.RadiusMin, g.tu.Build.RadiusMax+g.tu.Build.Tolerance)
	}
	pad := g.tu.World.SpawnPadding
	if req.x < pad || req.y < pad || req.x > g.tu.World.Width-pad || req.y > g.tu.World.Height-pad {
		return nil, reject(protocol.ErrOutOfBounds, "(%.0f,%.0f) outside world", req.x, req.y)
	}
	if id, hit := g.overlaps(req.x, req.y, g.tu.Entities.NodeRadius); hit {
		return nil, reject(protocol.ErrCollision, "overlaps entity %d", id)
	}
	if p.Mineral < g.tu.Costs.Bud {
		return nil, reject(protocol.ErrNoResource, "need %d mineral, have %d", g.tu.Costs.Bud, p.Mineral)
	}
	p.Mineral -= g.tu.Costs.Bud
	n := g.spawnNode(req.x, req.y, entity.NodeBud, p.ID, req.parentID)
	return n, nil
}

// overlaps reports the first entity whose footprint intersects a circle at (x,y).
func (g *Game) overlaps(x, y, r float64) (int, bool) {
	for _, e := range g.reg.All() {
		b := e.Ref()
		if math.Hypot(x-b.X, y-b.Y) < r+b.R {
			return b.ID, true
		}
	}
	return 0, false
}

func (g *Game) morphCost(to entity.NodeType) int {
	switch to {
	case entity.NodeShooter:
		return g.tu.Costs.Shooter
	case entity.NodeSwarm:
		return g.tu.Costs.Swarm
	case entity.NodeConverter:
		return g.tu.Costs.Converter
	case entity.NodeBud:
		return g.tu.Costs.Bud
	default:
		return 0
	}
}

func (g *Game) handleMorphNode(sessionID string, m *protocol.MorphNodeMsg) *rejection {
	p := g.playerForSession(sessionID)
	if p == nil {
		return reject(protocol.ErrNoPlayer, "session has no live player")
	}
	to, ok := entity.ParseNodeType(m.ToNodeType)
	if !ok {
		return reject(protocol.ErrBadMorph, "unknown node type %q", m.ToNodeType)
	}
	return g.morph(p, m.EntityID, to)
}

func (g *Game) morph(p *entity.Player, nodeID int, to entity.NodeType) *rejection {
	n := g.reg.Node(nodeID)
	if n == nil {
		return reject(protocol.ErrNoTarget, "node %d not found", nodeID)
	}
	if n.PlayerEntityID != p.ID {
		return reject(protocol.ErrNotOwner, "node %d is not yours", nodeID)
	}
	if !entity.CanMorph(n.Type, to) {
		return reject(protocol.ErrBadMorph, "cannot morph %s to %s", n.Type, to)
	}
	cost := g.morphCost(to)
	if p.Mineral < cost {
		return reject(protocol.ErrNoResource, "need %d mineral, have %d", cost, p.Mineral)
	}
	p.Mineral -= cost
	n.Type = to
	n.TargetID = entity.NoOwner
	if n.NextCanShoot < g.rec.tick {
		n.NextCanShoot = g.rec.tick
	}
	return nil
}
