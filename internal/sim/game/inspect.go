package game

import (
	"github.com/vicksonzero/shroom-io/internal/protocol"
	"github.com/vicksonzero/shroom-io/internal/sim/entity"
)

var inspectCommands = []string{"entity-list", "entity-data", "body-data", "help"}

type EntityListItem struct {
	EID  int    `json:"eid"`
	Kind string `json:"kind"`
}

func (g *Game) handleDebugInspect(sessionID string, m *protocol.DebugInspectMsg) *rejection {
	if !g.cfg.EnableDebugInspect {
		return reject(protocol.ErrDisabled, "debug inspect is disabled")
	}
	reply := protocol.DebugInspectReturnMsg{
		Type:            protocol.TypeDebugInspectReturn,
		ProtocolVersion: protocol.Version,
		Msg:             m.Cmd,
	}
	switch m.Cmd {
	case "entity-list":
		reply.Data = g.EntityList()
	case "entity-data":
		if p := g.playerForSession(sessionID); p != nil {
			reply.Data = g.EntityData(p.ID)
		}
	case "body-data":
		reply.Data = g.phys.BodyData()
	case "help":
		reply.Msg = "Command list:"
		reply.Data = inspectCommands
	default:
		reply.Msg = "unknown cmd: " + m.Cmd
	}
	g.sendTo(sessionID, reply)
	return nil
}

func (g *Game) EntityList() []EntityListItem {
	all := g.reg.All()
	out := make([]EntityListItem, 0, len(all))
	for _, e := range all {
		out = append(out, EntityListItem{EID: e.Ref().ID, Kind: e.Kind().String()})
	}
	return out
}

// EntityData describes one entity the way the view does, plus its subtree
// for players and nodes.
func (g *Game) EntityData(id int) map[string]any {
	e := g.reg.Get(id)
	if e == nil {
		return nil
	}
	b := e.Ref()
	out := map[string]any{
		"eid":  b.ID,
		"kind": e.Kind().String(),
		"x":    trunc3(b.X),
		"y":    trunc3(b.Y),
		"r":    b.R,
	}
	switch v := e.(type) {
	case *entity.Player:
		out["name"] = v.Name
		out["hp"] = v.HP
		out["mineral_amount"] = v.Mineral
		out["ammo_amount"] = v.Ammo
		out["is_human"] = v.Human
	case *entity.Node:
		out["node"] = nodeState(v)
	case *entity.Resource:
		out["mineral_amount"] = v.Mineral
		out["ammo_amount"] = v.Ammo
	}
	if e.Kind() != entity.KindResource {
		var tree []map[string]int
		g.reg.TraverseNodes(id, 0, func(n entity.Entity, depth int) {
			tree = append(tree, map[string]int{"eid": n.Ref().ID, "depth": depth})
		})
		out["tree"] = tree
	}
	return out
}
