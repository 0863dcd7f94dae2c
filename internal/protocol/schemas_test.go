package protocol_test

import (
	"encoding/json"
	"path/filepath"
	"testing"

	"github.com/santhosh-tekuri/jsonschema/v5"

	"github.com/vicksonzero/shroom-io/internal/protocol"
)

func compile(t *testing.T, name string) *jsonschema.Schema {
	t.Helper()
	p := filepath.Join("..", "..", "schemas", name)
	s, err := jsonschema.Compile(p)
	if err != nil {
		t.Fatalf("compile %s: %v", name, err)
	}
	return s
}

func validateJSON(t *testing.T, s *jsonschema.Schema, raw string) {
	t.Helper()
	var v any
	if err := json.Unmarshal([]byte(raw), &v); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if err := s.Validate(v); err != nil {
		t.Fatalf("validate: %v", err)
	}
}

func validateMsg(t *testing.T, s *jsonschema.Schema, msg any) {
	t.Helper()
	b, err := json.Marshal(msg)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	validateJSON(t, s, string(b))
}

func TestSchemas_ValidateClientSamples(t *testing.T) {
	validateJSON(t, compile(t, "start.schema.json"), `{"type":"START","name":"alice"}`)
	validateJSON(t, compile(t, "create_node.schema.json"), `{
	  "type":"CREATE_NODE","ref":"c1",
	  "x":120.5,"y":80,"player_entity_id":3,"parent_node_id":3
	}`)
	validateJSON(t, compile(t, "morph_node.schema.json"), `{
	  "type":"MORPH_NODE","entity_id":9,"to_node_type":"shooter"
	}`)

	var v any
	_ = json.Unmarshal([]byte(`{"type":"MORPH_NODE","entity_id":9,"to_node_type":"root"}`), &v)
	if err := compile(t, "morph_node.schema.json").Validate(v); err == nil {
		t.Fatalf("morph to root should not validate")
	}
}

func TestSchemas_ValidateServerMessages(t *testing.T) {
	validateMsg(t, compile(t, "welcome.schema.json"), protocol.WelcomeMsg{
		Type:            protocol.TypeWelcome,
		ProtocolVersion: protocol.Version,
		SessionID:       "5f0c",
		WorldParams: protocol.WorldParams{
			FrameSizeMs: 16, Width: 2000, Height: 2000, VisibilityRadius: 300,
			BuildRadiusMin: 30, BuildRadiusMax: 100,
		},
	})

	validateMsg(t, compile(t, "state.schema.json"), protocol.StateMsg{
		Type:            protocol.TypeState,
		ProtocolVersion: protocol.Version,
		Tick:            320,
		PlayerStates: []protocol.PlayerState{{
			EID: 1, X: 10, Y: 20, R: 20, Name: "alice", Hue: 120, IsHuman: true, IsCtrl: true,
			MineralAmount: 50, HP: 100, MaxHP: 100,
			Nodes: []protocol.NodeState{{EID: 4, X: 50, Y: 20, R: 10, NodeType: "bud", HP: 30, MaxHP: 30, PlayerEntityID: 1, ParentNodeID: 1, TargetID: -1}},
		}},
		ResourceStates: []protocol.ResourceState{{EID: 2, X: 300, Y: 300, R: 20, MineralAmount: 500}},
	})

	validateMsg(t, compile(t, "node_killed.schema.json"), protocol.NodeKilledMsg{
		Type: protocol.TypeNodeKilled, ProtocolVersion: protocol.Version, Tick: 48, EntityList: []int{4, 1},
	})
	validateMsg(t, compile(t, "toggle_shooting.schema.json"), protocol.ToggleShootingMsg{
		Type: protocol.TypeToggleShooting, ProtocolVersion: protocol.Version, Tick: 48,
		Bullet: protocol.BulletState{EID: 12, FromEID: 4, ToEID: 7, Damage: 10, FromFixedTime: 48, TimeLength: 1000},
	})
	validateMsg(t, compile(t, "command_rejected.schema.json"), protocol.CommandRejectedMsg{
		Type: protocol.TypeCommandRejected, ProtocolVersion: protocol.Version,
		Command: protocol.TypeCreateNode, Code: protocol.ErrCollision, Tick: 16,
	})
	validateMsg(t, compile(t, "command_rejected.schema.json"), protocol.CommandRejectedMsg{
		Type: protocol.TypeCommandRejected, ProtocolVersion: protocol.Version,
		Command: protocol.TypeStart, Code: protocol.ErrRateLimit, Message: "command rate exceeded",
	})
	validateMsg(t, compile(t, "pong.schema.json"), protocol.PongMsg{
		Type: protocol.TypePong, ProtocolVersion: protocol.Version, PingID: 3, ServerTimestamp: 1700000000000,
	})
}
