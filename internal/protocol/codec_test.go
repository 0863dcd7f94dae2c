package protocol

import "testing"

func TestDecodeClient(t *testing.T) {
	msg, err := DecodeClient([]byte(`{"type":"CREATE_NODE","x":1.5,"y":2,"player_entity_id":3,"parent_node_id":4,"ref":"r1"}`))
	if err != nil {
		t.Fatalf("DecodeClient: %v", err)
	}
	cn, ok := msg.(*CreateNodeMsg)
	if !ok {
		t.Fatalf("type %T", msg)
	}
	if cn.X != 1.5 || cn.PlayerEntityID != 3 || cn.ParentNodeID != 4 || cn.Ref != "r1" {
		t.Fatalf("decoded %+v", cn)
	}
	if _, err := DecodeClient([]byte(`{"type":"HELLO"}`)); err == nil {
		t.Fatalf("unknown type accepted")
	}
	if _, err := DecodeClient([]byte(`{"type":"MORPH_NODE","entity_id":"x"}`)); err == nil {
		t.Fatalf("bad field accepted")
	}
}

func TestMsgpackUsesJSONFieldNames(t *testing.T) {
	enc, err := ParseEncoding("msgpack")
	if err != nil || !enc.Binary() {
		t.Fatalf("ParseEncoding: %v", err)
	}
	in := NodeKilledMsg{Type: TypeNodeKilled, ProtocolVersion: Version, Tick: 32, EntityList: []int{5, 6}}
	b, err := enc.Marshal(in)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	var generic map[string]any
	if err := enc.Unmarshal(b, &generic); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if generic["type"] != TypeNodeKilled {
		t.Fatalf("keys not json-tagged: %v", generic)
	}
	if _, ok := generic["entity_list"]; !ok {
		t.Fatalf("entity_list missing: %v", generic)
	}
	var out NodeKilledMsg
	if err := enc.Unmarshal(b, &out); err != nil {
		t.Fatalf("Unmarshal typed: %v", err)
	}
	if out.Tick != 32 || len(out.EntityList) != 2 {
		t.Fatalf("round trip %+v", out)
	}
	if _, err := ParseEncoding("xml"); err == nil {
		t.Fatalf("unknown encoding accepted")
	}
}
