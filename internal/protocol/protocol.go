package protocol

import (
	"encoding/json"
	"fmt"
)

const Version = "1.0"

// Client -> server message types.
const (
	TypeStart        = "START"
	TypeCreateNode   = "CREATE_NODE"
	TypeMorphNode    = "MORPH_NODE"
	TypePing         = "PING"
	TypeDebugInspect = "DEBUG_INSPECT"
)

// Server -> client message types.
const (
	TypeWelcome            = "WELCOME"
	TypeState              = "STATE"
	TypeNodeKilled         = "NODE_KILLED"
	TypeToggleShooting     = "TOGGLE_SHOOTING"
	TypePong               = "PONG"
	TypePlayerDisconnected = "PLAYER_DISCONNECTED"
	TypeDebugInspectReturn = "DEBUG_INSPECT_RETURN"
	TypeCommandRejected    = "COMMAND_REJECTED"
)

// BaseMessage lets us route unknown JSON messages by type.
type BaseMessage struct {
	Type            string `json:"type"`
	ProtocolVersion string `json:"protocol_version,omitempty"`
}

func DecodeBase(b []byte) (BaseMessage, error) {
	var m BaseMessage
	err := json.Unmarshal(b, &m)
	return m, err
}

// DecodeClient parses an inbound frame into its typed message.
func DecodeClient(b []byte) (any, error) {
	base, err := DecodeBase(b)
	if err != nil {
		return nil, err
	}
	return DecodeAs(base.Type, b)
}

// DecodeAs parses b as the client message type typ.
func DecodeAs(typ string, b []byte) (any, error) {
	var msg any
	switch typ {
	case TypeStart:
		msg = &StartMsg{}
	case TypeCreateNode:
		msg = &CreateNodeMsg{}
	case TypeMorphNode:
		msg = &MorphNodeMsg{}
	case TypePing:
		msg = &PingMsg{}
	case TypeDebugInspect:
		msg = &DebugInspectMsg{}
	default:
		return nil, fmt.Errorf("unknown message type %q", typ)
	}
	if err := json.Unmarshal(b, msg); err != nil {
		return nil, fmt.Errorf("%s: %w", typ, err)
	}
	return msg, nil
}

// CommandMeta returns the type and client ref of a command message. PING and
// anything unrecognised yield an empty type.
func CommandMeta(msg any) (typ, ref string) {
	switch m := msg.(type) {
	case *StartMsg:
		return TypeStart, ""
	case *CreateNodeMsg:
		if m != nil {
			ref = m.Ref
		}
		return TypeCreateNode, ref
	case *MorphNodeMsg:
		if m != nil {
			ref = m.Ref
		}
		return TypeMorphNode, ref
	case *DebugInspectMsg:
		return TypeDebugInspect, ""
	default:
		return "", ""
	}
}
