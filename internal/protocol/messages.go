package protocol

// START (client -> server): spawn or respawn the session's player.
type StartMsg struct {
	Type            string `json:"type"`
	ProtocolVersion string `json:"protocol_version,omitempty"`
	Name            string `json:"name"`
}

// CREATE_NODE (client -> server)
type CreateNodeMsg struct {
	Type            string  `json:"type"`
	ProtocolVersion string  `json:"protocol_version,omitempty"`
	Ref             string  `json:"ref,omitempty"`
	X               float64 `json:"x"`
	Y               float64 `json:"y"`
	PlayerEntityID  int     `json:"player_entity_id"`
	ParentNodeID    int     `json:"parent_node_id"`
}

// MORPH_NODE (client -> server)
type MorphNodeMsg struct {
	Type            string `json:"type"`
	ProtocolVersion string `json:"protocol_version,omitempty"`
	Ref             string `json:"ref,omitempty"`
	EntityID        int    `json:"entity_id"`
	ToNodeType      string `json:"to_node_type"`
}

// PING (client -> server), answered by the transport.
type PingMsg struct {
	Type string `json:"type"`
	ID   int64  `json:"id"`
}

// DEBUG_INSPECT (client -> server)
type DebugInspectMsg struct {
	Type string `json:"type"`
	Cmd  string `json:"cmd"`
}

// WELCOME (server -> client)
type WelcomeMsg struct {
	Type            string      `json:"type"`
	ProtocolVersion string      `json:"protocol_version"`
	SessionID       string      `json:"session_id"`
	WorldParams     WorldParams `json:"world_params"`
}

type WorldParams struct {
	FrameSizeMs      int     `json:"frame_size_ms"`
	Width            float64 `json:"width"`
	Height           float64 `json:"height"`
	VisibilityRadius float64 `json:"visibility_radius"`
	BuildRadiusMin   float64 `json:"build_radius_min"`
	BuildRadiusMax   float64 `json:"build_radius_max"`
	MiningDistance   float64 `json:"mining_distance"`
	ShootingDistance float64 `json:"shooting_distance"`
	BudCost          int     `json:"bud_cost"`
	ShooterCost      int     `json:"shooter_cost"`
	SwarmCost        int     `json:"swarm_cost"`
	ConverterCost    int     `json:"converter_cost"`
	Seed             int64   `json:"seed"`
}

// STATE (server -> client)
type StateMsg struct {
	Type            string          `json:"type"`
	ProtocolVersion string          `json:"protocol_version"`
	Tick            int64           `json:"tick"`
	IsFullState     bool            `json:"is_full_state"`
	PlayerStates    []PlayerState   `json:"player_states"`
	ResourceStates  []ResourceState `json:"resource_states"`
	OrphanNodes     []NodeState     `json:"orphan_nodes"`
}

type PlayerState struct {
	EID           int         `json:"eid"`
	X             float64     `json:"x"`
	Y             float64     `json:"y"`
	R             float64     `json:"r"`
	Name          string      `json:"name"`
	Hue           int         `json:"hue"`
	IsHuman       bool        `json:"is_human"`
	IsCtrl        bool        `json:"is_ctrl"`
	MineralAmount int         `json:"mineral_amount"`
	AmmoAmount    int         `json:"ammo_amount"`
	HP            int         `json:"hp"`
	MaxHP         int         `json:"max_hp"`
	Nodes         []NodeState `json:"nodes"`
}

type NodeState struct {
	EID            int     `json:"eid"`
	X              float64 `json:"x"`
	Y              float64 `json:"y"`
	R              float64 `json:"r"`
	NodeType       string  `json:"node_type"`
	HP             int     `json:"hp"`
	MaxHP          int     `json:"max_hp"`
	PlayerEntityID int     `json:"player_entity_id"`
	ParentNodeID   int     `json:"parent_node_id"`
	BirthTick      int64   `json:"birth_tick"`
	TargetID       int     `json:"target_id"`
}

type ResourceState struct {
	EID           int     `json:"eid"`
	X             float64 `json:"x"`
	Y             float64 `json:"y"`
	R             float64 `json:"r"`
	MineralAmount int     `json:"mineral_amount"`
	AmmoAmount    int     `json:"ammo_amount"`
}

// NODE_KILLED (server -> client): every entity removed in one cleanup pass.
type NodeKilledMsg struct {
	Type            string `json:"type"`
	ProtocolVersion string `json:"protocol_version"`
	Tick            int64  `json:"tick"`
	EntityList      []int  `json:"entity_list"`
}

// TOGGLE_SHOOTING (server -> client)
type ToggleShootingMsg struct {
	Type            string      `json:"type"`
	ProtocolVersion string      `json:"protocol_version"`
	Tick            int64       `json:"tick"`
	Bullet          BulletState `json:"bullet"`
}

type BulletState struct {
	EID           int   `json:"eid"`
	FromEID       int   `json:"from_eid"`
	ToEID         int   `json:"to_eid"`
	Damage        int   `json:"damage"`
	FromFixedTime int64 `json:"from_fixed_time"`
	TimeLength    int64 `json:"time_length"`
}

// PONG (server -> client)
type PongMsg struct {
	Type            string `json:"type"`
	ProtocolVersion string `json:"protocol_version"`
	PingID          int64  `json:"ping_id"`
	ServerTimestamp int64  `json:"server_timestamp"`
}

// PLAYER_DISCONNECTED (server -> client)
type PlayerDisconnectedMsg struct {
	Type            string `json:"type"`
	ProtocolVersion string `json:"protocol_version"`
	PlayerID        int    `json:"player_id"`
}

// DEBUG_INSPECT_RETURN (server -> client)
type DebugInspectReturnMsg struct {
	Type            string `json:"type"`
	ProtocolVersion string `json:"protocol_version"`
	Msg             string `json:"msg"`
	Data            any    `json:"data,omitempty"`
}

// COMMAND_REJECTED (server -> client): a build or morph left the world unchanged.
type CommandRejectedMsg struct {
	Type            string `json:"type"`
	ProtocolVersion string `json:"protocol_version"`
	Ref             string `json:"ref,omitempty"`
	Command         string `json:"command"`
	Code            string `json:"code"`
	Message         string `json:"message,omitempty"`
	Tick            int64  `json:"tick"`
}
