package effects

// Transfer is mined material travelling from a resource to a node.
type Transfer struct {
	ID        int   `json:"eid"`
	FromID    int   `json:"from_eid"`
	ToID      int   `json:"to_eid"`
	Mineral   int   `json:"mineral"`
	Ammo      int   `json:"ammo"`
	StartTick int64 `json:"from_fixed_time"`
	Duration  int64 `json:"time_length"`
}

func (t Transfer) ArrivalTick() int64 { return t.StartTick + t.Duration }

// Touches reports whether the transfer must be dropped when id is removed.
// The source is not checked: its material already left when the transfer started.
func (t Transfer) Touches(id int) bool { return t.ToID == id }

type Bullet struct {
	ID        int   `json:"eid"`
	FromID    int   `json:"from_eid"`
	ToID      int   `json:"to_eid"`
	Damage    int   `json:"damage"`
	StartTick int64 `json:"from_fixed_time"`
	FlyTime   int64 `json:"time_length"`
}

func (b Bullet) ArrivalTick() int64 { return b.StartTick + b.FlyTime }

func (b Bullet) Touches(id int) bool { return b.FromID == id || b.ToID == id }
