package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"math"
	"math/rand/v2"
	"os"
	"os/signal"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/vicksonzero/shroom-io/internal/protocol"
)

func main() {
	var (
		url  = flag.String("url", "ws://localhost:3000/v1/ws", "ws url")
		name = flag.String("name", "bot", "player name")
	)
	flag.Parse()

	logger := log.New(os.Stdout, "[bot] ", log.LstdFlags|log.Lmicroseconds)
	conn, _, err := websocket.DefaultDialer.Dial(*url, nil)
	if err != nil {
		logger.Fatalf("dial: %v", err)
	}
	defer conn.Close()

	b := &bot{conn: conn, log: logger, rng: rand.New(rand.NewPCG(uint64(time.Now().UnixNano()), 1))}
	if err := b.send(protocol.StartMsg{Type: protocol.TypeStart, ProtocolVersion: protocol.Version, Name: *name}); err != nil {
		logger.Fatalf("send START: %v", err)
	}

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt)
	done := make(chan struct{})
	go func() {
		<-stop
		_ = conn.Close()
		close(done)
	}()
	go b.pingLoop(done)

	for {
		_, msg, err := conn.ReadMessage()
		if err != nil {
			return
		}
		base, err := protocol.DecodeBase(msg)
		if err != nil {
			continue
		}
		switch base.Type {
		case protocol.TypeWelcome:
			var w protocol.WelcomeMsg
			if err := json.Unmarshal(msg, &w); err != nil {
				continue
			}
			b.params = w.WorldParams
			logger.Printf("WELCOME session=%s frame=%dms seed=%d", w.SessionID, w.WorldParams.FrameSizeMs, w.WorldParams.Seed)

		case protocol.TypeState:
			var st protocol.StateMsg
			if err := json.Unmarshal(msg, &st); err != nil {
				continue
			}
			b.handleState(&st)

		case protocol.TypePong:
			var p protocol.PongMsg
			if err := json.Unmarshal(msg, &p); err != nil {
				continue
			}
			logger.Printf("PONG rtt=%dms", time.Now().UnixMilli()-p.PingID)

		case protocol.TypeCommandRejected:
			var r protocol.CommandRejectedMsg
			if err := json.Unmarshal(msg, &r); err != nil {
				continue
			}
			logger.Printf("rejected %s ref=%s: %s %s", r.Command, r.Ref, r.Code, r.Message)

		case protocol.TypeNodeKilled:
			var k protocol.NodeKilledMsg
			if err := json.Unmarshal(msg, &k); err != nil {
				continue
			}
			logger.Printf("NODE_KILLED tick=%d entities=%v", k.Tick, k.EntityList)
		}
	}
}

type bot struct {
	conn   *websocket.Conn
	log    *log.Logger
	rng    *rand.Rand
	params protocol.WorldParams

	mu      sync.Mutex
	nextAct int64
	seq     int
}

func (b *bot) send(v any) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.conn.WriteJSON(v)
}

func (b *bot) pingLoop(done <-chan struct{}) {
	t := time.NewTicker(time.Second)
	defer t.Stop()
	for {
		select {
		case <-done:
			return
		case <-t.C:
			// The ping id doubles as the send time for RTT.
			_ = b.send(protocol.PingMsg{Type: protocol.TypePing, ID: time.Now().UnixMilli()})
		}
	}
}

// handleState builds a bud off a random structure about once a second and
// arms the oldest bud when minerals allow.
func (b *bot) handleState(st *protocol.StateMsg) {
	if st.Tick < b.nextAct {
		return
	}
	b.nextAct = st.Tick + 1000

	var me *protocol.PlayerState
	for i := range st.PlayerStates {
		if st.PlayerStates[i].IsCtrl {
			me = &st.PlayerStates[i]
			break
		}
	}
	if me == nil {
		return
	}

	if me.MineralAmount >= b.params.ShooterCost && b.params.ShooterCost > 0 {
		for _, n := range me.Nodes {
			if n.NodeType == "bud" {
				b.seq++
				_ = b.send(protocol.MorphNodeMsg{
					Type:       protocol.TypeMorphNode,
					Ref:        fmt.Sprintf("m%d", b.seq),
					EntityID:   n.EID,
					ToNodeType: "shooter",
				})
				return
			}
		}
	}

	parentX, parentY := me.X, me.Y
	parentID := me.EID
	if k := len(me.Nodes); k > 0 && b.rng.IntN(2) == 0 {
		n := me.Nodes[b.rng.IntN(k)]
		parentX, parentY = n.X, n.Y
		parentID = n.EID
	}
	dist := b.params.BuildRadiusMin + b.rng.Float64()*(b.params.BuildRadiusMax-b.params.BuildRadiusMin)
	ang := b.rng.Float64() * 2 * math.Pi
	b.seq++
	_ = b.send(protocol.CreateNodeMsg{
		Type:           protocol.TypeCreateNode,
		Ref:            fmt.Sprintf("c%d", b.seq),
		X:              parentX + math.Cos(ang)*dist,
		Y:              parentY + math.Sin(ang)*dist,
		PlayerEntityID: me.EID,
		ParentNodeID:   parentID,
	})
}
