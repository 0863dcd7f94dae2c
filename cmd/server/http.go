package main

import (
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net"
	"net/http"
	"net/http/pprof"
	"strings"

	"github.com/vicksonzero/shroom-io/internal/persistence/indexdb"
	"github.com/vicksonzero/shroom-io/internal/sim/game"
)

type handlerOptions struct {
	EnableAdmin bool
	EnablePprof bool
}

func registerHandlers(mux *http.ServeMux, g *game.Game, idx *indexdb.SQLiteIndex, opts handlerOptions, logger *log.Logger) {
	mux.HandleFunc("/healthz", func(rw http.ResponseWriter, r *http.Request) {
		rw.WriteHeader(200)
		_, _ = rw.Write([]byte("ok"))
	})
	mux.HandleFunc("/metrics", func(rw http.ResponseWriter, r *http.Request) {
		rw.Header().Set("Content-Type", "text/plain; version=0.0.4")
		writeMetrics(rw, g.Metrics(), idx.Stats(), idx != nil)
	})

	if opts.EnableAdmin {
		// Local-only admin endpoints (do not affect simulation determinism).
		mux.HandleFunc("/admin/v1/state", func(rw http.ResponseWriter, r *http.Request) {
			if !isLoopbackRemote(r.RemoteAddr) {
				http.Error(rw, "forbidden", http.StatusForbidden)
				return
			}
			rw.Header().Set("Content-Type", "application/json")
			resp := struct {
				Tick    int64          `json:"tick"`
				Metrics game.Metrics   `json:"metrics"`
				Index   *indexdb.Stats `json:"index,omitempty"`
			}{
				Tick:    g.CurrentTick(),
				Metrics: g.Metrics(),
			}
			if idx != nil {
				st := idx.Stats()
				resp.Index = &st
			}
			_ = json.NewEncoder(rw).Encode(resp)
		})
	} else {
		logger.Printf("admin endpoints disabled (SHROOM_ENABLE_ADMIN_HTTP=false)")
	}
	if opts.EnablePprof {
		mux.HandleFunc("/debug/pprof/", pprof.Index)
		mux.HandleFunc("/debug/pprof/cmdline", pprof.Cmdline)
		mux.HandleFunc("/debug/pprof/profile", pprof.Profile)
		mux.HandleFunc("/debug/pprof/symbol", pprof.Symbol)
		mux.HandleFunc("/debug/pprof/trace", pprof.Trace)
	} else {
		logger.Printf("pprof endpoints disabled (SHROOM_ENABLE_PPROF_HTTP=false)")
	}
}

// writeMetrics renders the minimal Prometheus exposition format.
func writeMetrics(w io.Writer, m game.Metrics, st indexdb.Stats, withIndex bool) {
	gauge := func(name, help string, v any) {
		fmt.Fprintf(w, "# HELP %s %s\n", name, help)
		fmt.Fprintf(w, "# TYPE %s gauge\n", name)
		fmt.Fprintf(w, "%s %v\n", name, v)
	}

	gauge("shroom_game_tick", "Current simulated time in milliseconds.", m.Tick)
	gauge("shroom_game_players", "Live players (humans and NPCs).", m.Players)
	gauge("shroom_game_humans", "Live human players.", m.Humans)
	gauge("shroom_game_nodes", "Live nodes including orphans.", m.Nodes)
	gauge("shroom_game_orphan_nodes", "Nodes without an owning player.", m.Orphans)
	gauge("shroom_game_resources", "Live resources.", m.Resources)
	gauge("shroom_game_sessions", "Connected websocket sessions.", m.Sessions)
	gauge("shroom_game_physics_bodies", "Bodies in the physics world.", m.PhysicsBodies)

	fmt.Fprintf(w, "# HELP shroom_game_contacts_total Begin contacts between players and players or nodes.\n")
	fmt.Fprintf(w, "# TYPE shroom_game_contacts_total counter\n")
	fmt.Fprintf(w, "shroom_game_contacts_total %d\n", m.ContactsTotal)

	fmt.Fprintf(w, "# HELP shroom_game_pending_effects Scheduled effects not yet resolved.\n")
	fmt.Fprintf(w, "# TYPE shroom_game_pending_effects gauge\n")
	fmt.Fprintf(w, "shroom_game_pending_effects{kind=%q} %d\n", "transfer", m.PendingTransfers)
	fmt.Fprintf(w, "shroom_game_pending_effects{kind=%q} %d\n", "bullet", m.PendingBullets)

	fmt.Fprintf(w, "# HELP shroom_game_queue_depth Channel backlog depth.\n")
	fmt.Fprintf(w, "# TYPE shroom_game_queue_depth gauge\n")
	fmt.Fprintf(w, "shroom_game_queue_depth{queue=%q} %d\n", "inbox", m.QueueDepths.Inbox)
	fmt.Fprintf(w, "shroom_game_queue_depth{queue=%q} %d\n", "connect", m.QueueDepths.Connect)
	fmt.Fprintf(w, "shroom_game_queue_depth{queue=%q} %d\n", "leave", m.QueueDepths.Leave)

	gauge("shroom_game_update_ms", "Duration of the last Update call in milliseconds.", fmt.Sprintf("%.3f", m.UpdateMS))
	gauge("shroom_game_update_steps", "Fixed steps run by the last Update call.", m.LastUpdateSteps)

	gauge("shroom_game_dropped_frames", "Outbound frames dropped for connected slow sessions.", m.DroppedFrames)

	if !withIndex {
		return
	}
	gauge("shroom_index_queue_depth", "SQLite index queue depth.", st.QueueDepth)
	fmt.Fprintf(w, "# HELP shroom_index_dropped_total Steps dropped because the index queue was full.\n")
	fmt.Fprintf(w, "# TYPE shroom_index_dropped_total counter\n")
	fmt.Fprintf(w, "shroom_index_dropped_total %d\n", st.DropTotal)
	fmt.Fprintf(w, "# HELP shroom_index_write_fail_total Failed index writes.\n")
	fmt.Fprintf(w, "# TYPE shroom_index_write_fail_total counter\n")
	fmt.Fprintf(w, "shroom_index_write_fail_total %d\n", st.WriteFailTotal)
}

func isLoopbackRemote(remoteAddr string) bool {
	host := remoteAddr
	if h, _, err := net.SplitHostPort(remoteAddr); err == nil {
		host = h
	}
	host = strings.TrimPrefix(host, "[")
	host = strings.TrimSuffix(host, "]")
	ip := net.ParseIP(host)
	return ip != nil && ip.IsLoopback()
}
