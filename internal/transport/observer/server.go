package observer

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net"
	"net/http"
	"sort"
	"strings"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"

	"wayblazer.ai/internal/observerproto"
	"wayblazer.ai/internal/sim/world"
	"wayblazer.ai/internal/sim/world/io/obscodec"
	"wayblazer.ai/internal/sim/world/logic/mathx"
	"wayblazer.ai/internal/sim/world/terrain/decor"
	"wayblazer.ai/internal/sim/world/terrain/store"
	"wayblazer.ai/internal/sim/world/terrain/tiles"
)

// Server streams a finished world to external renderers.
type Server struct {
	world   *world.World
	runID   string
	chunks  *store.ChunkStore
	byChunk map[store.ChunkKey][]decor.Placement
	log     *log.Logger

	upgrader websocket.Upgrader
	nextID   atomic.Uint64
}

func NewServer(w *world.World, runID string, logger *log.Logger) *Server {
	s := &Server{
		world:   w,
		runID:   runID,
		chunks:  store.FromGrid(w.Tiles),
		byChunk: map[store.ChunkKey][]decor.Placement{},
		log:     logger,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  16 * 1024,
			WriteBufferSize: 64 * 1024,
			CheckOrigin:     func(r *http.Request) bool { return true }, // dev default
		},
	}
	for _, p := range w.Decorations {
		k := store.ChunkKey{CX: mathx.FloorDiv(p.X, store.ChunkSize), CY: mathx.FloorDiv(p.Y, store.ChunkSize)}
		s.byChunk[k] = append(s.byChunk[k], p)
	}
	return s
}

// Handler serves the bootstrap document and the websocket stream.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/observer/bootstrap", s.BootstrapHandler())
	mux.HandleFunc("/observer/ws", s.WSHandler())
	return mux
}

func (s *Server) BootstrapHandler() http.HandlerFunc {
	return func(rw http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			rw.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		if !isLoopbackRemote(r.RemoteAddr) {
			http.Error(rw, "forbidden", http.StatusForbidden)
			return
		}

		palette := tiles.Palette()
		entries := make([]observerproto.PaletteEntry, 0, len(palette))
		for _, p := range palette {
			entries = append(entries, observerproto.PaletteEntry{ID: uint16(p.ID), Biome: p.Biome, Color: p.Color})
		}
		w := s.world
		resp := observerproto.BootstrapResponse{
			ProtocolVersion: observerproto.Version,
			RunID:           s.runID,
			WorldParams: observerproto.WorldParams{
				Width:      w.Biomes.Width(),
				Height:     w.Biomes.Height(),
				Factor:     w.Config.TileExpansionFactor,
				TileWidth:  w.Tiles.W,
				TileHeight: w.Tiles.H,
				ChunkSize:  [2]int{store.ChunkSize, store.ChunkSize},
				Seed:       w.Seed,
				Digest:     w.Digest(),
				Strategy:   w.Strategy,
			},
			TilePalette: entries,
		}

		rw.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(rw).Encode(resp)
	}
}

func (s *Server) WSHandler() http.HandlerFunc {
	return func(rw http.ResponseWriter, r *http.Request) {
		if !isLoopbackRemote(r.RemoteAddr) {
			http.Error(rw, "forbidden", http.StatusForbidden)
			return
		}

		conn, err := s.upgrader.Upgrade(rw, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()

		// Handshake: must send SUBSCRIBE first.
		_ = conn.SetReadDeadline(time.Now().Add(5 * time.Second))
		_, msg, err := conn.ReadMessage()
		if err != nil {
			return
		}
		sub, ok := parseSubscribe(msg)
		if !ok {
			_ = conn.WriteControl(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.ClosePolicyViolation, "expected SUBSCRIBE"), time.Now().Add(time.Second))
			return
		}

		sid := fmt.Sprintf("O%d", s.nextID.Add(1))
		if s.log != nil {
			s.log.Printf("observer %s: subscribed from %s", sid, r.RemoteAddr)
		}

		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()
		out := make(chan []byte, 256)

		// Writer goroutine.
		writeErr := make(chan error, 1)
		go func() {
			for {
				select {
				case <-ctx.Done():
					writeErr <- ctx.Err()
					return
				case b := <-out:
					_ = conn.SetWriteDeadline(time.Now().Add(5 * time.Second))
					if err := conn.WriteMessage(websocket.TextMessage, b); err != nil {
						writeErr <- err
						cancel()
						return
					}
				}
			}
		}()

		sess := &session{srv: s, ctx: ctx, out: out, sent: map[store.ChunkKey]bool{}}
		sess.sync(sub)

		// Reader loop: allow SUBSCRIBE updates.
		for ctx.Err() == nil {
			_ = conn.SetReadDeadline(time.Now().Add(60 * time.Second))
			_, msg, err := conn.ReadMessage()
			if err != nil {
				break
			}
			if sub, ok := parseSubscribe(msg); ok {
				sess.sync(sub)
			}
		}

		cancel()
		_ = conn.WriteControl(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, "bye"), time.Now().Add(time.Second))
		if s.log != nil {
			s.log.Printf("observer %s: closed (%d chunks sent)", sid, len(sess.sent))
		}

		// Best-effort wait for the writer to stop so it doesn't outlive conn.
		select {
		case <-writeErr:
		case <-time.After(500 * time.Millisecond):
		}
	}
}

type session struct {
	srv  *Server
	ctx  context.Context
	out  chan<- []byte
	sent map[store.ChunkKey]bool
}

func (ss *session) send(v any) bool {
	b, err := json.Marshal(v)
	if err != nil {
		return false
	}
	select {
	case ss.out <- b:
		return true
	case <-ss.ctx.Done():
		return false
	}
}

// sync moves the session window: chunks that left it are evicted, new ones are sent
// nearest first.
func (ss *session) sync(sub observerproto.SubscribeMsg) {
	window := ss.srv.window(sub)
	in := make(map[store.ChunkKey]bool, len(window))
	for _, k := range window {
		in[k] = true
	}

	evict := make([]store.ChunkKey, 0)
	for k := range ss.sent {
		if !in[k] {
			evict = append(evict, k)
		}
	}
	sortKeys(evict)
	for _, k := range evict {
		if !ss.send(observerproto.ChunkEvictMsg{Type: "CHUNK_EVICT", ProtocolVersion: observerproto.Version, CX: k.CX, CY: k.CY}) {
			return
		}
		delete(ss.sent, k)
	}

	chunks, placements := 0, 0
	for _, k := range window {
		if ss.sent[k] {
			continue
		}
		ch := ss.srv.chunks.Chunks[k]
		ids := make([]uint16, len(ch.Tiles))
		for i, id := range ch.Tiles {
			ids[i] = uint16(id)
		}
		if !ss.send(observerproto.ChunkTilesMsg{
			Type:            "CHUNK_TILES",
			ProtocolVersion: observerproto.Version,
			CX:              k.CX,
			CY:              k.CY,
			Encoding:        obscodec.EncodingU16LE,
			Data:            obscodec.EncodeU16LE(ids),
		}) {
			return
		}
		ss.sent[k] = true
		chunks++

		ps := ss.srv.byChunk[k]
		if !sub.Placements || len(ps) == 0 {
			continue
		}
		infos := make([]observerproto.PlacementInfo, 0, len(ps))
		for _, p := range ps {
			info := observerproto.PlacementInfo{X: p.X, Y: p.Y, Type: p.Type.String(), Variant: p.Variant}
			if p.Resource != nil {
				info.Resource = p.Resource.Name
				info.Amount = p.Resource.Amount
			}
			infos = append(infos, info)
		}
		if !ss.send(observerproto.PlacementsMsg{Type: "PLACEMENTS", ProtocolVersion: observerproto.Version, CX: k.CX, CY: k.CY, Placements: infos}) {
			return
		}
		placements += len(infos)
	}

	ss.send(observerproto.SyncedMsg{Type: "SYNCED", ProtocolVersion: observerproto.Version, Chunks: chunks, Placements: placements})
}

// window lists the chunks within ChunkRadius of the centre chunk, nearest first,
// capped at MaxChunks.
func (s *Server) window(sub observerproto.SubscribeMsg) []store.ChunkKey {
	cx, cy := s.world.Tiles.W/2, s.world.Tiles.H/2
	if sub.Center != nil {
		cx, cy = sub.Center[0], sub.Center[1]
	}
	ccx, ccy := mathx.FloorDiv(cx, store.ChunkSize), mathx.FloorDiv(cy, store.ChunkSize)

	var keys []store.ChunkKey
	for _, k := range s.chunks.Keys() {
		if mathx.AbsInt(k.CX-ccx) <= sub.ChunkRadius && mathx.AbsInt(k.CY-ccy) <= sub.ChunkRadius {
			keys = append(keys, k)
		}
	}
	dist := func(k store.ChunkKey) int {
		dx, dy := k.CX-ccx, k.CY-ccy
		return dx*dx + dy*dy
	}
	sort.SliceStable(keys, func(i, j int) bool { return dist(keys[i]) < dist(keys[j]) })
	if len(keys) > sub.MaxChunks {
		keys = keys[:sub.MaxChunks]
	}
	return keys
}

func sortKeys(keys []store.ChunkKey) {
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].CY != keys[j].CY {
			return keys[i].CY < keys[j].CY
		}
		return keys[i].CX < keys[j].CX
	})
}

func parseSubscribe(msg []byte) (observerproto.SubscribeMsg, bool) {
	var sub observerproto.SubscribeMsg
	if err := json.Unmarshal(msg, &sub); err != nil {
		return sub, false
	}
	if sub.Type != "SUBSCRIBE" || sub.ProtocolVersion != observerproto.Version {
		return sub, false
	}
	normalizeSubscribe(&sub)
	return sub, true
}

func normalizeSubscribe(sub *observerproto.SubscribeMsg) {
	if sub.ChunkRadius < 0 {
		sub.ChunkRadius = 0
	}
	if sub.ChunkRadius == 0 && sub.Center == nil {
		sub.ChunkRadius = 6
	}
	if sub.ChunkRadius > 32 {
		sub.ChunkRadius = 32
	}
	if sub.MaxChunks <= 0 {
		sub.MaxChunks = 1024
	}
	if sub.MaxChunks > 16384 {
		sub.MaxChunks = 16384
	}
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
