// Package viewer streams the state of the bot to web clients over a websocket.
package viewer

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"
	"github.com/tedious-mc/tedious/inventory"
)

// Slot is a non-empty inventory slot.
type Slot struct {
	Slot      int     `json:"slot"`
	Name      string  `json:"name"`
	Count     int     `json:"count"`
	Remaining float64 `json:"remaining"`
}

// Snapshot is the state of the bot sent to viewers.
type Snapshot struct {
	Time      time.Time  `json:"time"`
	Connected bool       `json:"connected"`
	Username  string     `json:"username,omitempty"`
	Pos       [3]float64 `json:"pos"`
	Health    float64    `json:"health"`
	Food      float64    `json:"food"`
	XPLevel   int        `json:"xp_level"`
	Working   bool       `json:"working"`
	Actions   []string   `json:"actions"`
	HeldSlot  int        `json:"held_slot"`
	Inventory []Slot     `json:"inventory"`
	// Attempts is the number of reconnection attempts since the last successful spawn.
	Attempts int `json:"attempts"`
}

// Slots returns the non-empty slots of the inventory passed.
func Slots(inv *inventory.Inventory) []Slot {
	var slots []Slot
	for i, s := range inv.Slots() {
		if s.Empty() {
			continue
		}
		slots = append(slots, Slot{Slot: i, Name: s.Name, Count: s.Count, Remaining: s.RemainingFraction()})
	}
	return slots
}

// Source provides the snapshots streamed.
type Source interface {
	Snapshot() Snapshot
}

// Server serves snapshots of a Source. /ws streams one snapshot per interval, /snapshot returns the
// current one.
type Server struct {
	src      Source
	interval time.Duration
	log      *logrus.Entry

	upgrader websocket.Upgrader
}

// New creates a Server sending a snapshot every second.
func New(src Source, log *logrus.Logger) *Server {
	return &Server{
		src:      src,
		interval: time.Second,
		log:      log.WithField("component", "viewer"),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 16 * 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
	}
}

// Handler returns the HTTP handler of the viewer.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/ws", s.stream)
	mux.HandleFunc("/snapshot", s.snapshot)
	return mux
}

// ListenAndServe serves the viewer on addr until the context is done.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{Addr: addr, Handler: s.Handler(), ReadHeaderTimeout: time.Second * 5}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Second*5)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	s.log.Infof("viewer listening on http://%s/ws", addr)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) snapshot(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(s.src.Snapshot()); err != nil {
		s.log.Debugf("failed to write snapshot: %v", err)
	}
}

func (s *Server) stream(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.log.Debugf("upgrade failed: %v", err)
		return
	}
	defer conn.Close()

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	// Reader loop: viewers do not send anything, but reading notices when they leave.
	go func() {
		defer cancel()
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	t := time.NewTicker(s.interval)
	defer t.Stop()
	for {
		_ = conn.SetWriteDeadline(time.Now().Add(5 * time.Second))
		if err := conn.WriteJSON(s.src.Snapshot()); err != nil {
			s.log.Debugf("viewer left: %v", err)
			return
		}
		select {
		case <-ctx.Done():
			_ = conn.WriteControl(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, "bye"), time.Now().Add(time.Second))
			return
		case <-t.C:
		}
	}
}
