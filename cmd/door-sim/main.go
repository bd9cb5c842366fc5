package main

import (
	"context"
	"embed"
	"encoding/json"
	"errors"
	"io/fs"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/zyedidia/generic/mapset"

	"go-elevator-door-simulator/pkg/manager"
	"go-elevator-door-simulator/pkg/scene"
	"go-elevator-door-simulator/pkg/sim"
)

//go:embed static/*
var staticFiles embed.FS

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true // Allow all origins for development
	},
}

// ClientMessage is a manager service call sent by the browser.
// ClientMessage는 브라우저가 보낸 매니저 서비스 호출입니다.
type ClientMessage struct {
	Action       string   `json:"action"`
	Group        string   `json:"group,omitempty"`
	Floor        int      `json:"floor,omitempty"`
	Open         bool     `json:"open,omitempty"`
	Speed        float32  `json:"speed,omitempty"`
	Force        float32  `json:"force,omitempty"`
	Type         string   `json:"type,omitempty"`
	Units        []uint32 `json:"units,omitempty"`
	Elevator     string   `json:"elevator,omitempty"`
	MinFloor     int      `json:"minFloor,omitempty"`
	MaxFloor     int      `json:"maxFloor,omitempty"`
	LinX         float64  `json:"linX,omitempty"`
	LinY         float64  `json:"linY,omitempty"`
	AngZ         float64  `json:"angZ,omitempty"`
	Inaccessible []int    `json:"inaccessibleFloors,omitempty"`
}

// ServerMessage is pushed to every connected browser.
type ServerMessage struct {
	Type      string      `json:"type"`
	Action    string      `json:"action,omitempty"`
	Error     string      `json:"error,omitempty"`
	Payload   interface{} `json:"payload,omitempty"`
	Timestamp string      `json:"timestamp,omitempty"`
}

// Session manages one WebSocket connection.
// Session은 하나의 WebSocket 연결을 관리합니다.
type Session struct {
	conn *websocket.Conn
	sim  *sim.Simulator
	mu   sync.Mutex // serializes writes
}

func (s *Session) HandleMessages(h *Hub) {
	slog.Info("Session started", "remote_addr", s.conn.RemoteAddr())
	h.add(s)
	defer func() {
		h.remove(s)
		_ = s.conn.Close()
		slog.Info("Session ended", "remote_addr", s.conn.RemoteAddr())
	}()

	if snap, err := s.sim.Snapshot(); err == nil {
		s.writeJSON(ServerMessage{Type: "state", Payload: snap})
	}

	for {
		_, message, err := s.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				slog.Error("WebSocket read error", "error", err)
			}
			return
		}

		var msg ClientMessage
		if err := json.Unmarshal(message, &msg); err != nil {
			slog.Warn("Failed to parse message", "error", err)
			continue
		}

		s.handleAction(msg)
	}
}

func (s *Session) handleAction(msg ClientMessage) {
	slog.Debug("Action received", "action", msg.Action, "payload", msg)

	mgr := s.sim.Manager()
	var err error
	switch msg.Action {
	case "targetFloor":
		err = mgr.TargetFloor(msg.Group, int32(msg.Floor))
	case "addCall":
		err = mgr.AddCall(msg.Group, msg.Floor)
	case "openCloseDoors":
		err = mgr.OpenCloseElevatorDoors(msg.Group, msg.Open)
	case "releaseDoors":
		err = mgr.ReleaseElevatorDoors(msg.Group)
	case "setProps":
		err = mgr.SetElevatorProps(msg.Group, msg.Speed, msg.Force)
	case "openCloseGroupDoors":
		err = mgr.OpenCloseDoors(msg.Group, msg.Open)
	case "setDoorVel":
		err = mgr.SetDoorVelocity(msg.Group, msg.LinX, msg.LinY, msg.AngZ)
	case "addGroup":
		err = mgr.AddGroup(manager.GroupSpec{
			Name:        msg.Group,
			Type:        msg.Type,
			ActiveUnits: msg.Units,
			Elevator:    msg.Elevator,
			MinFloor:    msg.MinFloor,
			MaxFloor:    msg.MaxFloor,

			InaccessibleFloors: msg.Inaccessible,
		})
	case "deleteGroup":
		err = mgr.DeleteGroup(msg.Group)
	case "activate":
		err = mgr.Activate(msg.Group)
	case "listGroups":
		s.writeJSON(ServerMessage{Type: "groups", Payload: mgr.Groups()})
		return
	case "getState":
		snap, serr := s.sim.Snapshot()
		if serr != nil {
			err = serr
			break
		}
		s.writeJSON(ServerMessage{Type: "state", Payload: snap})
		return
	default:
		err = errors.New("unknown action")
	}

	if err != nil {
		slog.Warn("Action failed", "action", msg.Action, "group", msg.Group, "error", err)
		s.writeJSON(ServerMessage{Type: "error", Action: msg.Action, Error: err.Error()})
		return
	}
	s.writeJSON(ServerMessage{Type: "ack", Action: msg.Action})
}

func (s *Session) writeJSON(msg ServerMessage) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.conn.WriteJSON(msg); err != nil {
		slog.Error("Failed to write JSON message", "error", err)
	}
}

// Hub fans simulator events out to every session.
// Hub는 시뮬레이터 이벤트를 모든 세션에 전달합니다.
type Hub struct {
	mu       sync.Mutex
	sessions mapset.Set[*Session]
}

func NewHub() *Hub {
	return &Hub{sessions: mapset.New[*Session]()}
}

func (h *Hub) add(s *Session) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.sessions.Put(s)
}

func (h *Hub) remove(s *Session) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.sessions.Remove(s)
}

func (h *Hub) broadcast(msg ServerMessage) {
	h.mu.Lock()
	targets := make([]*Session, 0, h.sessions.Size())
	h.sessions.Each(func(s *Session) {
		targets = append(targets, s)
	})
	h.mu.Unlock()

	for _, s := range targets {
		s.writeJSON(msg)
	}
}

// Forward relays simulator events until ctx ends.
func (h *Hub) Forward(ctx context.Context, events <-chan sim.Event) {
	for {
		select {
		case <-ctx.Done():
			return
		case ev := <-events:
			h.broadcast(ServerMessage{
				Type:      string(ev.Type),
				Payload:   ev.Payload,
				Timestamp: ev.Timestamp.Format("15:04:05.000"),
			})
		}
	}
}

type AppConfig struct {
	Port          string
	SceneFile     string
	TickRate      time.Duration
	SnapshotEvery int
}

func loadConfig() *AppConfig {
	cfg := &AppConfig{
		Port:          "8080",
		SceneFile:     "scenes/default.yaml",
		TickRate:      20 * time.Millisecond,
		SnapshotEvery: 5,
	}
	if port := os.Getenv("PORT"); port != "" {
		cfg.Port = port
	}
	if f := os.Getenv("SCENE_FILE"); f != "" {
		cfg.SceneFile = f
	}
	if v := os.Getenv("TICK_RATE"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil || d <= 0 {
			slog.Warn("Invalid TICK_RATE, using default", "value", v, "default", cfg.TickRate)
		} else {
			cfg.TickRate = d
		}
	}
	if v := os.Getenv("SNAPSHOT_EVERY"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			slog.Warn("Invalid SNAPSHOT_EVERY, using default", "value", v, "default", cfg.SnapshotEvery)
		} else {
			cfg.SnapshotEvery = n
		}
	}
	return cfg
}

func main() {
	cfg := loadConfig()

	sc, err := scene.Load(cfg.SceneFile)
	if err != nil {
		slog.Error("Failed to load scene", "file", cfg.SceneFile, "error", err)
		os.Exit(1)
	}

	simulator, err := sim.New(sc, sim.Config{
		TickRate:      cfg.TickRate,
		SnapshotEvery: cfg.SnapshotEvery,
	}, slog.Default())
	if err != nil {
		// Missing required plugin configuration is fatal.
		slog.Error("Failed to initialize simulator", "error", err)
		os.Exit(1)
	}
	defer simulator.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	hub := NewHub()
	go hub.Forward(ctx, simulator.Events())
	go func() {
		if err := simulator.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			slog.Error("Simulator run error", "error", err)
		}
	}()

	// Serve static files from embedded filesystem
	staticFS, err := fs.Sub(staticFiles, "static")
	if err != nil {
		log.Fatal(err)
	}

	mux := http.NewServeMux()
	mux.Handle("/", http.FileServer(http.FS(staticFS)))
	mux.HandleFunc("/ws", func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			slog.Error("WebSocket upgrade failed", "error", err)
			return
		}
		session := &Session{conn: conn, sim: simulator}
		session.HandleMessages(hub)
	})

	addr := ":" + cfg.Port
	srv := &http.Server{Addr: addr, Handler: mux}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	slog.Info("Starting door simulator web server", "addr", addr, "scene", sc.Name)
	slog.Info("Open http://localhost:" + cfg.Port + " in your browser")

	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Fatal(err)
	}
}
