package server

import (
	"encoding/json"
	"net/http"
	"net/rpc"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/Jbruinsma/UNO/game"
	"github.com/Jbruinsma/UNO/logger"
	"github.com/Jbruinsma/UNO/monitor"
	"github.com/Jbruinsma/UNO/network"
	"github.com/Jbruinsma/UNO/persistence"
	"github.com/Jbruinsma/UNO/registry"
	uno_rpc "github.com/Jbruinsma/UNO/rpc"
	"github.com/Jbruinsma/UNO/services"
	"github.com/Jbruinsma/UNO/timer"
	"github.com/Jbruinsma/UNO/view"
)

type GameServer struct {
	addr      string
	upgrader  websocket.Upgrader
	registry  *registry.Registry
	store     *game.Store
	projector *view.Projector
	stats     *services.StatsService
	monitor   *monitor.Monitor
	timers    *timer.Manager
	rpcServer *uno_rpc.Server

	turnTimers map[string]int64 // room ID -> pending timer task
	timerMutex sync.Mutex

	shutdownChan chan struct{}
}

func NewGameServer(addr, rpcAddr, metricsAddr string, db persistence.Database) *GameServer {
	s := &GameServer{
		addr:         addr,
		registry:     registry.NewRegistry(),
		store:        game.NewStore(),
		stats:        services.NewStatsService(db),
		monitor:      monitor.NewMonitor("uno"),
		timers:       timer.NewManager(),
		turnTimers:   make(map[string]int64),
		shutdownChan: make(chan struct{}),
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				return true // allow all origins
			},
		},
	}

	s.projector = view.NewProjector(s.registry)

	rpcServer, err := uno_rpc.NewServer(rpcAddr)
	if err != nil {
		logger.Log.Fatalf("Failed to create RPC server: %v", err)
	}
	s.rpcServer = rpcServer
	rpc.Register(uno_rpc.NewAdminService(s.store, s.stats))

	if metricsAddr != "" {
		s.monitor.StartServer(metricsAddr)
	}

	return s
}

func (s *GameServer) Start() error {
	go s.rpcServer.Start()

	http.HandleFunc("/ws", s.handleWebSocket)
	logger.Log.Infof("Game server listening on %s", s.addr)
	return http.ListenAndServe(s.addr, nil)
}

func (s *GameServer) Shutdown() {
	close(s.shutdownChan)
	s.timers.Stop()
	s.rpcServer.Stop()
}

func (s *GameServer) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	// Authentication is an external collaborator: by the time a request
	// reaches us, the edge has resolved the user. We take the identity from
	// the query and mint one for anonymous connections.
	userID := r.URL.Query().Get("user_id")
	if userID == "" {
		userID = uuid.New().String()
	}
	name := r.URL.Query().Get("name")
	if name == "" {
		name = "Player-" + userID[:8]
	}

	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		logger.Log.Infof("Failed to upgrade connection: %v", err)
		return
	}
	s.handleConnection(network.NewWSConnection(conn), userID, name)
}

func (s *GameServer) handleConnection(conn network.Connection, userID, name string) {
	s.registry.Register(conn, userID)
	s.monitor.IncOnlinePlayers()

	logger.Log.Infof("New connection from %s, user %s (%s)", conn.RemoteAddr(), userID, name)

	// Room context for the dispatch switch. Membership outlives the socket,
	// so a reconnect resumes the room the player was already in.
	currentGameID := ""
	if roomID, ok := s.store.RoomOf(userID); ok {
		currentGameID = roomID
	}

	defer func() {
		logger.Log.Infof("Connection closed for user %s", userID)
		s.monitor.DecOnlinePlayers()
		s.cleanupDisconnect(conn, name)
	}()

	s.sendEvent(userID, map[string]interface{}{
		"event":   "system",
		"message": "Welcome " + name + ". Connection Established.",
	})
	s.sendLobbyTo(userID)

	for {
		select {
		case <-s.shutdownChan:
			return
		default:
			data, err := conn.ReadText()
			if err != nil {
				return
			}
			started := time.Now()
			s.monitor.IncMessagesReceived()
			s.handleMessage(userID, name, data, &currentGameID)
			s.monitor.ObserveMessageLatency(time.Since(started))
		}
	}
}

// cleanupDisconnect makes a disconnect an implicit leave, even when the read
// loop dies on an error. The room is derived from the store, not from
// connection-local state, so cleanup holds across reconnects; a superseded
// socket unregisters as a no-op and leaves the player's membership alone.
func (s *GameServer) cleanupDisconnect(conn network.Connection, name string) {
	if leftID, ok := s.registry.Unregister(conn); ok {
		if roomID, found := s.store.RoomOf(leftID); found {
			s.leaveGame(roomID, leftID, name)
		}
	}
	conn.Close()
}

// sendEvent marshals and delivers one event to one user, best effort.
func (s *GameServer) sendEvent(userID string, event interface{}) {
	payload, err := json.Marshal(event)
	if err != nil {
		logger.Log.Errorf("Failed to marshal event: %v", err)
		return
	}
	s.registry.Send(userID, payload)
}

// sendError surfaces a structural failure to the acting player only.
func (s *GameServer) sendError(userID string, err error) {
	s.sendEvent(userID, map[string]interface{}{
		"event":   "error",
		"message": err.Error(),
	})
}

func (s *GameServer) lobbyPayload() map[string]interface{} {
	return map[string]interface{}{
		"event": "lobby_update",
		"games": s.store.Summaries(),
	}
}

func (s *GameServer) sendLobbyTo(userID string) {
	s.sendEvent(userID, s.lobbyPayload())
}

// broadcastLobby pushes the room list to everyone connected.
func (s *GameServer) broadcastLobby() {
	s.monitor.SetActiveRooms(s.store.Count())
	payload, err := json.Marshal(s.lobbyPayload())
	if err != nil {
		logger.Log.Errorf("Failed to marshal lobby update: %v", err)
		return
	}
	s.registry.Broadcast(payload)
}
