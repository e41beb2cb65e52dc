package rpc

import (
	"net"
	"net/rpc"

	"github.com/Jbruinsma/UNO/game"
	"github.com/Jbruinsma/UNO/logger"
	"github.com/Jbruinsma/UNO/persistence"
	"github.com/Jbruinsma/UNO/services"
)

// Server manages the RPC listener used by ops tooling.
type Server struct {
	listener net.Listener
	address  string
}

func NewServer(addr string) (*Server, error) {
	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, err
	}
	return &Server{
		listener: listener,
		address:  addr,
	}, nil
}

func (s *Server) Start() {
	logger.Log.Infof("RPC server listening on %s", s.address)
	for {
		conn, err := s.listener.Accept()
		if err != nil {
			if _, ok := err.(*net.OpError); ok {
				logger.Log.Info("RPC server listener closed.")
				return
			}
			logger.Log.Errorf("RPC server accept error: %v", err)
			continue
		}
		go rpc.ServeConn(conn)
	}
}

func (s *Server) Stop() {
	if s.listener != nil {
		logger.Log.Info("Stopping RPC server.")
		s.listener.Close()
	}
}

// AdminService exposes read-only operational queries over net/rpc.
// Methods follow the net/rpc signature rules: exported method, exported
// arguments, pointer reply, error return.
type AdminService struct {
	store *game.Store
	stats *services.StatsService
}

func NewAdminService(store *game.Store, stats *services.StatsService) *AdminService {
	return &AdminService{store: store, stats: stats}
}

type RoomSummariesArgs struct{}

type RoomSummariesReply struct {
	Rooms []game.Summary
}

func (a *AdminService) RoomSummaries(args *RoomSummariesArgs, reply *RoomSummariesReply) error {
	reply.Rooms = a.store.Summaries()
	return nil
}

type PlayerStatsArgs struct {
	UserID string
}

type PlayerStatsReply struct {
	Stats persistence.PlayerStats
}

func (a *AdminService) PlayerStats(args *PlayerStatsArgs, reply *PlayerStatsReply) error {
	stats, err := a.stats.PlayerStats(args.UserID)
	if err != nil {
		return err
	}
	reply.Stats = stats
	return nil
}
