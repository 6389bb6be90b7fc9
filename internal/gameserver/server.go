package gameserver

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/udisondev/questd/internal/config"
)

const (
	// maxMessageSize caps a single client packet.
	maxMessageSize = 64 * 1024

	shutdownTimeout = 5 * time.Second
)

// Server accepts quest client connections over websocket.
type Server struct {
	cfg      config.QuestServer
	handler  *Handler
	clients  *ClientManager
	upgrader websocket.Upgrader

	listener net.Listener
	mu       sync.Mutex
}

// NewServer creates a new quest server.
func NewServer(cfg config.QuestServer, handler *Handler, clients *ClientManager) *Server {
	return &Server{
		cfg:     cfg,
		handler: handler,
		clients: clients,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4096,
			WriteBufferSize: 4096,
			// Game clients are not browsers.
			CheckOrigin: func(*http.Request) bool { return true },
		},
	}
}

// Addr returns the address the server is listening on.
// Returns nil if the server hasn't started yet.
func (s *Server) Addr() net.Addr {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listener == nil {
		return nil
	}
	return s.listener.Addr()
}

// ClientManager returns the client manager for this server.
func (s *Server) ClientManager() *ClientManager {
	return s.clients
}

// Run begins listening for client connections on cfg.BindAddress:cfg.Port.
func (s *Server) Run(ctx context.Context) error {
	addr := fmt.Sprintf("%s:%d", s.cfg.BindAddress, s.cfg.Port)
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("listening on %s: %w", addr, err)
	}
	return s.Serve(ctx, ln)
}

// Serve accepts connections from the given listener until ctx is cancelled.
// Used for testing with custom listeners.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	s.mu.Lock()
	s.listener = ln
	s.mu.Unlock()

	var wg sync.WaitGroup
	mux := http.NewServeMux()
	mux.HandleFunc(s.cfg.Path, func(w http.ResponseWriter, r *http.Request) {
		conn, err := s.upgrader.Upgrade(w, r, nil)
		if err != nil {
			slog.Warn("websocket upgrade failed", "remote", r.RemoteAddr, "error", err)
			return
		}
		wg.Go(func() {
			s.handleConnection(ctx, conn)
		})
	})

	httpSrv := &http.Server{
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return ctx },
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
		defer cancel()
		if err := httpSrv.Shutdown(shutdownCtx); err != nil {
			slog.Warn("http shutdown", "error", err)
		}
	}()

	slog.Info("quest server started", "address", ln.Addr(), "path", s.cfg.Path)
	err := httpSrv.Serve(ln)
	// Hijacked websocket connections are not tracked by http.Server.
	wg.Wait()
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

func (s *Server) handleConnection(ctx context.Context, conn *websocket.Conn) {
	host, _, err := net.SplitHostPort(conn.RemoteAddr().String())
	if err != nil {
		host = conn.RemoteAddr().String()
	}
	slog.Info("new quest client connection", "remote", host)

	client := NewGameClient(conn, host, s.cfg.SendQueueSize, s.cfg.WriteTimeout)
	go client.writePump()
	defer func() {
		s.handler.OnDisconnection(ctx, client)
		_ = client.Close()
	}()

	stop := context.AfterFunc(ctx, func() { _ = client.Close() })
	defer stop()

	readTimeout := s.cfg.ReadTimeout
	if readTimeout <= 0 {
		readTimeout = defaultReadTimeout
	}
	conn.SetReadLimit(maxMessageSize)

	for {
		if err := conn.SetReadDeadline(time.Now().Add(readTimeout)); err != nil {
			slog.Error("setting read deadline", "client", host, "error", err)
			return
		}
		msgType, data, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				slog.Info("client disconnected", "client", host, "player", client.Name())
			} else if ctx.Err() == nil {
				slog.Debug("reading packet", "client", host, "error", err)
			}
			return
		}
		if msgType != websocket.BinaryMessage {
			continue
		}

		if err := s.handler.HandlePacket(ctx, client, data); err != nil {
			slog.Error("packet handling error", "error", err, "client", host)
			return
		}
	}
}
