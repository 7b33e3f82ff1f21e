package server

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	log "github.com/sirupsen/logrus"

	"github.com/rybkr/gittopo/internal/gitcore"
	"github.com/rybkr/gittopo/internal/history"
)

const (
	writeWait       = 10 * time.Second
	shutdownTimeout = 5 * time.Second
)

var upgrader = websocket.Upgrader{
	// Any origin may subscribe.
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

type MessageType string

const (
	MessageTypeReport MessageType = "report"
	MessageTypeError  MessageType = "error"
)

// UpdateMessage is the envelope for everything pushed over the WebSocket.
type UpdateMessage struct {
	Type MessageType `json:"type"`
	Data interface{} `json:"data"`
}

// Config tunes how the server notices repository changes.
type Config struct {
	History history.Options
	// PollInterval re-reads the repository periodically; zero disables polling.
	PollInterval time.Duration
	// Debounce delays a refresh after a burst of ref changes.
	Debounce time.Duration
}

// Server publishes the linearized history of a repository and pushes a new
// report to WebSocket clients whenever it changes.
type Server struct {
	repo   *gitcore.Repository
	config Config

	mu     sync.RWMutex
	cached struct {
		report *history.Report
		err    error
	}
	refreshMu sync.Mutex

	clientsMu sync.RWMutex
	clients   map[*client]bool
	broadcast chan UpdateMessage

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

type client struct {
	conn *websocket.Conn
	mu   sync.Mutex
}

func (c *client) send(msg UpdateMessage) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
		return err
	}
	return c.conn.WriteJSON(msg)
}

func NewServer(repo *gitcore.Repository, config Config) *Server {
	if config.Debounce <= 0 {
		config.Debounce = debounceTime
	}
	return &Server{
		repo:      repo,
		config:    config,
		clients:   make(map[*client]bool),
		broadcast: make(chan UpdateMessage, 256),
	}
}

// Start computes the initial report and launches the background loops. They
// run until ctx is cancelled or Close is called.
func (s *Server) Start(ctx context.Context) error {
	s.ctx, s.cancel = context.WithCancel(ctx)

	s.refresh()

	if err := s.startWatcher(); err != nil {
		s.cancel()
		return err
	}

	s.wg.Add(1)
	go s.handleBroadcast()

	if s.config.PollInterval > 0 {
		s.wg.Add(1)
		go s.pollRepo()
	}

	return nil
}

// Close stops the background loops, disconnects every client and waits for
// the loops to exit.
func (s *Server) Close() {
	if s.cancel != nil {
		s.cancel()
	}
	s.wg.Wait()

	s.clientsMu.Lock()
	for c := range s.clients {
		c.conn.Close()
		delete(s.clients, c)
	}
	s.clientsMu.Unlock()
}

// Handler returns the HTTP routes of the server.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/repository", s.handleRepository)
	mux.HandleFunc("/api/report", s.handleReport)
	mux.HandleFunc("/api/text", s.handleText)
	mux.HandleFunc("/api/ws", s.handleWebSocket)
	return mux
}

// ListenAndServe starts the server on addr and blocks until ctx is cancelled.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	if err := s.Start(ctx); err != nil {
		return err
	}
	defer s.Close()

	httpServer := &http.Server{Addr: addr, Handler: s.Handler()}

	errc := make(chan error, 1)
	go func() {
		errc <- httpServer.ListenAndServe()
	}()
	log.WithField("addr", addr).Info("serving commit history")

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	}
}

// Report returns the most recent report, or the error that prevented
// computing one.
func (s *Server) Report() (*history.Report, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.cached.report, s.cached.err
}

// handleWebSocket registers a client, sends it the current report and keeps
// the connection until the client goes away.
func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Warnf("WebSocket upgrade error: %v", err)
		return
	}
	c := &client{conn: conn}

	s.clientsMu.Lock()
	s.clients[c] = true
	total := len(s.clients)
	s.clientsMu.Unlock()
	log.WithField("clients", total).Debug("WebSocket client connected")

	if err := c.send(s.currentMessage()); err != nil {
		log.Warnf("Error sending initial state: %v", err)
	}

	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			break
		}
	}

	s.removeClient(c)
}

func (s *Server) removeClient(c *client) {
	s.clientsMu.Lock()
	_, ok := s.clients[c]
	delete(s.clients, c)
	total := len(s.clients)
	s.clientsMu.Unlock()

	if ok {
		c.conn.Close()
		log.WithField("clients", total).Debug("WebSocket client disconnected")
	}
}

func (s *Server) currentMessage() UpdateMessage {
	report, err := s.Report()
	if err != nil {
		return UpdateMessage{Type: MessageTypeError, Data: err.Error()}
	}
	return UpdateMessage{Type: MessageTypeReport, Data: report}
}

// handleBroadcast fans queued messages out to every connected client.
func (s *Server) handleBroadcast() {
	defer s.wg.Done()

	for {
		select {
		case <-s.ctx.Done():
			return
		case msg := <-s.broadcast:
			s.clientsMu.RLock()
			targets := make([]*client, 0, len(s.clients))
			for c := range s.clients {
				targets = append(targets, c)
			}
			s.clientsMu.RUnlock()

			for _, c := range targets {
				if err := c.send(msg); err != nil {
					log.Warnf("Error broadcasting to client: %v", err)
					s.removeClient(c)
				}
			}
		}
	}
}

// broadcastUpdate queues msg for every client without blocking.
func (s *Server) broadcastUpdate(msgType MessageType, data interface{}) {
	msg := UpdateMessage{Type: msgType, Data: data}

	select {
	case s.broadcast <- msg:
	default:
		log.Warn("Broadcast channel full, dropping message")
	}
}
