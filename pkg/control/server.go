// Package control exposes the running UI on a local unix socket so that
// scripts and key bindings can toggle the sidebar, switch views and reload
// the context menu without going through the terminal.
package control

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"os"
	"strconv"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/b/shellside/pkg/logging"
)

// Handler answers one request. A returned error is sent as MsgError.
type Handler func(ctx context.Context, msg Message) (Message, error)

var ErrNoHandler = errors.New("no command handler installed")

// Server accepts control connections and hands each request to OnCommand.
type Server struct {
	socketPath string
	pidPath    string
	listener   net.Listener
	conns      map[net.Conn]struct{}
	connsMu    sync.Mutex
	done       chan struct{}
	stopOnce   sync.Once
	wg         sync.WaitGroup
	log        *slog.Logger

	// OnCommand is called for every request except ping.
	OnCommand Handler
}

// NewServer creates a server for socketPath. The pidfile sits next to it.
func NewServer(socketPath string, log *slog.Logger) *Server {
	return &Server{
		socketPath: socketPath,
		pidPath:    strings.TrimSuffix(socketPath, ".sock") + ".pid",
		conns:      make(map[net.Conn]struct{}),
		done:       make(chan struct{}),
		log:        logging.OrDiscard(log).With("component", "control"),
	}
}

// Start begins listening for client connections
func (s *Server) Start() error {
	if err := s.checkAndClaimPid(); err != nil {
		return err
	}

	// Remove stale socket if exists (safe now that we own the pidfile)
	os.Remove(s.socketPath)

	listener, err := net.Listen("unix", s.socketPath)
	if err != nil {
		os.Remove(s.pidPath)
		return fmt.Errorf("failed to listen on socket: %w", err)
	}
	s.listener = listener

	s.wg.Add(1)
	go s.acceptLoop()
	s.log.Info("control socket listening", "path", s.socketPath)
	return nil
}

// checkAndClaimPid refuses to start while another live process owns the pidfile.
func (s *Server) checkAndClaimPid() error {
	if data, err := os.ReadFile(s.pidPath); err == nil {
		pidStr := strings.TrimSpace(string(data))
		if pid, err := strconv.Atoi(pidStr); err == nil && pid > 0 && pid != os.Getpid() {
			if process, err := os.FindProcess(pid); err == nil {
				// On Unix, FindProcess always succeeds, so we need to send signal 0
				if err := process.Signal(syscall.Signal(0)); err == nil {
					return fmt.Errorf("control socket already owned by pid %d", pid)
				}
			}
		}
		os.Remove(s.pidPath)
	}

	pid := os.Getpid()
	if err := os.WriteFile(s.pidPath, []byte(strconv.Itoa(pid)), 0644); err != nil {
		return fmt.Errorf("failed to write pidfile: %w", err)
	}
	return nil
}

// Stop shuts down the server and waits for connection handlers to exit.
func (s *Server) Stop() {
	s.stopOnce.Do(func() {
		close(s.done)
		if s.listener != nil {
			s.listener.Close()
		}
		s.connsMu.Lock()
		for conn := range s.conns {
			conn.Close()
		}
		s.connsMu.Unlock()
		s.wg.Wait()
		os.Remove(s.socketPath)
		os.Remove(s.pidPath)
	})
}

// ClientCount returns the number of connected clients
func (s *Server) ClientCount() int {
	s.connsMu.Lock()
	defer s.connsMu.Unlock()
	return len(s.conns)
}

// SocketPath returns the socket path
func (s *Server) SocketPath() string {
	return s.socketPath
}

func (s *Server) acceptLoop() {
	defer s.wg.Done()
	for {
		conn, err := s.listener.Accept()
		if err != nil {
			select {
			case <-s.done:
				return
			default:
			}
			if errors.Is(err, net.ErrClosed) {
				return
			}
			s.log.Debug("accept failed", "err", err)
			continue
		}

		s.connsMu.Lock()
		s.conns[conn] = struct{}{}
		s.connsMu.Unlock()

		s.wg.Add(1)
		go s.handleClient(conn)
	}
}

// handleClient answers requests until the client hangs up.
func (s *Server) handleClient(conn net.Conn) {
	defer s.wg.Done()
	defer func() {
		s.connsMu.Lock()
		delete(s.conns, conn)
		s.connsMu.Unlock()
		conn.Close()
	}()
	defer logging.Recover(s.log, "control client")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() {
		select {
		case <-s.done:
			cancel()
		case <-ctx.Done():
		}
	}()

	scanner := bufio.NewScanner(conn)
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)
	for scanner.Scan() {
		var msg Message
		if err := json.Unmarshal(scanner.Bytes(), &msg); err != nil {
			s.sendMessage(conn, errorMessage("", fmt.Errorf("malformed message: %w", err)))
			continue
		}
		if err := s.sendMessage(conn, s.answer(ctx, msg)); err != nil {
			s.log.Debug("write response failed", "err", err)
			return
		}
	}
}

func (s *Server) answer(ctx context.Context, msg Message) Message {
	if msg.Type == MsgPing {
		return Message{Type: MsgPong, ID: msg.ID}
	}
	if s.OnCommand == nil {
		return errorMessage(msg.ID, ErrNoHandler)
	}
	resp, err := s.OnCommand(ctx, msg)
	if err != nil {
		s.log.Debug("control command failed", "type", msg.Type, "err", err)
		return errorMessage(msg.ID, err)
	}
	if resp.Type == "" {
		resp.Type = MsgAck
	}
	resp.ID = msg.ID
	return resp
}

// sendMessage sends a message to a client
func (s *Server) sendMessage(conn net.Conn, msg Message) error {
	data, err := json.Marshal(msg)
	if err != nil {
		return err
	}
	conn.SetWriteDeadline(time.Now().Add(time.Second))
	_, err = conn.Write(append(data, '\n'))
	return err
}
