// Package ipc is the local control channel between voxassist-ctl and the
// running assistant: one JSON message per unix socket connection.
package ipc

import (
	"encoding/json"
	"errors"
	"fmt"
	log "log/slog"
	"net"
	"os"
	"sync"
)

const SocketPath = "/tmp/voxassist.sock"

const (
	// CmdTrigger asks the assistant to listen once on the microphone.
	CmdTrigger = "trigger"
	// CmdSay injects Text as if it had been spoken.
	CmdSay = "say"
)

type ControlMessage struct {
	Cmd  string `json:"cmd"`
	Text string `json:"text,omitempty"`
}

type Server struct {
	ln   net.Listener
	path string
	wg   sync.WaitGroup
}

// Listen removes a stale socket at path and serves handler in the
// background until Close.
func Listen(path string, handler func(ControlMessage)) (*Server, error) {
	if path == "" {
		path = SocketPath
	}
	_ = os.Remove(path)

	ln, err := net.Listen("unix", path)
	if err != nil {
		return nil, fmt.Errorf("listen: %w", err)
	}

	s := &Server{ln: ln, path: path}
	s.wg.Add(1)
	go s.serve(handler)
	return s, nil
}

func (s *Server) serve(handler func(ControlMessage)) {
	defer s.wg.Done()
	for {
		conn, err := s.ln.Accept()
		if errors.Is(err, net.ErrClosed) {
			return
		}
		if err != nil {
			log.Warn("Control accept failed", "err", err)
			continue
		}
		s.wg.Add(1)
		go func() {
			defer s.wg.Done()
			handleConn(conn, handler)
		}()
	}
}

func handleConn(conn net.Conn, handler func(ControlMessage)) {
	defer conn.Close()

	var msg ControlMessage
	if err := json.NewDecoder(conn).Decode(&msg); err != nil {
		log.Warn("Bad control message", "err", err)
		return
	}
	log.Debug("Control message", "cmd", msg.Cmd)
	handler(msg)
}

func (s *Server) Addr() string { return s.path }

// Close stops accepting, waits for in-flight handlers and removes the socket.
func (s *Server) Close() error {
	err := s.ln.Close()
	s.wg.Wait()
	_ = os.Remove(s.path)
	return err
}

func Send(path string, msg ControlMessage) error {
	if path == "" {
		path = SocketPath
	}
	conn, err := net.Dial("unix", path)
	if err != nil {
		return err
	}
	defer conn.Close()

	return json.NewEncoder(conn).Encode(msg)
}
