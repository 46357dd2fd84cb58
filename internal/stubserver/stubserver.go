// Package stubserver is a scriptable RESP peer for tests. It accepts
// connections, decodes inbound command arrays, and answers each command
// with whatever the handler returns.
package stubserver

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"strconv"
	"strings"
	"sync"

	reuseport "github.com/kavu/go_reuseport"
	"go.uber.org/zap"
)

// HandlerFunc maps one decoded command (name plus arguments) to the raw
// reply bytes to send back. Returning nil sends nothing, which is how a
// handler models a server that goes silent.
type HandlerFunc func(args []string) []byte

type Server struct {
	ctx    context.Context
	cancel context.CancelFunc

	listener net.Listener
	handler  HandlerFunc

	mu          sync.Mutex
	activeConns map[net.Conn]struct{}

	loopWaiter sync.WaitGroup

	log *zap.Logger
}

// Start listens on an ephemeral localhost port and serves until Close.
func Start(handler HandlerFunc, log *zap.Logger) (*Server, error) {
	listener, err := reuseport.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		return nil, fmt.Errorf("Failed to listen: %w", err)
	}

	ctx, cancel := context.WithCancel(context.Background())

	s := &Server{
		ctx:         ctx,
		cancel:      cancel,
		listener:    listener,
		handler:     handler,
		activeConns: make(map[net.Conn]struct{}),
		log:         log,
	}

	s.loopWaiter.Add(1)
	go func() {
		defer s.loopWaiter.Done()
		s.acceptLoop()
	}()

	return s, nil
}

// Addr returns the host:port the server listens on.
func (s *Server) Addr() string {
	return s.listener.Addr().String()
}

// HostPort splits the listen address.
func (s *Server) HostPort() (string, int) {
	host, portStr, _ := net.SplitHostPort(s.Addr())
	port, _ := strconv.Atoi(portStr)
	return host, port
}

func (s *Server) Close() error {
	s.cancel()

	err := s.listener.Close()

	s.mu.Lock()
	for conn := range s.activeConns {
		conn.Close()
		delete(s.activeConns, conn)
	}
	s.mu.Unlock()

	s.loopWaiter.Wait()
	return err
}

func (s *Server) acceptLoop() {
	for {
		conn, err := s.listener.Accept()
		if err != nil {
			if s.ctx.Err() != nil {
				return
			}

			s.log.Warn("Failed to accept connection", zap.Error(err))
			return
		}

		s.mu.Lock()
		s.activeConns[conn] = struct{}{}
		s.mu.Unlock()

		s.loopWaiter.Add(1)
		go func() {
			defer s.loopWaiter.Done()
			s.serveConn(conn)
		}()
	}
}

func (s *Server) serveConn(conn net.Conn) {
	log := s.log.Named("conn").With(zap.String("peer", conn.RemoteAddr().String()))

	defer func() {
		conn.Close()

		s.mu.Lock()
		delete(s.activeConns, conn)
		s.mu.Unlock()
	}()

	r := bufio.NewReader(conn)

	for {
		args, err := readCommand(r)
		if err != nil {
			if !errors.Is(err, io.EOF) && s.ctx.Err() == nil {
				log.Warn("Failed to read command", zap.Error(err))
			}
			return
		}

		reply := s.handler(args)
		if reply == nil {
			continue
		}

		if _, err := conn.Write(reply); err != nil {
			log.Warn("Failed to write reply", zap.Error(err))
			return
		}

		if len(args) > 0 && strings.EqualFold(args[0], "QUIT") {
			return
		}
	}
}

// readCommand decodes one inbound `*<n>` array of bulk items.
func readCommand(r *bufio.Reader) ([]string, error) {
	header, err := readLine(r)
	if err != nil {
		return nil, err
	}

	if len(header) == 0 || header[0] != '*' {
		return nil, fmt.Errorf("unexpected command header '%s'", header)
	}

	n, err := strconv.Atoi(header[1:])
	if err != nil {
		return nil, fmt.Errorf("bad command arity '%s': %w", header, err)
	}

	args := make([]string, 0, n)

	for i := 0; i < n; i++ {
		lenLine, err := readLine(r)
		if err != nil {
			return nil, err
		}

		if len(lenLine) == 0 || lenLine[0] != '$' {
			return nil, fmt.Errorf("unexpected bulk header '%s'", lenLine)
		}

		length, err := strconv.Atoi(lenLine[1:])
		if err != nil {
			return nil, fmt.Errorf("bad bulk length '%s': %w", lenLine, err)
		}

		body := make([]byte, length+2)
		if _, err := io.ReadFull(r, body); err != nil {
			return nil, err
		}

		args = append(args, string(body[:length]))
	}

	return args, nil
}

func readLine(r *bufio.Reader) (string, error) {
	line, err := r.ReadString('\n')
	if err != nil {
		return "", err
	}

	return strings.TrimRight(line, "\r\n"), nil
}
