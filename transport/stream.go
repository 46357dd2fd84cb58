package transport

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"net"
	"strconv"
	"time"

	"go.uber.org/zap"
)

// Stream is the byte transport the codec drives: delimiter reads for header
// lines, exact reads for blob bodies, and buffer writes for request
// payloads. It satisfies protocol.Source.
//
// A stream carries one in-flight parse at a time. Reads consume from a
// shared buffered reader, so back-to-back parses on the same stream pick up
// exactly where the previous reply ended.
type Stream struct {
	conn net.Conn
	r    *bufio.Reader

	log *zap.Logger
}

// Dial resolves addr and connects. Cancelling ctx aborts resolution and the
// connect attempt.
func Dial(ctx context.Context, options Options) (*Stream, error) {
	addr := net.JoinHostPort(options.Host, strconv.Itoa(options.Port))

	dialer := net.Dialer{Timeout: options.DialTimeout}

	conn, err := dialer.DialContext(ctx, "tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("Failed to connect to '%s': %w", addr, err)
	}

	log := options.Log
	if log == nil {
		log = zap.NewNop()
	}

	return NewStream(conn, log), nil
}

// NewStream wraps an established connection. The stream takes over reading;
// nothing else may consume from conn while the stream is in use.
func NewStream(conn net.Conn, log *zap.Logger) *Stream {
	return &Stream{
		conn: conn,
		r:    bufio.NewReader(conn),
		log:  log,
	}
}

// ReadLine returns the next `\r\n` terminated line, including the
// terminator.
func (s *Stream) ReadLine() ([]byte, error) {
	line, err := s.r.ReadBytes('\n')
	if err != nil {
		return nil, fmt.Errorf("Failed to read from connection: %w", err)
	}

	return line, nil
}

// ReadExact returns exactly n bytes.
func (s *Stream) ReadExact(n int) ([]byte, error) {
	buf := make([]byte, n)
	if _, err := io.ReadFull(s.r, buf); err != nil {
		return nil, fmt.Errorf("Failed to read from connection: %w", err)
	}

	return buf, nil
}

// Write sends the whole payload to the connection.
func (s *Stream) Write(payload []byte) (int, error) {
	n, err := s.conn.Write(payload)
	if err != nil {
		return n, fmt.Errorf("Failed to write to connection: %w", err)
	}

	return n, nil
}

// Guard interrupts any in-flight read or write on the stream when ctx is
// cancelled, by expiring the connection deadlines. The returned release
// function stops the guard; call it once the guarded operation completes.
//
// An interrupted operation leaves the read buffer in an unspecified state,
// so the connection should be discarded afterwards.
func (s *Stream) Guard(ctx context.Context) (release func()) {
	done := make(chan struct{})

	go func() {
		select {
		case <-ctx.Done():
			select {
			case <-done:
				// Released before we woke up, leave the deadlines alone.
				return
			default:
			}

			if err := s.conn.SetDeadline(time.Now()); err != nil {
				s.log.Warn("Failed to expire connection deadline", zap.Error(err))
			}

		case <-done:
		}
	}()

	return func() { close(done) }
}

// RemoteAddr reports the peer address.
func (s *Stream) RemoteAddr() net.Addr {
	return s.conn.RemoteAddr()
}

func (s *Stream) Close() error {
	return s.conn.Close()
}
