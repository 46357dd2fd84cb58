package client

import (
	"context"
	"errors"
	"sync"

	"github.com/edwingeng/deque/v2"
	"go.uber.org/zap"

	"github.com/luma/beacon/protocol"
	"github.com/luma/beacon/transport"
)

var (
	ErrConnClosed = errors.New("Connection is closed")
)

// Options configures a connection.
type Options struct {
	// Host to connect to
	Host string

	// Port to connect to
	Port int

	Log *zap.Logger
}

// pending is one submitted request waiting for its replies. Its sinks are
// consumed in order, one reply each; done carries the single completion.
type pending struct {
	sinks []protocol.Sink
	done  chan error
}

// Conn is a pipelined connection. Submitting a request writes its whole
// payload at once; the read loop then parses one reply per supplied sink,
// in the order requests were submitted. One connection carries one
// in-flight parse at a time; the pending queue is how overlapping submits
// stay ordered.
type Conn struct {
	ctx    context.Context
	cancel context.CancelFunc

	stream *transport.Stream

	mu      sync.Mutex
	pending *deque.Deque[*pending]
	err     error

	// wake nudges the read loop after a submit
	wake chan struct{}

	loopWaiter sync.WaitGroup

	log *zap.Logger
}

// Connect dials the server and starts the read loop.
func Connect(ctx context.Context, options Options) (*Conn, error) {
	log := options.Log
	if log == nil {
		log = zap.NewNop()
	}

	stream, err := transport.Dial(ctx, transport.Options{
		Host: options.Host,
		Port: options.Port,
		Log:  log.Named("transport"),
	})
	if err != nil {
		return nil, err
	}

	return NewConn(ctx, stream, log), nil
}

// NewConn wraps an established stream and starts the read loop.
func NewConn(parentCtx context.Context, stream *transport.Stream, log *zap.Logger) *Conn {
	ctx, cancel := context.WithCancel(parentCtx)

	c := &Conn{
		ctx:     ctx,
		cancel:  cancel,
		stream:  stream,
		pending: deque.NewDeque[*pending](),
		wake:    make(chan struct{}, 1),
		log:     log,
	}

	c.loopWaiter.Add(1)
	go func() {
		defer c.loopWaiter.Done()
		c.readLoop()
	}()

	return c
}

// Do writes the request payload and waits until one reply per sink has been
// parsed. Sinks are single use and must not be touched until Do returns.
//
// Server error replies complete successfully; inspect each sink's status.
// Cancelling ctx interrupts the transport, after which the connection is
// unusable and should be closed.
func (c *Conn) Do(ctx context.Context, req *protocol.Request, sinks ...protocol.Sink) error {
	done, err := c.Submit(req, sinks...)
	if err != nil {
		return err
	}

	release := c.stream.Guard(ctx)
	defer release()

	err = <-done
	if err != nil && ctx.Err() != nil {
		return ctx.Err()
	}

	return err
}

// Submit writes the request payload and queues its sinks for the read
// loop. The returned channel delivers the single completion.
func (c *Conn) Submit(req *protocol.Request, sinks ...protocol.Sink) (<-chan error, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.err != nil {
		return nil, c.err
	}

	if _, err := c.stream.Write(req.Payload()); err != nil {
		// A partial payload may already be on the wire, so replies can no
		// longer be trusted to line up with sinks.
		c.failPendingLocked(err)
		c.cancel()
		return nil, err
	}

	done := make(chan error, 1)
	c.pending.PushBack(&pending{sinks: sinks, done: done})

	select {
	case c.wake <- struct{}{}:
	default:
	}

	return done, nil
}

// Close tears the connection down. Queued requests complete with
// ErrConnClosed; if a parse is in flight when the stream closes, that
// request and the ones queued behind it complete with the read error
// instead.
func (c *Conn) Close() error {
	c.cancel()

	err := c.stream.Close()

	c.loopWaiter.Wait()
	c.failPending(ErrConnClosed)

	return err
}

func (c *Conn) readLoop() {
	log := c.log.Named("readLoop")

	for {
		select {
		case <-c.ctx.Done():
			return

		case <-c.wake:
		}

		for {
			c.mu.Lock()
			p, ok := c.pending.TryPopFront()
			c.mu.Unlock()

			if !ok {
				break
			}

			if err := c.parseReplies(p); err != nil {
				// Framing is lost once a parse fails, every queued request
				// goes down with the connection.
				log.Warn("Parse failed, discarding connection", zap.Error(err))

				c.failPending(err)
				p.done <- err
				c.cancel()
				return
			}

			p.done <- nil
		}
	}
}

// parseReplies consumes one reply per sink. The shared read buffer carries
// across replies, so pipelined replies parse back-to-back.
func (c *Conn) parseReplies(p *pending) error {
	for _, sink := range p.sinks {
		if err := protocol.Parse(c.stream, sink); err != nil {
			return err
		}
	}

	return nil
}

// failPending completes every queued request with err and refuses new
// submits.
func (c *Conn) failPending(err error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.failPendingLocked(err)
}

func (c *Conn) failPendingLocked(err error) {
	if c.err == nil {
		c.err = err
	}

	for {
		p, ok := c.pending.TryPopFront()
		if !ok {
			return
		}

		p.done <- err
	}
}
