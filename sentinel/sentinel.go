// Package sentinel asks a group of monitoring agents for the current
// address of a named primary.
package sentinel

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/luma/beacon/protocol"
	"github.com/luma/beacon/transport"
)

var (
	// ErrBadSentinelList is returned when the candidate list is empty or
	// holds an odd number of entries.
	ErrBadSentinelList = errors.New("Sentinel list must hold host port pairs")

	// ErrNoPrimary is returned when a sentinel answered but did not name a
	// primary for the requested group.
	ErrNoPrimary = errors.New("Sentinel did not report a primary for this name")
)

// Config names the replication group and the candidate sentinels.
type Config struct {
	// Sentinels lists candidates as alternating host and port entries,
	// e.g. ["10.0.0.1", "26379", "10.0.0.2", "26379"].
	Sentinels []string

	// Name of the monitored primary, e.g. "mymaster".
	Name string

	// Role the caller wants to discover. Only "master" is consulted today;
	// the field travels with the config for parity with the sentinel
	// protocol.
	Role string

	// DialTimeout bounds each candidate connect attempt.
	DialTimeout time.Duration

	Log *zap.Logger
}

func (c *Config) validate() error {
	if len(c.Sentinels) == 0 || len(c.Sentinels)%2 != 0 {
		return ErrBadSentinelList
	}

	return nil
}

// Instance is a discovered primary endpoint.
type Instance struct {
	Host string
	Port string
	Name string
}

// opState is the discovery phase. The operation suspends only inside
// transport calls; between them it advances phase by phase.
type opState int

const (
	onConnect opState = iota
	onWrite
	onRead
)

// discovery carries the operation across its suspension points.
type discovery struct {
	cfg    Config
	state  opState
	stream *transport.Stream

	// responded is the index of the candidate pair that accepted the
	// connection.
	responded int

	log *zap.Logger
}

// Discover connects to the first reachable sentinel, asks it for the
// primary of cfg.Name, and fills inst with the answer. It returns the
// index of the responding candidate pair so the caller can promote it to
// the head of its list, as the sentinel client protocol recommends.
func Discover(ctx context.Context, cfg Config, inst *Instance) (int, error) {
	if err := cfg.validate(); err != nil {
		return 0, err
	}

	log := cfg.Log
	if log == nil {
		log = zap.NewNop()
	}

	d := &discovery{cfg: cfg, log: log}

	defer func() {
		if d.stream != nil {
			d.stream.Close()
		}
	}()

	for {
		switch d.state {
		case onConnect:
			if err := d.connect(ctx); err != nil {
				return 0, err
			}
			d.state = onWrite

		case onWrite:
			if err := d.write(ctx); err != nil {
				return d.responded, err
			}
			d.state = onRead

		case onRead:
			return d.responded, d.read(ctx, inst)
		}
	}
}

// connect tries each candidate in order and keeps the first connection
// that succeeds. When every candidate fails, the accumulated transport
// errors complete the operation.
func (d *discovery) connect(ctx context.Context) error {
	var errs error

	n := len(d.cfg.Sentinels) / 2

	for i := 0; i < n; i++ {
		host := d.cfg.Sentinels[2*i]
		port := d.cfg.Sentinels[2*i+1]

		portNum, err := parsePort(port)
		if err != nil {
			errs = multierr.Append(errs, err)
			continue
		}

		stream, err := transport.Dial(ctx, transport.Options{
			Host:        host,
			Port:        portNum,
			DialTimeout: d.cfg.DialTimeout,
			Log:         d.log.Named("transport"),
		})
		if err != nil {
			d.log.Warn("Sentinel candidate unreachable",
				zap.String("host", host),
				zap.String("port", port),
				zap.Error(err))

			errs = multierr.Append(errs, err)

			if ctx.Err() != nil {
				return errs
			}

			continue
		}

		d.stream = stream
		d.responded = i
		return nil
	}

	return errs
}

// write sends `SENTINEL get-master-addr-by-name <name>`.
func (d *discovery) write(ctx context.Context) error {
	req := protocol.NewRequest()
	req.Sentinel("get-master-addr-by-name", d.cfg.Name)

	release := d.stream.Guard(ctx)
	defer release()

	_, err := d.stream.Write(req.Payload())
	return err
}

// read parses the reply with a flat string sink and publishes the
// instance.
func (d *discovery) read(ctx context.Context, inst *Instance) error {
	release := d.stream.Guard(ctx)
	defer release()

	sink := &protocol.ArraySink{}
	if err := protocol.Parse(d.stream, sink); err != nil {
		return err
	}

	if err := sink.Status().ErrorOrNil(); err != nil {
		return err
	}

	if len(sink.Result) < 2 {
		return ErrNoPrimary
	}

	inst.Host = sink.Result[0]
	inst.Port = sink.Result[1]
	inst.Name = d.cfg.Name

	return nil
}

func parsePort(s string) (int, error) {
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("Failed to parse sentinel port '%s': %w", s, err)
	}

	return n, nil
}
