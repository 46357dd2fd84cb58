package transport

import (
	"time"

	"go.uber.org/zap"
)

type Options struct {
	// Host to connect to
	Host string

	// Port to connect to
	Port int

	// DialTimeout bounds name resolution plus connect. Zero means the
	// dialer's default.
	DialTimeout time.Duration

	Log *zap.Logger
}
