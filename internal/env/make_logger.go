package env

import (
	zap "go.uber.org/zap"
)

// MakeLogger builds the process logger. Production output is JSON at info
// level; debug switches to the development config for the interactive
// commands.
func MakeLogger(debug bool) (*zap.Logger, error) {
	if debug {
		return zap.NewDevelopment()
	}

	logConfig := zap.NewProductionConfig()
	logConfig.Level = zap.NewAtomicLevelAt(zap.InfoLevel)
	logConfig.Encoding = "json"

	return logConfig.Build()
}
