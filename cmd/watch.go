package cmd

import (
	"context"
	"errors"
	"net"
	"net/http"
	"os"
	"os/signal"
	"time"

	ginzap "github.com/gin-contrib/zap"
	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sys/unix"

	"github.com/luma/beacon/internal/env"
	"github.com/luma/beacon/registry"
	"github.com/luma/beacon/sentinel"
)

var (
	// The port to publish discovered primaries on
	httpPort string

	// How often to re-run discovery
	refreshInterval time.Duration
)

func init() {
	flags := WatchCmd.PersistentFlags()

	flags.StringVar(&httpPort, "http-port", "7362", "The port to publish discovered primaries on")
	flags.DurationVar(&refreshInterval, "refresh", sentinel.DefaultRefreshInterval, "How often to re-run discovery")
}

var WatchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Track a primary through its sentinels and publish it over HTTP",
	Long: `Track a primary through its sentinels and publish it over HTTP

Usage
	BEACON_SENTINELS=127.0.0.1,26379 beacon watch

`,
	RunE: func(cmd *cobra.Command, args []string) (err error) {
		ctx, signalStop := signal.NotifyContext(context.Background(), os.Interrupt, os.Kill)
		defer signalStop()

		log, err := env.MakeLogger(debug)
		if err != nil {
			return err
		}

		fileLimit, err := setFileLimit()
		if err != nil {
			return err
		}

		log.Info("Set file limit", zap.Uint64("fileLimit", fileLimit))

		conf, err := env.LoadConfig(ctx)
		if err != nil {
			return err
		}

		reg := registry.New()
		defer reg.Close()

		watcher := sentinel.NewWatcher(sentinel.Config{
			Sentinels: conf.Sentinels,
			Name:      conf.MasterName,
			Role:      "master",
			Log:       log.Named("sentinel"),
		}, reg, refreshInterval, log.Named("watcher"))

		router := setupRouter(conf.DebugHTTP, log)

		// Ping test
		router.GET("/ping", func(c *gin.Context) {
			c.String(http.StatusOK, "pong")
		})

		router.GET("/primaries", func(c *gin.Context) {
			c.Data(http.StatusOK, "application/json", reg.Snapshot())
		})

		router.GET("/primary/:name", func(c *gin.Context) {
			h, p, ok := reg.Primary(c.Param("name"))
			if !ok {
				c.JSON(http.StatusNotFound, gin.H{"error": "unknown primary"})
				return
			}

			c.JSON(http.StatusOK, gin.H{"host": h, "port": p})
		})

		s := &http.Server{
			Addr:    net.JoinHostPort("0.0.0.0", httpPort),
			Handler: router,
		}

		// Initializing the server in a goroutine so that
		// it won't block the graceful shutdown handling below
		go func() {
			if err := s.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				log.Error("Http server errored", zap.Error(err))
			}
		}()

		go func() {
			if err := watcher.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
				log.Error("Watcher stopped", zap.Error(err))
			}
		}()

		log.Info("Watching",
			zap.Any("config", conf),
			zap.String("httpPort", httpPort))

		// Listen for the interrupt signal.
		<-ctx.Done()

		// Restore default behavior on the interrupt signal and notify user of shutdown.
		signalStop()
		log.Info("Shutting down gracefully, press Ctrl+C again to force")

		// The context is used to inform the server it has 5 seconds to finish
		// the request it is currently handling
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		s.SetKeepAlivesEnabled(false)

		if err := s.Shutdown(shutdownCtx); err != nil {
			log.Error("Http server forced to shutdown", zap.Error(err))
		}

		log.Info("Exiting")
		return nil
	},
}

func setupRouter(debugHTTP bool, log *zap.Logger) *gin.Engine {
	gin.DisableConsoleColor()
	if !debugHTTP {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()

	// Add a ginzap middleware, which:
	//   - Logs all requests, like a combined access and error log.
	//   - Logs to stdout.
	//   - RFC3339 with UTC time format.
	r.Use(ginzap.Ginzap(log, time.RFC3339, true))

	r.Use(ginzap.GinzapWithConfig(log, &ginzap.Config{
		TimeFormat: time.RFC3339,
		UTC:        true,
		SkipPaths:  []string{"/ping"},
	}))

	// Logs all panic to error log
	//   - stack means whether output the stack info.
	r.Use(ginzap.RecoveryWithZap(log, true))

	return r
}

func setFileLimit() (uint64, error) {
	var rLimit unix.Rlimit

	if err := unix.Getrlimit(unix.RLIMIT_NOFILE, &rLimit); err != nil {
		return 0, err
	}

	rLimit.Cur = rLimit.Max
	if err := unix.Setrlimit(unix.RLIMIT_NOFILE, &rLimit); err != nil {
		return 0, err
	}

	return rLimit.Cur, nil
}
