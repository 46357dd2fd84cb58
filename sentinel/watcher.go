package sentinel

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/luma/beacon/registry"
)

const DefaultRefreshInterval = 10 * time.Second

// Watcher periodically re-runs discovery and publishes the primary into a
// registry. After each successful round the responding sentinel moves to
// the head of the candidate list, which the sentinel client protocol
// recommends so that later rounds ask the healthiest candidate first.
type Watcher struct {
	cfg      Config
	reg      *registry.Registry
	interval time.Duration

	log *zap.Logger
}

func NewWatcher(cfg Config, reg *registry.Registry, interval time.Duration, log *zap.Logger) *Watcher {
	if interval <= 0 {
		interval = DefaultRefreshInterval
	}

	return &Watcher{
		cfg:      cfg,
		reg:      reg,
		interval: interval,
		log:      log,
	}
}

// Run discovers once immediately and then on every tick, until ctx is
// cancelled.
func (w *Watcher) Run(ctx context.Context) error {
	if err := w.cfg.validate(); err != nil {
		return err
	}

	w.refresh(ctx)

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case <-ticker.C:
			w.refresh(ctx)
		}
	}
}

func (w *Watcher) refresh(ctx context.Context) {
	var inst Instance

	responded, err := Discover(ctx, w.cfg, &inst)
	if err != nil {
		w.log.Warn("Primary discovery failed", zap.Error(err))
		return
	}

	w.promote(responded)

	if err := w.reg.SetPrimary(inst.Name, inst.Host, inst.Port); err != nil {
		w.log.Error("Failed to record primary", zap.Error(err))
		return
	}

	w.log.Info("Primary discovered",
		zap.String("name", inst.Name),
		zap.String("host", inst.Host),
		zap.String("port", inst.Port))
}

// promote moves the responding candidate pair to the front of the list.
func (w *Watcher) promote(responded int) {
	if responded == 0 {
		return
	}

	s := w.cfg.Sentinels
	s[0], s[2*responded] = s[2*responded], s[0]
	s[1], s[2*responded+1] = s[2*responded+1], s[1]
}
