// SPDX-License-Identifier: MIT

// Package reaper periodically reconciles live sessions against broadcaster
// mounts and retires sessions nobody listens to anymore.
package reaper

import (
	"context"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog"

	"github.com/aitalkmaster/aitalkmaster/internal/audiofs"
	"github.com/aitalkmaster/aitalkmaster/internal/broadcast"
	"github.com/aitalkmaster/aitalkmaster/internal/log"
	"github.com/aitalkmaster/aitalkmaster/internal/session"
)

const (
	// DefaultInterval is the sweep cadence.
	DefaultInterval = 30 * time.Second

	// DefaultRetention is how long a session may go without listeners
	// before it is retired.
	DefaultRetention = 30 * 24 * time.Hour
)

var (
	sweeps = promauto.NewCounter(prometheus.CounterOpts{
		Name: "aitalkmaster_reaper_sweeps_total",
		Help: "Completed reaper sweeps.",
	})
	reaped = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "aitalkmaster_reaper_reaped_total",
		Help: "Sessions and leftovers retired by the reaper.",
	}, []string{"reason"})
)

// StreamStats is the slice of broadcaster statistics the reaper needs.
// *broadcast.Stats implements it.
type StreamStats interface {
	Mounts(ctx context.Context) ([]string, error)
	Listeners(ctx context.Context, mount string) (int, error)
	JoinKeyFor(mount string) (string, bool)
}

// Reaper retires idle sessions, stops orphaned broadcaster mounts and
// removes active audio directories no session owns. stats may be nil when
// the service streams directly; idle detection then relies on the direct
// streamer touching sessions itself.
type Reaper struct {
	store     *session.Store
	layout    *audiofs.Layout
	delivery  broadcast.Delivery
	stats     StreamStats
	keepAlive map[string]struct{}

	interval  time.Duration
	retention time.Duration
	now       func() time.Time
}

// New creates a reaper with default interval and retention. Join keys on the
// keep-alive list are never retired.
func New(store *session.Store, layout *audiofs.Layout, delivery broadcast.Delivery, stats StreamStats, keepAlive []string) *Reaper {
	ka := make(map[string]struct{}, len(keepAlive))
	for _, k := range keepAlive {
		ka[k] = struct{}{}
	}
	return &Reaper{
		store:     store,
		layout:    layout,
		delivery:  delivery,
		stats:     stats,
		keepAlive: ka,
		interval:  DefaultInterval,
		retention: DefaultRetention,
		now:       time.Now,
	}
}

// WithRetention overrides the idle retention window.
func (r *Reaper) WithRetention(d time.Duration) *Reaper {
	r.retention = d
	return r
}

// WithInterval overrides the sweep cadence.
func (r *Reaper) WithInterval(d time.Duration) *Reaper {
	r.interval = d
	return r
}

// WithClock overrides the time source for tests.
func (r *Reaper) WithClock(clock func() time.Time) *Reaper {
	r.now = clock
	return r
}

// Run sweeps on a ticker until the context ends.
func (r *Reaper) Run(ctx context.Context) {
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			r.Sweep(ctx)
		}
	}
}

// Sweep runs one reconciliation pass: refresh listener activity, retire idle
// sessions, stop orphaned mounts and delete orphaned audio directories.
func (r *Reaper) Sweep(ctx context.Context) {
	logger := log.WithComponent("reaper")

	mounted := r.refreshListeners(ctx, logger)
	r.retireIdle(ctx, logger, mounted)
	r.cleanOrphanDirs(logger)
	sweeps.Inc()
}

// refreshListeners touches every session that currently has listeners and
// stops mounts that no longer belong to a session. Returns the set of join
// keys with a live mount, or nil when no stats back-end is configured.
func (r *Reaper) refreshListeners(ctx context.Context, logger zerolog.Logger) map[string]struct{} {
	if r.stats == nil {
		return nil
	}
	mounts, err := r.stats.Mounts(ctx)
	if err != nil {
		logger.Warn().Err(err).
			Str(log.FieldEvent, "reaper.stats_unavailable").
			Msg("skipping listener refresh")
		return nil
	}

	now := r.now()
	mounted := make(map[string]struct{})
	for _, mount := range mounts {
		joinKey, ok := r.stats.JoinKeyFor(mount)
		if !ok {
			continue
		}
		mounted[joinKey] = struct{}{}

		sess, ok := r.store.Get(joinKey)
		if !ok {
			logger.Info().
				Str(log.FieldEvent, "reaper.orphan_mount").
				Str(log.FieldJoinKey, joinKey).
				Msg("stopping mount without session")
			r.delivery.SessionStopped(ctx, joinKey)
			reaped.WithLabelValues("orphan_mount").Inc()
			continue
		}

		listeners, err := r.stats.Listeners(ctx, mount)
		if err != nil {
			logger.Warn().Err(err).
				Str(log.FieldEvent, "reaper.stats_unavailable").
				Str(log.FieldJoinKey, joinKey).
				Msg("listener count unavailable")
			continue
		}
		if listeners > 0 {
			sess.Touch(now)
		}
	}
	return mounted
}

// retireIdle resets sessions whose last listener is older than the retention
// window. mounted limits stopped-stream commands to sessions that actually
// had a mount.
func (r *Reaper) retireIdle(ctx context.Context, logger zerolog.Logger, mounted map[string]struct{}) {
	cutoff := r.now().Add(-r.retention)
	for _, joinKey := range r.store.Keys() {
		if _, keep := r.keepAlive[joinKey]; keep {
			continue
		}
		sess, ok := r.store.Get(joinKey)
		if !ok || sess.LastListenedAt().After(cutoff) {
			continue
		}

		logger.Info().
			Str(log.FieldEvent, "reaper.session_retired").
			Str(log.FieldJoinKey, joinKey).
			Time("last_listened_at", sess.LastListenedAt()).
			Msg("retiring idle session")

		if _, hadMount := mounted[joinKey]; hadMount || r.stats == nil {
			r.delivery.SessionStopped(ctx, joinKey)
		}
		r.store.Reset(joinKey)
		if err := r.layout.DeleteActive(joinKey); err != nil {
			logger.Warn().Err(err).
				Str(log.FieldEvent, "reaper.cleanup_failed").
				Str(log.FieldJoinKey, joinKey).
				Msg("could not delete active audio directory")
		}
		reaped.WithLabelValues("idle").Inc()
	}
}

// cleanOrphanDirs deletes active audio directories that no live session owns,
// typically left behind by a restart.
func (r *Reaper) cleanOrphanDirs(logger zerolog.Logger) {
	keys, err := r.layout.ActiveKeys()
	if err != nil {
		logger.Warn().Err(err).
			Str(log.FieldEvent, "reaper.cleanup_failed").
			Msg("could not list active audio directories")
		return
	}
	for _, joinKey := range keys {
		if _, keep := r.keepAlive[joinKey]; keep {
			continue
		}
		if _, ok := r.store.Get(joinKey); ok {
			continue
		}
		logger.Info().
			Str(log.FieldEvent, "reaper.orphan_dir").
			Str(log.FieldJoinKey, joinKey).
			Msg("deleting audio directory without session")
		if err := r.layout.DeleteActive(joinKey); err != nil {
			logger.Warn().Err(err).
				Str(log.FieldEvent, "reaper.cleanup_failed").
				Str(log.FieldJoinKey, joinKey).
				Msg("could not delete orphaned audio directory")
		}
		reaped.WithLabelValues("orphan_dir").Inc()
	}
}
