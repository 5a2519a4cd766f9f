// SPDX-License-Identifier: MIT

package reaper

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aitalkmaster/aitalkmaster/internal/audiofs"
	"github.com/aitalkmaster/aitalkmaster/internal/session"
)

type fakeStats struct {
	mounts    []string
	listeners map[string]int
	err       error
}

func (f *fakeStats) Mounts(context.Context) ([]string, error) {
	return f.mounts, f.err
}

func (f *fakeStats) Listeners(_ context.Context, mount string) (int, error) {
	return f.listeners[mount], nil
}

func (f *fakeStats) JoinKeyFor(mount string) (string, bool) {
	key, found := strings.CutPrefix(mount, "/stream/")
	return key, found
}

type recordingDelivery struct {
	stopped []string
}

func (d *recordingDelivery) SessionStarted(context.Context, string) {}
func (d *recordingDelivery) SessionStopped(_ context.Context, k string) {
	d.stopped = append(d.stopped, k)
}
func (d *recordingDelivery) FileReady(context.Context, string, string)            {}
func (d *recordingDelivery) TranslationStarted(context.Context, string)           {}
func (d *recordingDelivery) TranslationStopped(context.Context, string)           {}
func (d *recordingDelivery) TranslationFileReady(context.Context, string, string) {}

func seedActiveDir(t *testing.T, layout *audiofs.Layout, joinKey string) string {
	t.Helper()
	dir := layout.ActiveDir(joinKey)
	require.NoError(t, os.MkdirAll(dir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "001.mp3"), []byte("x"), 0o644))
	return dir
}

func TestSweepTouchesSessionsWithListeners(t *testing.T) {
	store := session.NewStore(session.Hooks{})
	layout := audiofs.NewLayout(t.TempDir())
	stats := &fakeStats{
		mounts:    []string{"/stream/busy", "/stream/quiet"},
		listeners: map[string]int{"/stream/busy": 2},
	}
	busy := store.GetOrCreate("busy")
	quiet := store.GetOrCreate("quiet")

	now := time.Now()
	stale := now.Add(-time.Hour)
	busy.Touch(stale)
	quiet.Touch(stale)

	r := New(store, layout, &recordingDelivery{}, stats, nil).
		WithClock(func() time.Time { return now })
	r.Sweep(context.Background())

	assert.Equal(t, now, busy.LastListenedAt())
	assert.Equal(t, stale, quiet.LastListenedAt())
}

func TestSweepRetiresIdleSessions(t *testing.T) {
	store := session.NewStore(session.Hooks{})
	layout := audiofs.NewLayout(t.TempDir())
	delivery := &recordingDelivery{}
	stats := &fakeStats{mounts: []string{"/stream/idle"}}

	sess := store.GetOrCreate("idle")
	dir := seedActiveDir(t, layout, "idle")

	now := time.Now()
	sess.Touch(now.Add(-DefaultRetention - time.Hour))

	r := New(store, layout, delivery, stats, nil).
		WithClock(func() time.Time { return now })
	r.Sweep(context.Background())

	_, ok := store.Get("idle")
	assert.False(t, ok)
	assert.Equal(t, []string{"idle"}, delivery.stopped)
	_, err := os.Stat(dir)
	assert.True(t, os.IsNotExist(err))
}

func TestSweepSparesKeepAliveSessions(t *testing.T) {
	store := session.NewStore(session.Hooks{})
	layout := audiofs.NewLayout(t.TempDir())
	delivery := &recordingDelivery{}

	sess := store.GetOrCreate("lobby")
	now := time.Now()
	sess.Touch(now.Add(-2 * DefaultRetention))

	r := New(store, layout, delivery, nil, []string{"lobby"}).
		WithClock(func() time.Time { return now })
	r.Sweep(context.Background())

	_, ok := store.Get("lobby")
	assert.True(t, ok)
	assert.Empty(t, delivery.stopped)
}

func TestSweepFreshSessionSurvives(t *testing.T) {
	store := session.NewStore(session.Hooks{})
	layout := audiofs.NewLayout(t.TempDir())
	delivery := &recordingDelivery{}

	store.GetOrCreate("fresh")
	r := New(store, layout, delivery, nil, nil)
	r.Sweep(context.Background())

	_, ok := store.Get("fresh")
	assert.True(t, ok)
	assert.Empty(t, delivery.stopped)
}

func TestSweepStopsOrphanMounts(t *testing.T) {
	store := session.NewStore(session.Hooks{})
	layout := audiofs.NewLayout(t.TempDir())
	delivery := &recordingDelivery{}
	stats := &fakeStats{mounts: []string{"/stream/ghost", "/other"}}

	r := New(store, layout, delivery, stats, nil)
	r.Sweep(context.Background())

	assert.Equal(t, []string{"ghost"}, delivery.stopped)
}

func TestSweepDeletesOrphanDirs(t *testing.T) {
	store := session.NewStore(session.Hooks{})
	layout := audiofs.NewLayout(t.TempDir())

	orphan := seedActiveDir(t, layout, "gone")
	kept := seedActiveDir(t, layout, "alive")
	store.GetOrCreate("alive")

	r := New(store, layout, &recordingDelivery{}, nil, nil)
	r.Sweep(context.Background())

	_, err := os.Stat(orphan)
	assert.True(t, os.IsNotExist(err))
	_, err = os.Stat(kept)
	assert.NoError(t, err)
}

func TestRunStopsOnContextCancel(t *testing.T) {
	store := session.NewStore(session.Hooks{})
	layout := audiofs.NewLayout(t.TempDir())
	r := New(store, layout, &recordingDelivery{}, nil, nil).
		WithInterval(5 * time.Millisecond)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		r.Run(ctx)
		close(done)
	}()

	time.Sleep(20 * time.Millisecond)
	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("reaper did not stop")
	}
}
