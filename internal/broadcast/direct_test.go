// SPDX-License-Identifier: MIT

package broadcast

import (
	"bytes"
	"context"
	"net/http"
	"os"
	"path/filepath"
	"testing"
	"time"

	shine "github.com/braheezy/shine-mp3/pkg/mp3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aitalkmaster/aitalkmaster/internal/session"
)

func writeSilenceMP3(t *testing.T, path string, seconds int) []byte {
	t.Helper()
	samples := make([]int16, 44100*2*seconds)
	enc := shine.NewEncoder(44100, 2)
	var buf bytes.Buffer
	enc.Write(&buf, samples)
	require.NoError(t, os.WriteFile(path, buf.Bytes(), 0o644))
	return buf.Bytes()
}

// cancelWriter cancels the stream context once the expected number of bytes
// has arrived, simulating a client that hangs up.
type cancelWriter struct {
	buf    bytes.Buffer
	limit  int
	cancel context.CancelFunc
	header http.Header
}

func (w *cancelWriter) Header() http.Header {
	if w.header == nil {
		w.header = make(http.Header)
	}
	return w.header
}

func (w *cancelWriter) WriteHeader(int) {}

func (w *cancelWriter) Write(p []byte) (int, error) {
	n, err := w.buf.Write(p)
	if w.buf.Len() >= w.limit {
		w.cancel()
	}
	return n, err
}

func TestStreamerSupersession(t *testing.T) {
	s := NewStreamer(session.NewStore(session.Hooks{}), t.TempDir())

	firstID, firstPlayed := s.register("10.0.0.1")
	s.markPlayed(firstPlayed, "a.mp3")

	secondID, secondPlayed := s.register("10.0.0.1")
	assert.False(t, s.isLive("10.0.0.1", firstID))
	assert.True(t, s.isLive("10.0.0.1", secondID))

	// The new connection inherits the played history.
	assert.True(t, s.wasPlayed(secondPlayed, "a.mp3"))

	// A different address gets its own slot.
	otherID, _ := s.register("10.0.0.2")
	assert.True(t, s.isLive("10.0.0.1", secondID))
	assert.True(t, s.isLive("10.0.0.2", otherID))
}

func TestPendingFilesFiltering(t *testing.T) {
	dir := t.TempDir()
	store := session.NewStore(session.Hooks{})
	s := NewStreamer(store, dir)
	sess := store.GetOrCreate("K1")

	fresh := filepath.Join(dir, "001_fresh.mp3")
	writeSilenceMP3(t, fresh, 1)
	heard := filepath.Join(dir, "002_heard.mp3")
	writeSilenceMP3(t, heard, 1)

	now := time.Now()
	sess.AddResponse("one", "Bob", "r1", fresh)
	sess.SetAudioReady("r1", now)
	sess.AddResponse("two", "Bob", "r2", heard)
	sess.SetAudioReady("r2", now)
	sess.AddResponse("old", "Bob", "r3", fresh)
	sess.SetAudioReady("r3", now.Add(-2*playbackRange))
	sess.AddResponse("pending", "Bob", "r4", filepath.Join(dir, "missing.mp3"))
	sess.SetAudioReady("r4", now)
	sess.AddResponse("no audio yet", "Bob", "r5", filepath.Join(dir, "003.mp3"))

	played := map[string]struct{}{heard: {}}
	files := s.pendingFiles(sess, played)
	assert.Equal(t, []string{fresh}, files)
}

func TestStreamPlaysFreshAudioThenStops(t *testing.T) {
	dir := t.TempDir()
	store := session.NewStore(session.Hooks{})
	s := NewStreamer(store, filepath.Join(dir, "no-fallback"))

	sess := store.GetOrCreate("K1")
	path := filepath.Join(dir, "001_line.mp3")
	data := writeSilenceMP3(t, path, 1)
	sess.AddResponse("hello", "Bob", "r1", path)
	sess.SetAudioReady("r1", time.Now())

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	w := &cancelWriter{limit: len(data), cancel: cancel}

	done := make(chan struct{})
	go func() {
		s.Stream(ctx, w, "K1", "10.0.0.9")
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(15 * time.Second):
		t.Fatal("stream did not terminate")
	}
	assert.Equal(t, data, w.buf.Bytes())
	assert.Equal(t, "audio/mpeg", w.Header().Get("Content-Type"))
}

func TestStreamMarksSessionListenedTo(t *testing.T) {
	dir := t.TempDir()
	store := session.NewStore(session.Hooks{})
	s := NewStreamer(store, filepath.Join(dir, "no-fallback"))

	sess := store.GetOrCreate("K1")
	path := filepath.Join(dir, "001_line.mp3")
	data := writeSilenceMP3(t, path, 1)
	sess.AddResponse("hello", "Bob", "r1", path)
	sess.SetAudioReady("r1", time.Now())

	before := sess.LastListenedAt()
	time.Sleep(10 * time.Millisecond)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	w := &cancelWriter{limit: len(data), cancel: cancel}

	done := make(chan struct{})
	go func() {
		s.Stream(ctx, w, "K1", "10.0.0.4")
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(15 * time.Second):
		t.Fatal("stream did not terminate")
	}

	// The open connection counts as a listener, so the reaper's idle clock
	// must have been pushed forward.
	assert.True(t, sess.LastListenedAt().After(before))
}

func TestStreamCreatesSessionOnOpen(t *testing.T) {
	store := session.NewStore(session.Hooks{})
	s := NewStreamer(store, t.TempDir())

	ctx, cancel := context.WithCancel(context.Background())
	cancel() // end immediately; only the session creation matters here
	w := &cancelWriter{limit: 1, cancel: func() {}}
	s.Stream(ctx, w, "brand-new", "10.0.0.3")

	_, ok := store.Get("brand-new")
	assert.True(t, ok)
}
