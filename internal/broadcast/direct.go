// SPDX-License-Identifier: MIT

package broadcast

import (
	"context"
	"math/rand/v2"
	"net/http"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/aitalkmaster/aitalkmaster/internal/audio"
	"github.com/aitalkmaster/aitalkmaster/internal/log"
	"github.com/aitalkmaster/aitalkmaster/internal/session"
)

const (
	// streamChunkSize keeps individual writes small so playback starts
	// quickly and disconnects are noticed between chunks.
	streamChunkSize = 1024

	// playbackRange is how long after rendering a response's audio is still
	// worth playing to a late joiner.
	playbackRange = 60 * time.Second
)

// Streamer serves session audio directly over HTTP. One connection per
// client IP: a new connection from the same address supersedes the old one
// and inherits its played-file history, so reconnecting listeners do not
// hear everything again.
type Streamer struct {
	store       *session.Store
	fallbackDir string

	mu      sync.Mutex
	current map[string]uint64              // client IP -> live connection id
	played  map[string]map[string]struct{} // client IP -> played file set
	counter uint64
}

// NewStreamer creates a direct streamer. fallbackDir holds the filler MP3s
// played while a session has no fresh audio.
func NewStreamer(store *session.Store, fallbackDir string) *Streamer {
	return &Streamer{
		store:       store,
		fallbackDir: fallbackDir,
		current:     make(map[string]uint64),
		played:      make(map[string]map[string]struct{}),
	}
}

// register claims the live-connection slot for an IP and returns this
// connection's id plus the shared played set.
func (s *Streamer) register(clientIP string) (uint64, map[string]struct{}) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.counter++
	id := s.counter
	if prev, ok := s.current[clientIP]; ok {
		logger := log.WithComponent("stream")
		logger.Info().
			Str(log.FieldEvent, "stream.superseded").
			Str(log.FieldClientIP, clientIP).
			Uint64("old_connection", prev).
			Uint64("connection", id).
			Msg("replacing existing connection from same address")
	}
	s.current[clientIP] = id
	if s.played[clientIP] == nil {
		s.played[clientIP] = make(map[string]struct{})
	}
	return id, s.played[clientIP]
}

func (s *Streamer) isLive(clientIP string, id uint64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current[clientIP] == id
}

func (s *Streamer) markPlayed(played map[string]struct{}, file string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	played[file] = struct{}{}
}

func (s *Streamer) wasPlayed(played map[string]struct{}, file string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := played[file]
	return ok
}

// fillers lists the fallback audio pool. Missing directory means silence
// gaps instead of filler audio.
func (s *Streamer) fillers() []string {
	matches, err := filepath.Glob(filepath.Join(s.fallbackDir, "*.mp3"))
	if err != nil {
		return nil
	}
	return matches
}

// Stream writes a continuous MP3 stream for joinKey to w until the client
// disconnects, the context ends or a newer connection from the same IP takes
// over. The session is created when it does not exist yet, so listeners can
// tune in before the first message arrives.
func (s *Streamer) Stream(ctx context.Context, w http.ResponseWriter, joinKey, clientIP string) {
	sess := s.store.GetOrCreate(joinKey)
	id, played := s.register(clientIP)

	logger := log.WithComponent("stream")
	logger.Info().
		Str(log.FieldEvent, "stream.open").
		Str(log.FieldJoinKey, joinKey).
		Str(log.FieldClientIP, clientIP).
		Uint64("connection", id).
		Msg("direct stream opened")
	defer logger.Info().
		Str(log.FieldEvent, "stream.closed").
		Str(log.FieldJoinKey, joinKey).
		Str(log.FieldClientIP, clientIP).
		Uint64("connection", id).
		Msg("direct stream closed")

	w.Header().Set("Content-Type", "audio/mpeg")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Content-Disposition", "inline; filename=audio_stream.mp3")

	fillers := s.fillers()
	nextStart := time.Now()

	for {
		if !sleepUntil(ctx, nextStart) {
			return
		}
		if !s.isLive(clientIP, id) {
			return
		}
		// The reaper has no listener statistics in direct mode; the open
		// connection itself is the evidence of a listener.
		sess.Touch(time.Now())

		files := s.pendingFiles(sess, played)
		if len(files) == 0 {
			if len(fillers) == 0 {
				if !sleepUntil(ctx, time.Now().Add(time.Second)) {
					return
				}
				continue
			}
			file := fillers[rand.IntN(len(fillers))]
			nextStart = s.playFile(ctx, w, file)
			if nextStart.IsZero() {
				return
			}
			continue
		}

		for _, file := range files {
			nextStart = s.playFile(ctx, w, file)
			if nextStart.IsZero() {
				return
			}
			s.markPlayed(played, file)
		}
	}
}

// pendingFiles returns the session's unplayed audio files, in response
// order, that are on disk and still within the playback range.
func (s *Streamer) pendingFiles(sess *session.Session, played map[string]struct{}) []string {
	var files []string
	cutoff := time.Now().Add(-playbackRange)
	for _, resp := range sess.Responses() {
		if resp.Filename == "" || resp.AudioReadyAt.IsZero() || resp.AudioReadyAt.Before(cutoff) {
			continue
		}
		if s.wasPlayed(played, resp.Filename) {
			continue
		}
		if _, err := os.Stat(resp.Filename); err != nil {
			continue
		}
		files = append(files, resp.Filename)
	}
	return files
}

// playFile streams one file in chunks and returns when the next file may
// start, pacing output to real playback time. A zero return means the
// client is gone.
func (s *Streamer) playFile(ctx context.Context, w http.ResponseWriter, path string) time.Time {
	logger := log.WithComponent("stream")
	data, err := os.ReadFile(path)
	if err != nil {
		logger.Warn().Err(err).
			Str(log.FieldEvent, "stream.file_error").
			Str(log.FieldPath, path).
			Msg("skipping unreadable audio file")
		return time.Now()
	}
	duration, err := audio.Duration(data)
	if err != nil {
		logger.Warn().Err(err).
			Str(log.FieldEvent, "stream.file_error").
			Str(log.FieldPath, path).
			Msg("skipping undecodable audio file")
		return time.Now()
	}
	next := time.Now().Add(time.Duration(duration * float64(time.Second)))

	flusher, _ := w.(http.Flusher)
	for off := 0; off < len(data); off += streamChunkSize {
		if ctx.Err() != nil {
			return time.Time{}
		}
		end := off + streamChunkSize
		if end > len(data) {
			end = len(data)
		}
		if _, err := w.Write(data[off:end]); err != nil {
			return time.Time{}
		}
		if flusher != nil {
			flusher.Flush()
		}
	}
	return next
}

// sleepUntil blocks until the deadline or context end; false means the
// context ended first. Deadlines in the past return immediately.
func sleepUntil(ctx context.Context, deadline time.Time) bool {
	for {
		wait := time.Until(deadline)
		if wait <= 0 {
			return ctx.Err() == nil
		}
		if wait > time.Second {
			wait = time.Second
		}
		select {
		case <-ctx.Done():
			return false
		case <-time.After(wait):
		}
	}
}
