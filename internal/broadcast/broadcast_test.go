// SPDX-License-Identifier: MIT

package broadcast

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aitalkmaster/aitalkmaster/internal/config"
)

type command struct {
	endpoint string
	body     string
}

func newMixer(t *testing.T) (*Control, *[]command) {
	t.Helper()
	var got []command
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "text/plain", r.Header.Get("Content-Type"))
		body, err := io.ReadAll(r.Body)
		require.NoError(t, err)
		got = append(got, command{endpoint: r.URL.Path, body: string(body)})
		w.WriteHeader(http.StatusOK)
	}))
	t.Cleanup(ts.Close)

	c := NewControl(config.BroadcasterConfig{})
	c.baseURL = ts.URL
	return c, &got
}

func TestControlCommandFormats(t *testing.T) {
	c, got := newMixer(t)
	ctx := context.Background()

	c.SessionStarted(ctx, "K1")
	c.FileReady(ctx, "K1", "/audio/001_x.mp3")
	c.SessionStopped(ctx, "K1")
	c.TranslationStarted(ctx, "T1")
	c.TranslationFileReady(ctx, "T1", "/audio/t.mp3")
	c.TranslationStopped(ctx, "T1")

	assert.Equal(t, []command{
		{"/start_aitalkmaster_stream", "K1"},
		{"/queue_aitalkmaster_audio", "K1::/audio/001_x.mp3"},
		{"/stop_aitalkmaster_stream", "K1"},
		{"/start_translation_stream", "translation::T1"},
		{"/queue_translation_audio", "translation::T1::/audio/t.mp3"},
		{"/stop_translation_stream", "translation::T1"},
	}, *got)
}

func TestControlSwallowsMixerFailure(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "no such stream", http.StatusInternalServerError)
	}))
	defer ts.Close()

	c := NewControl(config.BroadcasterConfig{})
	c.baseURL = ts.URL
	// Must not panic or block; errors are logged only.
	c.SessionStarted(context.Background(), "K1")

	c.baseURL = "http://127.0.0.1:1"
	c.SessionStopped(context.Background(), "K1")
}

const statsXML = `<icestats>
	<source mount="/stream/K1"><listeners>3</listeners></source>
	<source mount="/stream/K2"><listeners>0</listeners></source>
	<source mount="/other"><listeners>9</listeners></source>
</icestats>`

func newStats(t *testing.T) *Stats {
	t.Helper()
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, pass, ok := r.BasicAuth()
		require.True(t, ok)
		require.Equal(t, "admin", user)
		require.Equal(t, "hackme", pass)
		switch r.URL.Path {
		case "/admin/listmounts", "/admin/stats":
			_, _ = w.Write([]byte(statsXML))
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	t.Cleanup(ts.Close)

	s := NewStats(config.AdminStatsConfig{AdminUser: "admin", AdminPassword: "hackme"})
	s.baseURL = ts.URL
	return s
}

func TestStatsMounts(t *testing.T) {
	s := newStats(t)
	mounts, err := s.Mounts(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"/stream/K1", "/stream/K2", "/other"}, mounts)
}

func TestStatsListeners(t *testing.T) {
	s := newStats(t)

	n, err := s.Listeners(context.Background(), "/stream/K1")
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	n, err = s.Listeners(context.Background(), "/stream/missing")
	require.NoError(t, err)
	assert.Equal(t, 0, n)
}

func TestStatsMountMapping(t *testing.T) {
	s := NewStats(config.AdminStatsConfig{})
	assert.Equal(t, "/stream/K1", s.MountFor("K1"))

	key, ok := s.JoinKeyFor("/stream/K1")
	assert.True(t, ok)
	assert.Equal(t, "K1", key)

	_, ok = s.JoinKeyFor("/other")
	assert.False(t, ok)
}
