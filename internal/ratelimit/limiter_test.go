// SPDX-License-Identifier: MIT

package ratelimit

import (
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExceededAfterCharge(t *testing.T) {
	l := New(1000)

	assert.False(t, l.Exceeded("10.0.0.1"))

	// A 12s TTS response at 100/s charges 1200, pushing the IP over; the
	// charge itself succeeds, only the next request is refused.
	l.Increment("10.0.0.1", 12*100)
	assert.True(t, l.Exceeded("10.0.0.1"))
	assert.False(t, l.Exceeded("10.0.0.2"))
}

func TestWindowExpiry(t *testing.T) {
	now := time.Date(2026, 8, 24, 12, 0, 0, 0, time.UTC)
	l := New(100).WithClock(func() time.Time { return now })

	l.Increment("ip", 150)
	assert.True(t, l.Exceeded("ip"))

	now = now.Add(Window + time.Second)
	assert.False(t, l.Exceeded("ip"))
	assert.Equal(t, 0.0, l.Usage("ip"))
}

func TestUsageSumsWindow(t *testing.T) {
	now := time.Date(2026, 8, 24, 12, 0, 0, 0, time.UTC)
	l := New(1000).WithClock(func() time.Time { return now })

	l.Increment("ip", 10)
	now = now.Add(time.Hour)
	l.Increment("ip", 20.5)
	assert.InDelta(t, 30.5, l.Usage("ip"), 1e-9)
}

func TestClientIPPeerAddr(t *testing.T) {
	r := httptest.NewRequest("POST", "/", nil)
	r.RemoteAddr = "192.0.2.7:1234"
	ip, err := ClientIP(r, false)
	require.NoError(t, err)
	assert.Equal(t, "192.0.2.7", ip)
}

func TestClientIPForwardedFor(t *testing.T) {
	r := httptest.NewRequest("POST", "/", nil)
	r.Header.Set("X-Forwarded-For", "203.0.113.9, 10.0.0.1")
	ip, err := ClientIP(r, true)
	require.NoError(t, err)
	assert.Equal(t, "203.0.113.9", ip)

	r.Header.Del("X-Forwarded-For")
	_, err = ClientIP(r, true)
	assert.ErrorIs(t, err, ErrNoForwardedFor)
}
