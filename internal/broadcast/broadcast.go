// SPDX-License-Identifier: MIT

// Package broadcast connects generated audio to listeners. The Control
// client drives the external stream mixer over its HTTP command endpoint,
// the Stats client reads listener counts from the streaming server's admin
// API, and the Streamer serves a chunked MP3 stream directly over HTTP for
// clients that bypass the mixer.
package broadcast

import "context"

// Delivery receives session lifecycle and audio events. The Control client
// implements it against the stream mixer; Noop serves deployments without
// one.
type Delivery interface {
	SessionStarted(ctx context.Context, joinKey string)
	SessionStopped(ctx context.Context, joinKey string)
	FileReady(ctx context.Context, joinKey, path string)
	TranslationStarted(ctx context.Context, sessionKey string)
	TranslationStopped(ctx context.Context, sessionKey string)
	TranslationFileReady(ctx context.Context, sessionKey, path string)
}

// Noop is a Delivery that does nothing.
type Noop struct{}

func (Noop) SessionStarted(context.Context, string)               {}
func (Noop) SessionStopped(context.Context, string)               {}
func (Noop) FileReady(context.Context, string, string)            {}
func (Noop) TranslationStarted(context.Context, string)           {}
func (Noop) TranslationStopped(context.Context, string)           {}
func (Noop) TranslationFileReady(context.Context, string, string) {}
