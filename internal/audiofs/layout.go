// SPDX-License-Identifier: MIT

// Package audiofs owns the on-disk audio layout. Live sessions write to
// generated-audio/active/<join_key>/; a reset moves the files into a
// timestamped inactive archive while keeping the emptied active directory in
// place so the broadcaster does not lose its mount. Only the reaper deletes
// active directories.
package audiofs

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/renameio/v2"
	"github.com/google/uuid"

	"github.com/aitalkmaster/aitalkmaster/internal/log"
)

const archiveStampLayout = "20060102-150405"

// Layout resolves paths under one audio root.
type Layout struct {
	root string
}

// NewLayout creates a layout rooted at dir (e.g. "generated-audio").
func NewLayout(dir string) *Layout {
	return &Layout{root: dir}
}

// ActiveDir returns the live directory of a dialog session.
func (l *Layout) ActiveDir(joinKey string) string {
	return filepath.Join(l.root, "active", sanitize(joinKey))
}

// TranslationActiveDir returns the live directory of a translation session.
func (l *Layout) TranslationActiveDir(sessionKey string) string {
	return filepath.Join(l.root, "translation", "active", sanitize(sessionKey))
}

// BuildFilename allocates an audio file path inside dir. The zero-padded
// sequence prefix makes lexicographic order equal playback order; the UUID
// suffix keeps names collision-free across resets.
func BuildFilename(dir, sequence, character, messageID, voice string) string {
	name := fmt.Sprintf("%s_%s_%s_%s_%s.mp3",
		sequence, sanitize(character), sanitize(messageID), sanitize(voice), uuid.NewString())
	return filepath.Join(dir, name)
}

// WriteFile writes audio bytes atomically so the broadcaster never queues a
// half-written MP3.
func WriteFile(path string, data []byte) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create audio dir: %w", err)
	}
	if err := renameio.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write audio file: %w", err)
	}
	return nil
}

// Archive moves every file of the session's active directory into
// inactive/<join_key>_<timestamp>/. The active directory itself stays,
// emptied, so a running broadcaster mount keeps a valid source directory.
func (l *Layout) Archive(joinKey string) error {
	active := l.ActiveDir(joinKey)
	entries, err := os.ReadDir(active)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("read active dir: %w", err)
	}
	if len(entries) == 0 {
		return nil
	}

	stamp := time.Now().Format(archiveStampLayout)
	inactive := filepath.Join(l.root, "inactive", sanitize(joinKey)+"_"+stamp)
	if err := os.MkdirAll(inactive, 0o755); err != nil {
		return fmt.Errorf("create inactive dir: %w", err)
	}

	logger := log.WithComponent("audiofs")
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		src := filepath.Join(active, e.Name())
		dst := filepath.Join(inactive, e.Name())
		if err := os.Rename(src, dst); err != nil {
			return fmt.Errorf("archive %s: %w", e.Name(), err)
		}
		logger.Debug().
			Str(log.FieldEvent, "audio.archived").
			Str(log.FieldJoinKey, joinKey).
			Str(log.FieldPath, dst).
			Msg("audio file archived")
	}
	logger.Info().
		Str(log.FieldEvent, "audio.archive_complete").
		Str(log.FieldJoinKey, joinKey).
		Int("files", len(entries)).
		Msg("active directory emptied")
	return nil
}

// DeleteActive removes a session's active directory entirely. Reserved for
// the reaper.
func (l *Layout) DeleteActive(joinKey string) error {
	return os.RemoveAll(l.ActiveDir(joinKey))
}

// ActiveKeys lists the join keys that currently have an active directory on
// disk, whether or not a live session matches them.
func (l *Layout) ActiveKeys() ([]string, error) {
	entries, err := os.ReadDir(filepath.Join(l.root, "active"))
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	keys := make([]string, 0, len(entries))
	for _, e := range entries {
		if e.IsDir() {
			keys = append(keys, e.Name())
		}
	}
	return keys, nil
}

// sanitize strips path separators from caller-supplied name components.
func sanitize(s string) string {
	s = strings.ReplaceAll(s, string(os.PathSeparator), "-")
	s = strings.ReplaceAll(s, "..", "-")
	return s
}
