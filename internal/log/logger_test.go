// SPDX-License-Identifier: MIT

package log

import (
	"bytes"
	"encoding/json"
	"testing"
)

func TestConfigureOnce(t *testing.T) {
	var buf bytes.Buffer
	Configure(Config{Level: "debug", Output: &buf, Service: "aitalkmaster-test"})

	logger := WithComponent("queue")
	logger.Info().
		Str(FieldJoinKey, "K").
		Str(FieldEvent, "job.enqueued").
		Msg("enqueued")

	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("log output is not JSON: %v", err)
	}
	if entry["component"] != "queue" {
		t.Errorf("expected component queue, got %v", entry["component"])
	}
	if entry["join_key"] != "K" {
		t.Errorf("expected join_key K, got %v", entry["join_key"])
	}

	// A second Configure must not replace the writer.
	var other bytes.Buffer
	Configure(Config{Output: &other})
	base := Base()
	base.Info().Msg("still first writer")
	if other.Len() != 0 {
		t.Error("second Configure replaced the writer")
	}
}
