// SPDX-License-Identifier: MIT

package log

// Canonical field name constants for structured logging.
const (
	// Identity fields
	FieldJoinKey         = "join_key"
	FieldMessageID       = "message_id"
	FieldConversationKey = "conversation_key"
	FieldSessionKey      = "session_key"
	FieldClientIP        = "client_ip"
	FieldWorker          = "worker"

	// Process / pipeline fields
	FieldEvent     = "event"
	FieldComponent = "component"
	FieldKind      = "kind"

	// Audio / stream fields
	FieldMount    = "mount"
	FieldPath     = "path"
	FieldVoice    = "voice"
	FieldModel    = "model"
	FieldDuration = "duration_s"
	FieldSequence = "sequence"
)
