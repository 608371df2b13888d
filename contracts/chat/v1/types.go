// Package v1 defines the Forever chat wire protocol.
//
// This package is intentionally stable and dependency-light.
// It is shared between server and clients to keep the wire protocol authoritative.
package v1

import (
	"errors"
	"fmt"
	"strings"
	"time"

	json "github.com/goccy/go-json"
)

// Version is the protocol version identifier embedded into every envelope.
const Version = "v1"

// Frame type constants (wire-stable).
const (
	// TypeTyping carries a typing indicator. Client -> server it names the
	// peer (to_user); server -> peer connections it names the origin (from_user).
	TypeTyping = "typing"

	// TypeMessageSend requests sending a new message (client -> server).
	TypeMessageSend = "message_send"
	// TypeMessage pushes a persisted message (server -> recipient and sender connections).
	TypeMessage = "message"
	// TypeMessageAck confirms a send on the originating connection only.
	TypeMessageAck = "message_ack"
	// TypeMessageError reports a failed send on the originating connection only.
	TypeMessageError = "message_error"

	// TypePresence pushes the full online-user snapshot (server -> all connections).
	TypePresence = "presence"

	// TypeLogout asks the server to tear the connection down (client -> server).
	TypeLogout = "logout"

	// TypeError is a generic error envelope (server -> client).
	TypeError = "error"
)

// Content type constants for messages.
const (
	ContentText  = "text"
	ContentImage = "image"
	ContentVideo = "video"
	ContentAudio = "audio"
)

// ValidContentType reports whether ct is a known message content type.
func ValidContentType(ct string) bool {
	switch ct {
	case ContentText, ContentImage, ContentVideo, ContentAudio:
		return true
	default:
		return false
	}
}

// Envelope is the canonical wire wrapper.
type Envelope struct {
	V       string          `json:"v"`
	Type    string          `json:"type"`
	ID      string          `json:"id,omitempty"`
	TS      time.Time       `json:"ts,omitempty"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// Validate performs strict structural validation for an Envelope.
func (e Envelope) Validate() error {
	if strings.TrimSpace(e.V) == "" {
		return errors.New("missing field: v")
	}
	if e.V != Version {
		return fmt.Errorf("unsupported protocol version: %q", e.V)
	}
	if strings.TrimSpace(e.Type) == "" {
		return errors.New("missing field: type")
	}

	switch e.Type {
	case TypeTyping,
		TypeMessageSend,
		TypeMessage,
		TypeMessageAck,
		TypeMessageError,
		TypePresence,
		TypeLogout,
		TypeError:
		return nil
	default:
		return fmt.Errorf("unknown type: %q", e.Type)
	}
}

// ---- Payloads ----

// TypingPayload is a transient typing indicator. It is never stored and
// carries no ordering guarantee; the last delivered signal wins.
type TypingPayload struct {
	FromUser string `json:"from_user,omitempty"`
	ToUser   string `json:"to_user,omitempty"`
	IsTyping bool   `json:"is_typing"`
}

// MessageSendPayload requests delivery of a message to a peer.
type MessageSendPayload struct {
	ToUser      string `json:"to_user"`
	Content     string `json:"content"`
	ContentType string `json:"content_type"`
	ClientMsgID string `json:"client_msg_id,omitempty"`
}

// MessagePayload is the persisted message as pushed to live connections.
// ID and CreatedAt are server-assigned by the persistence layer.
type MessagePayload struct {
	ID          string    `json:"id"`
	Sender      string    `json:"sender"`
	Recipient   string    `json:"recipient"`
	Content     string    `json:"content"`
	ContentType string    `json:"content_type"`
	CreatedAt   time.Time `json:"created_at"`
	ClientMsgID string    `json:"client_msg_id,omitempty"`
}

// MessageErrorPayload reports a failed send to the originating connection.
type MessageErrorPayload struct {
	Code        string `json:"code"`
	Message     string `json:"message"`
	ClientMsgID string `json:"client_msg_id,omitempty"`
}

// PresencePayload is the full online-user snapshot, not a delta.
type PresencePayload struct {
	OnlineUsers []string `json:"online_users"`
}

// ErrorPayload is a generic error response payload.
type ErrorPayload struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}
