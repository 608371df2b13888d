package v1

import (
	"strings"
	"testing"
	"time"

	json "github.com/goccy/go-json"
)

func TestEnvelope_ValidateAcceptsKnownTypes(t *testing.T) {
	t.Parallel()

	for _, typ := range []string{
		TypeTyping, TypeMessageSend, TypeMessage, TypeMessageAck,
		TypeMessageError, TypePresence, TypeLogout, TypeError,
	} {
		env := Envelope{V: Version, Type: typ}
		if err := env.Validate(); err != nil {
			t.Fatalf("Validate(%s): %v", typ, err)
		}
	}
}

func TestEnvelope_ValidateRejectsBadEnvelopes(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name string
		env  Envelope
		want string
	}{
		{"missing v", Envelope{Type: TypeTyping}, "missing field: v"},
		{"wrong version", Envelope{V: "v999", Type: TypeTyping}, "unsupported protocol version"},
		{"missing type", Envelope{V: Version}, "missing field: type"},
		{"unknown type", Envelope{V: Version, Type: "teleport"}, "unknown type"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.env.Validate()
			if err == nil || !strings.Contains(err.Error(), tc.want) {
				t.Fatalf("Validate() = %v, want error containing %q", err, tc.want)
			}
		})
	}
}

func TestEnvelope_WireShape(t *testing.T) {
	t.Parallel()

	raw := []byte(`{"v":"v1","type":"message_send","payload":{"to_user":"bob","content":"hi","client_msg_id":"local-1"}}`)

	var env Envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		t.Fatalf("unmarshal envelope: %v", err)
	}
	if err := env.Validate(); err != nil {
		t.Fatalf("Validate: %v", err)
	}

	var p MessageSendPayload
	if err := json.Unmarshal(env.Payload, &p); err != nil {
		t.Fatalf("unmarshal payload: %v", err)
	}
	if p.ToUser != "bob" || p.Content != "hi" || p.ClientMsgID != "local-1" {
		t.Fatalf("payload = %+v", p)
	}
}

func TestValidContentType(t *testing.T) {
	t.Parallel()

	for _, ct := range []string{ContentText, ContentImage, ContentVideo, ContentAudio} {
		if !ValidContentType(ct) {
			t.Fatalf("ValidContentType(%s) = false, want true", ct)
		}
	}
	for _, ct := range []string{"", "gif", "TEXT"} {
		if ValidContentType(ct) {
			t.Fatalf("ValidContentType(%q) = true, want false", ct)
		}
	}
}

func TestEnvelope_TimestampSurvivesRoundTrip(t *testing.T) {
	t.Parallel()

	ts := time.Date(2026, 3, 1, 12, 0, 0, 123456789, time.UTC)
	env := Envelope{V: Version, Type: TypePresence, ID: "01ARZ", TS: ts}

	raw, err := json.Marshal(env)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var got Envelope
	if err := json.Unmarshal(raw, &got); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if !got.TS.Equal(ts) || got.ID != "01ARZ" {
		t.Fatalf("round trip = %+v", got)
	}
}
