package realtime

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	v1 "github.com/MSC-0013/FOREVER/contracts/chat/v1"

	json "github.com/goccy/go-json"
)

// fakeStore records SaveMessage calls and can be forced to fail.
type fakeStore struct {
	saves   int
	failErr error
}

func (s *fakeStore) SaveMessage(ctx context.Context, in SaveMessageInput) (ChatMessage, error) {
	s.saves++
	if s.failErr != nil {
		return ChatMessage{}, s.failErr
	}
	return ChatMessage{
		ID:          "msg-1",
		Sender:      in.Sender,
		Recipient:   in.Recipient,
		Content:     in.Content,
		ContentType: in.ContentType,
		CreatedAt:   in.Now,
	}, nil
}

func (s *fakeStore) History(ctx context.Context, in HistoryInput) (HistoryResult, error) {
	return HistoryResult{}, nil
}

func (s *fakeStore) Close() error { return nil }

func drainMessages(t *testing.T, c *Client) []v1.MessagePayload {
	t.Helper()

	var out []v1.MessagePayload
	for {
		select {
		case env := <-c.Send:
			if env.Type != v1.TypeMessage {
				continue
			}
			var p v1.MessagePayload
			if err := json.Unmarshal(env.Payload, &p); err != nil {
				t.Fatalf("unmarshal message payload: %v", err)
			}
			out = append(out, p)
		default:
			return out
		}
	}
}

func TestMessageRelay_RejectsInvalidMessages(t *testing.T) {
	t.Parallel()

	store := &fakeStore{}
	relay := NewMessageRelay(testLogger(), NewRegistry(), store)

	cases := []struct {
		name        string
		recipient   string
		content     string
		contentType string
	}{
		{"empty content", "bob", "", ""},
		{"whitespace content", "bob", "   \n", ""},
		{"too long", "bob", strings.Repeat("x", maxContentChars+1), ""},
		{"unknown content type", "bob", "hi", "carrier-pigeon"},
		{"missing recipient", "", "hi", ""},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := relay.Send(context.Background(), "alice", tc.recipient, tc.content, tc.contentType)
			if !errors.Is(err, ErrInvalidMessage) {
				t.Fatalf("err = %v, want ErrInvalidMessage", err)
			}
		})
	}

	if store.saves != 0 {
		t.Fatalf("store.saves = %d, want 0 (invalid messages must not hit the store)", store.saves)
	}
}

func TestMessageRelay_PersistenceFailureMeansZeroFanOut(t *testing.T) {
	t.Parallel()

	reg := NewRegistry()
	sender := NewClient("alice", "a1", 8)
	recipient := NewClient("bob", "b1", 8)
	reg.Register(sender)
	reg.Register(recipient)

	store := &fakeStore{failErr: errors.New("db down")}
	relay := NewMessageRelay(testLogger(), reg, store)

	_, err := relay.Send(context.Background(), "alice", "bob", "hi", "")
	if !errors.Is(err, ErrPersistenceFailure) {
		t.Fatalf("err = %v, want ErrPersistenceFailure", err)
	}
	if store.saves != 1 {
		t.Fatalf("store.saves = %d, want 1", store.saves)
	}
	if got := drainMessages(t, sender); len(got) != 0 {
		t.Fatalf("sender received %d message frames, want 0", len(got))
	}
	if got := drainMessages(t, recipient); len(got) != 0 {
		t.Fatalf("recipient received %d message frames, want 0", len(got))
	}
}

func TestMessageRelay_FansOutToRecipientAndEchoesSender(t *testing.T) {
	t.Parallel()

	reg := NewRegistry()
	sender := NewClient("alice", "a1", 8)
	recipientPhone := NewClient("bob", "b1", 8)
	recipientLaptop := NewClient("bob", "b2", 8)
	bystander := NewClient("carol", "c1", 8)
	reg.Register(sender)
	reg.Register(recipientPhone)
	reg.Register(recipientLaptop)
	reg.Register(bystander)

	store := &fakeStore{}
	relay := NewMessageRelay(testLogger(), reg, store)

	stored, err := relay.Send(context.Background(), "alice", "bob", "hi there", "")
	if err != nil {
		t.Fatalf("Send: %v", err)
	}
	if stored.ID == "" || stored.ContentType != v1.ContentText {
		t.Fatalf("stored = %+v, want server id and text content type", stored)
	}
	if store.saves != 1 {
		t.Fatalf("store.saves = %d, want 1", store.saves)
	}

	for _, c := range []*Client{sender, recipientPhone, recipientLaptop} {
		got := drainMessages(t, c)
		if len(got) != 1 {
			t.Fatalf("%s/%s received %d message frames, want 1", c.UserID, c.ConnID, len(got))
		}
		if got[0].ID != stored.ID || got[0].Content != "hi there" {
			t.Fatalf("%s/%s payload = %+v, want stored record", c.UserID, c.ConnID, got[0])
		}
	}
	if got := drainMessages(t, bystander); len(got) != 0 {
		t.Fatalf("bystander received %d message frames, want 0", len(got))
	}
}

func TestMessageRelay_OfflineRecipientStillPersistsAndEchoes(t *testing.T) {
	t.Parallel()

	reg := NewRegistry()
	sender := NewClient("alice", "a1", 8)
	reg.Register(sender)

	store := &fakeStore{}
	relay := NewMessageRelay(testLogger(), reg, store)

	if _, err := relay.Send(context.Background(), "alice", "bob", "hello?", ""); err != nil {
		t.Fatalf("Send: %v", err)
	}
	if store.saves != 1 {
		t.Fatalf("store.saves = %d, want 1", store.saves)
	}
	if got := drainMessages(t, sender); len(got) != 1 {
		t.Fatalf("sender echo = %d frames, want 1", len(got))
	}
}

func TestMessageRelay_SelfMessageDeliversOncePerConnection(t *testing.T) {
	t.Parallel()

	reg := NewRegistry()
	phone := NewClient("alice", "a1", 8)
	laptop := NewClient("alice", "a2", 8)
	reg.Register(phone)
	reg.Register(laptop)

	relay := NewMessageRelay(testLogger(), reg, &fakeStore{})

	if _, err := relay.Send(context.Background(), "alice", "alice", "note to self", ""); err != nil {
		t.Fatalf("Send: %v", err)
	}

	for _, c := range []*Client{phone, laptop} {
		if got := drainMessages(t, c); len(got) != 1 {
			t.Fatalf("%s received %d message frames, want exactly 1", c.ConnID, len(got))
		}
	}
}

func TestMessageRelay_FullQueueClosesSlowConnectionOnly(t *testing.T) {
	t.Parallel()

	reg := NewRegistry()
	sender := NewClient("alice", "a1", 8)
	// Minimum queue of size 1, pre-filled so the next delivery overflows.
	slow := NewClient("bob", "b1", 1)
	slow.Send <- v1.Envelope{V: v1.Version, Type: v1.TypePresence, TS: time.Now()}
	healthy := NewClient("bob", "b2", 8)
	reg.Register(sender)
	reg.Register(slow)
	reg.Register(healthy)

	relay := NewMessageRelay(testLogger(), reg, &fakeStore{})

	if _, err := relay.Send(context.Background(), "alice", "bob", "hi", ""); err != nil {
		t.Fatalf("Send: %v", err)
	}

	select {
	case <-slow.Done():
	default:
		t.Fatalf("slow connection not closed after queue overflow")
	}
	if got := drainMessages(t, healthy); len(got) != 1 {
		t.Fatalf("healthy sibling received %d message frames, want 1", len(got))
	}
	if got := drainMessages(t, sender); len(got) != 1 {
		t.Fatalf("sender echo = %d frames, want 1", len(got))
	}
}
