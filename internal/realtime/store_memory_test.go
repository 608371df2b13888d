package realtime

import (
	"context"
	"fmt"
	"testing"
	"time"
)

func seedConversation(t *testing.T, s *InMemoryStore, a, b string, n int, start time.Time) []ChatMessage {
	t.Helper()

	out := make([]ChatMessage, 0, n)
	for i := 0; i < n; i++ {
		from, to := a, b
		if i%2 == 1 {
			from, to = b, a
		}
		msg, err := s.SaveMessage(context.Background(), SaveMessageInput{
			Sender:    from,
			Recipient: to,
			Content:   fmt.Sprintf("msg %d", i),
			Now:       start.Add(time.Duration(i) * time.Second),
		})
		if err != nil {
			t.Fatalf("SaveMessage %d: %v", i, err)
		}
		out = append(out, msg)
	}
	return out
}

func TestInMemoryStore_SaveAssignsIDAndDefaults(t *testing.T) {
	t.Parallel()

	s := NewInMemoryStore()
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	msg, err := s.SaveMessage(context.Background(), SaveMessageInput{
		Sender:    "alice",
		Recipient: "bob",
		Content:   "hi",
		Now:       now,
	})
	if err != nil {
		t.Fatalf("SaveMessage: %v", err)
	}
	if msg.ID == "" {
		t.Fatalf("ID not assigned")
	}
	if msg.ContentType != "text" {
		t.Fatalf("ContentType = %q, want text default", msg.ContentType)
	}
	if !msg.CreatedAt.Equal(now) {
		t.Fatalf("CreatedAt = %v, want %v", msg.CreatedAt, now)
	}
}

func TestInMemoryStore_SaveRejectsIncompleteInput(t *testing.T) {
	t.Parallel()

	s := NewInMemoryStore()
	for _, in := range []SaveMessageInput{
		{Recipient: "bob", Content: "hi"},
		{Sender: "alice", Content: "hi"},
		{Sender: "alice", Recipient: "bob"},
	} {
		if _, err := s.SaveMessage(context.Background(), in); err == nil {
			t.Fatalf("SaveMessage(%+v): err = nil, want error", in)
		}
	}
}

func TestInMemoryStore_HistoryOrderedAscending(t *testing.T) {
	t.Parallel()

	s := NewInMemoryStore()
	start := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	seedConversation(t, s, "alice", "bob", 5, start)

	// Direction of the query must not matter for a two-party conversation.
	for _, pair := range [][2]string{{"alice", "bob"}, {"bob", "alice"}} {
		res, err := s.History(context.Background(), HistoryInput{UserA: pair[0], UserB: pair[1], Limit: 10})
		if err != nil {
			t.Fatalf("History(%v): %v", pair, err)
		}
		if len(res.Messages) != 5 || res.HasMore {
			t.Fatalf("History(%v) = %d messages hasMore=%v, want 5 false", pair, len(res.Messages), res.HasMore)
		}
		for i := 1; i < len(res.Messages); i++ {
			if res.Messages[i].CreatedAt.Before(res.Messages[i-1].CreatedAt) {
				t.Fatalf("History(%v) not ascending at index %d", pair, i)
			}
		}
	}
}

func TestInMemoryStore_HistoryWindowing(t *testing.T) {
	t.Parallel()

	s := NewInMemoryStore()
	start := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	all := seedConversation(t, s, "alice", "bob", 10, start)

	// Latest window.
	res, err := s.History(context.Background(), HistoryInput{UserA: "alice", UserB: "bob", Limit: 4})
	if err != nil {
		t.Fatalf("History: %v", err)
	}
	if len(res.Messages) != 4 || !res.HasMore {
		t.Fatalf("latest window = %d messages hasMore=%v, want 4 true", len(res.Messages), res.HasMore)
	}
	if res.Messages[3].ID != all[9].ID {
		t.Fatalf("latest window must end at the newest message")
	}

	// Older page, keyed by the oldest timestamp of the previous window.
	res2, err := s.History(context.Background(), HistoryInput{
		UserA:  "alice",
		UserB:  "bob",
		Before: res.Messages[0].CreatedAt,
		Limit:  4,
	})
	if err != nil {
		t.Fatalf("History page 2: %v", err)
	}
	if len(res2.Messages) != 4 || !res2.HasMore {
		t.Fatalf("page 2 = %d messages hasMore=%v, want 4 true", len(res2.Messages), res2.HasMore)
	}
	if res2.Messages[3].ID != all[5].ID {
		t.Fatalf("page 2 must end just before page 1 starts")
	}

	// Final page drains the rest.
	res3, err := s.History(context.Background(), HistoryInput{
		UserA:  "alice",
		UserB:  "bob",
		Before: res2.Messages[0].CreatedAt,
		Limit:  4,
	})
	if err != nil {
		t.Fatalf("History page 3: %v", err)
	}
	if len(res3.Messages) != 2 || res3.HasMore {
		t.Fatalf("page 3 = %d messages hasMore=%v, want 2 false", len(res3.Messages), res3.HasMore)
	}
}

func TestInMemoryStore_ConversationsAreIsolated(t *testing.T) {
	t.Parallel()

	s := NewInMemoryStore()
	start := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	seedConversation(t, s, "alice", "bob", 3, start)
	seedConversation(t, s, "alice", "carol", 2, start)

	res, err := s.History(context.Background(), HistoryInput{UserA: "alice", UserB: "carol", Limit: 10})
	if err != nil {
		t.Fatalf("History: %v", err)
	}
	if len(res.Messages) != 2 {
		t.Fatalf("alice/carol history = %d messages, want 2", len(res.Messages))
	}
}
