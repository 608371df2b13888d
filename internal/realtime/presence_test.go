package realtime

import (
	"reflect"
	"testing"

	v1 "github.com/MSC-0013/FOREVER/contracts/chat/v1"

	json "github.com/goccy/go-json"
)

func lastPresence(t *testing.T, c *Client) (v1.PresencePayload, int) {
	t.Helper()

	var last v1.PresencePayload
	n := 0
	for {
		select {
		case env := <-c.Send:
			if env.Type != v1.TypePresence {
				continue
			}
			if err := json.Unmarshal(env.Payload, &last); err != nil {
				t.Fatalf("unmarshal presence payload: %v", err)
			}
			n++
		default:
			return last, n
		}
	}
}

func TestPresenceBroadcaster_PublishesFullSnapshotToEveryone(t *testing.T) {
	t.Parallel()

	reg := NewRegistry()
	alice := NewClient("alice", "a1", 8)
	bobPhone := NewClient("bob", "b1", 8)
	bobLaptop := NewClient("bob", "b2", 8)
	reg.Register(alice)
	reg.Register(bobPhone)
	reg.Register(bobLaptop)

	NewPresenceBroadcaster(testLogger(), reg).Publish()

	want := []string{"alice", "bob"}
	for _, c := range []*Client{alice, bobPhone, bobLaptop} {
		got, n := lastPresence(t, c)
		if n != 1 {
			t.Fatalf("%s received %d presence frames, want 1", c.ConnID, n)
		}
		if !reflect.DeepEqual(got.OnlineUsers, want) {
			t.Fatalf("%s snapshot = %v, want %v", c.ConnID, got.OnlineUsers, want)
		}
	}
}

func TestPresenceBroadcaster_SnapshotShrinksAfterOffline(t *testing.T) {
	t.Parallel()

	reg := NewRegistry()
	alice := NewClient("alice", "a1", 8)
	bob := NewClient("bob", "b1", 8)
	reg.Register(alice)
	reg.Register(bob)

	b := NewPresenceBroadcaster(testLogger(), reg)
	b.Publish()

	reg.Deregister("bob", "b1")
	b.Publish()

	got, n := lastPresence(t, alice)
	if n != 2 {
		t.Fatalf("alice received %d presence frames, want 2", n)
	}
	want := []string{"alice"}
	if !reflect.DeepEqual(got.OnlineUsers, want) {
		t.Fatalf("snapshot after bob left = %v, want %v", got.OnlineUsers, want)
	}
}

func TestPresenceBroadcaster_EmptyRegistryIsSafe(t *testing.T) {
	t.Parallel()

	NewPresenceBroadcaster(testLogger(), NewRegistry()).Publish()
}
