package auth

import (
	"context"
	"errors"
	"testing"
)

func TestInMemoryUserStore_UsernameConflictIsCaseInsensitive(t *testing.T) {
	t.Parallel()

	s := NewInMemoryUserStore()
	if _, err := s.CreateUser(context.Background(), User{Username: "Alice", PasswordHash: "x"}); err != nil {
		t.Fatalf("CreateUser: %v", err)
	}
	if _, err := s.CreateUser(context.Background(), User{Username: "aLiCe", PasswordHash: "x"}); !errors.Is(err, ErrUsernameTaken) {
		t.Fatalf("case-variant username: err = %v, want ErrUsernameTaken", err)
	}
}

func TestInMemoryUserStore_LookupRoundTrip(t *testing.T) {
	t.Parallel()

	s := NewInMemoryUserStore()
	created, err := s.CreateUser(context.Background(), User{Username: "alice", PasswordHash: "x"})
	if err != nil {
		t.Fatalf("CreateUser: %v", err)
	}
	if created.ID == "" || created.CreatedAt.IsZero() {
		t.Fatalf("created = %+v, want id and timestamp assigned", created)
	}

	byName, err := s.UserByUsername(context.Background(), "  ALICE  ")
	if err != nil || byName.ID != created.ID {
		t.Fatalf("UserByUsername = (%+v, %v)", byName, err)
	}

	byID, err := s.UserByID(context.Background(), created.ID)
	if err != nil || byID.Username != "alice" {
		t.Fatalf("UserByID = (%+v, %v)", byID, err)
	}

	if _, err := s.UserByID(context.Background(), "nope"); !errors.Is(err, ErrUserNotFound) {
		t.Fatalf("unknown id: err = %v, want ErrUserNotFound", err)
	}
}

func TestInMemoryUserStore_SearchSortedAndCapped(t *testing.T) {
	t.Parallel()

	s := NewInMemoryUserStore()
	for _, name := range []string{"carla", "carol", "carmen", "dave"} {
		if _, err := s.CreateUser(context.Background(), User{Username: name, PasswordHash: "x"}); err != nil {
			t.Fatalf("CreateUser(%s): %v", name, err)
		}
	}

	got, err := s.SearchUsers(context.Background(), "car", "", 2)
	if err != nil {
		t.Fatalf("SearchUsers: %v", err)
	}
	if len(got) != 2 || got[0].Username != "carla" || got[1].Username != "carmen" {
		t.Fatalf("SearchUsers = %+v, want [carla carmen]", got)
	}
}
