package store_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/vibast-solutions/authsvc/app/entity"
	"github.com/vibast-solutions/authsvc/app/store"
)

func newUser(email string) *entity.User {
	now := time.Now()
	return &entity.User{
		ID:           uuid.NewString(),
		Email:        email,
		PasswordHash: "hash",
		Name:         "Test User",
		Role:         entity.RoleUser,
		IsActive:     true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
}

func TestMemoryStore_CreateAndFind(t *testing.T) {
	s := store.NewMemoryStore()
	ctx := context.Background()

	user := newUser("User@Example.COM")
	if err := s.Create(ctx, user); err != nil {
		t.Fatalf("create failed: %v", err)
	}

	found, err := s.FindByID(ctx, user.ID)
	if err != nil {
		t.Fatalf("find by id failed: %v", err)
	}
	if found.Email != "user@example.com" {
		t.Fatalf("expected normalized email, got %q", found.Email)
	}

	// Lookup is case-insensitive regardless of how the caller spells it.
	found, err = s.FindByEmail(ctx, "USER@example.com")
	if err != nil {
		t.Fatalf("find by email failed: %v", err)
	}
	if found.ID != user.ID {
		t.Fatalf("expected user %s, got %s", user.ID, found.ID)
	}
}

func TestMemoryStore_DuplicateEmail(t *testing.T) {
	s := store.NewMemoryStore()
	ctx := context.Background()

	if err := s.Create(ctx, newUser("dup@example.com")); err != nil {
		t.Fatalf("create failed: %v", err)
	}
	if err := s.Create(ctx, newUser("DUP@example.com")); !errors.Is(err, store.ErrDuplicateEmail) {
		t.Fatalf("expected ErrDuplicateEmail, got %v", err)
	}
}

func TestMemoryStore_FindMissing(t *testing.T) {
	s := store.NewMemoryStore()
	ctx := context.Background()

	if _, err := s.FindByID(ctx, "missing"); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if _, err := s.FindByEmail(ctx, "missing@example.com"); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestMemoryStore_PartialUpdate(t *testing.T) {
	s := store.NewMemoryStore()
	ctx := context.Background()

	user := newUser("update@example.com")
	if err := s.Create(ctx, user); err != nil {
		t.Fatalf("create failed: %v", err)
	}

	name := "New Name"
	verified := true
	if err := s.Update(ctx, user.ID, store.UserUpdate{Name: &name, IsEmailVerified: &verified}); err != nil {
		t.Fatalf("update failed: %v", err)
	}

	found, err := s.FindByID(ctx, user.ID)
	if err != nil {
		t.Fatalf("find failed: %v", err)
	}
	if found.Name != "New Name" || !found.IsEmailVerified {
		t.Fatalf("update not applied: %+v", found)
	}
	if found.PasswordHash != "hash" || found.Role != entity.RoleUser {
		t.Fatalf("untouched fields changed: %+v", found)
	}
}

func TestMemoryStore_UpdateMissing(t *testing.T) {
	s := store.NewMemoryStore()

	name := "x"
	if err := s.Update(context.Background(), "missing", store.UserUpdate{Name: &name}); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestMemoryStore_Delete(t *testing.T) {
	s := store.NewMemoryStore()
	ctx := context.Background()

	user := newUser("delete@example.com")
	if err := s.Create(ctx, user); err != nil {
		t.Fatalf("create failed: %v", err)
	}
	if err := s.Delete(ctx, user.ID); err != nil {
		t.Fatalf("delete failed: %v", err)
	}
	if _, err := s.FindByEmail(ctx, "delete@example.com"); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("expected email index cleared, got %v", err)
	}

	// A second user may now reuse the address.
	if err := s.Create(ctx, newUser("delete@example.com")); err != nil {
		t.Fatalf("recreate after delete failed: %v", err)
	}
}

func TestMemoryStore_RefreshTokenSet(t *testing.T) {
	s := store.NewMemoryStore()
	ctx := context.Background()

	user := newUser("tokens@example.com")
	if err := s.Create(ctx, user); err != nil {
		t.Fatalf("create failed: %v", err)
	}

	if err := s.AddRefreshToken(ctx, user.ID, "token-a"); err != nil {
		t.Fatalf("add failed: %v", err)
	}
	if err := s.AddRefreshToken(ctx, user.ID, "token-a"); err != nil {
		t.Fatalf("duplicate add failed: %v", err)
	}
	if err := s.AddRefreshToken(ctx, user.ID, "token-b"); err != nil {
		t.Fatalf("add failed: %v", err)
	}

	found, err := s.FindByID(ctx, user.ID)
	if err != nil {
		t.Fatalf("find failed: %v", err)
	}
	if len(found.RefreshTokens) != 2 {
		t.Fatalf("expected 2 tokens after duplicate add, got %d", len(found.RefreshTokens))
	}

	removed, err := s.RemoveRefreshToken(ctx, user.ID, "token-a")
	if err != nil {
		t.Fatalf("remove failed: %v", err)
	}
	if !removed {
		t.Fatalf("expected removal of a present token to report true")
	}

	// Removing the same token again must report false, not error.
	removed, err = s.RemoveRefreshToken(ctx, user.ID, "token-a")
	if err != nil {
		t.Fatalf("second remove failed: %v", err)
	}
	if removed {
		t.Fatalf("expected removal of an absent token to report false")
	}

	if err := s.RemoveAllRefreshTokens(ctx, user.ID); err != nil {
		t.Fatalf("remove all failed: %v", err)
	}
	found, err = s.FindByID(ctx, user.ID)
	if err != nil {
		t.Fatalf("find failed: %v", err)
	}
	if len(found.RefreshTokens) != 0 {
		t.Fatalf("expected empty token set, got %v", found.RefreshTokens)
	}
}

func TestMemoryStore_List(t *testing.T) {
	s := store.NewMemoryStore()
	ctx := context.Background()

	base := time.Now()
	for i := 0; i < 5; i++ {
		user := newUser(string(rune('a'+i)) + "@example.com")
		user.CreatedAt = base.Add(time.Duration(i) * time.Second)
		if i == 0 {
			user.Role = entity.RoleAdmin
		}
		if i == 4 {
			user.IsActive = false
		}
		if err := s.Create(ctx, user); err != nil {
			t.Fatalf("create failed: %v", err)
		}
	}

	users, total, err := s.List(ctx, store.ListFilter{})
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if total != 5 || len(users) != 5 {
		t.Fatalf("expected 5 users, got total=%d len=%d", total, len(users))
	}

	users, total, err = s.List(ctx, store.ListFilter{Role: entity.RoleAdmin})
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if total != 1 || len(users) != 1 || users[0].Role != entity.RoleAdmin {
		t.Fatalf("role filter broken: total=%d users=%+v", total, users)
	}

	active := true
	users, total, err = s.List(ctx, store.ListFilter{IsActive: &active})
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if total != 4 {
		t.Fatalf("expected 4 active users, got %d", total)
	}

	users, total, err = s.List(ctx, store.ListFilter{Page: 2, PerPage: 2})
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if total != 5 || len(users) != 2 {
		t.Fatalf("pagination broken: total=%d len=%d", total, len(users))
	}
	if users[0].Email != "c@example.com" {
		t.Fatalf("expected creation-time ordering, got %q first on page 2", users[0].Email)
	}

	users, total, err = s.List(ctx, store.ListFilter{Page: 10, PerPage: 2})
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if total != 5 || len(users) != 0 {
		t.Fatalf("out-of-range page should be empty: total=%d len=%d", total, len(users))
	}
}

func TestMemoryStore_UpdateLastLogin(t *testing.T) {
	s := store.NewMemoryStore()
	ctx := context.Background()

	user := newUser("login@example.com")
	if err := s.Create(ctx, user); err != nil {
		t.Fatalf("create failed: %v", err)
	}

	at := time.Now().Truncate(time.Second)
	if err := s.UpdateLastLogin(ctx, user.ID, at); err != nil {
		t.Fatalf("update last login failed: %v", err)
	}

	found, err := s.FindByID(ctx, user.ID)
	if err != nil {
		t.Fatalf("find failed: %v", err)
	}
	if found.LastLoginAt == nil || !found.LastLoginAt.Equal(at) {
		t.Fatalf("last login not recorded: %v", found.LastLoginAt)
	}
}

func TestMemoryStore_ReturnsCopies(t *testing.T) {
	s := store.NewMemoryStore()
	ctx := context.Background()

	user := newUser("copy@example.com")
	if err := s.Create(ctx, user); err != nil {
		t.Fatalf("create failed: %v", err)
	}

	found, err := s.FindByID(ctx, user.ID)
	if err != nil {
		t.Fatalf("find failed: %v", err)
	}
	found.Name = "mutated"
	found.RefreshTokens = append(found.RefreshTokens, "stray")

	again, err := s.FindByID(ctx, user.ID)
	if err != nil {
		t.Fatalf("find failed: %v", err)
	}
	if again.Name == "mutated" || len(again.RefreshTokens) != 0 {
		t.Fatalf("store leaked internal state: %+v", again)
	}
}
