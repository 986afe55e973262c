package store

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/vibast-solutions/authsvc/app/entity"
)

// MemoryStore keeps users in a mutex-guarded map. It backs the `memory`
// database driver and the service test suites.
type MemoryStore struct {
	mu      sync.RWMutex
	users   map[string]*entity.User
	byEmail map[string]string
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		users:   make(map[string]*entity.User),
		byEmail: make(map[string]string),
	}
}

func (s *MemoryStore) Create(_ context.Context, user *entity.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	email := NormalizeEmail(user.Email)
	if _, exists := s.byEmail[email]; exists {
		return ErrDuplicateEmail
	}

	stored := cloneUser(user)
	stored.Email = email
	s.users[stored.ID] = stored
	s.byEmail[email] = stored.ID
	return nil
}

func (s *MemoryStore) FindByID(_ context.Context, id string) (*entity.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	user, ok := s.users[id]
	if !ok {
		return nil, ErrNotFound
	}
	return cloneUser(user), nil
}

func (s *MemoryStore) FindByEmail(_ context.Context, email string) (*entity.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	id, ok := s.byEmail[NormalizeEmail(email)]
	if !ok {
		return nil, ErrNotFound
	}
	return cloneUser(s.users[id]), nil
}

func (s *MemoryStore) Update(_ context.Context, id string, update UserUpdate) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	user, ok := s.users[id]
	if !ok {
		return ErrNotFound
	}

	if update.Name != nil {
		user.Name = *update.Name
	}
	if update.Phone != nil {
		user.Phone = *update.Phone
	}
	if update.Bio != nil {
		user.Bio = *update.Bio
	}
	if update.AvatarURL != nil {
		user.AvatarURL = *update.AvatarURL
	}
	if update.PasswordHash != nil {
		user.PasswordHash = *update.PasswordHash
	}
	if update.Role != nil {
		user.Role = *update.Role
	}
	if update.IsEmailVerified != nil {
		user.IsEmailVerified = *update.IsEmailVerified
	}
	if update.IsActive != nil {
		user.IsActive = *update.IsActive
	}
	if update.LastLoginAt != nil {
		at := *update.LastLoginAt
		user.LastLoginAt = &at
	}
	user.UpdatedAt = time.Now()
	return nil
}

func (s *MemoryStore) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	user, ok := s.users[id]
	if !ok {
		return ErrNotFound
	}
	delete(s.byEmail, user.Email)
	delete(s.users, id)
	return nil
}

func (s *MemoryStore) List(_ context.Context, filter ListFilter) ([]*entity.User, int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	matched := make([]*entity.User, 0, len(s.users))
	for _, user := range s.users {
		if filter.Role != "" && user.Role != filter.Role {
			continue
		}
		if filter.IsActive != nil && user.IsActive != *filter.IsActive {
			continue
		}
		matched = append(matched, user)
	}
	sort.Slice(matched, func(i, j int) bool {
		return matched[i].CreatedAt.Before(matched[j].CreatedAt)
	})

	total := len(matched)
	offset, limit := filter.limits()
	if offset >= total {
		return []*entity.User{}, total, nil
	}
	end := offset + limit
	if end > total {
		end = total
	}

	page := make([]*entity.User, 0, end-offset)
	for _, user := range matched[offset:end] {
		page = append(page, cloneUser(user))
	}
	return page, total, nil
}

func (s *MemoryStore) AddRefreshToken(_ context.Context, id, token string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	user, ok := s.users[id]
	if !ok {
		return ErrNotFound
	}
	if !user.HasRefreshToken(token) {
		user.RefreshTokens = append(user.RefreshTokens, token)
	}
	return nil
}

func (s *MemoryStore) RemoveRefreshToken(_ context.Context, id, token string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	user, ok := s.users[id]
	if !ok {
		return false, ErrNotFound
	}
	for i, t := range user.RefreshTokens {
		if t == token {
			user.RefreshTokens = append(user.RefreshTokens[:i], user.RefreshTokens[i+1:]...)
			return true, nil
		}
	}
	return false, nil
}

func (s *MemoryStore) RemoveAllRefreshTokens(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	user, ok := s.users[id]
	if !ok {
		return ErrNotFound
	}
	user.RefreshTokens = nil
	return nil
}

func (s *MemoryStore) UpdateLastLogin(_ context.Context, id string, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	user, ok := s.users[id]
	if !ok {
		return ErrNotFound
	}
	user.LastLoginAt = &at
	return nil
}

func (s *MemoryStore) HealthCheck(_ context.Context) error {
	return nil
}

func cloneUser(u *entity.User) *entity.User {
	clone := *u
	if u.LastLoginAt != nil {
		at := *u.LastLoginAt
		clone.LastLoginAt = &at
	}
	clone.RefreshTokens = append([]string(nil), u.RefreshTokens...)
	return &clone
}
