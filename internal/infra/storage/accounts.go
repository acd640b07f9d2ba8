package storage

import (
	"strings"
	"time"

	"github.com/wiseoldpea/events-bot/internal/domain"
)

// LinkAccount creates or replaces the account for userID. Relinking just
// overwrites the old username.
func (s *Store) LinkAccount(userID, displayName, osrsUsername string, now time.Time) *domain.Account {
	s.mu.Lock()
	defer s.mu.Unlock()

	acc := &domain.Account{
		UserID:       userID,
		DisplayName:  displayName,
		OSRSUsername: osrsUsername,
		LinkedAt:     now,
	}
	s.accounts[userID] = acc
	s.save()

	out := *acc
	return &out
}

func (s *Store) Account(userID string) (*domain.Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	acc, ok := s.accounts[userID]
	if !ok {
		return nil, ErrNotFound
	}
	out := *acc
	return &out, nil
}

// DisplayName resolves a user ID to something readable for announcements
// and score sheets, falling back to the raw ID for unlinked users.
func (s *Store) DisplayName(userID string) string {
	s.mu.Lock()
	defer s.mu.Unlock()

	if acc, ok := s.accounts[userID]; ok {
		if acc.OSRSUsername != "" {
			return acc.OSRSUsername
		}
		if acc.DisplayName != "" {
			return acc.DisplayName
		}
	}
	return userID
}

// FindUserByName looks up a user ID by linked OSRS username or display
// name, case-insensitively.
func (s *Store) FindUserByName(name string) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for id, acc := range s.accounts {
		if strings.EqualFold(acc.OSRSUsername, name) || strings.EqualFold(acc.DisplayName, name) {
			return id, true
		}
	}
	return "", false
}
