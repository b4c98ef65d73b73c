package register

import (
	"sync"

	"github.com/google/uuid"

	"github.com/Qubut/IP-Claim/packages/ep_register/internal/models"
)

// PartyStore holds every party resolved during one batch run so that a party
// appearing on several patents keeps a single identity. It only grows.
type PartyStore struct {
	mu      sync.Mutex
	byKey   map[models.Party]*models.Party
	ordered []*models.Party
	newID   func() string
}

func NewPartyStore() *PartyStore {
	return &PartyStore{
		byKey: make(map[models.Party]*models.Party),
		newID: uuid.NewString,
	}
}

// Resolve returns the stored party equal to candidate (ignoring ID), or
// stores candidate under a fresh ID. The boolean reports whether an existing
// party was reused.
func (s *PartyStore) Resolve(candidate models.Party) (*models.Party, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := candidate.Key()
	if existing, ok := s.byKey[key]; ok {
		return existing, true
	}
	p := key
	p.ID = s.newID()
	s.byKey[key] = &p
	s.ordered = append(s.ordered, &p)
	return &p, false
}

// Parties returns the stored parties in the order they were first seen.
func (s *PartyStore) Parties() []*models.Party {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]*models.Party, len(s.ordered))
	copy(out, s.ordered)
	return out
}

func (s *PartyStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.ordered)
}
