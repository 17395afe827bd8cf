package store

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"castingbase/internal/identity/models"
	"castingbase/pkg/platform/sentinel"
)

// Memory keeps identities in process. It mirrors the postgres semantics,
// including the single uniqueness namespace and the partial-guarded promote,
// so services behave identically against either implementation.
type Memory struct {
	mu         sync.RWMutex
	identities map[uuid.UUID]models.Identity
}

func NewMemory() *Memory {
	return &Memory{identities: make(map[uuid.UUID]models.Identity)}
}

func (s *Memory) Create(_ context.Context, identity *models.Identity) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.identities[identity.ID]; ok {
		return sentinel.ErrConflict
	}
	if s.collidesLocked(identity) {
		return sentinel.ErrConflict
	}
	s.identities[identity.ID] = *identity
	return nil
}

// collidesLocked checks username/email/phone against every row except the
// candidate's own. Username and email compare case-insensitively, phone
// numbers exactly, matching the postgres indexes.
func (s *Memory) collidesLocked(candidate *models.Identity) bool {
	for _, existing := range s.identities {
		if existing.ID == candidate.ID {
			continue
		}
		if strings.EqualFold(existing.Username, candidate.Username) ||
			strings.EqualFold(existing.Email, candidate.Email) ||
			existing.PhoneNumber == candidate.PhoneNumber {
			return true
		}
	}
	return false
}

func (s *Memory) FindByID(_ context.Context, id uuid.UUID) (*models.Identity, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	identity, ok := s.identities[id]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	return clone(&identity), nil
}

func (s *Memory) FindByToken(_ context.Context, token string) (*models.Identity, error) {
	if token == "" {
		return nil, sentinel.ErrNotFound
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, identity := range s.identities {
		if identity.RegistrationToken == token {
			return clone(&identity), nil
		}
	}
	return nil, sentinel.ErrNotFound
}

func (s *Memory) FindByIDTyped(ctx context.Context, id uuid.UUID, variant models.Variant) (*models.Identity, error) {
	identity, err := s.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if identity.Variant != variant {
		return nil, sentinel.ErrNotFound
	}
	return identity, nil
}

func (s *Memory) FindByUsername(_ context.Context, username string) (*models.Identity, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, identity := range s.identities {
		if strings.EqualFold(identity.Username, username) {
			return clone(&identity), nil
		}
	}
	return nil, sentinel.ErrNotFound
}

func (s *Memory) FindByEmail(_ context.Context, email string) (*models.Identity, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, identity := range s.identities {
		if strings.EqualFold(identity.Email, email) {
			return clone(&identity), nil
		}
	}
	return nil, sentinel.ErrNotFound
}

func (s *Memory) UpdateInPlace(_ context.Context, identity *models.Identity) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.identities[identity.ID]; !ok {
		return sentinel.ErrNotFound
	}
	if s.collidesLocked(identity) {
		return sentinel.ErrConflict
	}
	s.identities[identity.ID] = *identity
	return nil
}

func (s *Memory) PromotePartial(_ context.Context, identity *models.Identity) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	current, ok := s.identities[identity.ID]
	if !ok {
		return sentinel.ErrNotFound
	}
	if current.Step != models.StepPartial {
		return sentinel.ErrInvalidState
	}
	s.identities[identity.ID] = *identity
	return nil
}

func (s *Memory) SetProduction(_ context.Context, id uuid.UUID, productionID uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	identity, ok := s.identities[id]
	if !ok {
		return sentinel.ErrNotFound
	}
	pid := productionID
	identity.ProductionID = &pid
	s.identities[id] = identity
	return nil
}

func (s *Memory) ListByProduction(_ context.Context, productionID uuid.UUID) ([]*models.Identity, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var members []*models.Identity
	for _, identity := range s.identities {
		if identity.ProductionID != nil && *identity.ProductionID == productionID {
			members = append(members, clone(&identity))
		}
	}
	return members, nil
}

func (s *Memory) DeleteExpiredPartials(_ context.Context, cutoff time.Time) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	deleted := 0
	for id, identity := range s.identities {
		if identity.Step == models.StepPartial && identity.CreatedAt.Before(cutoff) {
			delete(s.identities, id)
			deleted++
		}
	}
	return deleted, nil
}

// clone returns a deep copy so callers never alias store-owned state.
func clone(identity *models.Identity) *models.Identity {
	out := *identity
	if identity.Actor != nil {
		actor := *identity.Actor
		out.Actor = &actor
	}
	if identity.Crew != nil {
		crew := *identity.Crew
		if identity.Crew.DateOfBirth != nil {
			dob := *identity.Crew.DateOfBirth
			crew.DateOfBirth = &dob
		}
		out.Crew = &crew
	}
	if identity.ProductionID != nil {
		pid := *identity.ProductionID
		out.ProductionID = &pid
	}
	return &out
}
