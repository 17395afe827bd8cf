package store

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"castingbase/internal/production/models"
	"castingbase/pkg/platform/sentinel"
)

// Memory keeps productions in process, mirroring the postgres semantics.
type Memory struct {
	mu          sync.RWMutex
	productions map[uuid.UUID]models.Production
}

func NewMemory() *Memory {
	return &Memory{productions: make(map[uuid.UUID]models.Production)}
}

func (s *Memory) CreateIfCodeAvailable(_ context.Context, production *models.Production) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.productions {
		if existing.Code == production.Code {
			return sentinel.ErrConflict
		}
	}
	if _, ok := s.productions[production.ID]; ok {
		return sentinel.ErrConflict
	}
	s.productions[production.ID] = *production
	return nil
}

func (s *Memory) FindByID(_ context.Context, id uuid.UUID) (*models.Production, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	production, ok := s.productions[id]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	out := production
	return &out, nil
}

func (s *Memory) FindByCode(_ context.Context, code string) (*models.Production, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, production := range s.productions {
		if production.Code == code {
			out := production
			return &out, nil
		}
	}
	return nil, sentinel.ErrNotFound
}

func (s *Memory) Pairs(_ context.Context) (map[uuid.UUID]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	pairs := make(map[uuid.UUID]string, len(s.productions))
	for id, production := range s.productions {
		pairs[id] = production.Name
	}
	return pairs, nil
}
