package testkit

import (
	"context"
	"sort"
	"sync"

	"gosigma/domain/core"
	"gosigma/internal/errors"
	"gosigma/ports"

	"github.com/stretchr/testify/mock"
)

// InMemoryAnalysisRepository implements AnalysisRepository with in-memory storage
type InMemoryAnalysisRepository struct {
	records map[core.ID]core.AnalysisRecord
	mu      sync.RWMutex
}

var _ ports.AnalysisRepository = (*InMemoryAnalysisRepository)(nil)

func NewInMemoryAnalysisRepository() *InMemoryAnalysisRepository {
	return &InMemoryAnalysisRepository{records: make(map[core.ID]core.AnalysisRecord)}
}

func (s *InMemoryAnalysisRepository) Save(ctx context.Context, record *core.AnalysisRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.records[record.ID]; exists {
		return errors.InvalidInput("analysis " + record.ID.String() + " already exists")
	}
	s.records[record.ID] = *record
	return nil
}

func (s *InMemoryAnalysisRepository) Get(ctx context.Context, id core.ID) (*core.AnalysisRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rec, exists := s.records[id]
	if !exists {
		return nil, errors.NotFound("analysis " + id.String())
	}
	return &rec, nil
}

func (s *InMemoryAnalysisRepository) FindByHash(ctx context.Context, kind core.AnalysisKind, hash core.Hash) (*core.AnalysisRecord, error) {
	list, _ := s.List(ctx, kind, 0)
	for _, rec := range list {
		if rec.InputHash == hash {
			return &rec, nil
		}
	}
	return nil, nil
}

func (s *InMemoryAnalysisRepository) List(ctx context.Context, kind core.AnalysisKind, limit int) ([]core.AnalysisRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var results []core.AnalysisRecord
	for _, rec := range s.records {
		if kind == "" || rec.Kind == kind {
			results = append(results, rec)
		}
	}
	sort.Slice(results, func(i, j int) bool {
		if results[i].CreatedAt.Equal(results[j].CreatedAt) {
			return results[i].ID > results[j].ID
		}
		return results[i].CreatedAt.After(results[j].CreatedAt)
	})
	if limit > 0 && len(results) > limit {
		results = results[:limit]
	}
	return results, nil
}

// Len returns the number of stored records
func (s *InMemoryAnalysisRepository) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.records)
}

// MockAnalysisRepository is a testify mock of AnalysisRepository
type MockAnalysisRepository struct {
	mock.Mock
}

var _ ports.AnalysisRepository = (*MockAnalysisRepository)(nil)

func (m *MockAnalysisRepository) Save(ctx context.Context, record *core.AnalysisRecord) error {
	args := m.Called(ctx, record)
	return args.Error(0)
}

func (m *MockAnalysisRepository) Get(ctx context.Context, id core.ID) (*core.AnalysisRecord, error) {
	args := m.Called(ctx, id)
	rec, _ := args.Get(0).(*core.AnalysisRecord)
	return rec, args.Error(1)
}

func (m *MockAnalysisRepository) FindByHash(ctx context.Context, kind core.AnalysisKind, hash core.Hash) (*core.AnalysisRecord, error) {
	args := m.Called(ctx, kind, hash)
	rec, _ := args.Get(0).(*core.AnalysisRecord)
	return rec, args.Error(1)
}

func (m *MockAnalysisRepository) List(ctx context.Context, kind core.AnalysisKind, limit int) ([]core.AnalysisRecord, error) {
	args := m.Called(ctx, kind, limit)
	recs, _ := args.Get(0).([]core.AnalysisRecord)
	return recs, args.Error(1)
}
