package repository

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/stwalsh4118/permits/api/internal/models"
	"github.com/stwalsh4118/permits/api/internal/seed"
)

// MemoryStore serves the reference data of a seed data set. It implements
// PropertyRepository and RuleStore; Permits returns its PermitTypeRepository.
// The data is read-only after construction, so no locking is needed.
type MemoryStore struct {
	properties   map[int64]models.Property
	permits      map[int64]models.PermitType
	byCode       map[models.PermitCode]int64
	rules        map[string][]*models.ZoningRule
	goals        []models.StatewideGoal
	requirements map[int64][]models.GoalRequirement
}

var (
	_ PropertyRepository = (*MemoryStore)(nil)
	_ RuleStore          = (*MemoryStore)(nil)
)

// NewMemoryStore indexes data for lookup.
func NewMemoryStore(data *seed.Data) *MemoryStore {
	s := &MemoryStore{
		properties:   make(map[int64]models.Property, len(data.Properties)),
		permits:      make(map[int64]models.PermitType, len(data.PermitTypes)),
		byCode:       make(map[models.PermitCode]int64, len(data.PermitTypes)),
		rules:        make(map[string][]*models.ZoningRule),
		goals:        data.Goals,
		requirements: data.Requirements,
	}
	for _, p := range data.Properties {
		s.properties[p.ID] = p
	}
	for _, pt := range data.PermitTypes {
		s.permits[pt.ID] = pt
		s.byCode[pt.Code] = pt.ID
	}
	for _, r := range data.Rules {
		if r.Active {
			s.rules[r.District] = append(s.rules[r.District], r)
		}
	}
	return s
}

func (s *MemoryStore) FindByID(_ context.Context, id int64) (*models.Property, error) {
	p, ok := s.properties[id]
	if !ok {
		return nil, nil
	}
	return &p, nil
}

func (s *MemoryStore) Search(_ context.Context, query string, limit int) ([]models.Property, error) {
	if limit <= 0 || limit > MaxSearchResults {
		limit = MaxSearchResults
	}
	q := strings.ToLower(query)

	results := []models.Property{}
	for _, p := range s.properties {
		if strings.Contains(strings.ToLower(p.Address), q) || strings.Contains(strings.ToLower(p.TaxLot), q) {
			results = append(results, p)
		}
	}
	sort.Slice(results, func(i, j int) bool {
		if results[i].Address != results[j].Address {
			return results[i].Address < results[j].Address
		}
		return results[i].ID < results[j].ID
	})
	if len(results) > limit {
		results = results[:limit]
	}
	return results, nil
}

// Permits exposes the permit type half of the store. The method sets of
// PropertyRepository and PermitTypeRepository share FindByID.
func (s *MemoryStore) Permits() PermitTypeRepository {
	return memoryPermits{s}
}

type memoryPermits struct {
	s *MemoryStore
}

func (m memoryPermits) FindByID(_ context.Context, id int64) (*models.PermitType, error) {
	pt, ok := m.s.permits[id]
	if !ok {
		return nil, nil
	}
	return &pt, nil
}

func (m memoryPermits) FindByCode(ctx context.Context, code models.PermitCode) (*models.PermitType, error) {
	id, ok := m.s.byCode[code]
	if !ok {
		return nil, nil
	}
	return m.FindByID(ctx, id)
}

func (m memoryPermits) List(_ context.Context) ([]models.PermitType, error) {
	out := make([]models.PermitType, 0, len(m.s.permits))
	for _, pt := range m.s.permits {
		if pt.Active {
			out = append(out, pt)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *MemoryStore) RulesForDistrict(_ context.Context, district string) ([]*models.ZoningRule, error) {
	rules := s.rules[strings.ToUpper(strings.TrimSpace(district))]
	out := make([]*models.ZoningRule, len(rules))
	copy(out, rules)
	return out, nil
}

func (s *MemoryStore) AllGoals(_ context.Context) ([]models.StatewideGoal, error) {
	out := make([]models.StatewideGoal, len(s.goals))
	copy(out, s.goals)
	return out, nil
}

func (s *MemoryStore) RequirementsForGoal(_ context.Context, goalID int64) ([]models.GoalRequirement, error) {
	reqs := s.requirements[goalID]
	out := make([]models.GoalRequirement, len(reqs))
	copy(out, reqs)
	return out, nil
}

// MemoryCheckRepository keeps compliance check records in process memory.
type MemoryCheckRepository struct {
	mu      sync.RWMutex
	records map[uuid.UUID]models.ComplianceCheckRecord
	order   []uuid.UUID
}

// NewMemoryCheckRepository creates an empty in-memory check history.
func NewMemoryCheckRepository() *MemoryCheckRepository {
	return &MemoryCheckRepository{
		records: make(map[uuid.UUID]models.ComplianceCheckRecord),
	}
}

func (r *MemoryCheckRepository) Append(_ context.Context, rec *models.ComplianceCheckRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.records[rec.ID]; exists {
		return fmt.Errorf("%w: %s", ErrDuplicateCheck, rec.ID)
	}
	stored := *rec
	stored.Report = append([]byte(nil), rec.Report...)
	r.records[rec.ID] = stored
	r.order = append(r.order, rec.ID)
	return nil
}

func (r *MemoryCheckRepository) FindByID(_ context.Context, id uuid.UUID) (*models.ComplianceCheckRecord, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	rec, ok := r.records[id]
	if !ok {
		return nil, nil
	}
	return &rec, nil
}

// ListByProperty walks the insertion order backwards so records with equal
// timestamps still come back newest first.
func (r *MemoryCheckRepository) ListByProperty(_ context.Context, propertyID int64, limit int) ([]models.ComplianceCheckRecord, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := []models.ComplianceCheckRecord{}
	for i := len(r.order) - 1; i >= 0; i-- {
		rec := r.records[r.order[i]]
		if rec.PropertyID != propertyID {
			continue
		}
		out = append(out, rec)
		if limit > 0 && len(out) == limit {
			break
		}
	}
	return out, nil
}
