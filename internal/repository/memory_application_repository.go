package repository

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stwalsh4118/permits/api/internal/models"
)

var _ ApplicationRepository = (*MemoryApplicationRepository)(nil)

// MemoryApplicationRepository keeps permit applications in process memory.
type MemoryApplicationRepository struct {
	mu    sync.RWMutex
	apps  map[uuid.UUID]models.Application
	order []uuid.UUID
}

// NewMemoryApplicationRepository creates an empty application store.
func NewMemoryApplicationRepository() *MemoryApplicationRepository {
	return &MemoryApplicationRepository{
		apps: make(map[uuid.UUID]models.Application),
	}
}

func (r *MemoryApplicationRepository) Create(_ context.Context, app *models.Application) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.apps[app.ID]; exists {
		return fmt.Errorf("%w: %s", ErrDuplicateApplication, app.ID)
	}
	r.apps[app.ID] = cloneApplication(app)
	r.order = append(r.order, app.ID)
	return nil
}

func (r *MemoryApplicationRepository) FindByID(_ context.Context, id uuid.UUID) (*models.Application, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	app, ok := r.apps[id]
	if !ok {
		return nil, nil
	}
	out := cloneApplication(&app)
	return &out, nil
}

func (r *MemoryApplicationRepository) Update(_ context.Context, app *models.Application) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.apps[app.ID]; !exists {
		return fmt.Errorf("%w: %s", ErrApplicationMissing, app.ID)
	}
	r.apps[app.ID] = cloneApplication(app)
	return nil
}

// List walks the creation order backwards so applications created within
// the same clock tick still come back newest first.
func (r *MemoryApplicationRepository) List(_ context.Context, filter ApplicationFilter) ([]models.Application, int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := []models.Application{}
	total := 0
	for i := len(r.order) - 1; i >= 0; i-- {
		app := r.apps[r.order[i]]
		if filter.Status != "" && app.Status != filter.Status {
			continue
		}
		total++
		if total <= filter.Offset {
			continue
		}
		if filter.Limit > 0 && len(out) == filter.Limit {
			continue
		}
		out = append(out, cloneApplication(&app))
	}
	return out, total, nil
}

func (r *MemoryApplicationRepository) Stats(_ context.Context, since time.Time) (*models.ApplicationStats, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	stats := &models.ApplicationStats{
		Since:         since,
		ByPermitType:  []models.PermitTypeCount{},
		FeesCollected: decimal.Zero,
	}
	counts := make(map[int64]int)
	for _, app := range r.apps {
		stats.TotalApplications++
		counts[app.PermitTypeID]++

		if app.Status.Active() {
			stats.ActiveApplications++
			if !app.CompliancePassed {
				stats.NeedsReview++
			}
		}
		if app.Status == models.ApplicationApproved {
			if app.CompliancePassed {
				stats.AutoApproved++
			}
			if app.ReviewCompletedAt != nil && !app.ReviewCompletedAt.Before(since) {
				stats.RecentlyApproved++
			}
		}
		if app.FeePaid && !app.CreatedAt.Before(since) {
			stats.FeesCollected = stats.FeesCollected.Add(app.CalculatedFee)
		}
	}

	for id, n := range counts {
		stats.ByPermitType = append(stats.ByPermitType, models.PermitTypeCount{PermitTypeID: id, Count: n})
	}
	sort.Slice(stats.ByPermitType, func(i, j int) bool {
		a, b := stats.ByPermitType[i], stats.ByPermitType[j]
		if a.Count != b.Count {
			return a.Count > b.Count
		}
		return a.PermitTypeID < b.PermitTypeID
	})
	return stats, nil
}

// cloneApplication copies the slices of app so stored state is not shared
// with callers.
func cloneApplication(app *models.Application) models.Application {
	out := *app
	out.ComplianceIssues = append([]string{}, app.ComplianceIssues...)
	out.ComplianceCheckIDs = append([]uuid.UUID{}, app.ComplianceCheckIDs...)
	return out
}
