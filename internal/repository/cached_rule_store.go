package repository

import (
	"context"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/stwalsh4118/permits/api/internal/models"
	"golang.org/x/sync/singleflight"
)

// DefaultFetchTimeout bounds a shared read of the underlying store.
const DefaultFetchTimeout = 10 * time.Second

type cacheEntry struct {
	value   any
	expires time.Time
}

// CachedRuleStore is a read-through cache in front of a RuleStore.
// Concurrent misses for the same key share one read of the underlying store;
// a caller that gives up waiting does not cancel the read for the others.
// Errors are never cached.
type CachedRuleStore struct {
	next         RuleStore
	ttl          time.Duration
	fetchTimeout time.Duration
	now          func() time.Time
	group        singleflight.Group

	mu      sync.RWMutex
	entries map[string]cacheEntry
}

var _ RuleStore = (*CachedRuleStore)(nil)

// NewCachedRuleStore wraps next. A non-positive ttl keeps entries forever.
func NewCachedRuleStore(next RuleStore, ttl time.Duration) *CachedRuleStore {
	return &CachedRuleStore{
		next:         next,
		ttl:          ttl,
		fetchTimeout: DefaultFetchTimeout,
		now:          time.Now,
		entries:      make(map[string]cacheEntry),
	}
}

func (c *CachedRuleStore) RulesForDistrict(ctx context.Context, district string) ([]*models.ZoningRule, error) {
	district = strings.ToUpper(strings.TrimSpace(district))
	v, err := c.load(ctx, "rules:"+district, func(ctx context.Context) (any, error) {
		return c.next.RulesForDistrict(ctx, district)
	})
	if err != nil {
		return nil, err
	}
	rules := v.([]*models.ZoningRule)
	out := make([]*models.ZoningRule, len(rules))
	copy(out, rules)
	return out, nil
}

func (c *CachedRuleStore) AllGoals(ctx context.Context) ([]models.StatewideGoal, error) {
	v, err := c.load(ctx, "goals", func(ctx context.Context) (any, error) {
		return c.next.AllGoals(ctx)
	})
	if err != nil {
		return nil, err
	}
	goals := v.([]models.StatewideGoal)
	out := make([]models.StatewideGoal, len(goals))
	copy(out, goals)
	return out, nil
}

func (c *CachedRuleStore) RequirementsForGoal(ctx context.Context, goalID int64) ([]models.GoalRequirement, error) {
	v, err := c.load(ctx, "requirements:"+strconv.FormatInt(goalID, 10), func(ctx context.Context) (any, error) {
		return c.next.RequirementsForGoal(ctx, goalID)
	})
	if err != nil {
		return nil, err
	}
	reqs := v.([]models.GoalRequirement)
	out := make([]models.GoalRequirement, len(reqs))
	copy(out, reqs)
	return out, nil
}

// Invalidate drops every cached entry.
func (c *CachedRuleStore) Invalidate() {
	c.mu.Lock()
	c.entries = make(map[string]cacheEntry)
	c.mu.Unlock()
}

func (c *CachedRuleStore) load(ctx context.Context, key string, fetch func(context.Context) (any, error)) (any, error) {
	if v, ok := c.lookup(key); ok {
		return v, nil
	}

	ch := c.group.DoChan(key, func() (any, error) {
		if v, ok := c.lookup(key); ok {
			return v, nil
		}
		// The read outlives the caller that started it.
		fetchCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), c.fetchTimeout)
		defer cancel()

		v, err := fetch(fetchCtx)
		if err != nil {
			return nil, err
		}
		c.mu.Lock()
		c.entries[key] = cacheEntry{value: v, expires: c.expiry()}
		c.mu.Unlock()
		return v, nil
	})

	select {
	case res := <-ch:
		return res.Val, res.Err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (c *CachedRuleStore) lookup(key string) (any, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	e, ok := c.entries[key]
	if !ok {
		return nil, false
	}
	if !e.expires.IsZero() && !c.now().Before(e.expires) {
		return nil, false
	}
	return e.value, true
}

func (c *CachedRuleStore) expiry() time.Time {
	if c.ttl <= 0 {
		return time.Time{}
	}
	return c.now().Add(c.ttl)
}
