package quotes

import (
	"context"
	"sync"
	"time"

	"grocery-dispatch/internal/models"
)

// branchCache is an explicit, injectable TTL cache in front of the branch
// repository. Entries expire after ttl; there is no background eviction, an
// expired entry is simply re-fetched on next use.
type branchCache struct {
	repo BranchRepositoryInterface
	ttl  time.Duration
	now  func() time.Time

	mu      sync.Mutex
	byID    map[string]branchEntry
	all     []models.Branch
	allAt   time.Time
	hasList bool
}

type branchEntry struct {
	branch    models.Branch
	fetchedAt time.Time
}

func newBranchCache(repo BranchRepositoryInterface, ttl time.Duration) *branchCache {
	return &branchCache{
		repo: repo,
		ttl:  ttl,
		now:  time.Now,
		byID: make(map[string]branchEntry),
	}
}

func (c *branchCache) FindByID(ctx context.Context, branchID string) (*models.Branch, error) {
	c.mu.Lock()
	entry, ok := c.byID[branchID]
	fresh := ok && c.now().Sub(entry.fetchedAt) < c.ttl
	c.mu.Unlock()

	if fresh {
		b := entry.branch
		return &b, nil
	}

	b, err := c.repo.FindByID(ctx, branchID)
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	c.byID[branchID] = branchEntry{branch: *b, fetchedAt: c.now()}
	c.mu.Unlock()
	return b, nil
}

func (c *branchCache) ListAll(ctx context.Context) ([]models.Branch, error) {
	c.mu.Lock()
	if c.hasList && c.now().Sub(c.allAt) < c.ttl {
		list := make([]models.Branch, len(c.all))
		copy(list, c.all)
		c.mu.Unlock()
		return list, nil
	}
	c.mu.Unlock()

	branches, err := c.repo.ListAll(ctx)
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	c.all = branches
	c.allAt = c.now()
	c.hasList = true
	c.mu.Unlock()

	list := make([]models.Branch, len(branches))
	copy(list, branches)
	return list, nil
}
