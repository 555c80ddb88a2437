package cache

import (
	"fmt"
	"time"

	"golang.org/x/sync/singleflight"

	"ledger/internal/report"
)

// ReportCache memoizes built reports per ledger revision. Concurrent
// requests for the same key share one build. Cached reports are shared
// between callers and must be treated as read-only.
type ReportCache struct {
	lru   *LRUCache[report.Report]
	group singleflight.Group
}

func NewReportCache(maxSize int, ttl time.Duration) *ReportCache {
	return &ReportCache{lru: NewLRUCache[report.Report](maxSize, ttl)}
}

// ReportKey identifies a request against one ledger revision.
func ReportKey(revision uint64, req report.Request) string {
	return fmt.Sprintf("%d|%s|%s|%s|%s|%s",
		revision, req.Kind, req.Granularity, req.Range.Start, req.Range.End, req.Type)
}

// Get returns the cached report for key or runs build. Build errors are
// not cached.
func (c *ReportCache) Get(key string, build func() (report.Report, error)) (report.Report, bool, error) {
	if rep, ok := c.lru.Get(key); ok {
		return rep, true, nil
	}
	v, err, _ := c.group.Do(key, func() (any, error) {
		rep, err := build()
		if err != nil {
			return report.Report{}, err
		}
		c.lru.Set(key, rep)
		return rep, nil
	})
	if err != nil {
		return report.Report{}, false, err
	}
	return v.(report.Report), false, nil
}

// Purge drops every cached report.
func (c *ReportCache) Purge() {
	c.lru.Purge()
}

// CleanExpired implements Cleaner.
func (c *ReportCache) CleanExpired() int {
	return c.lru.CleanExpired()
}

// Size returns the number of cached reports.
func (c *ReportCache) Size() int {
	return c.lru.Size()
}
