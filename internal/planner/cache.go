package planner

import (
	"goassay/domain/assay"
	"goassay/domain/core"
)

// prefixCache memoizes rollout results by schedule hash. It is owned by
// exactly one planner instance and is deliberately not safe for concurrent
// use: the search loop is single-threaded, and separate planner instances
// each own their own cache.
type prefixCache struct {
	entries map[core.ScheduleHash]*assay.PrefixRolloutResult
	hits    int
	misses  int
}

func newPrefixCache() *prefixCache {
	return &prefixCache{entries: make(map[core.ScheduleHash]*assay.PrefixRolloutResult)}
}

// get returns the cached result for a schedule, if present. Cached results
// are shared pointers: rollouts are pure functions of their schedule, so
// re-running one could only ever reproduce the same value.
func (c *prefixCache) get(key core.ScheduleHash) (*assay.PrefixRolloutResult, bool) {
	res, ok := c.entries[key]
	if ok {
		c.hits++
	} else {
		c.misses++
	}
	return res, ok
}

func (c *prefixCache) put(key core.ScheduleHash, res *assay.PrefixRolloutResult) {
	c.entries[key] = res
}
