// Package cache provides a bounded, generic LRU cache.
//
// Cache[K, V] keeps at most Capacity entries. Inserting past capacity evicts
// the least recently used entry and reports it to an optional eviction hook,
// so owners can release or log the dropped value.
//
//	c := cache.New[string, int](64)
//	v := c.GetOrCreate("key", func() int { return 42 })
//
// # Thread Safety
//
// Cache is safe for concurrent use and must not be copied after creation.
package cache
