// Package suggest holds suggestion lists already fetched this session.
package suggest

// Cache maps an exact query string to the suggestion list the service
// returned for it. Keys are not normalized: case and whitespace count.
// Entries never expire and the cache is unbounded, so it must be owned by a
// single controller. Not safe for concurrent use.
type Cache struct {
	entries map[string][]string
}

// NewCache creates an empty cache
func NewCache() *Cache {
	return &Cache{entries: make(map[string][]string)}
}

// Get returns a copy of the list cached for query
func (c *Cache) Get(query string) ([]string, bool) {
	list, ok := c.entries[query]
	if !ok {
		return nil, false
	}
	return clone(list), true
}

// Put stores a copy of list for query, replacing any earlier entry
func (c *Cache) Put(query string, list []string) {
	c.entries[query] = clone(list)
}

// Len returns the number of cached queries
func (c *Cache) Len() int {
	return len(c.entries)
}

func clone(list []string) []string {
	out := make([]string, len(list))
	copy(out, list)
	return out
}
