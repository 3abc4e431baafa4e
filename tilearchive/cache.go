package tilearchive

import "container/list"

// DefaultCacheCapacity is the directory cache size used when a Reader is
// constructed without an explicit override.
const DefaultCacheCapacity = 20

type cacheElement struct {
	offset  uint64
	entries []Entry
}

// directoryCache is an MRU-front LRU cache mapping a directory's archive
// byte offset to its decoded entries. It uses container/list as its
// intrusive doubly-linked order, the same structure the teacher's server
// request cache is built on, instead of the array-splice approach the
// design notes call out as the thing to avoid.
type directoryCache struct {
	capacity int
	items    map[uint64]*list.Element
	order    *list.List
}

func newDirectoryCache(capacity int) *directoryCache {
	if capacity <= 0 {
		capacity = DefaultCacheCapacity
	}
	return &directoryCache{
		capacity: capacity,
		items:    make(map[uint64]*list.Element),
		order:    list.New(),
	}
}

// get returns the cached entries for offset, promoting it to MRU on a hit.
func (c *directoryCache) get(offset uint64) ([]Entry, bool) {
	el, ok := c.items[offset]
	if !ok {
		return nil, false
	}
	c.order.MoveToFront(el)
	return el.Value.(*cacheElement).entries, true
}

// set inserts or updates the entries for offset, promoting it to MRU and
// evicting from the tail until the cache is back within capacity.
func (c *directoryCache) set(offset uint64, entries []Entry) {
	if el, ok := c.items[offset]; ok {
		el.Value.(*cacheElement).entries = entries
		c.order.MoveToFront(el)
		return
	}
	el := c.order.PushFront(&cacheElement{offset: offset, entries: entries})
	c.items[offset] = el

	for c.order.Len() > c.capacity {
		tail := c.order.Back()
		if tail == nil {
			break
		}
		c.order.Remove(tail)
		delete(c.items, tail.Value.(*cacheElement).offset)
	}
}

// delete removes offset from the cache, if present.
func (c *directoryCache) delete(offset uint64) {
	el, ok := c.items[offset]
	if !ok {
		return
	}
	c.order.Remove(el)
	delete(c.items, offset)
}

func (c *directoryCache) len() int {
	return c.order.Len()
}
