package cache

// entry is a node in the recency list. It carries the value so that a map
// lookup yields both the value and its list position.
type entry[K comparable, V any] struct {
	key   K
	value V
	prev  *entry[K, V]
	next  *entry[K, V]
}

// recencyList is a doubly-linked list ordered by last use.
// The front is the most recently used entry, the back the least.
// Not safe for concurrent use; Cache serializes access.
type recencyList[K comparable, V any] struct {
	front *entry[K, V]
	back  *entry[K, V]
	len   int
}

// pushFront inserts a new entry as most recently used.
func (l *recencyList[K, V]) pushFront(e *entry[K, V]) {
	e.prev = nil
	e.next = l.front
	if l.front != nil {
		l.front.prev = e
	}
	l.front = e
	if l.back == nil {
		l.back = e
	}
	l.len++
}

// moveToFront marks e as most recently used.
func (l *recencyList[K, V]) moveToFront(e *entry[K, V]) {
	if e == l.front {
		return
	}
	l.remove(e)
	l.pushFront(e)
}

// remove unlinks e from the list.
func (l *recencyList[K, V]) remove(e *entry[K, V]) {
	if e.prev != nil {
		e.prev.next = e.next
	} else {
		l.front = e.next
	}
	if e.next != nil {
		e.next.prev = e.prev
	} else {
		l.back = e.prev
	}
	e.prev = nil
	e.next = nil
	l.len--
}

// popBack removes and returns the least recently used entry, or nil.
func (l *recencyList[K, V]) popBack() *entry[K, V] {
	e := l.back
	if e == nil {
		return nil
	}
	l.remove(e)
	return e
}

// reset drops every entry.
func (l *recencyList[K, V]) reset() {
	l.front = nil
	l.back = nil
	l.len = 0
}
