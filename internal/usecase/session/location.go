package session

import (
	"net/url"
	"sync"

	"example.com/storefront/internal/domain/listing"
)

// Location holds the query string each listing page would show in the address bar.
type Location struct {
	mu      sync.RWMutex
	queries map[listing.Kind]url.Values
}

func NewLocation() *Location {
	return &Location{queries: make(map[listing.Kind]url.Values)}
}

func (l *Location) Navigate(kind listing.Kind, query url.Values) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.queries[kind] = cloneValues(query)
}

func (l *Location) Query(kind listing.Kind) url.Values {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return cloneValues(l.queries[kind])
}

func cloneValues(q url.Values) url.Values {
	out := make(url.Values, len(q))
	for k, v := range q {
		out[k] = append([]string(nil), v...)
	}
	return out
}
