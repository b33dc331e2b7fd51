// Package registry maintains the set of discovered documentation pages and
// broadcasts change events to interested subscribers such as the report
// server and the watch command.
package registry

import (
	"sort"
	"sync"
	"time"

	"github.com/docsentry/docsentry/internal/types"
)

// DocumentRegistry manages all discovered documents, keyed by their
// corpus-relative path.
type DocumentRegistry struct {
	documents map[string]*types.DocumentInfo
	mutex     sync.RWMutex
	watchers  []chan types.DocumentEvent
}

// NewDocumentRegistry creates a new document registry
func NewDocumentRegistry() *DocumentRegistry {
	return &DocumentRegistry{
		documents: make(map[string]*types.DocumentInfo),
		watchers:  make([]chan types.DocumentEvent, 0),
	}
}

// Register adds or updates a document in the registry
func (r *DocumentRegistry) Register(doc *types.DocumentInfo) {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	eventType := types.EventTypeAdded
	if _, exists := r.documents[doc.Path]; exists {
		eventType = types.EventTypeUpdated
	}

	r.documents[doc.Path] = doc

	r.broadcast(types.DocumentEvent{
		Type:      eventType,
		Document:  doc,
		Timestamp: time.Now(),
	})
}

// Get retrieves a document by its relative path
func (r *DocumentRegistry) Get(path string) (*types.DocumentInfo, bool) {
	r.mutex.RLock()
	defer r.mutex.RUnlock()

	doc, exists := r.documents[path]
	return doc, exists
}

// GetAll returns all registered documents sorted by path for deterministic output
func (r *DocumentRegistry) GetAll() []*types.DocumentInfo {
	r.mutex.RLock()
	defer r.mutex.RUnlock()

	result := make([]*types.DocumentInfo, 0, len(r.documents))
	for _, doc := range r.documents {
		result = append(result, doc)
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].Path < result[j].Path
	})
	return result
}

// ByKeyword returns documents whose front-matter carries the given keyword,
// sorted by path.
func (r *DocumentRegistry) ByKeyword(keyword string) []*types.DocumentInfo {
	r.mutex.RLock()
	defer r.mutex.RUnlock()

	var result []*types.DocumentInfo
	for _, doc := range r.documents {
		for _, kw := range doc.Keywords {
			if kw == keyword {
				result = append(result, doc)
				break
			}
		}
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].Path < result[j].Path
	})
	return result
}

// Keywords returns every distinct keyword in the corpus with its usage count.
func (r *DocumentRegistry) Keywords() map[string]int {
	r.mutex.RLock()
	defer r.mutex.RUnlock()

	counts := make(map[string]int)
	for _, doc := range r.documents {
		for _, kw := range doc.Keywords {
			counts[kw]++
		}
	}
	return counts
}

// Remove removes a document from the registry
func (r *DocumentRegistry) Remove(path string) {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	doc, exists := r.documents[path]
	if !exists {
		return
	}

	delete(r.documents, path)

	r.broadcast(types.DocumentEvent{
		Type:      types.EventTypeRemoved,
		Document:  doc,
		Timestamp: time.Now(),
	})
}

// Watch returns a channel that receives document events
func (r *DocumentRegistry) Watch() <-chan types.DocumentEvent {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	ch := make(chan types.DocumentEvent, 100)
	r.watchers = append(r.watchers, ch)
	return ch
}

// UnWatch removes a watcher channel and closes it
func (r *DocumentRegistry) UnWatch(ch <-chan types.DocumentEvent) {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	for i, watcher := range r.watchers {
		if watcher == ch {
			close(watcher)
			r.watchers = append(r.watchers[:i], r.watchers[i+1:]...)
			break
		}
	}
}

// Count returns the number of registered documents
func (r *DocumentRegistry) Count() int {
	r.mutex.RLock()
	defer r.mutex.RUnlock()

	return len(r.documents)
}

// broadcast delivers an event to every watcher. Callers must hold the lock.
// Watchers with full channels are skipped rather than blocked.
func (r *DocumentRegistry) broadcast(event types.DocumentEvent) {
	for _, watcher := range r.watchers {
		select {
		case watcher <- event:
		default:
		}
	}
}
