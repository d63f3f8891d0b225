package topicmgr

import (
	"fmt"
	"sort"
	"sync"
	"time"
)

// Registry manages the collection of registered topics with metadata
type Registry struct {
	entries map[string]*RegistryEntry
	mu      sync.RWMutex
}

// NewRegistry creates a new topic registry
func NewRegistry() *Registry {
	return &Registry{
		entries: make(map[string]*RegistryEntry),
	}
}

// Register adds a topic to the registry
func (r *Registry) Register(topic Topic) error {
	if topic == nil {
		return &TopicError{
			Type:    ErrorValidationFailed,
			Message: "cannot register nil topic",
		}
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	name := topic.Name()
	if _, exists := r.entries[name]; exists {
		return &TopicError{
			Type:    ErrorDuplicateRegistration,
			Topic:   name,
			Module:  topic.Module(),
			Message: fmt.Sprintf("topic already registered: %s", name),
		}
	}

	r.entries[name] = &RegistryEntry{
		Topic:        topic,
		RegisteredAt: time.Now(),
		Module:       topic.Module(),
	}
	return nil
}

// Get retrieves a topic by name
func (r *Registry) Get(name string) (Topic, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	entry, exists := r.entries[name]
	if !exists {
		return nil, false
	}
	return entry.Topic, true
}

// List returns all registered topics sorted by name
func (r *Registry) List() []Topic {
	return r.filter(func(Topic) bool { return true })
}

// ListByModule returns topics for a specific module
func (r *Registry) ListByModule(module string) []Topic {
	return r.filter(func(t Topic) bool { return t.Module() == module })
}

// ListByScope returns topics for a specific scope
func (r *Registry) ListByScope(scope TopicScope) []Topic {
	return r.filter(func(t Topic) bool { return t.Scope() == scope })
}

func (r *Registry) filter(keep func(Topic) bool) []Topic {
	r.mu.RLock()
	defer r.mu.RUnlock()

	topics := make([]Topic, 0, len(r.entries))
	for _, entry := range r.entries {
		if keep(entry.Topic) {
			topics = append(topics, entry.Topic)
		}
	}
	sort.Slice(topics, func(i, j int) bool { return topics[i].Name() < topics[j].Name() })
	return topics
}

// Count returns the number of registered topics
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return len(r.entries)
}

// Reset removes all registered topics (primarily for testing)
func (r *Registry) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.entries = make(map[string]*RegistryEntry)
}
