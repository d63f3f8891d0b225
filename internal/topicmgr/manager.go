package topicmgr

import (
	"fmt"
	"sync"
)

// Manager validates topics and keeps them in a Registry.
type Manager struct {
	registry  *Registry
	validator *Validator
}

// NewManager creates a new topic manager with registry and validator
func NewManager() *Manager {
	return &Manager{
		registry:  NewRegistry(),
		validator: NewValidator(),
	}
}

// DefineFramework creates a new typed topic for relay infrastructure
func DefineFramework(config TopicConfig) Topic {
	config.Scope = ScopeFramework
	config.Module = ""
	return newTypedTopic(config)
}

// DefineModule creates a new typed topic owned by a module
func DefineModule(config TopicConfig) Topic {
	config.Scope = ScopeModule
	return newTypedTopic(config)
}

func newTypedTopic(config TopicConfig) *TypedTopic {
	return &TypedTopic{
		name:        config.Name,
		module:      config.Module,
		description: config.Description,
		example:     config.Example,
		metadata:    config.Metadata,
		scope:       config.Scope,
	}
}

// Register validates a topic and adds it to the registry
func (m *Manager) Register(topic Topic) error {
	if err := m.validator.ValidateDefinition(topic); err != nil {
		name, module := "", ""
		if topic != nil {
			name, module = topic.Name(), topic.Module()
		}
		return &TopicError{
			Type:    ErrorValidationFailed,
			Topic:   name,
			Module:  module,
			Message: "topic validation failed",
			Cause:   err,
		}
	}

	return m.registry.Register(topic)
}

// MustRegister registers a topic and panics on error (for static initialization)
func (m *Manager) MustRegister(topic Topic) {
	if err := m.Register(topic); err != nil {
		panic(fmt.Sprintf("failed to register topic %s: %v", topic.Name(), err))
	}
}

// Get retrieves a topic by name
func (m *Manager) Get(name string) (Topic, bool) {
	return m.registry.Get(name)
}

// Lookup is Get with a TopicError for unknown names.
func (m *Manager) Lookup(name string) (Topic, error) {
	topic, ok := m.registry.Get(name)
	if !ok {
		return nil, &TopicError{
			Type:    ErrorTopicNotFound,
			Topic:   name,
			Message: fmt.Sprintf("topic not found: %s", name),
		}
	}
	return topic, nil
}

// List returns all registered topics
func (m *Manager) List() []Topic {
	return m.registry.List()
}

// ListByModule returns topics for a specific module
func (m *Manager) ListByModule(module string) []Topic {
	return m.registry.ListByModule(module)
}

// ListByScope returns topics for a specific scope (framework or module)
func (m *Manager) ListByScope(scope TopicScope) []Topic {
	return m.registry.ListByScope(scope)
}

// ValidateTopicName checks if a topic name is valid without creating a topic
func (m *Manager) ValidateTopicName(name string) error {
	return m.validator.ValidateName(name)
}

// Count returns the total number of registered topics
func (m *Manager) Count() int {
	return m.registry.Count()
}

// Reset removes all registered topics (primarily for testing)
func (m *Manager) Reset() {
	m.registry.Reset()
}

var (
	defaultManager     *Manager
	defaultManagerOnce sync.Once
)

// Default returns the process-wide manager that package-level topic
// definitions register with.
func Default() *Manager {
	defaultManagerOnce.Do(func() {
		defaultManager = NewManager()
	})
	return defaultManager
}
