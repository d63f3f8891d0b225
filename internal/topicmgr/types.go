package topicmgr

import (
	"time"
)

// Topic describes one bus topic: its wire name, the module that owns it and
// enough documentation for the CLI to list it.
type Topic interface {
	// Name returns the wire name used on the bus
	Name() string

	// Module returns the module that owns this topic (empty for framework topics)
	Module() string

	// Description returns human-readable documentation
	Description() string

	// Example returns a sample payload
	Example() string

	// Metadata returns additional topic information
	Metadata() map[string]interface{}

	// Scope returns whether this is a framework or module topic
	Scope() TopicScope
}

// TypedTopic is the Topic implementation produced by DefineFramework and DefineModule.
type TypedTopic struct {
	name        string
	module      string
	description string
	example     string
	metadata    map[string]interface{}
	scope       TopicScope
}

var _ Topic = (*TypedTopic)(nil)

// TopicConfig holds configuration for creating a new topic
type TopicConfig struct {
	Name        string                 `json:"name"`
	Module      string                 `json:"module"`
	Scope       TopicScope             `json:"scope"`
	Description string                 `json:"description"`
	Example     string                 `json:"example"`
	Metadata    map[string]interface{} `json:"metadata"`
}

// TopicScope defines whether a topic belongs to framework or module level
type TopicScope string

const (
	ScopeFramework TopicScope = "framework" // Relay infrastructure (websocket, presence)
	ScopeModule    TopicScope = "module"    // Shared with other services (chat, rooms)
)

// RegistryEntry represents a topic entry in the registry with metadata
type RegistryEntry struct {
	Topic        Topic     `json:"topic"`
	RegisteredAt time.Time `json:"registered_at"`
	Module       string    `json:"module"`
}

// TopicError represents structured errors in the topic management system
type TopicError struct {
	Type    ErrorType `json:"type"`
	Topic   string    `json:"topic"`
	Module  string    `json:"module"`
	Message string    `json:"message"`
	Cause   error     `json:"cause,omitempty"`
}

// ErrorType defines the type of topic management error
type ErrorType string

const (
	ErrorTopicNotFound         ErrorType = "topic_not_found"
	ErrorDuplicateRegistration ErrorType = "duplicate_registration"
	ErrorValidationFailed      ErrorType = "validation_failed"
)

// Error implements the error interface
func (e *TopicError) Error() string {
	if e.Cause != nil {
		return e.Message + ": " + e.Cause.Error()
	}
	return e.Message
}

// Unwrap returns the underlying error
func (e *TopicError) Unwrap() error {
	return e.Cause
}

func (t *TypedTopic) Name() string        { return t.name }
func (t *TypedTopic) Module() string      { return t.module }
func (t *TypedTopic) Description() string { return t.description }
func (t *TypedTopic) Example() string     { return t.example }
func (t *TypedTopic) Scope() TopicScope   { return t.scope }
func (t *TypedTopic) String() string      { return t.name }

// Metadata returns a copy of the topic's metadata.
func (t *TypedTopic) Metadata() map[string]interface{} {
	result := make(map[string]interface{}, len(t.metadata))
	for k, v := range t.metadata {
		result[k] = v
	}
	return result
}
