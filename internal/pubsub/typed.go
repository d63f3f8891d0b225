package pubsub

import (
	"context"
	"encoding/json"
	"fmt"
	"reflect"
	"strings"

	"github.com/nfrund/chatrelay/internal/topicmgr"
)

// Event[T] binds a topic name to its payload type. It is registered with the
// default topic manager so the CLI can list it.
type Event[T any] struct {
	topic topicmgr.Topic
}

// NewEvent creates a typed event and registers it with the Default Manager.
// The payload's JSON field names are recorded in the topic metadata.
// It panics on an invalid or duplicate definition; events are declared at
// package level and such a failure is a programming error.
func NewEvent[T any](cfg topicmgr.TopicConfig) Event[T] {
	var zero T
	t := reflect.TypeOf(zero)
	if t.Kind() == reflect.Ptr {
		t = t.Elem()
	}

	fields := make([]string, 0)
	if t.Kind() == reflect.Struct {
		for i := 0; i < t.NumField(); i++ {
			tag := t.Field(i).Tag.Get("json")
			if tag == "" || tag == "-" {
				continue
			}
			name, _, _ := strings.Cut(tag, ",")
			fields = append(fields, name)
		}
	}

	if cfg.Metadata == nil {
		cfg.Metadata = make(map[string]interface{})
	}
	cfg.Metadata["payload_fields"] = fields
	cfg.Metadata["type_name"] = t.Name()

	var topic topicmgr.Topic
	if cfg.Scope == topicmgr.ScopeFramework {
		topic = topicmgr.DefineFramework(cfg)
	} else {
		topic = topicmgr.DefineModule(cfg)
	}
	topicmgr.Default().MustRegister(topic)

	return Event[T]{topic: topic}
}

// Name returns the topic name.
func (e Event[T]) Name() string {
	return e.topic.Name()
}

// Topic returns the registered topic definition.
func (e Event[T]) Topic() topicmgr.Topic {
	return e.topic
}

// Publish sends a typed event. The compiler ensures 'payload' matches 'T'.
func Publish[T any](ctx context.Context, p Publisher, event Event[T], payload T) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("encode %s payload: %w", event.Name(), err)
	}

	return p.Publish(ctx, Message{
		Topic:   event.Name(),
		Payload: data,
	})
}

// Decode unmarshals msg as the payload of event.
func Decode[T any](event Event[T], msg Message) (T, error) {
	var payload T
	if err := json.Unmarshal(msg.Payload, &payload); err != nil {
		return payload, fmt.Errorf("decode %s payload: %w", event.Name(), err)
	}
	return payload, nil
}
