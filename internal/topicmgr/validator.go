package topicmgr

import (
	"fmt"
	"regexp"
	"strings"
)

// Validator provides validation for topic definitions
type Validator struct {
	namePattern   *regexp.Regexp
	modulePattern *regexp.Regexp
}

// NewValidator creates a new topic validator
func NewValidator() *Validator {
	// Names are lowercase words separated by dots or hyphens, matching the
	// topic names shared with the other services: message-events,
	// user-presence-events, ws.client.opened.
	return &Validator{
		namePattern:   regexp.MustCompile(`^[a-z][a-z0-9]*([.-][a-z][a-z0-9]*)*$`),
		modulePattern: regexp.MustCompile(`^[a-z][a-z0-9_]*$`),
	}
}

// ValidateDefinition validates a topic definition
func (v *Validator) ValidateDefinition(topic Topic) error {
	if topic == nil {
		return fmt.Errorf("topic cannot be nil")
	}

	if err := v.ValidateName(topic.Name()); err != nil {
		return fmt.Errorf("invalid topic name: %w", err)
	}

	if strings.TrimSpace(topic.Description()) == "" {
		return fmt.Errorf("topic description cannot be empty")
	}

	switch topic.Scope() {
	case ScopeFramework:
		if topic.Module() != "" {
			return fmt.Errorf("framework topics should not have a module")
		}
	case ScopeModule:
		if err := v.validateModuleName(topic.Module()); err != nil {
			return fmt.Errorf("invalid module name: %w", err)
		}
	default:
		return fmt.Errorf("invalid topic scope: %s", topic.Scope())
	}

	return nil
}

// ValidateName checks if a topic name follows the naming convention
func (v *Validator) ValidateName(name string) error {
	if name == "" {
		return fmt.Errorf("name cannot be empty")
	}

	if len(name) > 100 {
		return fmt.Errorf("name too long (max 100 characters)")
	}

	if !v.namePattern.MatchString(name) {
		return fmt.Errorf("name must be lowercase alphanumeric words separated by dots or hyphens")
	}

	for _, prefix := range []string{"system.", "internal.", "debug."} {
		if strings.HasPrefix(name, prefix) {
			return fmt.Errorf("name cannot start with reserved prefix: %s", prefix)
		}
	}

	return nil
}

func (v *Validator) validateModuleName(module string) error {
	if module == "" {
		return fmt.Errorf("module topics must specify a module")
	}

	if len(module) > 50 {
		return fmt.Errorf("module name too long (max 50 characters)")
	}

	if !v.modulePattern.MatchString(module) {
		return fmt.Errorf("module name must be lowercase alphanumeric with underscores")
	}

	return nil
}
