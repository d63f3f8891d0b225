// Package topics declares the bus topics the relay produces and consumes.
// Each topic is bound to its payload type and registered with the default
// topic manager at init, so `chatrelay topics list` can describe it.
package topics
