// Package topicmgr keeps the catalogue of bus topics the relay publishes and
// consumes, with framework/module scoping.
//
// Module topics are shared with other services and keep their wire names:
//
//	var MessageEvents = topicmgr.DefineModule(topicmgr.TopicConfig{
//		Name:        "message-events",
//		Module:      "chat",
//		Description: "Chat messages sent or deleted in a room",
//		Example:     `{"action":"send","message":{"id":"...","roomId":7,"content":"hi"}}`,
//	})
//
// Topics are registered with the manager and can then be listed by module
// or scope:
//
//	manager := topicmgr.Default()
//	manager.MustRegister(MessageEvents)
//	chatTopics := manager.ListByModule("chat")
package topicmgr
