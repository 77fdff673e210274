package shared

import "context"

// EventHandler runs work for the task types it declares.
// An empty EventTypes means every type.
type EventHandler interface {
	Handle(ctx context.Context, event DomainEvent) error
	EventTypes() []string
}

// EventPublisher dispatches tasks to subscribed handlers. A non-nil error
// means some handler failed and the delivery should be retried.
type EventPublisher interface {
	Publish(ctx context.Context, events ...DomainEvent) error
}

// EventBus routes published tasks to handlers for the lifetime of the process
type EventBus interface {
	EventPublisher
	Subscribe(handler EventHandler, eventTypes ...string)
	Unsubscribe(handler EventHandler)
	Start(ctx context.Context) error
	Stop(ctx context.Context) error
}

// TaskQueue accepts work for deferred, at-least-once execution.
// Enqueue returns once the tasks are durably stored.
type TaskQueue interface {
	Enqueue(ctx context.Context, tasks ...DomainEvent) error
}
