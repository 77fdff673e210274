package event

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"
	"sync/atomic"

	"github.com/erp/salestax/internal/domain/shared"
	"go.uber.org/zap"
)

// ErrDispatcherStopped is returned by Publish after Stop. The outbox
// processor treats it like any handler failure, so the task stays queued.
var ErrDispatcherStopped = errors.New("task dispatcher stopped")

// Dispatcher hands decoded tasks to the handlers subscribed to their type,
// synchronously and in subscription order.
type Dispatcher struct {
	mu       sync.RWMutex
	routes   map[string][]shared.EventHandler
	catchAll []shared.EventHandler
	stopped  atomic.Bool
	logger   *zap.Logger
}

func NewDispatcher(logger *zap.Logger) *Dispatcher {
	return &Dispatcher{
		routes: make(map[string][]shared.EventHandler),
		logger: logger.Named("dispatcher"),
	}
}

// Publish runs every matching handler for every task, even after a failure.
// The returned error joins all handler failures.
func (d *Dispatcher) Publish(ctx context.Context, tasks ...shared.DomainEvent) error {
	if d.stopped.Load() {
		return ErrDispatcherStopped
	}
	var errs []error
	for _, task := range tasks {
		for _, handler := range d.handlersFor(task.EventType()) {
			if err := d.run(ctx, handler, task); err != nil {
				d.logger.Error("task handler failed",
					zap.String("event_type", task.EventType()),
					zap.String("event_id", task.EventID().String()),
					zap.String("aggregate_id", task.AggregateID().String()),
					zap.Error(err),
				)
				errs = append(errs, err)
			}
		}
	}
	return errors.Join(errs...)
}

// Subscribe routes eventTypes to handler, falling back to handler.EventTypes().
// A handler with no types at all receives everything.
func (d *Dispatcher) Subscribe(handler shared.EventHandler, eventTypes ...string) {
	if len(eventTypes) == 0 {
		eventTypes = handler.EventTypes()
	}

	d.mu.Lock()
	if len(eventTypes) == 0 {
		d.catchAll = append(d.catchAll, handler)
	}
	for _, t := range eventTypes {
		d.routes[t] = append(d.routes[t], handler)
	}
	d.mu.Unlock()

	d.logger.Debug("subscribed", zap.Strings("event_types", eventTypes))
}

func (d *Dispatcher) Unsubscribe(handler shared.EventHandler) {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.catchAll = without(d.catchAll, handler)
	for t, handlers := range d.routes {
		if rest := without(handlers, handler); len(rest) > 0 {
			d.routes[t] = rest
		} else {
			delete(d.routes, t)
		}
	}
}

// HasHandlers reports whether a task of eventType would reach any handler
func (d *Dispatcher) HasHandlers(eventType string) bool {
	return len(d.handlersFor(eventType)) > 0
}

// Start reopens a stopped dispatcher. A new dispatcher is already open.
func (d *Dispatcher) Start(context.Context) error {
	d.stopped.Store(false)
	d.logger.Info("task dispatcher started")
	return nil
}

// Stop makes further Publish calls fail. In-flight handlers finish normally.
func (d *Dispatcher) Stop(context.Context) error {
	d.stopped.Store(true)
	d.logger.Info("task dispatcher stopped")
	return nil
}

func (d *Dispatcher) handlersFor(eventType string) []shared.EventHandler {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return slices.Concat(d.routes[eventType], d.catchAll)
}

func (d *Dispatcher) run(ctx context.Context, handler shared.EventHandler, task shared.DomainEvent) (err error) {
	defer func() {
		if r := recover(); r != nil {
			d.logger.Error("task handler panicked", zap.String("event_type", task.EventType()), zap.Any("panic", r))
			err = fmt.Errorf("handler panicked on %s: %v", task.EventType(), r)
		}
	}()
	return handler.Handle(ctx, task)
}

func without(handlers []shared.EventHandler, target shared.EventHandler) []shared.EventHandler {
	return slices.DeleteFunc(slices.Clone(handlers), func(h shared.EventHandler) bool { return h == target })
}

var _ shared.EventBus = (*Dispatcher)(nil)
