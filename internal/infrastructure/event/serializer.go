package event

import (
	"encoding/json"
	"fmt"
	"sync"

	"github.com/erp/salestax/internal/domain/shared"
)

// EventSerializer turns queued tasks into outbox payloads and back.
// Payloads are plain JSON; the task type stored beside them selects the
// constructor used to decode.
type EventSerializer struct {
	mu       sync.RWMutex
	registry map[string]func() shared.DomainEvent
}

func NewEventSerializer() *EventSerializer {
	return &EventSerializer{registry: make(map[string]func() shared.DomainEvent)}
}

// Register maps a task type to a constructor of an empty task.
// Registering a type twice replaces the constructor.
func (s *EventSerializer) Register(eventType string, newTask func() shared.DomainEvent) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.registry[eventType] = newTask
}

func (s *EventSerializer) Serialize(task shared.DomainEvent) ([]byte, error) {
	return json.Marshal(task)
}

// Deserialize decodes a payload stored under eventType
func (s *EventSerializer) Deserialize(eventType string, data []byte) (shared.DomainEvent, error) {
	s.mu.RLock()
	newTask, ok := s.registry[eventType]
	s.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("unknown event type: %s", eventType)
	}

	task := newTask()
	if err := json.Unmarshal(data, task); err != nil {
		return nil, fmt.Errorf("failed to unmarshal %s: %w", eventType, err)
	}
	return task, nil
}

func (s *EventSerializer) IsRegistered(eventType string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.registry[eventType]
	return ok
}
