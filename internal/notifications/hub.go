package notifications

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

const (
	EventProgress = "progress"
	EventDone     = "done"
	EventSnapshot = "snapshot"
)

type Event struct {
	Type      string      `json:"type"`
	Timestamp time.Time   `json:"timestamp"`
	Data      interface{} `json:"data,omitempty"`
}

type Hub struct {
	mu          sync.RWMutex
	subscribers map[uuid.UUID]map[chan Event]struct{}
}

// NewHub создает хаб для SSE-подписок.
func NewHub() *Hub {
	return &Hub{
		subscribers: make(map[uuid.UUID]map[chan Event]struct{}),
	}
}

// Subscribe подписывает на события задачи и возвращает канал и функцию отписки.
func (h *Hub) Subscribe(topic uuid.UUID) (<-chan Event, func()) {
	ch := make(chan Event, 32)

	h.mu.Lock()
	defer h.mu.Unlock()

	subs, ok := h.subscribers[topic]
	if !ok {
		subs = make(map[chan Event]struct{})
		h.subscribers[topic] = subs
	}
	subs[ch] = struct{}{}

	return ch, func() {
		h.mu.Lock()
		defer h.mu.Unlock()

		subs, exists := h.subscribers[topic]
		if !exists {
			return
		}
		if _, subscribed := subs[ch]; !subscribed {
			return
		}
		delete(subs, ch)
		if len(subs) == 0 {
			delete(h.subscribers, topic)
		}
		close(ch)
	}
}

// Publish отправляет событие всем подписчикам задачи. Медленный подписчик
// пропускает событие, а не блокирует издателя.
func (h *Hub) Publish(topic uuid.UUID, event Event) {
	event.Timestamp = time.Now().UTC()

	h.mu.RLock()
	defer h.mu.RUnlock()

	subs, ok := h.subscribers[topic]
	if !ok {
		return
	}

	for ch := range subs {
		select {
		case ch <- event:
		default:
		}
	}
}

// CloseTopic закрывает каналы всех подписчиков задачи.
func (h *Hub) CloseTopic(topic uuid.UUID) {
	h.mu.Lock()
	defer h.mu.Unlock()

	for ch := range h.subscribers[topic] {
		close(ch)
	}
	delete(h.subscribers, topic)
}

// Subscribers возвращает число подписчиков задачи.
func (h *Hub) Subscribers(topic uuid.UUID) int {
	h.mu.RLock()
	defer h.mu.RUnlock()

	return len(h.subscribers[topic])
}
