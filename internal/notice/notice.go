// Package notice keeps short-lived user-facing messages ("toasts") describing
// the outcome of cart operations.
package notice

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// DefaultTTL is how long a notice stays visible.
const DefaultTTL = 3 * time.Second

// Kind classifies a notice for display.
type Kind string

const (
	KindSuccess Kind = "success"
	KindError   Kind = "error"
)

// Notice is a single transient message.
type Notice struct {
	ID        string    `json:"id"`
	Message   string    `json:"message"`
	Kind      Kind      `json:"kind"`
	CreatedAt time.Time `json:"created_at"`
}

// Queue holds active notices, oldest first. Each notice is evicted by its own
// timer once the TTL has passed, independent of the others.
type Queue struct {
	ttl     time.Duration
	mu      sync.Mutex
	notices []Notice
	timers  map[string]*time.Timer
	closed  bool
}

// NewQueue creates a queue whose notices live for ttl. A non-positive ttl means DefaultTTL.
func NewQueue(ttl time.Duration) *Queue {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Queue{
		ttl:    ttl,
		timers: make(map[string]*time.Timer),
	}
}

// Enqueue appends a uniquely identified notice and schedules its eviction.
func (q *Queue) Enqueue(message string, kind Kind) Notice {
	n := Notice{
		ID:        uuid.NewString(),
		Message:   message,
		Kind:      kind,
		CreatedAt: time.Now(),
	}

	q.mu.Lock()
	defer q.mu.Unlock()
	if q.closed {
		return n
	}
	q.notices = append(q.notices, n)
	q.timers[n.ID] = time.AfterFunc(q.ttl, func() { q.evict(n.ID) })
	return n
}

// Active returns a snapshot of the notices currently displayed, oldest first.
func (q *Queue) Active() []Notice {
	q.mu.Lock()
	defer q.mu.Unlock()
	out := make([]Notice, len(q.notices))
	copy(out, q.notices)
	return out
}

// Len reports the number of active notices.
func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.notices)
}

// Close stops every pending timer and drops all notices. Later Enqueue calls are ignored.
func (q *Queue) Close() {
	q.mu.Lock()
	defer q.mu.Unlock()
	for id, t := range q.timers {
		t.Stop()
		delete(q.timers, id)
	}
	q.notices = nil
	q.closed = true
}

func (q *Queue) evict(id string) {
	q.mu.Lock()
	defer q.mu.Unlock()
	delete(q.timers, id)
	for i, n := range q.notices {
		if n.ID == id {
			q.notices = append(q.notices[:i], q.notices[i+1:]...)
			return
		}
	}
}
