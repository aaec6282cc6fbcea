// Package eventbus публикует события конвейера генерации: в памяти процесса
// или в NATS JetStream для внешних потребителей.
package eventbus

import (
	"context"
	"encoding/json"
	"errors"
	"slices"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
)

// Типы событий конвейера генерации
const (
	EventGenerationStarted   = "GenerationStarted"
	EventGenerationCompleted = "GenerationCompleted"
	EventMeshPublished       = "MeshPublished"
)

var (
	// ErrClosed возвращается при публикации в закрытую шину
	ErrClosed = errors.New("event bus closed")
	// ErrBufferFull возвращается обработчику, публикующему в заполненную шину
	ErrBufferFull = errors.New("event bus buffer full")
)

// Envelope - событие с JSON-нагрузкой. Все события одного запуска делят RunID.
type Envelope struct {
	ID        string            `json:"id"`
	Timestamp time.Time         `json:"timestamp"` // UTC
	Source    string            `json:"source"`
	EventType string            `json:"event_type"`
	RunID     string            `json:"run_id"`
	Payload   json.RawMessage   `json:"payload"`
	Metadata  map[string]string `json:"metadata,omitempty"`
}

// NewEnvelope сериализует payload и присваивает событию UUID
func NewEnvelope(source, eventType, runID string, payload interface{}) (*Envelope, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return &Envelope{
		ID:        uuid.NewString(),
		Timestamp: time.Now().UTC(),
		Source:    source,
		EventType: eventType,
		RunID:     runID,
		Payload:   data,
	}, nil
}

// Decode разбирает полезную нагрузку в v
func (e *Envelope) Decode(v interface{}) error {
	return json.Unmarshal(e.Payload, v)
}

// Filter отбирает события; пустое поле пропускает всё
type Filter struct {
	Types   []string
	Sources []string
	RunIDs  []string
}

// Match проверяет событие на соответствие фильтру
func (f Filter) Match(ev *Envelope) bool {
	return matchAny(ev.EventType, f.Types) &&
		matchAny(ev.Source, f.Sources) &&
		matchAny(ev.RunID, f.RunIDs)
}

func matchAny(val string, allowed []string) bool {
	return len(allowed) == 0 || slices.Contains(allowed, val)
}

// Subscription позволяет отписаться
type Subscription interface {
	Unsubscribe()
}

// Handler потребляет события. Шина в памяти вызывает обработчики из одного
// диспетчера: публикация с ctx обработчика не ждёт места в буфере и при полном
// буфере возвращает ErrBufferFull.
type Handler func(ctx context.Context, ev *Envelope)

// Stats - счётчики шины
type Stats struct {
	Published uint64 `json:"published"`
	Consumed  uint64 `json:"consumed"`
	Dropped   uint64 `json:"dropped"`
	InFlight  int    `json:"in_flight"`
}

// EventBus - шина событий (в памяти или JetStream)
type EventBus interface {
	Publish(ctx context.Context, ev *Envelope) error
	Subscribe(ctx context.Context, f Filter, h Handler) (Subscription, error)
	Metrics() Stats
	Close() error
}

//================ In-Memory =================//

type memoryBus struct {
	closeMu sync.RWMutex // публикующие держат на чтение, Close - на запись
	closed  bool

	subMu  sync.Mutex
	subs   []*memSub // в порядке подписки
	nextID int

	published atomic.Uint64
	consumed  atomic.Uint64
	dropped   atomic.Uint64

	buffer chan *Envelope
	done   chan struct{}
}

type memSub struct {
	bus     *memoryBus
	id      int
	filter  Filter
	handler Handler
	ctx     context.Context
	cancel  context.CancelFunc
}

// NewMemoryBus создаёт шину с буфером capacity (<= 0 - 64).
// Один диспетчер доставляет события подписчикам по очереди, в порядке публикации.
func NewMemoryBus(capacity int) EventBus {
	if capacity <= 0 {
		capacity = 64
	}
	mb := &memoryBus{
		buffer: make(chan *Envelope, capacity),
		done:   make(chan struct{}),
	}
	go mb.dispatch()
	return mb
}

// dispatcherKey помечает ctx, переданный обработчику диспетчером шины
type dispatcherKey struct{}

// Publish кладёт событие в буфер; при полном буфере ждёт места или отмены ctx.
// Из обработчика этой же шины не ждёт: диспетчер - единственный читатель буфера.
func (mb *memoryBus) Publish(ctx context.Context, ev *Envelope) error {
	mb.closeMu.RLock()
	defer mb.closeMu.RUnlock()
	if mb.closed {
		return ErrClosed
	}

	if ctx.Value(dispatcherKey{}) == mb {
		select {
		case mb.buffer <- ev:
			mb.published.Add(1)
			return nil
		default:
			mb.dropped.Add(1)
			return ErrBufferFull
		}
	}

	select {
	case mb.buffer <- ev:
		mb.published.Add(1)
		return nil
	case <-ctx.Done():
		mb.dropped.Add(1)
		return ctx.Err()
	}
}

func (mb *memoryBus) Subscribe(ctx context.Context, f Filter, h Handler) (Subscription, error) {
	mb.closeMu.RLock()
	defer mb.closeMu.RUnlock()
	if mb.closed {
		return nil, ErrClosed
	}

	subCtx, cancel := context.WithCancel(context.WithValue(ctx, dispatcherKey{}, mb))
	mb.subMu.Lock()
	defer mb.subMu.Unlock()
	sub := &memSub{bus: mb, id: mb.nextID, filter: f, handler: h, ctx: subCtx, cancel: cancel}
	mb.nextID++
	mb.subs = append(mb.subs, sub)
	return sub, nil
}

func (mb *memoryBus) Metrics() Stats {
	return Stats{
		Published: mb.published.Load(),
		Consumed:  mb.consumed.Load(),
		Dropped:   mb.dropped.Load(),
		InFlight:  len(mb.buffer),
	}
}

// Close прекращает приём событий и ждёт доставки уже принятых
func (mb *memoryBus) Close() error {
	mb.closeMu.Lock()
	if mb.closed {
		mb.closeMu.Unlock()
		return nil
	}
	mb.closed = true
	close(mb.buffer)
	mb.closeMu.Unlock()

	<-mb.done
	return nil
}

func (mb *memoryBus) dispatch() {
	defer close(mb.done)

	for ev := range mb.buffer {
		mb.subMu.Lock()
		subs := slices.Clone(mb.subs)
		mb.subMu.Unlock()

		for _, sub := range subs {
			if sub.ctx.Err() != nil || !sub.filter.Match(ev) {
				continue
			}
			sub.handler(sub.ctx, ev)
			mb.consumed.Add(1)
		}
	}
}

func (s *memSub) Unsubscribe() {
	s.cancel()
	s.bus.subMu.Lock()
	defer s.bus.subMu.Unlock()
	s.bus.subs = slices.DeleteFunc(s.bus.subs, func(other *memSub) bool {
		return other.id == s.id
	})
}
