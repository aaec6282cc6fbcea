package eventbus

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	nats "github.com/nats-io/nats.go"
)

const (
	// SubjectPrefix - префикс subject'ов событий генерации: voxel.<EventType>
	SubjectPrefix = "voxel"
	// DefaultStream - стрим JetStream по умолчанию
	DefaultStream = "VOXEL_EVENTS"
	// RunIDHeader дублирует RunID в заголовке, чтобы фильтровать без разбора JSON
	RunIDHeader = "Voxel-Run-Id"
)

// JetStreamBus реализует EventBus поверх NATS JetStream
type JetStreamBus struct {
	nc     *nats.Conn
	js     nats.JetStreamContext
	stream string

	published atomic.Uint64
	consumed  atomic.Uint64
	dropped   atomic.Uint64
}

// NewJetStreamBus подключается к NATS и создаёт стрим, если его нет.
// retention == 0 - события хранятся без ограничения по времени.
func NewJetStreamBus(url, stream string, retention time.Duration) (*JetStreamBus, error) {
	if stream == "" {
		stream = DefaultStream
	}

	nc, err := nats.Connect(url,
		nats.Name("voxel-worldgen"),
		nats.Timeout(5*time.Second),
		nats.MaxReconnects(10),
	)
	if err != nil {
		return nil, fmt.Errorf("nats connect %s: %w", url, err)
	}

	js, err := nc.JetStream()
	if err != nil {
		nc.Close()
		return nil, fmt.Errorf("jetstream context: %w", err)
	}

	if err := ensureStream(js, stream, retention); err != nil {
		nc.Close()
		return nil, err
	}
	return &JetStreamBus{nc: nc, js: js, stream: stream}, nil
}

func ensureStream(js nats.JetStreamContext, stream string, retention time.Duration) error {
	_, err := js.StreamInfo(stream)
	if err == nil {
		return nil
	}
	if !errors.Is(err, nats.ErrStreamNotFound) {
		return fmt.Errorf("stream info %s: %w", stream, err)
	}

	_, err = js.AddStream(&nats.StreamConfig{
		Name:       stream,
		Subjects:   []string{SubjectPrefix + ".*"},
		Retention:  nats.LimitsPolicy,
		MaxAge:     retention,
		Storage:    nats.FileStorage,
		Duplicates: 2 * time.Minute, // окно дедупликации по Nats-Msg-Id
	})
	if err != nil {
		return fmt.Errorf("add stream %s: %w", stream, err)
	}
	return nil
}

// Subject возвращает subject для типа события
func Subject(eventType string) string {
	return fmt.Sprintf("%s.%s", SubjectPrefix, eventType)
}

// Publish отправляет Envelope в voxel.<EventType>. ID события служит Nats-Msg-Id,
// поэтому повторная отправка того же события в стрим не попадает.
func (jb *JetStreamBus) Publish(ctx context.Context, ev *Envelope) error {
	data, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("marshal %s: %w", ev.EventType, err)
	}

	msg := nats.NewMsg(Subject(ev.EventType))
	msg.Data = data
	msg.Header.Set(RunIDHeader, ev.RunID)

	if _, err := jb.js.PublishMsg(msg, nats.Context(ctx), nats.MsgId(ev.ID)); err != nil {
		jb.dropped.Add(1)
		return fmt.Errorf("publish %s: %w", msg.Subject, err)
	}
	jb.published.Add(1)
	return nil
}

// Subscribe создаёт эфемерного потребителя только для новых событий.
// Сообщение подтверждается после возврата handler.
func (jb *JetStreamBus) Subscribe(ctx context.Context, f Filter, h Handler) (Subscription, error) {
	subject := SubjectPrefix + ".*"
	if len(f.Types) == 1 {
		subject = Subject(f.Types[0])
	}

	sub, err := jb.js.Subscribe(subject, func(msg *nats.Msg) {
		defer func() { _ = msg.Ack() }()

		var ev Envelope
		if err := json.Unmarshal(msg.Data, &ev); err != nil {
			jb.dropped.Add(1)
			return
		}
		if !f.Match(&ev) {
			return
		}
		h(ctx, &ev)
		jb.consumed.Add(1)
	},
		nats.BindStream(jb.stream),
		nats.DeliverNew(),
		nats.ManualAck(),
		nats.AckWait(30*time.Second),
	)
	if err != nil {
		return nil, fmt.Errorf("subscribe %s: %w", subject, err)
	}
	return natsSubscription{sub}, nil
}

type natsSubscription struct {
	sub *nats.Subscription
}

func (s natsSubscription) Unsubscribe() {
	_ = s.sub.Unsubscribe()
}

// Metrics возвращает счётчики; очередь хранит сам JetStream, InFlight всегда 0
func (jb *JetStreamBus) Metrics() Stats {
	return Stats{
		Published: jb.published.Load(),
		Consumed:  jb.consumed.Load(),
		Dropped:   jb.dropped.Load(),
	}
}

// Close дожидается отправки буферов и закрывает соединение
func (jb *JetStreamBus) Close() error {
	return jb.nc.Drain()
}
