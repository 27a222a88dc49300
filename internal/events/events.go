// Package events publishes circuit edits on NATS so other services can
// follow a session. Trace context travels in the message headers.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"
	"go.opentelemetry.io/otel"
)

// SubjectPrefix is the root of every subject published here.
const SubjectPrefix = "circuit"

// Subject returns the subject for an operation on a session:
// circuit.<session>.<op>.
func Subject(session, op string) string {
	return fmt.Sprintf("%s.%s.%s", SubjectPrefix, session, op)
}

// Event is the payload of every published message.
type Event struct {
	Session string    `json:"session"`
	Op      string    `json:"op"`
	Target  string    `json:"target,omitempty"` // component or wire id
	At      time.Time `json:"at"`
	Data    any       `json:"data,omitempty"`
}

// natsHeaderCarrier adapts nats.Msg headers for OTel TextMapCarrier.
type natsHeaderCarrier nats.Msg

func (c *natsHeaderCarrier) Get(key string) string {
	if c.Header == nil {
		return ""
	}
	return c.Header.Get(key)
}

func (c *natsHeaderCarrier) Set(key, val string) {
	if c.Header == nil {
		c.Header = make(nats.Header)
	}
	c.Header.Set(key, val)
}

func (c *natsHeaderCarrier) Keys() []string {
	if c.Header == nil {
		return nil
	}
	keys := make([]string, 0, len(c.Header))
	for k := range c.Header {
		keys = append(keys, k)
	}
	return keys
}

// msgConn is the part of *nats.Conn the publisher uses.
type msgConn interface {
	PublishMsg(m *nats.Msg) error
	Drain() error
}

// Publisher sends events. A nil *Publisher is valid and drops everything,
// which is what a server without a NATS URL uses.
type Publisher struct {
	conn msgConn
	now  func() time.Time
}

// Connect dials url. An empty url returns a nil Publisher.
func Connect(url string, opts ...nats.Option) (*Publisher, error) {
	if url == "" {
		return nil, nil
	}
	opts = append([]nats.Option{nats.Name("otc")}, opts...)
	nc, err := nats.Connect(url, opts...)
	if err != nil {
		return nil, fmt.Errorf("events: connect %s: %w", url, err)
	}
	return &Publisher{conn: nc, now: time.Now}, nil
}

// Close drains the connection.
func (p *Publisher) Close() error {
	if p == nil {
		return nil
	}
	return p.conn.Drain()
}

// Emit publishes an Event for op on session.
func (p *Publisher) Emit(ctx context.Context, session, op, target string, data any) error {
	if p == nil {
		return nil
	}
	ev := Event{Session: session, Op: op, Target: target, At: p.now().UTC(), Data: data}
	return Publish(ctx, p, Subject(session, op), ev)
}

// Publish serializes v as JSON and publishes it on subject. Trace context
// from ctx is injected into the message headers.
func Publish[T any](ctx context.Context, p *Publisher, subject string, v T) error {
	if p == nil {
		return nil
	}
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	msg := &nats.Msg{
		Subject: subject,
		Data:    data,
	}
	otel.GetTextMapPropagator().Inject(ctx, (*natsHeaderCarrier)(msg))
	return p.conn.PublishMsg(msg)
}

// Subscriber is the part of *nats.Conn that Subscribe needs.
type Subscriber interface {
	Subscribe(subject string, cb nats.MsgHandler) (*nats.Subscription, error)
}

// WatchSubject is the subject matching every event of a session, or of all
// sessions when session is empty.
func WatchSubject(session string) string {
	if session == "" {
		session = "*"
	}
	return "circuit." + session + ".*"
}

// Subscribe registers a handler that decodes JSON messages of type T.
// Trace context is extracted from the headers. Malformed messages are
// dropped.
func Subscribe[T any](nc Subscriber, subject string, handler func(context.Context, T)) (*nats.Subscription, error) {
	return nc.Subscribe(subject, func(msg *nats.Msg) {
		var v T
		if err := json.Unmarshal(msg.Data, &v); err != nil {
			return
		}
		ctx := otel.GetTextMapPropagator().Extract(context.Background(), (*natsHeaderCarrier)(msg))
		handler(ctx, v)
	})
}
