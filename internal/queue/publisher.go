package queue

import (
    "context"
    "encoding/json"
    "log/slog"
    "time"

    amqp "github.com/rabbitmq/amqp091-go"
)

// Publisher sends activity events.  Failures are reported to the caller,
// which is free to ignore them; they never change the page outcome.
type Publisher interface {
    Publish(ctx context.Context, ev ActivityEvent) error
}

// NopPublisher drops every event.  Used when no broker is configured.
type NopPublisher struct{}

func (NopPublisher) Publish(context.Context, ActivityEvent) error { return nil }

// DefaultDialTimeout bounds the TCP connect and AMQP handshake of a publish.
const DefaultDialTimeout = 2 * time.Second

// AMQPPublisher publishes persistent JSON messages to ActivityQueue over a
// short-lived connection per event.
type AMQPPublisher struct {
    URL         string
    DialTimeout time.Duration
    Log         *slog.Logger
}

func NewAMQPPublisher(url string) *AMQPPublisher {
    return &AMQPPublisher{URL: url, DialTimeout: DefaultDialTimeout, Log: slog.Default()}
}

// dial connects with a timeout no longer than DialTimeout or the time left
// on ctx, whichever is shorter.
func (p *AMQPPublisher) dial(ctx context.Context) (*amqp.Connection, error) {
    timeout := p.DialTimeout
    if timeout <= 0 {
        timeout = DefaultDialTimeout
    }
    if dl, ok := ctx.Deadline(); ok {
        left := time.Until(dl)
        if left <= 0 {
            return nil, context.DeadlineExceeded
        }
        if left < timeout {
            timeout = left
        }
    }
    return amqp.DialConfig(p.URL, amqp.Config{
        Dial:      amqp.DefaultDial(timeout),
        Heartbeat: 10 * time.Second,
        Locale:    "en_US",
    })
}

func (p *AMQPPublisher) Publish(ctx context.Context, ev ActivityEvent) error {
    if ev.OccurredAt.IsZero() {
        ev.OccurredAt = time.Now().UTC()
    }
    conn, err := p.dial(ctx)
    if err != nil {
        p.Log.WarnContext(ctx, "rabbitmq: dial failed", "error", err)
        return err
    }
    defer func() { _ = conn.Close() }()

    ch, err := conn.Channel()
    if err != nil {
        p.Log.WarnContext(ctx, "rabbitmq: channel open failed", "error", err)
        return err
    }
    defer func() { _ = ch.Close() }()

    if _, err := ch.QueueDeclare(ActivityQueue, true, false, false, false, nil); err != nil {
        p.Log.WarnContext(ctx, "rabbitmq: queue declare failed", "error", err)
        return err
    }

    body, err := json.Marshal(ev)
    if err != nil {
        return err
    }
    pub := amqp.Publishing{
        ContentType:  "application/json",
        DeliveryMode: amqp.Persistent,
        Timestamp:    ev.OccurredAt,
        Type:         ev.Kind,
        Body:         body,
    }
    if err := ch.PublishWithContext(ctx, "", ActivityQueue, false, false, pub); err != nil {
        p.Log.WarnContext(ctx, "rabbitmq: publish failed", "kind", ev.Kind, "error", err)
        return err
    }
    return nil
}
