package queue

import (
    "context"
    "encoding/json"
    "errors"
    "fmt"
    "log/slog"
    "os"
    "path/filepath"
    "strings"
    "time"

    amqp "github.com/rabbitmq/amqp091-go"
)

const activityLogFile = "activity.log"

// StartActivityConsumer connects to the broker, declares ActivityQueue and
// appends one line per event to dir/activity.log.  It reconnects with
// exponential backoff and returns only when ctx is cancelled.
func StartActivityConsumer(ctx context.Context, url, dir string) error {
    backoff := time.Second
    for {
        conn, err := amqp.Dial(url)
        if err != nil {
            slog.Warn("activity-consumer: dial failed", "error", err, "retry_in", backoff)
            select {
            case <-ctx.Done():
                return ctx.Err()
            case <-time.After(backoff):
            }
            if backoff < 30*time.Second {
                backoff *= 2
            }
            continue
        }
        backoff = time.Second

        err = consumeLoop(ctx, conn, dir)
        _ = conn.Close()
        if ctx.Err() != nil {
            return ctx.Err()
        }
        slog.Warn("activity-consumer: consume loop ended; reconnecting", "error", err)
        select {
        case <-ctx.Done():
            return ctx.Err()
        case <-time.After(2 * time.Second):
        }
    }
}

func consumeLoop(ctx context.Context, conn *amqp.Connection, dir string) error {
    ch, err := conn.Channel()
    if err != nil {
        return fmt.Errorf("channel open: %w", err)
    }
    defer func() { _ = ch.Close() }()

    if err := ch.Qos(50, 0, false); err != nil {
        slog.Warn("activity-consumer: set QoS failed", "error", err)
    }
    if _, err := ch.QueueDeclare(ActivityQueue, true, false, false, false, nil); err != nil {
        return fmt.Errorf("queue declare: %w", err)
    }
    msgs, err := ch.Consume(ActivityQueue, "", false, false, false, false, nil)
    if err != nil {
        return fmt.Errorf("queue consume: %w", err)
    }

    for {
        select {
        case <-ctx.Done():
            return ctx.Err()
        case d, ok := <-msgs:
            if !ok {
                return errors.New("deliveries channel closed")
            }
            if err := AppendEvent(dir, d.Body); err != nil {
                slog.Error("activity-consumer: handle message failed", "error", err)
                _ = d.Nack(false, false) // no requeue
                continue
            }
            _ = d.Ack(false)
        }
    }
}

// AppendEvent decodes one message body and appends its line to the log.
func AppendEvent(dir string, body []byte) error {
    var ev ActivityEvent
    if err := json.Unmarshal(body, &ev); err != nil {
        return fmt.Errorf("unmarshal: %w", err)
    }
    if ev.Kind == "" {
        return errors.New("event without kind")
    }
    if err := os.MkdirAll(dir, 0o755); err != nil {
        return fmt.Errorf("mkdir %s: %w", dir, err)
    }
    f, err := os.OpenFile(filepath.Join(dir, activityLogFile), os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
    if err != nil {
        return fmt.Errorf("open log file: %w", err)
    }
    defer f.Close()
    if _, err := f.WriteString(FormatLine(ev)); err != nil {
        return fmt.Errorf("write log: %w", err)
    }
    return nil
}

// FormatLine renders ev as a single human friendly line.
func FormatLine(ev ActivityEvent) string {
    var b strings.Builder
    fmt.Fprintf(&b, "[%s] %s", ev.OccurredAt.UTC().Format(time.RFC3339), ev.Kind)
    field := func(k, v string) {
        if v != "" {
            fmt.Fprintf(&b, " | %s=%s", k, v)
        }
    }
    field("user_id", ev.UserID)
    field("ad_id", ev.AdID)
    field("city_id", ev.CityID)
    field("step", ev.Step)
    if len(ev.Committed) > 0 {
        field("committed", "["+strings.Join(ev.Committed, ",")+"]")
    }
    if ev.Error != "" {
        field("error", fmt.Sprintf("%q", ev.Error))
    }
    b.WriteByte('\n')
    return b.String()
}
