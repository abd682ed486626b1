package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"
)

// Consumer reads workflow events from RabbitMQ and appends one line per
// event to <LogDir>/<kind>.log (visitor.log, payment.log, room.log).
type Consumer struct {
	URL    string
	LogDir string
	Log    *zap.Logger
}

// NewConsumer returns a Consumer writing under logDir.
func NewConsumer(url, logDir string, log *zap.Logger) *Consumer {
	if log == nil {
		log = zap.NewNop()
	}
	return &Consumer{URL: url, LogDir: logDir, Log: log}
}

// Run dials the broker and consumes until ctx is cancelled.  Connection
// failures are retried with exponential backoff capped at 30s; a closed
// delivery channel triggers a reconnect.
func (c *Consumer) Run(ctx context.Context) error {
	backoff := time.Second
	for {
		conn, err := amqp.Dial(c.URL)
		if err != nil {
			c.Log.Warn("event consumer: dial failed", zap.Error(err), zap.Duration("retry_in", backoff))
			if !sleepCtx(ctx, backoff) {
				return ctx.Err()
			}
			if backoff < 30*time.Second {
				backoff *= 2
			}
			continue
		}
		backoff = time.Second

		err = c.consumeLoop(ctx, conn)
		_ = conn.Close()
		if ctx.Err() != nil {
			return ctx.Err()
		}
		c.Log.Warn("event consumer: consume loop ended, reconnecting", zap.Error(err))
		if !sleepCtx(ctx, 2*time.Second) {
			return ctx.Err()
		}
	}
}

func sleepCtx(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}

type delivery struct {
	queue string
	amqp.Delivery
}

func (c *Consumer) consumeLoop(ctx context.Context, conn *amqp.Connection) error {
	ch, err := conn.Channel()
	if err != nil {
		return fmt.Errorf("channel open: %w", err)
	}
	defer func() { _ = ch.Close() }()

	if err := ch.Qos(50, 0, false); err != nil {
		c.Log.Warn("event consumer: set QoS failed", zap.Error(err))
	}

	merged := make(chan delivery)
	done := make(chan struct{})
	defer close(done)
	open := len(Queues)
	closed := make(chan string, len(Queues))
	for _, name := range Queues {
		if _, err := ch.QueueDeclare(name, true, false, false, false, nil); err != nil {
			return fmt.Errorf("queue declare %s: %w", name, err)
		}
		msgs, err := ch.Consume(name, "", false, false, false, false, nil)
		if err != nil {
			return fmt.Errorf("queue consume %s: %w", name, err)
		}
		go func(name string, msgs <-chan amqp.Delivery) {
			defer func() { closed <- name }()
			for d := range msgs {
				select {
				case merged <- delivery{queue: name, Delivery: d}:
				case <-done:
					return
				}
			}
		}(name, msgs)
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case name := <-closed:
			c.Log.Warn("event consumer: deliveries closed", zap.String("queue", name))
			open--
			if open == 0 {
				return errors.New("deliveries channels closed")
			}
		case d := <-merged:
			if err := c.HandleMessage(d.queue, d.Body); err != nil {
				c.Log.Error("event consumer: handle message failed", zap.String("queue", d.queue), zap.Error(err))
				_ = d.Nack(false, false) // drop, requeueing a bad payload would loop
				continue
			}
			_ = d.Ack(false)
		}
	}
}

// HandleMessage decodes one event from queue and appends its audit line.
func (c *Consumer) HandleMessage(queue string, body []byte) error {
	var (
		file string
		line string
	)
	switch queue {
	case VisitorQueue:
		var ev VisitorEvent
		if err := json.Unmarshal(body, &ev); err != nil {
			return fmt.Errorf("unmarshal: %w", err)
		}
		file = "visitor.log"
		line = fmt.Sprintf("[%s] Visitor %s | visitor_id=%d | student_id=%s | visitor=%q | room=%s | from=%s | by=%s\n",
			ev.At, ev.To, ev.VisitorID, ev.StudentID, ev.VisitorName, ev.RoomNumber, orDash(ev.From), orDash(ev.Actor))
	case PaymentQueue:
		var ev PaymentEvent
		if err := json.Unmarshal(body, &ev); err != nil {
			return fmt.Errorf("unmarshal: %w", err)
		}
		file = "payment.log"
		line = fmt.Sprintf("[%s] Payment %s | request_id=%d | payment_id=%d | student_id=%s | amount=%s | type=%q | receipt=%s | by=%s\n",
			ev.At, ev.Kind, ev.RequestID, ev.PaymentID, orDash(ev.StudentID), orDash(ev.Amount), ev.Type, orDash(ev.ReceiptNumber), orDash(ev.Actor))
	case RoomQueue:
		var ev RoomEvent
		if err := json.Unmarshal(body, &ev); err != nil {
			return fmt.Errorf("unmarshal: %w", err)
		}
		file = "room.log"
		line = fmt.Sprintf("[%s] Room %s | room=%s | student_id=%s | occupants=%d/%d | status=%s\n",
			ev.At, ev.Kind, ev.Room, orDash(ev.StudentID), ev.Occupants, ev.Capacity, ev.Status)
	default:
		return fmt.Errorf("unknown queue %q", queue)
	}
	return c.appendLine(file, line)
}

func (c *Consumer) appendLine(name, line string) error {
	if err := os.MkdirAll(c.LogDir, 0o755); err != nil {
		return fmt.Errorf("mkdir %s: %w", c.LogDir, err)
	}
	f, err := os.OpenFile(filepath.Join(c.LogDir, name), os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("open log file: %w", err)
	}
	defer f.Close()
	if _, err := f.WriteString(line); err != nil {
		return fmt.Errorf("write log: %w", err)
	}
	return nil
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
