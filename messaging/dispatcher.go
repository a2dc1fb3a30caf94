// Package messaging publishes domain events to RabbitMQ.
package messaging

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/Kariqs/amexan-market/services"
	"github.com/pkg/errors"
	amqp "github.com/rabbitmq/amqp091-go"
	log "github.com/sirupsen/logrus"
)

type publisher interface {
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
	Close() error
}

// RabbitDispatcher publishes every event as a persistent JSON message on one durable
// queue. The AMQP type property carries the event type.
type RabbitDispatcher struct {
	mu    sync.Mutex
	ch    publisher
	queue string
	now   func() time.Time
}

func NewRabbitDispatcher(conn *amqp.Connection, queue string) (*RabbitDispatcher, error) {
	ch, err := conn.Channel()
	if err != nil {
		return nil, errors.Wrap(err, "open channel")
	}
	if _, err := ch.QueueDeclare(queue, true, false, false, false, nil); err != nil {
		ch.Close()
		return nil, errors.Wrapf(err, "declare queue %s", queue)
	}
	return newRabbitDispatcher(ch, queue), nil
}

func newRabbitDispatcher(ch publisher, queue string) *RabbitDispatcher {
	return &RabbitDispatcher{ch: ch, queue: queue, now: time.Now}
}

func (d *RabbitDispatcher) Dispatch(ctx context.Context, event services.Event) error {
	body, err := json.Marshal(event)
	if err != nil {
		return errors.Wrapf(err, "marshal %s", event.Type())
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	err = d.ch.PublishWithContext(ctx, "", d.queue, false, false, amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Type:         event.Type(),
		Timestamp:    d.now().UTC(),
		Body:         body,
	})
	if err != nil {
		return errors.Wrapf(err, "publish %s", event.Type())
	}
	return nil
}

func (d *RabbitDispatcher) Close() error {
	return d.ch.Close()
}

// LogDispatcher records events in the log when no broker is configured.
type LogDispatcher struct{}

func (LogDispatcher) Dispatch(_ context.Context, event services.Event) error {
	log.WithFields(log.Fields{"event": event.Type(), "payload": event}).Info("event dispatched")
	return nil
}
