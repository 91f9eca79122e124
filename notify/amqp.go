package notify

import (
	"context"
	"encoding/json"
	"time"

	"github.com/iov-one/weave-escrow/errors"
	amqp "github.com/rabbitmq/amqp091-go"
)

// DefaultExchange is the topic exchange events are published to when
// none is configured.
const DefaultExchange = "escrow.events"

// AMQPPublisher publishes events as JSON messages to a durable topic
// exchange. The routing key is the dotted message path, for example
// "escrow.exchange".
type AMQPPublisher struct {
	conn     *amqp.Connection
	ch       *amqp.Channel
	exchange string
}

var _ Publisher = (*AMQPPublisher)(nil)

// DialAMQP connects to the broker and declares the exchange.
func DialAMQP(url, exchange string) (*AMQPPublisher, error) {
	if url == "" {
		return nil, errors.Wrap(errors.ErrEmpty, "amqp url")
	}
	if exchange == "" {
		exchange = DefaultExchange
	}
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, errors.Wrap(err, "dial amqp")
	}
	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, errors.Wrap(err, "open channel")
	}
	if err := ch.ExchangeDeclare(exchange, amqp.ExchangeTopic, true, false, false, false, nil); err != nil {
		ch.Close()
		conn.Close()
		return nil, errors.Wrapf(err, "declare exchange %q", exchange)
	}
	return &AMQPPublisher{conn: conn, ch: ch, exchange: exchange}, nil
}

func (p *AMQPPublisher) Publish(ctx context.Context, ev Event) error {
	if err := ev.Validate(); err != nil {
		return err
	}
	msg, err := newPublishing(ev)
	if err != nil {
		return err
	}
	if err := p.ch.PublishWithContext(ctx, p.exchange, ev.RoutingKey(), false, false, msg); err != nil {
		return errors.Wrap(err, "amqp publish")
	}
	return nil
}

func newPublishing(ev Event) (amqp.Publishing, error) {
	body, err := json.Marshal(ev)
	if err != nil {
		return amqp.Publishing{}, errors.Wrap(errors.ErrModel, err.Error())
	}
	return amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Timestamp:    time.Now().UTC(),
		MessageId:    ev.TxHash,
		Body:         body,
	}, nil
}

// Close releases the channel and the connection.
func (p *AMQPPublisher) Close() error {
	p.ch.Close()
	return p.conn.Close()
}
