package queue

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/hfiuc/facility-portal/internal/mail"
)

// StartNotifyConsumer connects to RabbitMQ, declares the portal.notify
// queue (durable), and delivers each event as an email through the given
// mailer.  It runs a reconnect loop with backoff and keeps running across
// broker restarts; processing errors are logged and the message is
// rejected without requeue so a poison message cannot wedge the worker.
func StartNotifyConsumer(mailer *mail.Mailer) error {
	backoff := time.Second
	for {
		conn, err := amqp.Dial(brokerURL())
		if err != nil {
			log.Printf("notify-consumer: failed to dial broker: %v; retrying in %s", err, backoff)
			time.Sleep(backoff)
			if backoff < 30*time.Second {
				backoff *= 2
			}
			continue
		}
		backoff = time.Second // reset after successful connect

		if err := consumeLoop(conn, mailer); err != nil {
			log.Printf("notify-consumer: consume loop ended: %v; reconnecting", err)
			time.Sleep(2 * time.Second)
			continue
		}
	}
}

func consumeLoop(conn *amqp.Connection, mailer *mail.Mailer) error {
	ch, err := conn.Channel()
	if err != nil {
		return fmt.Errorf("channel open: %w", err)
	}
	defer func() { _ = ch.Close() }()

	if err := ch.Qos(50, 0, false); err != nil {
		log.Printf("notify-consumer: set QoS failed: %v", err)
	}

	if _, err := ch.QueueDeclare(notifyQueueName, true, false, false, false, nil); err != nil {
		return fmt.Errorf("queue declare: %w", err)
	}

	msgs, err := ch.Consume(notifyQueueName, "", false, false, false, false, nil)
	if err != nil {
		return fmt.Errorf("queue consume: %w", err)
	}

	for d := range msgs {
		if err := handleMessage(d.Body, mailer); err != nil {
			log.Printf("notify-consumer: handle message failed: %v", err)
			_ = d.Nack(false, false) // reject, do not requeue to avoid tight loops
			continue
		}
		_ = d.Ack(false)
	}
	return errors.New("deliveries channel closed")
}

func handleMessage(body []byte, mailer *mail.Mailer) error {
	var ev NotifyEvent
	if err := json.Unmarshal(body, &ev); err != nil {
		return fmt.Errorf("unmarshal: %w", err)
	}
	switch ev.Kind {
	case KindSubmitted:
		return mailer.SendSubmitted(ev.Recipient, ev.Room, ev.StartMS, ev.EndMS, ev.Reason)
	case KindApproved:
		return mailer.SendApproved(ev.Recipient, ev.Room, ev.StartMS, ev.EndMS)
	case KindRejected, KindBumped:
		return mailer.SendRejected(ev.Recipient, ev.Room, ev.StartMS, ev.EndMS, ev.Detail)
	case KindApprovalRequest:
		return mailer.SendApprovalRequest(ev.Recipient, ev.Room, ev.StartMS, ev.EndMS,
			ev.Requester, ev.Name, ev.Reason, ev.ActionToken)
	}
	return fmt.Errorf("unknown event kind %q", ev.Kind)
}
