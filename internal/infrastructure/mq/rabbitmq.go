package mq

import (
	"context"
	"encoding/json"
	"net"
	"time"

	"github.com/google/uuid"
	"github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"

	"filedrive/config"
)

// "Rely on metrics, not guesses."
const bufferSize = 128

// Routing keys of the file lifecycle events.
const (
	EventFileUploaded = "file.uploaded"
	EventFileDeleted  = "file.deleted"
	EventBlobOrphaned = "blob.orphaned"
)

type (
	InputCh  = chan Event
	RabbitMQ struct {
		cfg   config.MQ
		log   *zap.Logger
		conn  *amqp091.Connection
		pubCh *amqp091.Channel
		in    InputCh
	}
	Event struct {
		Id         uuid.UUID `json:"event_id"`
		TS         time.Time `json:"time_stamp"`
		Type       string    `json:"event_type"`
		FileID     string    `json:"file_id,omitempty"`
		OwnerID    string    `json:"owner_id"`
		StorageKey string    `json:"storage_key"`
	}
)

func NewEvent(eventType, ownerID, fileID, storageKey string) Event {
	return Event{
		Id:         uuid.New(),
		TS:         time.Now().UTC(),
		Type:       eventType,
		FileID:     fileID,
		OwnerID:    ownerID,
		StorageKey: storageKey,
	}
}

func New(cfg config.MQ, logger *zap.Logger) *RabbitMQ {
	return &RabbitMQ{
		cfg: cfg,
		log: logger,
		in:  make(chan Event, bufferSize),
	}
}

func (r *RabbitMQ) Connect(ctx context.Context, dsn string) error {
	dialer := &net.Dialer{Timeout: 10 * time.Second}

	amqpCfg := amqp091.Config{
		Heartbeat: 10 * time.Second,
		Locale:    "en_US",
		Properties: amqp091.Table{
			"connection_name": "filedrive",
		},
		Dial: func(network, addr string) (net.Conn, error) {
			return dialer.DialContext(ctx, network, addr)
		},
	}

	var err error
	r.conn, err = amqp091.DialConfig(dsn, amqpCfg)
	if err != nil {
		return err
	}
	r.pubCh, err = r.conn.Channel()
	if err != nil {
		_ = r.conn.Close()
		return err
	}

	r.log.Info("rabbitmq connected successfully")

	return nil
}

// Init declares the events exchange and the orphan queue the sweeper reads.
func (r *RabbitMQ) Init() error {
	if err := r.pubCh.ExchangeDeclare(
		r.cfg.Exchange,
		r.cfg.ExchangeType,
		true,
		false,
		false,
		false,
		nil,
	); err != nil {
		_ = r.pubCh.Close()
		return err
	}
	q, err := r.pubCh.QueueDeclare(
		r.cfg.QueueName,
		true,
		false,
		false,
		false,
		nil,
	)
	if err != nil {
		return err
	}

	return r.pubCh.QueueBind(q.Name, EventBlobOrphaned, r.cfg.Exchange, false, nil)
}

// Publish hands e to the publisher worker. A full buffer drops the event
// so request handlers never block on the broker.
func (r *RabbitMQ) Publish(e Event) {
	select {
	case r.in <- e:
	default:
		// alert
		r.log.Warn("mq buffer full, event dropped",
			zap.String("type", e.Type),
			zap.String("storage_key", e.StorageKey),
		)
	}
}

func (r *RabbitMQ) PublisherWorker(ctx context.Context) {
	r.log.Info("starting publisher worker")

	defer func() {
		r.log.Info("publisher worker gracefully stopped")
	}()

	for {
		select {
		case e := <-r.in:
			if err := r.publish(ctx, e); err != nil {
				// alert
				r.log.Error("mq publish error", zap.Error(err), zap.String("type", e.Type))
			}
		case <-ctx.Done():
			_ = r.pubCh.Close()
			return
		}
	}
}

func (r *RabbitMQ) publish(ctx context.Context, e Event) error {
	b, err := json.Marshal(e)
	if err != nil {
		return err
	}

	return r.pubCh.PublishWithContext(
		ctx,
		r.cfg.Exchange,
		e.Type,
		false,
		false,
		amqp091.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp091.Persistent,
			MessageId:    e.Id.String(),
			Timestamp:    e.TS,
			Type:         e.Type,
			Body:         b,
		},
	)
}

func (r *RabbitMQ) GetConn() *amqp091.Connection { return r.conn }

// Noop is used when no broker is configured.
type Noop struct {
	log *zap.Logger
}

func NewNoop(logger *zap.Logger) *Noop { return &Noop{log: logger} }

func (n *Noop) Publish(e Event) {
	n.log.Debug("event not published, mq disabled",
		zap.String("type", e.Type),
		zap.String("storage_key", e.StorageKey),
	)
}
