package rmqconsumer

import (
	"context"
	"encoding/json"
	"fmt"
	"math"

	"github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"filedrive/config"
	"filedrive/internal/domain/user_file"
	"filedrive/internal/infrastructure/mq"
)

// can scale depends on a parallel worker count
const preFetchCount = 1

type (
	// KeyLookup reports the record that references a storage key, nil when none does.
	KeyLookup interface {
		FetchUserFileByKey(ctx context.Context, key string) (*user_file.UserFile, error)
	}
	BlobRemover interface {
		Remove(ctx context.Context, keys ...string) error
	}
)

// Consumer sweeps orphaned blobs announced on the blob.orphaned routing key.
type Consumer struct {
	cfg        config.MQ
	log        *zap.Logger
	conn       *amqp091.Connection
	ownsConn   bool
	chConsume  *amqp091.Channel
	chDelivery <-chan amqp091.Delivery
	files      KeyLookup
	blobs      BlobRemover
	limiter    *rate.Limiter
}

func New(
	cfg config.MQ,
	logger *zap.Logger,
	conn *amqp091.Connection,
	files KeyLookup,
	blobs BlobRemover,
) *Consumer {
	return &Consumer{
		cfg:     cfg,
		log:     logger,
		conn:    conn,
		files:   files,
		blobs:   blobs,
		limiter: newLimiter(cfg.SweepRate),
	}
}

func newLimiter(perSecond float64) *rate.Limiter {
	if perSecond <= 0 || math.IsInf(perSecond, 1) {
		return rate.NewLimiter(rate.Inf, 1)
	}
	return rate.NewLimiter(rate.Limit(perSecond), int(math.Max(1, math.Ceil(perSecond))))
}

// Connect opens the consume channel on the connection given to New.
// It dials dsn only when there is no open connection, and Close releases
// a connection dialed here.
func (c *Consumer) Connect(dsn string) error {
	if c.conn == nil || c.conn.IsClosed() {
		conn, err := amqp091.Dial(dsn)
		if err != nil {
			return fmt.Errorf("amqp dial: %w", err)
		}
		c.conn, c.ownsConn = conn, true
	}
	ch, err := c.conn.Channel()
	if err != nil {
		c.Close()
		return fmt.Errorf("amqp channel: %w", err)
	}
	c.chConsume = ch

	c.log.Info("rabbitmq consumer connected successfully")

	return nil
}

// Close closes the consume channel and the connection when Connect dialed it.
// A connection passed to New stays open for its owner.
func (c *Consumer) Close() {
	if c.chConsume != nil {
		_ = c.chConsume.Close()
		c.chConsume = nil
	}
	if c.ownsConn && c.conn != nil {
		_ = c.conn.Close()
		c.conn, c.ownsConn = nil, false
	}
}

func (c *Consumer) Init() error {
	if err := c.chConsume.ExchangeDeclare(
		c.cfg.Exchange,
		c.cfg.ExchangeType,
		true,
		false,
		false,
		false,
		nil,
	); err != nil {
		return fmt.Errorf("exchange declare: %w", err)
	}
	if _, err := c.chConsume.QueueDeclare(
		c.cfg.QueueName,
		true,
		false,
		false,
		false,
		nil,
	); err != nil {
		return fmt.Errorf("queue declare: %w", err)
	}
	if err := c.chConsume.QueueBind(
		c.cfg.QueueName,
		mq.EventBlobOrphaned,
		c.cfg.Exchange,
		false,
		nil,
	); err != nil {
		return fmt.Errorf("queue bind %s: %w", mq.EventBlobOrphaned, err)
	}

	if err := c.chConsume.Qos(preFetchCount, 0, false); err != nil {
		return fmt.Errorf("qos: %w", err)
	}

	deliveries, err := c.chConsume.Consume(
		c.cfg.QueueName,
		"",
		true,
		false,
		false,
		false,
		nil,
	)
	if err != nil {
		return fmt.Errorf("consume: %w", err)
	}
	c.chDelivery = deliveries

	return nil
}

func (c *Consumer) DeliveryWorker(ctx context.Context) {
	c.log.Info("starting delivery worker")

	defer func() {
		c.log.Info("delivery worker gracefully stopped")
	}()

	for {
		select {
		case msg, ok := <-c.chDelivery:
			if !ok {
				return
			}
			if err := c.delivery(ctx, msg); err != nil {
				// alert
				c.log.Error("orphan sweep failed", zap.Error(err))
			}
		case <-ctx.Done():
			c.Close()
			return
		}
	}
}

// delivery removes the announced blob unless a record references it.
// Messages are auto-acked, a failed sweep is logged and not retried.
func (c *Consumer) delivery(ctx context.Context, msg amqp091.Delivery) error {
	if msg.RoutingKey != mq.EventBlobOrphaned {
		return nil
	}

	var e mq.Event
	if err := json.Unmarshal(msg.Body, &e); err != nil {
		return fmt.Errorf("decode event: %w", err)
	}
	if e.StorageKey == "" {
		return fmt.Errorf("event %s: empty storage key", e.Id)
	}

	if err := c.limiter.Wait(ctx); err != nil {
		return err
	}

	f, err := c.files.FetchUserFileByKey(ctx, e.StorageKey)
	if err != nil {
		return fmt.Errorf("lookup %q: %w", e.StorageKey, err)
	}
	if f != nil {
		c.log.Info("blob is referenced, keeping it",
			zap.String("storage_key", e.StorageKey),
			zap.String("file_id", f.UUID.String()),
		)
		return nil
	}

	if err = c.blobs.Remove(ctx, e.StorageKey); err != nil {
		return fmt.Errorf("remove %q: %w", e.StorageKey, err)
	}

	c.log.Info("orphaned blob removed", zap.String("storage_key", e.StorageKey))

	return nil
}
