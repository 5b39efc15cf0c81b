package rmqconsumer

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/rabbitmq/amqp091-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"filedrive/config"
	"filedrive/internal/domain/user_file"
	"filedrive/internal/infrastructure/mq"
)

type fakeLookup struct {
	files map[string]*user_file.UserFile
	err   error
}

func (f *fakeLookup) FetchUserFileByKey(_ context.Context, key string) (*user_file.UserFile, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.files[key], nil
}

type fakeRemover struct {
	removed []string
	err     error
}

func (f *fakeRemover) Remove(_ context.Context, keys ...string) error {
	if f.err != nil {
		return f.err
	}
	f.removed = append(f.removed, keys...)
	return nil
}

func body(t *testing.T, key string) []byte {
	t.Helper()
	b, err := json.Marshal(mq.NewEvent(mq.EventBlobOrphaned, uuid.NewString(), "", key))
	require.NoError(t, err)
	return b
}

func Test_delivery_Table(t *testing.T) {
	referenced := &user_file.UserFile{UUID: uuid.New(), StorageKey: "uploads/o/kept"}

	type tc struct {
		name        string
		routingKey  string
		body        []byte
		lookup      *fakeLookup
		remover     *fakeRemover
		wantErr     bool
		wantRemoved []string
	}
	cases := []tc{
		{
			name:        "orphan is removed",
			routingKey:  mq.EventBlobOrphaned,
			body:        body(t, "uploads/o/lost"),
			lookup:      &fakeLookup{},
			remover:     &fakeRemover{},
			wantRemoved: []string{"uploads/o/lost"},
		},
		{
			name:       "referenced blob is kept",
			routingKey: mq.EventBlobOrphaned,
			body:       body(t, "uploads/o/kept"),
			lookup:     &fakeLookup{files: map[string]*user_file.UserFile{"uploads/o/kept": referenced}},
			remover:    &fakeRemover{},
		},
		{
			name:       "other events are ignored",
			routingKey: mq.EventFileUploaded,
			body:       []byte("not even json"),
			lookup:     &fakeLookup{err: errors.New("must not be called")},
			remover:    &fakeRemover{},
		},
		{
			name:       "bad payload",
			routingKey: mq.EventBlobOrphaned,
			body:       []byte("{"),
			lookup:     &fakeLookup{},
			remover:    &fakeRemover{},
			wantErr:    true,
		},
		{
			name:       "empty key",
			routingKey: mq.EventBlobOrphaned,
			body:       body(t, ""),
			lookup:     &fakeLookup{},
			remover:    &fakeRemover{},
			wantErr:    true,
		},
		{
			name:       "lookup failure keeps blob",
			routingKey: mq.EventBlobOrphaned,
			body:       body(t, "uploads/o/lost"),
			lookup:     &fakeLookup{err: errors.New("db down")},
			remover:    &fakeRemover{},
			wantErr:    true,
		},
		{
			name:       "remove failure",
			routingKey: mq.EventBlobOrphaned,
			body:       body(t, "uploads/o/lost"),
			lookup:     &fakeLookup{},
			remover:    &fakeRemover{err: errors.New("store down")},
			wantErr:    true,
		},
	}

	for _, tt := range cases {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			c := New(config.MQ{}, zap.NewNop(), nil, tt.lookup, tt.remover)
			msg := amqp091.Delivery{RoutingKey: tt.routingKey, Body: tt.body}

			err := c.delivery(context.Background(), msg)
			if tt.wantErr {
				require.Error(t, err)
			} else {
				require.NoError(t, err)
			}
			assert.Equal(t, tt.wantRemoved, tt.remover.removed)
		})
	}
}

func Test_delivery_CanceledContext(t *testing.T) {
	c := New(config.MQ{SweepRate: 0.001}, zap.NewNop(), nil, &fakeLookup{}, &fakeRemover{})
	// drain the single token
	require.True(t, c.limiter.Allow())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := c.delivery(ctx, amqp091.Delivery{RoutingKey: mq.EventBlobOrphaned, Body: body(t, "k")})
	require.Error(t, err)
}

func TestNewLimiter(t *testing.T) {
	assert.Equal(t, float64(5), float64(newLimiter(5).Limit()))
	assert.Equal(t, 5, newLimiter(5).Burst())
	assert.True(t, newLimiter(0).Limit() == rate.Inf)
}

func TestConnect_InvalidDSN(t *testing.T) {
	l := zap.NewNop()
	c := New(config.MQ{}, l, nil, &fakeLookup{}, &fakeRemover{})

	err := c.Connect("amqp://bad:://dsn")
	require.Error(t, err)
	require.Nil(t, c.chConsume)
	require.Nil(t, c.conn)
	require.False(t, c.ownsConn)
}

func TestClose_LeavesSharedConnection(t *testing.T) {
	shared := &amqp091.Connection{}
	c := New(config.MQ{}, zap.NewNop(), shared, &fakeLookup{}, &fakeRemover{})
	require.False(t, c.ownsConn)

	// a connection handed to New is never closed by the consumer
	assert.NotPanics(t, c.Close)
	assert.Same(t, shared, c.conn)
	assert.NotPanics(t, c.Close)
}
