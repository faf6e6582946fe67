package events

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/noah-isme/portal-agenda-api/internal/models"
)

type published struct {
	exchange string
	key      string
	msg      amqp.Publishing
}

type fakeChannel struct {
	mu         sync.Mutex
	exchanges  map[string]string
	published  []published
	publishErr error
	bound      []string
	deliveries chan amqp.Delivery
	closed     bool
}

func newFakeChannel() *fakeChannel {
	return &fakeChannel{exchanges: map[string]string{}, deliveries: make(chan amqp.Delivery, 8)}
}

func (f *fakeChannel) ExchangeDeclare(name, kind string, _, _, _, _ bool, _ amqp.Table) error {
	f.exchanges[name] = kind
	return nil
}

func (f *fakeChannel) PublishWithContext(_ context.Context, exchange, key string, _, _ bool, msg amqp.Publishing) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.closed {
		return amqp.ErrClosed
	}
	if f.publishErr != nil {
		return f.publishErr
	}
	f.published = append(f.published, published{exchange: exchange, key: key, msg: msg})
	return nil
}

func (f *fakeChannel) QueueDeclare(name string, _, _, _, _ bool, _ amqp.Table) (amqp.Queue, error) {
	if name == "" {
		name = "amq.gen-test"
	}
	return amqp.Queue{Name: name}, nil
}

func (f *fakeChannel) QueueBind(name, _, exchange string, _ bool, _ amqp.Table) error {
	f.bound = append(f.bound, name+"->"+exchange)
	return nil
}

func (f *fakeChannel) Consume(string, string, bool, bool, bool, bool, amqp.Table) (<-chan amqp.Delivery, error) {
	return f.deliveries, nil
}

func (f *fakeChannel) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closed = true
	return nil
}

type applied struct {
	days []string
	all  bool
}

type recordingCache struct {
	mu    sync.Mutex
	calls []applied
	err   error
}

func (r *recordingCache) ApplyRemote(_ context.Context, days []string, all bool) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = append(r.calls, applied{days: days, all: all})
	return r.err
}

func (r *recordingCache) snapshot() []applied {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]applied(nil), r.calls...)
}

func delivery(t *testing.T, change models.BookingChange) amqp.Delivery {
	t.Helper()
	body, err := json.Marshal(change)
	require.NoError(t, err)
	return amqp.Delivery{RoutingKey: change.Kind, Body: body}
}

func TestBusPublishBookingChange(t *testing.T) {
	ch := newFakeChannel()
	bus, err := newBus(ch, Config{Exchange: "agenda.test", Origin: "api-1"}, zap.NewNop())
	require.NoError(t, err)
	assert.Equal(t, amqp.ExchangeFanout, ch.exchanges["agenda.test"])

	fixed := time.Date(2024, time.June, 10, 12, 0, 0, 0, time.UTC)
	bus.now = func() time.Time { return fixed }
	require.NoError(t, bus.PublishBookingChange(context.Background(), models.BookingChange{Kind: models.ChangeCreated, BookingID: "bk-1", Days: []string{"2024-06-10"}}))

	require.Len(t, ch.published, 1)
	msg := ch.published[0]
	assert.Equal(t, "agenda.test", msg.exchange)
	assert.Equal(t, models.ChangeCreated, msg.key)
	assert.Equal(t, "application/json", msg.msg.ContentType)

	var decoded models.BookingChange
	require.NoError(t, json.Unmarshal(msg.msg.Body, &decoded))
	assert.Equal(t, "api-1", decoded.Origin)
	assert.True(t, decoded.OccurredAt.Equal(fixed))
	assert.Equal(t, []string{"2024-06-10"}, decoded.Days)
}

func TestBusPublishErrors(t *testing.T) {
	ch := newFakeChannel()
	ch.publishErr = errors.New("channel closed")
	bus, err := newBus(ch, Config{Origin: "api-1"}, nil)
	require.NoError(t, err)

	err = bus.PublishBookingChange(context.Background(), models.BookingChange{Kind: models.ChangeCancelled})
	require.Error(t, err)

	require.NoError(t, bus.Close())
	assert.True(t, ch.closed)
	assert.ErrorIs(t, bus.PublishBookingChange(context.Background(), models.BookingChange{Kind: models.ChangeCancelled}), ErrClosed)
}

func TestBusCloseWaitsForPublishers(t *testing.T) {
	ch := newFakeChannel()
	bus, err := newBus(ch, Config{Origin: "api-1"}, zap.NewNop())
	require.NoError(t, err)
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 50; j++ {
				err := bus.PublishBookingChange(ctx, models.BookingChange{Kind: models.ChangeCreated, Days: []string{"2024-06-10"}})
				if err != nil {
					assert.ErrorIs(t, err, ErrClosed)
					return
				}
			}
		}()
	}
	require.NoError(t, bus.Close())
	wg.Wait()

	require.NoError(t, bus.Close())
	assert.ErrorIs(t, bus.PublishBookingChange(ctx, models.BookingChange{Kind: models.ChangeCancelled}), ErrClosed)
}

func TestBusListenAppliesRemoteChanges(t *testing.T) {
	ch := newFakeChannel()
	bus, err := newBus(ch, Config{Exchange: "agenda.test", Origin: "api-1"}, zap.NewNop())
	require.NoError(t, err)
	cache := &recordingCache{}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- bus.Listen(ctx, cache) }()

	ch.deliveries <- delivery(t, models.BookingChange{Kind: models.ChangeCreated, Origin: "api-1", Days: []string{"2024-06-10"}})
	ch.deliveries <- amqp.Delivery{RoutingKey: "lixo", Body: []byte("{")}
	ch.deliveries <- delivery(t, models.BookingChange{Kind: models.ChangeRescheduled, Origin: "api-2", Days: []string{"2024-06-10", "2024-06-11"}})
	ch.deliveries <- delivery(t, models.BookingChange{Kind: models.ChangeSchedule, Origin: "api-2", All: true})

	require.Eventually(t, func() bool { return len(cache.snapshot()) == 2 }, time.Second, 5*time.Millisecond)
	cancel()
	require.NoError(t, <-done)

	calls := cache.snapshot()
	assert.Equal(t, []string{"2024-06-10", "2024-06-11"}, calls[0].days)
	assert.False(t, calls[0].all)
	assert.True(t, calls[1].all)
	assert.Equal(t, []string{"amq.gen-test->agenda.test"}, ch.bound)
}

func TestBusListenStopsWhenDeliveriesClose(t *testing.T) {
	ch := newFakeChannel()
	bus, err := newBus(ch, Config{Origin: "api-1"}, zap.NewNop())
	require.NoError(t, err)

	close(ch.deliveries)
	require.NoError(t, bus.Listen(context.Background(), &recordingCache{}))
}
