package amqp

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/rabbitmq/amqp091-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"carbon/internal/core"
)

type fakeChannel struct {
	declared   []string
	bound      [3]string
	published  []amqp091.Publishing
	keys       []string
	publishErr error
	deliveries chan amqp091.Delivery
}

func (f *fakeChannel) ExchangeDeclare(name, kind string, _, _, _, _ bool, _ amqp091.Table) error {
	f.declared = append(f.declared, "exchange:"+name+":"+kind)
	return nil
}

func (f *fakeChannel) QueueDeclare(name string, _, _, _, _ bool, _ amqp091.Table) (amqp091.Queue, error) {
	f.declared = append(f.declared, "queue:"+name)
	return amqp091.Queue{Name: name}, nil
}

func (f *fakeChannel) QueueBind(name, key, exchange string, _ bool, _ amqp091.Table) error {
	f.bound = [3]string{name, key, exchange}
	return nil
}

func (f *fakeChannel) PublishWithContext(_ context.Context, exchange, key string, _, _ bool, msg amqp091.Publishing) error {
	if f.publishErr != nil {
		return f.publishErr
	}
	f.keys = append(f.keys, exchange+"/"+key)
	f.published = append(f.published, msg)
	return nil
}

func (f *fakeChannel) Consume(string, string, bool, bool, bool, bool, amqp091.Table) (<-chan amqp091.Delivery, error) {
	return f.deliveries, nil
}

func (f *fakeChannel) Close() error { return nil }

// ack records acknowledgements for deliveries handed to Consume.
type ack struct {
	acked, nacked, requeued int
}

func (a *ack) Ack(uint64, bool) error {
	a.acked++
	return nil
}

func (a *ack) Nack(_ uint64, _ bool, requeue bool) error {
	a.nacked++
	if requeue {
		a.requeued++
	}
	return nil
}

func (a *ack) Reject(uint64, bool) error { return nil }

func newTestClient(t *testing.T, ch *fakeChannel) *Client {
	t.Helper()
	c, err := newClient(ch, "carbon", "activity_events", nil)
	require.NoError(t, err)
	c.now = func() time.Time { return time.Date(2025, 3, 12, 10, 0, 0, 0, time.UTC) }
	return c
}

func TestSetupDeclaresTopology(t *testing.T) {
	ch := &fakeChannel{}
	newTestClient(t, ch)
	assert.Equal(t, []string{"exchange:carbon:direct", "queue:activity_events"}, ch.declared)
	assert.Equal(t, [3]string{"activity_events", "activity_events", "carbon"}, ch.bound)
}

func TestPublishActivityLogged(t *testing.T) {
	ch := &fakeChannel{}
	c := newTestClient(t, ch)
	r := core.ActivityRecord{ID: "id-1", Category: core.CategoryTransportation, Activity: core.ActivityGasolineCar, Amount: 10, Emissions: 4.04, Date: "2025-03-12"}

	require.NoError(t, c.PublishActivityLogged(context.Background(), r))
	require.Len(t, ch.published, 1)
	msg := ch.published[0]
	assert.Equal(t, "carbon/activity_events", ch.keys[0])
	assert.Equal(t, "application/json", msg.ContentType)
	assert.Equal(t, amqp091.Persistent, msg.DeliveryMode)
	assert.Equal(t, EventActivityLogged, msg.Type)

	var body map[string]any
	require.NoError(t, json.Unmarshal(msg.Body, &body))
	assert.Equal(t, EventActivityLogged, body["type"])
	activity := body["activity"].(map[string]any)
	assert.Equal(t, "id-1", activity["id"])
	assert.Equal(t, "Transportation", activity["type"])
	assert.Equal(t, "Gasoline car", activity["subtype"])
	assert.Equal(t, 4.04, activity["emissions"])
}

func TestPublishLedgerCleared(t *testing.T) {
	ch := &fakeChannel{}
	c := newTestClient(t, ch)
	require.NoError(t, c.PublishLedgerCleared(context.Background(), 7))

	ev, err := LedgerEventFromJSON(ch.published[0].Body)
	require.NoError(t, err)
	assert.Equal(t, EventLedgerCleared, ev.Type)
	assert.Equal(t, 7, ev.Removed)
	assert.Nil(t, ev.Activity)
}

func TestPublishError(t *testing.T) {
	ch := &fakeChannel{publishErr: errors.New("channel closed")}
	c := newTestClient(t, ch)
	err := c.PublishLedgerCleared(context.Background(), 1)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "ledger.cleared")
}

func TestLedgerEventFromJSONRejects(t *testing.T) {
	for _, body := range []string{`{`, `{"type":"other"}`, `{"type":"activity.logged"}`} {
		_, err := LedgerEventFromJSON([]byte(body))
		assert.Error(t, err, body)
	}
}

func TestConsume(t *testing.T) {
	ch := &fakeChannel{deliveries: make(chan amqp091.Delivery, 3)}
	c := newTestClient(t, ch)
	acks := &ack{}

	good, _ := NewLedgerClearedEvent(2, time.Now()).ToJSON()
	ch.deliveries <- amqp091.Delivery{Acknowledger: acks, Body: good}
	ch.deliveries <- amqp091.Delivery{Acknowledger: acks, Body: []byte("garbage")}
	ch.deliveries <- amqp091.Delivery{Acknowledger: acks, Body: good}
	close(ch.deliveries)

	calls := 0
	err := c.Consume(context.Background(), func(ev *LedgerEvent) error {
		calls++
		if calls == 2 {
			return errors.New("try again")
		}
		return nil
	})
	assert.EqualError(t, err, "message channel closed")
	assert.Equal(t, 2, calls)
	assert.Equal(t, 1, acks.acked)
	assert.Equal(t, 2, acks.nacked)
	assert.Equal(t, 1, acks.requeued)
}

func TestConsumeStopsOnCancel(t *testing.T) {
	ch := &fakeChannel{deliveries: make(chan amqp091.Delivery)}
	c := newTestClient(t, ch)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, c.Consume(ctx, func(*LedgerEvent) error { return nil }), context.Canceled)
}
