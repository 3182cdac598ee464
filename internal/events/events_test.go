package events

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/streadway/amqp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

type recordedPublish struct {
	exchange string
	key      string
	msg      amqp.Publishing
}

type fakeChannel struct {
	published *[]recordedPublish
	err       error
	closed    bool
}

func (c *fakeChannel) Publish(exchange, key string, _, _ bool, msg amqp.Publishing) error {
	if c.err != nil {
		return c.err
	}
	*c.published = append(*c.published, recordedPublish{exchange: exchange, key: key, msg: msg})
	return nil
}

func (c *fakeChannel) Close() error {
	c.closed = true
	return nil
}

func newTestPublisher(published *[]recordedPublish, publishErr error) (*AMQPPublisher, *[]*fakeChannel) {
	var channels []*fakeChannel
	fixed := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	return &AMQPPublisher{
		openChannel: func() (publishChannel, error) {
			ch := &fakeChannel{published: published, err: publishErr}
			channels = append(channels, ch)
			return ch, nil
		},
		now: func() time.Time { return fixed },
	}, &channels
}

func TestAMQPPublisher_Publish(t *testing.T) {
	var published []recordedPublish
	pub, channels := newTestPublisher(&published, nil)

	err := pub.Publish(context.Background(), ApplicationCreated, map[string]string{"application_id": "a-1"})
	require.NoError(t, err)

	require.Len(t, published, 1)
	assert.Equal(t, Exchange, published[0].exchange)
	assert.Equal(t, ApplicationCreated, published[0].key)
	assert.Equal(t, "application/json", published[0].msg.ContentType)
	assert.Equal(t, amqp.Persistent, published[0].msg.DeliveryMode)

	var env struct {
		ID         string            `json:"id"`
		Type       string            `json:"type"`
		OccurredAt time.Time         `json:"occurred_at"`
		Data       map[string]string `json:"data"`
	}
	require.NoError(t, json.Unmarshal(published[0].msg.Body, &env))
	assert.Equal(t, ApplicationCreated, env.Type)
	assert.Equal(t, "a-1", env.Data["application_id"])
	assert.Equal(t, env.ID, published[0].msg.MessageId)
	assert.True(t, env.OccurredAt.Equal(time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)))

	require.Len(t, *channels, 1)
	assert.True(t, (*channels)[0].closed)
}

func TestAMQPPublisher_PublishError(t *testing.T) {
	var published []recordedPublish
	pub, _ := newTestPublisher(&published, errors.New("channel closed"))

	err := pub.Publish(context.Background(), ApplicationCreated, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "channel closed")
}

func TestAMQPPublisher_Closed(t *testing.T) {
	var published []recordedPublish
	pub, _ := newTestPublisher(&published, nil)

	require.NoError(t, pub.Close())
	require.NoError(t, pub.Close())
	assert.Error(t, pub.Publish(context.Background(), ApplicationCreated, nil))
	assert.Empty(t, published)
}

func TestAMQPPublisher_CanceledContext(t *testing.T) {
	var published []recordedPublish
	pub, _ := newTestPublisher(&published, nil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, pub.Publish(ctx, ApplicationCreated, nil), context.Canceled)
}

type failingPublisher struct{ NopPublisher }

func (failingPublisher) Publish(context.Context, string, any) error {
	return errors.New("broker down")
}

func TestBestEffort(t *testing.T) {
	core, observed := observer.New(zapcore.WarnLevel)
	pub := BestEffort{Publisher: failingPublisher{}, Logger: zap.New(core)}

	assert.NoError(t, pub.Publish(context.Background(), ListingCreated, nil))
	assert.Equal(t, 1, observed.Len())

	assert.NoError(t, BestEffort{}.Publish(context.Background(), ListingCreated, nil))
	assert.NoError(t, NopPublisher{}.Publish(context.Background(), ListingCreated, nil))
}
