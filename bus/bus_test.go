package bus

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/c360/sensorfuse/errors"
	"github.com/c360/sensorfuse/metric"
	"github.com/c360/sensorfuse/types"
)

func reading(sensorID string, seq uint64) ReadingEvent {
	return ReadingEvent{Reading: types.SensorReading{
		SensorID:  sensorID,
		Timestamp: time.Now(),
		Sequence:  seq,
		Channels:  []float64{1.0},
		Quality:   1.0,
	}}
}

func TestBus_FanOut(t *testing.T) {
	b := New(16)
	defer b.Close()

	sub1, err := b.Subscribe("one", nil)
	require.NoError(t, err)
	sub2, err := b.Subscribe("two", nil)
	require.NoError(t, err)

	require.NoError(t, b.Publish(reading("emf-1", 0)))

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	for _, sub := range []*Subscription{sub1, sub2} {
		event, err := sub.Next(ctx)
		require.NoError(t, err)
		re, ok := event.(ReadingEvent)
		require.True(t, ok)
		assert.Equal(t, "emf-1", re.Reading.SensorID)
	}
}

func TestBus_FilterRouting(t *testing.T) {
	b := New(16)
	defer b.Close()

	featureSub, err := b.Subscribe("features-only", KindFilter(KindFeature))
	require.NoError(t, err)

	require.NoError(t, b.Publish(reading("emf-1", 0)))
	require.NoError(t, b.Publish(FeatureEvent{Feature: types.FeatureVector{
		SensorID:  "emf-1",
		WindowEnd: time.Now(),
	}}))

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	event, err := featureSub.Next(ctx)
	require.NoError(t, err)
	assert.Equal(t, KindFeature, event.Kind(), "reading must be filtered out")
	assert.Equal(t, 0, featureSub.Pending())
}

func TestBus_PerSensorOrdering(t *testing.T) {
	b := New(64)
	defer b.Close()

	sub, err := b.Subscribe("ordered", nil)
	require.NoError(t, err)

	for seq := uint64(0); seq < 20; seq++ {
		require.NoError(t, b.Publish(reading("emf-1", seq)))
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	for seq := uint64(0); seq < 20; seq++ {
		event, err := sub.Next(ctx)
		require.NoError(t, err)
		re := event.(ReadingEvent)
		assert.Equal(t, seq, re.Reading.Sequence, "publish order must be preserved")
	}
}

func TestBus_BackpressureDropsOldest(t *testing.T) {
	registry := metric.NewRegistry()
	b := New(4, WithMetrics(registry.CoreMetrics()))
	defer b.Close()

	sub, err := b.Subscribe("slow", nil)
	require.NoError(t, err)

	// 10 events into a queue of 4: the oldest 6 are shed
	for seq := uint64(0); seq < 10; seq++ {
		require.NoError(t, b.Publish(reading("emf-1", seq)))
	}

	assert.Equal(t, 4, sub.Pending())
	assert.Equal(t, int64(6), sub.Stats().Drops())

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	event, err := sub.Next(ctx)
	require.NoError(t, err)
	re := event.(ReadingEvent)
	assert.Equal(t, uint64(6), re.Reading.Sequence,
		"surviving events are the most recent ones")
}

func TestBus_SlowSubscriberDoesNotBlockFast(t *testing.T) {
	b := New(2)
	defer b.Close()

	_, err := b.Subscribe("slow", nil)
	require.NoError(t, err)
	fast, err := b.Subscribe("fast", nil)
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	// The slow subscriber never reads; publishing must stay non-blocking and
	// the fast subscriber must see fresh events.
	for seq := uint64(0); seq < 50; seq++ {
		require.NoError(t, b.Publish(reading("emf-1", seq)))
		event, err := fast.Next(ctx)
		require.NoError(t, err)
		assert.Equal(t, seq, event.(ReadingEvent).Reading.Sequence)
	}
}

func TestBus_DuplicateSubscriberName(t *testing.T) {
	b := New(4)
	defer b.Close()

	_, err := b.Subscribe("dup", nil)
	require.NoError(t, err)
	_, err = b.Subscribe("dup", nil)
	assert.Error(t, err)
}

func TestBus_CloseWakesReaders(t *testing.T) {
	b := New(4)
	sub, err := b.Subscribe("reader", nil)
	require.NoError(t, err)

	done := make(chan error, 1)
	go func() {
		_, err := sub.Next(context.Background())
		done <- err
	}()

	time.Sleep(20 * time.Millisecond)
	require.NoError(t, b.Close())

	select {
	case err := <-done:
		assert.ErrorIs(t, err, errors.ErrSubscriptionClosed)
	case <-time.After(time.Second):
		t.Fatal("blocked reader not woken by Close")
	}

	assert.Error(t, b.Publish(reading("emf-1", 0)), "publish after close must fail")
}

func TestBus_SubscribeAfterPublish(t *testing.T) {
	b := New(4)
	defer b.Close()

	require.NoError(t, b.Publish(reading("emf-1", 0)))

	late, err := b.Subscribe("late", nil)
	require.NoError(t, err)
	assert.Equal(t, 0, late.Pending(),
		"subscribers never see events published before they subscribed")
}
