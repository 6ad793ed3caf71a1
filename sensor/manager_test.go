package sensor

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/c360/sensorfuse/bus"
	"github.com/c360/sensorfuse/config"
	"github.com/c360/sensorfuse/errors"
	"github.com/c360/sensorfuse/health"
)

func newTestManager(t *testing.T, specs ...config.SensorSpec) (*Manager, *bus.Bus) {
	t.Helper()

	sensors := make([]Sensor, 0, len(specs))
	for _, spec := range specs {
		sensors = append(sensors, NewSimulator(spec))
	}

	b := bus.New(1024)
	return NewManager(sensors, b, nil, health.NewMonitor(), nil), b
}

func TestManager_InitializeValidatesRoster(t *testing.T) {
	m, _ := newTestManager(t)
	err := m.Initialize()
	require.Error(t, err, "empty roster must be rejected")
	assert.ErrorIs(t, err, errors.ErrInvalidConfig)

	m, _ = newTestManager(t, fastSpec(), fastSpec())
	err = m.Initialize()
	require.Error(t, err, "duplicate sensor ids must be rejected")
	assert.ErrorIs(t, err, errors.ErrInvalidConfig)

	m, _ = newTestManager(t, fastSpec())
	assert.NoError(t, m.Initialize())
}

func TestManager_StartRequiresInitialize(t *testing.T) {
	m, _ := newTestManager(t, fastSpec())
	err := m.Start(context.Background())
	assert.ErrorIs(t, err, errors.ErrNotStarted)
}

func TestManager_PumpsReadingsOntoBus(t *testing.T) {
	m, b := newTestManager(t, fastSpec())
	defer b.Close()

	sub, err := b.Subscribe("test", bus.KindFilter(bus.KindReading))
	require.NoError(t, err)

	require.NoError(t, m.Initialize())

	ctx, cancel := context.WithCancel(context.Background())
	started := make(chan error, 1)
	go func() { started <- m.Start(ctx) }()

	readCtx, readCancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer readCancel()

	for seq := uint64(0); seq < 10; seq++ {
		event, err := sub.Next(readCtx)
		require.NoError(t, err)
		re := event.(bus.ReadingEvent)
		assert.Equal(t, "emf-1", re.Reading.SensorID)
		assert.Equal(t, seq, re.Reading.Sequence, "readings arrive in stream order")
	}

	cancel()
	require.NoError(t, m.Stop(2*time.Second))

	select {
	case err := <-started:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("Start did not return after cancellation")
	}
}

func TestManager_ReconnectsAfterStreamLoss(t *testing.T) {
	spec := fastSpec()
	spec.Simulate.DisconnectEveryN = 5

	m, b := newTestManager(t, spec)
	defer b.Close()

	sub, err := b.Subscribe("test", bus.KindFilter(bus.KindReading))
	require.NoError(t, err)

	require.NoError(t, m.Initialize())

	ctx, cancel := context.WithCancel(context.Background())
	go func() { _ = m.Start(ctx) }()
	defer func() {
		cancel()
		_ = m.Stop(2 * time.Second)
	}()

	readCtx, readCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer readCancel()

	// First stream delivers sequences 0..4, then the scheduled disconnect
	// forces a reconnect and the sequence restarts from zero.
	var sequences []uint64
	sawReset := false
	for len(sequences) < 8 {
		event, err := sub.Next(readCtx)
		require.NoError(t, err)
		seq := event.(bus.ReadingEvent).Reading.Sequence
		if len(sequences) > 0 && seq < sequences[len(sequences)-1] {
			sawReset = true
		}
		sequences = append(sequences, seq)
	}

	assert.True(t, sawReset, "sequence must restart after a reconnect")
}
