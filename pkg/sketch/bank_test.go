package sketch

import (
	"context"
	"os"
	"testing"
	"time"

	log "github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testLogger() log.Logger {
	return log.New(os.Stderr).Level(log.Disabled)
}

func TestBankGet(t *testing.T) {
	a, err := NewWithDims(2, 16)
	require.NoError(t, err)
	b, err := NewWithDims(3, 32)
	require.NoError(t, err)

	bank := NewBank(
		WithBankLogger(testLogger()),
		WithSketch(a, 0),
		WithSketch(b, 0),
	)

	require.Equal(t, 2, bank.Len())

	got, err := bank.Get(0)
	require.NoError(t, err)
	assert.Same(t, a, got)

	_, err = bank.Get(2)
	require.ErrorIs(t, err, ErrIndexOutOfBounds)
	_, err = bank.Get(-1)
	require.ErrorIs(t, err, ErrIndexOutOfBounds)
}

func TestBankPeriodicReset(t *testing.T) {
	s, err := NewWithDims(3, 64)
	require.NoError(t, err)

	bank := NewBank(WithBankLogger(testLogger()), WithSketch(s, 200*time.Millisecond))
	bank.Start(context.Background())
	defer bank.Close()

	for i := 0; i < 100; i++ {
		s.Update("key", 1)
	}
	require.Equal(t, uint64(100), s.Estimate("key"))

	time.Sleep(250 * time.Millisecond)
	assert.Equal(t, uint64(0), s.Estimate("key"))

	for i := 0; i < 5; i++ {
		s.Update("key", 1)
	}
	assert.Equal(t, uint64(5), s.Estimate("key"))
}

func TestBankNoWorkerBelowMinPeriod(t *testing.T) {
	s, err := NewWithDims(2, 64)
	require.NoError(t, err)

	bank := NewBank(WithBankLogger(testLogger()), WithSketch(s, 50*time.Millisecond))
	bank.Start(context.Background())
	defer bank.Close()

	s.Update("key", 1)
	time.Sleep(150 * time.Millisecond)
	assert.Equal(t, uint64(1), s.Estimate("key"))
}

func TestBankCloseStopsWorkers(t *testing.T) {
	s, err := NewWithDims(2, 64)
	require.NoError(t, err)

	bank := NewBank(WithBankLogger(testLogger()), WithSketch(s, 150*time.Millisecond))
	bank.Start(context.Background())
	bank.Close()

	s.Update("key", 1)
	time.Sleep(200 * time.Millisecond)
	assert.Equal(t, uint64(1), s.Estimate("key"))
}

func TestBankCloseWithoutStart(t *testing.T) {
	bank := NewBank(WithBankLogger(testLogger()))
	bank.Close()
}
