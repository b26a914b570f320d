package sketch

import (
	"fmt"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEstimateExactWhenSparse(t *testing.T) {
	s, err := NewWithDims(5, 2048)
	require.NoError(t, err)

	for i := 0; i < 1000; i++ {
		s.Update("/bin/sh", 1)
	}

	assert.Equal(t, uint64(1000), s.Estimate("/bin/sh"))
}

func TestEstimateNeverUnderestimates(t *testing.T) {
	// A tiny sketch forces collisions; the estimate may only inflate.
	s, err := NewWithDims(2, 4)
	require.NoError(t, err)

	for i := 0; i < 100; i++ {
		key := fmt.Sprintf("/usr/bin/exe-%d", i)
		for j := 0; j < 10; j++ {
			s.Update(key, 1)
		}
	}

	for i := 0; i < 100; i++ {
		key := fmt.Sprintf("/usr/bin/exe-%d", i)
		est := s.Estimate(key)
		assert.GreaterOrEqual(t, est, uint64(10))
		assert.LessOrEqual(t, est, uint64(1000))
	}
}

func TestEstimateUnseenKeySparse(t *testing.T) {
	s, err := NewWithDims(5, 4096)
	require.NoError(t, err)
	s.Update("seen", 3)

	assert.Equal(t, uint64(3), s.Estimate("seen"))
	assert.Equal(t, uint64(0), s.Estimate("never-seen"))
}

func TestReset(t *testing.T) {
	s, err := NewWithDims(3, 128)
	require.NoError(t, err)

	for i := 0; i < 100; i++ {
		s.Update("key", 1)
	}
	require.Equal(t, uint64(100), s.Estimate("key"))

	s.Reset()
	assert.Equal(t, uint64(0), s.Estimate("key"))

	for i := 0; i < 5; i++ {
		s.Update("key", 1)
	}
	assert.Equal(t, uint64(5), s.Estimate("key"))
}

func TestSaturation(t *testing.T) {
	s, err := NewWithDims(2, 8)
	require.NoError(t, err)

	s.Update("key", math.MaxUint64)
	s.Update("key", math.MaxUint64)
	s.Update("key", 1)

	assert.Equal(t, uint64(math.MaxUint64), s.Estimate("key"))
}

func TestDeterminism(t *testing.T) {
	a, err := NewWithDims(4, 256)
	require.NoError(t, err)
	b, err := NewWithDims(4, 256)
	require.NoError(t, err)

	for i := 0; i < 50; i++ {
		key := fmt.Sprintf("key-%d", i%7)
		a.Update(key, uint64(i))
		b.Update(key, uint64(i))
	}

	for i := 0; i < 10; i++ {
		key := fmt.Sprintf("key-%d", i)
		assert.Equal(t, a.Estimate(key), b.Estimate(key))
	}
}

func TestShapeFromErrorBounds(t *testing.T) {
	s, err := NewWithErrorBounds(0.001, 0.0001)
	require.NoError(t, err)

	d, w := s.Dims()
	assert.Equal(t, uint64(7), d)       // ceil(ln(1000))
	assert.Equal(t, uint64(27183), w)   // ceil(e/0.0001)
	assert.Equal(t, d*w*8, s.SizeBytes())
}

func TestErrorBoundsRoundTrip(t *testing.T) {
	for _, gamma := range []float64{0.1, 0.01, 0.001} {
		d := RowsFromGamma(gamma)
		assert.Equal(t, d, RowsFromGamma(GammaFromRows(d)))
	}
	for _, eps := range []float64{0.1, 0.01, 0.001} {
		w := ColsFromEps(eps)
		assert.Equal(t, w, ColsFromEps(EpsFromCols(w)))
	}
}

func TestInvalidParams(t *testing.T) {
	_, err := NewWithDims(0, 10)
	require.ErrorIs(t, err, ErrZeroDims)
	_, err = NewWithDims(10, 0)
	require.ErrorIs(t, err, ErrZeroDims)

	_, err = NewWithErrorBounds(0, 0.1)
	require.ErrorIs(t, err, ErrErrorBounds)
	_, err = NewWithErrorBounds(0.1, 1.5)
	require.ErrorIs(t, err, ErrErrorBounds)
}

func TestConcurrentUpdates(t *testing.T) {
	s, err := NewWithDims(3, 1024)
	require.NoError(t, err)

	done := make(chan struct{})
	for g := 0; g < 4; g++ {
		go func() {
			defer func() { done <- struct{}{} }()
			for i := 0; i < 1000; i++ {
				s.Update("shared", 1)
			}
		}()
	}
	for g := 0; g < 4; g++ {
		<-done
	}

	assert.Equal(t, uint64(4000), s.Estimate("shared"))
}
