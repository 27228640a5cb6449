package parallel

import (
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/YuminosukeSato/catenc/pkg/errors"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func TestParallelizeErrCoversEveryIndexOnce(t *testing.T) {
	for _, items := range []int{1, 7, 1000, 10007} {
		hits := make([]int32, items)
		err := ParallelizeErr(items, 0, func(start, end int) error {
			for i := start; i < end; i++ {
				atomic.AddInt32(&hits[i], 1)
			}
			return nil
		})
		require.NoError(t, err)
		for i, h := range hits {
			assert.Equal(t, int32(1), h, "items=%d index=%d", items, i)
		}
	}
}

func TestParallelizeErrBelowThreshold(t *testing.T) {
	var calls int32
	err := ParallelizeErr(10, 100, func(start, end int) error {
		atomic.AddInt32(&calls, 1)
		assert.Equal(t, 0, start)
		assert.Equal(t, 10, end)
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, int32(1), calls)
}

func TestParallelizeErr(t *testing.T) {
	boom := errors.New("boom")

	err := ParallelizeErr(5000, 10, func(start, end int) error {
		if start == 0 {
			return boom
		}
		return nil
	})
	assert.True(t, errors.Is(err, boom))

	assert.NoError(t, ParallelizeErr(3, 10, func(start, end int) error { return nil }))
}

func TestParallelizeErrRecoversWorkerPanic(t *testing.T) {
	err := ParallelizeErr(5000, 10, func(start, end int) error {
		if start == 0 {
			panic("bad row")
		}
		return nil
	})

	var panicErr *errors.PanicError
	require.True(t, errors.As(err, &panicErr))
	assert.Equal(t, "bad row", panicErr.Value)
	assert.Contains(t, panicErr.Operation, "rows [0, ")
}
