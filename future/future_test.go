package future_test

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dailypips/parallel-programming-mipt-2014/future"
)

func TestSetValueThenWait(t *testing.T) {
	f := future.New[int]()
	require.NoError(t, f.SetValue(42))

	v, err := f.Wait()
	require.NoError(t, err)
	assert.Equal(t, 42, v)
	assert.True(t, f.Ready())
	assert.Equal(t, future.KindValue, f.Kind())
}

func TestSetVoid(t *testing.T) {
	f := future.New[struct{}]()
	require.NoError(t, f.SetVoid())

	_, err := f.Wait()
	require.NoError(t, err)
	assert.Equal(t, future.KindVoid, f.Kind())
}

func TestSetErrorPropagatesAsTaskFailed(t *testing.T) {
	f := future.New[int]()
	cause := errors.New("boom")
	require.NoError(t, f.SetError(cause))

	_, err := f.Wait()
	require.Error(t, err)

	var taskErr *future.TaskError
	require.ErrorAs(t, err, &taskErr)
	assert.ErrorIs(t, taskErr, cause)

	// A second Wait must observe the identical outcome (idempotence).
	_, err2 := f.Wait()
	require.ErrorAs(t, err2, &taskErr)
	assert.ErrorIs(t, err2, cause)
}

func TestSecondSetIsAContractViolation(t *testing.T) {
	f := future.New[int]()
	require.NoError(t, f.SetValue(1))
	assert.ErrorIs(t, f.SetValue(2), future.ErrAlreadySet)
	assert.ErrorIs(t, f.SetVoid(), future.ErrAlreadySet)
	assert.ErrorIs(t, f.SetError(errors.New("x")), future.ErrAlreadySet)
}

func TestManyWaitersObserveOneResolution(t *testing.T) {
	f := future.New[int]()
	const waiters = 50

	var wg sync.WaitGroup
	results := make([]int, waiters)
	wg.Add(waiters)
	for i := 0; i < waiters; i++ {
		go func(i int) {
			defer wg.Done()
			v, err := f.Wait()
			require.NoError(t, err)
			results[i] = v
		}(i)
	}

	// Give the waiters a moment to block on the condition variable before
	// resolving, without making the test depend on exact scheduling.
	time.Sleep(5 * time.Millisecond)
	require.NoError(t, f.SetValue(7))
	wg.Wait()

	for _, v := range results {
		assert.Equal(t, 7, v)
	}
}
