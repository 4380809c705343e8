package async

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestQueueResolveExactlyOnce(t *testing.T) {
	q := NewQueue(nil)
	calls := 0
	id, err := q.Schedule(Call{Caller: "bridge.near", Receiver: "token.near", Method: "ft_transfer"}, func(res Result) error {
		calls++
		if !res.OK() {
			t.Fatalf("unexpected failure: %v", res.Err)
		}
		return nil
	})
	require.NoError(t, err)
	require.NotEmpty(t, id)
	require.Len(t, q.Pending(), 1)

	require.NoError(t, q.Resolve(id, Success(nil)))
	require.ErrorIs(t, q.Resolve(id, Success(nil)), ErrUnknownCall)
	require.Equal(t, 1, calls)
	require.Empty(t, q.Pending())
}

func TestQueueRejectsInvalidCalls(t *testing.T) {
	q := NewQueue(nil)
	_, err := q.Schedule(Call{Method: "x"}, nil)
	require.ErrorIs(t, err, ErrInvalidCall)

	_, err = q.Schedule(Call{ID: "fixed", Receiver: "a.near", Method: "x"}, nil)
	require.NoError(t, err)
	_, err = q.Schedule(Call{ID: "fixed", Receiver: "a.near", Method: "x"}, nil)
	require.ErrorIs(t, err, ErrInvalidCall)
}

func TestQueueDrainRunsRegisteredReceiversInOrder(t *testing.T) {
	q := NewQueue(nil)
	var seen []string
	q.Register("bridge.near", HandlerFunc(func(_ context.Context, call Call) Result {
		seen = append(seen, call.Method)
		if call.Method == "first" {
			// Calls scheduled while draining run in the same pass.
			_, err := q.Schedule(Call{Caller: "bridge.near", Receiver: "bridge.near", Method: "third"}, nil)
			require.NoError(t, err)
		}
		if call.Method == "second" {
			return Failure(errors.New("boom"))
		}
		return Success(call.Method)
	}))

	var results []Result
	record := func(res Result) error {
		results = append(results, res)
		return nil
	}
	_, err := q.Schedule(Call{Receiver: "bridge.near", Method: "first"}, record)
	require.NoError(t, err)
	_, err = q.Schedule(Call{Receiver: "external.near", Method: "untouched"}, record)
	require.NoError(t, err)
	_, err = q.Schedule(Call{Receiver: "bridge.near", Method: "second"}, record)
	require.NoError(t, err)

	n, err := q.Drain(context.Background())
	require.NoError(t, err)
	require.Equal(t, 3, n)
	require.Equal(t, []string{"first", "second", "third"}, seen)
	require.Len(t, results, 2)
	require.True(t, results[0].OK())
	require.False(t, results[1].OK())

	pending := q.Pending()
	require.Len(t, pending, 1)
	require.Equal(t, "untouched", pending[0].Method)
}

func TestQueueDrainReportsCallbackErrors(t *testing.T) {
	q := NewQueue(nil)
	q.Register("a.near", HandlerFunc(func(context.Context, Call) Result { return Success(nil) }))
	_, err := q.Schedule(Call{Receiver: "a.near", Method: "m"}, func(Result) error {
		return errors.New("callback aborted")
	})
	require.NoError(t, err)

	n, err := q.Drain(context.Background())
	require.Equal(t, 1, n)
	require.Error(t, err)
	require.Empty(t, q.Pending())
}
