package events

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFanout_DeliversDespiteFailures(t *testing.T) {
	var got []string
	failing := SinkFunc(func(context.Context, Event) error { return errors.New("down") })
	recording := SinkFunc(func(_ context.Context, e Event) error {
		got = append(got, e.Name)
		return nil
	})

	f := NewFanout(failing, nil, recording, LogSink{}, Discard{})
	assert.Equal(t, 4, f.Len())

	require.NoError(t, f.Emit(context.Background(), Event{Type: TypeStarted, Name: "a.zip"}))
	require.NoError(t, f.Emit(context.Background(), Event{Type: TypeFailed, Name: "b.zip", Error: "x"}))
	require.NoError(t, f.Emit(context.Background(), Event{Type: TypeCompleted, Name: "c.zip"}))
	assert.Equal(t, []string{"a.zip", "b.zip", "c.zip"}, got)
}

func TestEmptyFanout(t *testing.T) {
	f := NewFanout()
	assert.Zero(t, f.Len())
	require.NoError(t, f.Emit(context.Background(), Event{Type: TypeStarted}))
}
