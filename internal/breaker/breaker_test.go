package breaker

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var errBoom = errors.New("operation failed")

func fail() (any, error) { return nil, errBoom }

func TestBreaker_Closed(t *testing.T) {
	b := New("test")
	res, err := b.Execute(context.Background(), func() (any, error) { return "success", nil })
	require.NoError(t, err)
	assert.Equal(t, "success", res)
	assert.Equal(t, "closed", b.State())
	assert.Equal(t, "test", b.Name())
}

func TestBreaker_OpensAfterConsecutiveFailures(t *testing.T) {
	b := New("test")
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		_, err := b.Execute(ctx, fail)
		assert.ErrorIs(t, err, errBoom)
	}
	assert.Equal(t, "open", b.State())

	called := false
	_, err := b.Execute(ctx, func() (any, error) { called = true; return nil, nil })
	assert.ErrorIs(t, err, ErrCircuitOpen)
	assert.False(t, called)

	m := b.Metrics()
	assert.EqualValues(t, 4, m.TotalRequests)
	assert.EqualValues(t, 4, m.TotalFailures)
}

func TestBreaker_HalfOpenRecovers(t *testing.T) {
	b := NewWithConfig("test", Config{MaxFailures: 1, Timeout: 50 * time.Millisecond, HalfOpenMaxSuccesses: 1})
	ctx := context.Background()

	_, _ = b.Execute(ctx, fail)
	require.Equal(t, "open", b.State())

	require.Eventually(t, func() bool { return b.State() == "half-open" }, 2*time.Second, 10*time.Millisecond)

	_, err := b.Execute(ctx, func() (any, error) { return "ok", nil })
	require.NoError(t, err)
	assert.Equal(t, "closed", b.State())
}

func TestBreaker_CancelledContext(t *testing.T) {
	b := New("test")
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := b.Execute(ctx, func() (any, error) {
		t.Fatal("fn must not run with a cancelled context")
		return nil, nil
	})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestDo_Typed(t *testing.T) {
	b := New("typed")
	n, err := Do(context.Background(), b, func() (int, error) { return 42, nil })
	require.NoError(t, err)
	assert.Equal(t, 42, n)

	_, err = Do(context.Background(), b, func() (int, error) { return 0, errBoom })
	assert.ErrorIs(t, err, errBoom)

	// nil breaker passes straight through
	s, err := Do(context.Background(), (*Breaker)(nil), func() (string, error) { return "direct", nil })
	require.NoError(t, err)
	assert.Equal(t, "direct", s)
}
