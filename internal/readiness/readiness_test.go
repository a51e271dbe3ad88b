package readiness

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestWaitBlocksUntilFire(t *testing.T) {
	e := New()
	done := make(chan struct{})

	go func() {
		<-e.Wait()
		close(done)
	}()

	select {
	case <-done:
		t.Fatal("waiter woke before Fire")
	case <-time.After(20 * time.Millisecond):
	}

	e.Fire()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("waiter did not wake after Fire")
	}
}

func TestWaitReturnsImmediatelyIfAlreadyFired(t *testing.T) {
	e := New()
	e.Fire()

	select {
	case <-e.Wait():
	default:
		t.Fatal("expected Wait() channel to be already closed")
	}
}

func TestFireIsIdempotent(t *testing.T) {
	e := New()
	e.Fire()
	require.NotPanics(t, func() { e.Fire() })
	require.True(t, e.HasFired())
}

func TestHasFiredBeforeFire(t *testing.T) {
	e := New()
	require.False(t, e.HasFired())
}
