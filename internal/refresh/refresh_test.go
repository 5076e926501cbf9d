package refresh_test

import (
	"testing"
	"time"

	"github.com/jt0826/inspectionapp-sub000/internal/refresh"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBus_NotifyWakesAllSubscribers(t *testing.T) {
	bus := refresh.NewBus()
	ch1, cancel1 := bus.Subscribe()
	defer cancel1()
	ch2, cancel2 := bus.Subscribe()
	defer cancel2()

	bus.Notify()

	select {
	case <-ch1:
	case <-time.After(time.Second):
		t.Fatal("subscriber 1 did not receive signal")
	}
	select {
	case <-ch2:
	case <-time.After(time.Second):
		t.Fatal("subscriber 2 did not receive signal")
	}
}

func TestBus_SignalsCoalesce(t *testing.T) {
	bus := refresh.NewBus()
	ch, cancel := bus.Subscribe()
	defer cancel()

	bus.Notify()
	bus.Notify()
	bus.Notify()

	// 连续信号合并为一次
	<-ch
	select {
	case <-ch:
		t.Fatal("expected coalesced signal, got a second one")
	default:
	}
	assert.Equal(t, uint64(3), bus.Seq())
}

func TestBus_CancelStopsDelivery(t *testing.T) {
	bus := refresh.NewBus()
	ch, cancel := bus.Subscribe()
	cancel()

	bus.Notify()

	select {
	case <-ch:
		t.Fatal("cancelled subscriber received signal")
	default:
	}
}

func TestBus_NotifyWithoutSubscribersIsSafe(t *testing.T) {
	bus := refresh.NewBus()
	require.NotPanics(t, func() { bus.Notify() })
}
