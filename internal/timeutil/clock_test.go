package timeutil

import (
	"testing"
	"time"
)

var epoch = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

func TestMockClock_Advance(t *testing.T) {
	c := NewMockClock(epoch)
	c.Advance(250 * time.Millisecond)

	if got := c.Now(); !got.Equal(epoch.Add(250 * time.Millisecond)) {
		t.Errorf("expected advanced time, got %v", got)
	}
}

func TestMockClock_After(t *testing.T) {
	c := NewMockClock(epoch)
	ch := c.After(time.Second)

	c.Advance(500 * time.Millisecond)
	select {
	case <-ch:
		t.Fatal("After fired early")
	default:
	}
	if c.Waiters() != 1 {
		t.Errorf("expected 1 pending waiter, got %d", c.Waiters())
	}

	c.Advance(500 * time.Millisecond)
	select {
	case got := <-ch:
		if !got.Equal(epoch.Add(time.Second)) {
			t.Errorf("unexpected fire time %v", got)
		}
	default:
		t.Fatal("After did not fire")
	}
	if c.Waiters() != 0 {
		t.Errorf("expected no pending waiters, got %d", c.Waiters())
	}
}

func TestMockTicker_FiresEveryInterval(t *testing.T) {
	c := NewMockClock(epoch)
	tk := c.NewTicker(10 * time.Millisecond)

	ticks := 0
	for i := 0; i < 5; i++ {
		c.Advance(10 * time.Millisecond)
		select {
		case <-tk.C():
			ticks++
		default:
		}
	}
	if ticks != 5 {
		t.Errorf("expected 5 ticks, got %d", ticks)
	}

	tk.Stop()
	if c.ActiveTickers() != 0 {
		t.Errorf("expected no active tickers after Stop")
	}
	c.Advance(10 * time.Millisecond)
	select {
	case <-tk.C():
		t.Error("stopped ticker fired")
	default:
	}
}

func TestRealClock(t *testing.T) {
	var c Clock = RealClock{}
	before := time.Now()
	if c.Now().Before(before) {
		t.Error("real clock went backwards")
	}

	tk := c.NewTicker(time.Millisecond)
	defer tk.Stop()
	select {
	case <-tk.C():
	case <-time.After(time.Second):
		t.Fatal("real ticker did not fire")
	}
}
