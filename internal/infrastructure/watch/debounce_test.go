package watch

import (
	"sync/atomic"
	"testing"
	"time"
)

func TestDebouncer_CoalescesRapidTriggers(t *testing.T) {
	var fired atomic.Int32
	d := NewDebouncer(40*time.Millisecond, func() { fired.Add(1) })

	d.Trigger()
	d.Trigger()
	d.Trigger()

	time.Sleep(120 * time.Millisecond)
	if got := fired.Load(); got != 1 {
		t.Fatalf("expected 1 callback for a burst, got %d", got)
	}
}

func TestDebouncer_FlushFiresImmediately(t *testing.T) {
	var fired atomic.Int32
	d := NewDebouncer(time.Hour, func() { fired.Add(1) })

	d.Trigger()
	d.Flush()

	if got := fired.Load(); got != 1 {
		t.Fatalf("flush must fire the pending callback, got %d", got)
	}

	d.Flush()
	if got := fired.Load(); got != 1 {
		t.Fatalf("flush with nothing pending must be a no-op, got %d", got)
	}
}

func TestDebouncer_StopCancelsPending(t *testing.T) {
	var fired atomic.Int32
	d := NewDebouncer(30*time.Millisecond, func() { fired.Add(1) })

	d.Trigger()
	d.Stop()

	time.Sleep(100 * time.Millisecond)
	if got := fired.Load(); got != 0 {
		t.Fatalf("stopped debouncer must not fire, got %d", got)
	}
}
