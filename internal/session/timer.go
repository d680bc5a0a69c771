package session

import "time"

// Timer is an armed one-shot callback that can be stopped.
type Timer interface {
	Stop() bool
}

// TimerFactory arms timers. The real factory wraps time.AfterFunc;
// tests substitute a fake that fires callbacks synchronously.
type TimerFactory interface {
	AfterFunc(d time.Duration, f func()) Timer
}

type realTimerFactory struct{}

func (realTimerFactory) AfterFunc(d time.Duration, f func()) Timer {
	return time.AfterFunc(d, f)
}

// FakeTimerFactory captures armed timers for tests to fire by hand.
type FakeTimerFactory struct {
	Armed []*FakeTimer
}

// FakeTimer records its delay and callback.
type FakeTimer struct {
	Delay    time.Duration
	Callback func()
	Stopped  bool
}

func (f *FakeTimerFactory) AfterFunc(d time.Duration, fn func()) Timer {
	t := &FakeTimer{Delay: d, Callback: fn}
	f.Armed = append(f.Armed, t)
	return t
}

func (t *FakeTimer) Stop() bool {
	was := !t.Stopped
	t.Stopped = true
	return was
}

// Fire invokes the callback regardless of Stopped; tests use this to
// simulate the race of a timer firing after checkout already happened.
func (t *FakeTimer) Fire() {
	t.Callback()
}

// Last returns the most recently armed timer, or nil.
func (f *FakeTimerFactory) Last() *FakeTimer {
	if len(f.Armed) == 0 {
		return nil
	}
	return f.Armed[len(f.Armed)-1]
}
