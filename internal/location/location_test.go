package location

import (
	"context"
	"errors"
	"testing"
	"time"

	"geoattend-backend/internal/geo"
)

type fixedClock struct{ now time.Time }

func (c *fixedClock) Now() time.Time { return c.now }

func fixAt(lat, lng float64, at time.Time) Fix {
	return Fix{Coord: geo.Coordinate{Latitude: lat, Longitude: lng}, ObservedAt: at}
}

func TestWatcherAlwaysFreshByDefault(t *testing.T) {
	now := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)
	src := NewFakeSource(
		FakeStep{Fix: fixAt(1, 1, now)},
		FakeStep{Fix: fixAt(2, 2, now.Add(time.Second))},
	)
	w := NewWatcher(src, 0)

	if _, err := w.Current(context.Background()); err != nil {
		t.Fatalf("Current: %v", err)
	}
	fix, err := w.Current(context.Background())
	if err != nil {
		t.Fatalf("Current: %v", err)
	}
	if src.Calls != 2 {
		t.Errorf("zero tolerance must hit the source every time, got %d calls", src.Calls)
	}
	if fix.Coord.Latitude != 2 {
		t.Errorf("expected second scripted fix, got %v", fix.Coord)
	}
}

func TestWatcherServesCachedFixWithinTolerance(t *testing.T) {
	now := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)
	src := NewFakeSource(
		FakeStep{Fix: fixAt(1, 1, now)},
		FakeStep{Fix: fixAt(2, 2, now.Add(time.Minute))},
	)
	w := NewWatcher(src, 30*time.Second)
	clk := &fixedClock{now: now}
	w.clock = clk

	if _, err := w.Current(context.Background()); err != nil {
		t.Fatalf("Current: %v", err)
	}

	// 10s later the cached fix is still acceptable.
	clk.now = now.Add(10 * time.Second)
	fix, err := w.Current(context.Background())
	if err != nil {
		t.Fatalf("Current: %v", err)
	}
	if fix.Coord.Latitude != 1 || src.Calls != 1 {
		t.Errorf("expected cached fix, got %v after %d source calls", fix.Coord, src.Calls)
	}

	// Past the tolerance a fresh fix is required.
	clk.now = now.Add(time.Minute)
	fix, err = w.Current(context.Background())
	if err != nil {
		t.Fatalf("Current: %v", err)
	}
	if fix.Coord.Latitude != 2 || src.Calls != 2 {
		t.Errorf("expected fresh fix, got %v after %d source calls", fix.Coord, src.Calls)
	}
}

func TestWatcherClassifiesFailures(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want Code
	}{
		{"typed error passes through", &Error{Code: CodePermissionDenied}, CodePermissionDenied},
		{"deadline becomes timeout", context.DeadlineExceeded, CodeTimeout},
		{"anything else is unavailable", errors.New("gps cold start"), CodePositionUnavailable},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := NewWatcher(NewFakeSource(FakeStep{Err: tt.err}), 0)
			_, err := w.Current(context.Background())
			if err == nil {
				t.Fatal("expected error")
			}
			le, ok := err.(*Error)
			if !ok {
				t.Fatalf("expected *Error, got %T", err)
			}
			if le.Code != tt.want {
				t.Errorf("code = %s, want %s", le.Code, tt.want)
			}
			if w.LastError() == nil || w.LastError().Code != tt.want {
				t.Errorf("LastError not recorded: %v", w.LastError())
			}
		})
	}
}

func TestWatcherErrorDoesNotServeStaleFix(t *testing.T) {
	now := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)
	src := NewFakeSource(
		FakeStep{Fix: fixAt(1, 1, now)},
		FakeStep{Err: &Error{Code: CodeTimeout}},
	)
	w := NewWatcher(src, 0)

	if _, err := w.Current(context.Background()); err != nil {
		t.Fatalf("Current: %v", err)
	}
	if _, err := w.Current(context.Background()); err == nil {
		t.Fatal("expected timeout, not a silently reused fix")
	}
}

func TestWatcherErrorClearedOnSuccess(t *testing.T) {
	now := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)
	src := NewFakeSource(
		FakeStep{Err: &Error{Code: CodePositionUnavailable}},
		FakeStep{Fix: fixAt(1, 1, now)},
	)
	w := NewWatcher(src, 0)

	_, _ = w.Current(context.Background())
	if w.LastError() == nil {
		t.Fatal("expected recorded failure")
	}
	if _, err := w.Current(context.Background()); err != nil {
		t.Fatalf("Current: %v", err)
	}
	if w.LastError() != nil {
		t.Errorf("LastError should clear after success, got %v", w.LastError())
	}
}

func TestValidCode(t *testing.T) {
	for _, c := range []string{"PERMISSION_DENIED", "POSITION_UNAVAILABLE", "TIMEOUT", "UNSUPPORTED"} {
		if !ValidCode(c) {
			t.Errorf("ValidCode(%s) = false", c)
		}
	}
	if ValidCode("GPS_ON_FIRE") {
		t.Error("unknown code accepted")
	}
}
