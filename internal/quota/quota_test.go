package quota

import (
	"testing"
	"time"

	"resumetrack/internal/errors"
)

var base = time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)

func usageAt(count int, start time.Time) Usage {
	return Usage{Count: count, WindowStart: &start}
}

func TestCanCreate(t *testing.T) {
	tests := []struct {
		name  string
		usage Usage
		now   time.Time
		want  bool
	}{
		{
			name:  "never used",
			usage: Usage{},
			now:   base,
			want:  true,
		},
		{
			name:  "fresh window under limit",
			usage: usageAt(1, base),
			now:   base.Add(time.Hour),
			want:  true,
		},
		{
			name:  "at limit inside window",
			usage: usageAt(4, base),
			now:   base.Add(time.Hour),
			want:  false,
		},
		{
			name:  "at limit but window elapsed",
			usage: usageAt(4, base),
			now:   base.Add(8 * 24 * time.Hour),
			want:  true,
		},
		{
			name:  "exactly seven days is elapsed",
			usage: usageAt(4, base),
			now:   base.Add(7 * 24 * time.Hour),
			want:  true,
		},
		{
			name:  "one second short of seven days",
			usage: usageAt(4, base),
			now:   base.Add(7*24*time.Hour - time.Second),
			want:  false,
		},
		{
			name:  "three used leaves room",
			usage: usageAt(3, base),
			now:   base.Add(6 * 24 * time.Hour),
			want:  true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := CanCreate(tt.usage, tt.now); got != tt.want {
				t.Errorf("CanCreate() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestConsume(t *testing.T) {
	t.Run("first use starts window", func(t *testing.T) {
		got, err := Consume(Usage{}, base)
		if err != nil {
			t.Fatalf("Consume() error = %v", err)
		}
		if got.Count != 1 {
			t.Errorf("Count = %d, want 1", got.Count)
		}
		if got.WindowStart == nil || !got.WindowStart.Equal(base) {
			t.Errorf("WindowStart = %v, want %v", got.WindowStart, base)
		}
		if got.LastReset == nil || !got.LastReset.Equal(base) {
			t.Errorf("LastReset = %v, want %v", got.LastReset, base)
		}
	})

	t.Run("increments inside window", func(t *testing.T) {
		u := usageAt(2, base)
		got, err := Consume(u, base.Add(time.Hour))
		if err != nil {
			t.Fatalf("Consume() error = %v", err)
		}
		if got.Count != 3 {
			t.Errorf("Count = %d, want 3", got.Count)
		}
		if !got.WindowStart.Equal(base) {
			t.Errorf("WindowStart moved to %v, want %v", got.WindowStart, base)
		}
	})

	t.Run("rejects at limit inside window", func(t *testing.T) {
		u := usageAt(4, base)
		_, err := Consume(u, base.Add(time.Hour))
		if err == nil {
			t.Fatal("Consume() expected error, got none")
		}
		if !errors.IsType(err, errors.ErrorTypeQuota) {
			t.Errorf("error type = %v, want quota", errors.TypeOf(err))
		}
	})

	t.Run("resets after window regardless of count", func(t *testing.T) {
		u := usageAt(4, base)
		now := base.Add(7 * 24 * time.Hour)
		got, err := Consume(u, now)
		if err != nil {
			t.Fatalf("Consume() error = %v", err)
		}
		if got.Count != 1 {
			t.Errorf("Count = %d, want 1 after reset", got.Count)
		}
		if !got.WindowStart.Equal(now) {
			t.Errorf("WindowStart = %v, want %v", got.WindowStart, now)
		}
		if got.LastReset == nil || !got.LastReset.Equal(now) {
			t.Errorf("LastReset = %v, want %v", got.LastReset, now)
		}
	})

	t.Run("count never exceeds limit under rapid use", func(t *testing.T) {
		u := Usage{}
		now := base
		var lastErr error
		for i := 0; i < 10; i++ {
			next, err := Consume(u, now)
			if err != nil {
				lastErr = err
				continue
			}
			u = next
			now = now.Add(time.Minute)
		}
		if u.Count != WeeklyLimit {
			t.Errorf("Count = %d, want %d", u.Count, WeeklyLimit)
		}
		if lastErr == nil {
			t.Error("expected at least one rejection past the limit")
		}
	})
}

func TestRemaining(t *testing.T) {
	tests := []struct {
		name  string
		usage Usage
		now   time.Time
		want  int
	}{
		{"unset window", Usage{}, base, 4},
		{"two used", usageAt(2, base), base.Add(time.Hour), 2},
		{"all used", usageAt(4, base), base.Add(time.Hour), 0},
		{"elapsed window restores allowance", usageAt(4, base), base.Add(7 * 24 * time.Hour), 4},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Remaining(tt.usage, tt.now); got != tt.want {
				t.Errorf("Remaining() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestDaysUntilReset(t *testing.T) {
	tests := []struct {
		name  string
		usage Usage
		now   time.Time
		want  int
	}{
		{"unset window", Usage{}, base, 0},
		{"one hour in", usageAt(1, base), base.Add(time.Hour), 7},
		{"just under one day", usageAt(1, base), base.Add(24*time.Hour - time.Minute), 7},
		{"one day in", usageAt(1, base), base.Add(24 * time.Hour), 6},
		{"six and a half days in", usageAt(1, base), base.Add(6*24*time.Hour + 12*time.Hour), 1},
		{"window elapsed", usageAt(1, base), base.Add(7 * 24 * time.Hour), 0},
		{"long past", usageAt(1, base), base.Add(30 * 24 * time.Hour), 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := DaysUntilReset(tt.usage, tt.now); got != tt.want {
				t.Errorf("DaysUntilReset() = %d, want %d", got, tt.want)
			}
		})
	}
}

// TestFullWeekScenario walks a user through the documented lifecycle: four
// creates within an hour, a denied fifth, then a reset a week later.
func TestFullWeekScenario(t *testing.T) {
	u := Usage{}
	now := base

	if !CanCreate(u, now) {
		t.Fatal("fresh user should be admitted")
	}

	for i := 0; i < 4; i++ {
		next, err := Consume(u, now)
		if err != nil {
			t.Fatalf("create %d: %v", i+1, err)
		}
		u = next
		now = now.Add(15 * time.Minute)
	}

	if CanCreate(u, now) {
		t.Error("fifth create should be denied")
	}
	if got := Remaining(u, now); got != 0 {
		t.Errorf("Remaining() = %d, want 0", got)
	}
	if got := DaysUntilReset(u, now); got != 7 {
		t.Errorf("DaysUntilReset() = %d, want 7 within the first day", got)
	}

	// A week after the window opened the allowance returns.
	later := u.WindowStart.Add(7 * 24 * time.Hour)
	if !CanCreate(u, later) {
		t.Error("window elapsed, create should be admitted")
	}
	next, err := Consume(u, later)
	if err != nil {
		t.Fatalf("post-reset create: %v", err)
	}
	if next.Count != 1 {
		t.Errorf("Count after reset = %d, want 1", next.Count)
	}
}
