package cache

import (
	"testing"
	"time"
)

func TestTimeUntilNextMarketOpen(t *testing.T) {
	t.Parallel()

	duration := TimeUntilNextMarketOpen()

	// Duration should always be positive and less than 24 hours
	if duration <= 0 {
		t.Errorf("expected positive duration, got %v", duration)
	}
	if duration > 24*time.Hour {
		t.Errorf("expected duration less than 24 hours, got %v", duration)
	}
}

func TestTimeUntilNextMarketOpen_ReturnsValidDuration(t *testing.T) {
	t.Parallel()

	duration := TimeUntilNextMarketOpen()

	// Calculate what the next market open should be
	now := time.Now()
	loc, err := time.LoadLocation("Asia/Kolkata")
	if err != nil {
		t.Fatalf("failed to load Asia/Kolkata timezone: %v", err)
	}

	local := now.In(loc)
	nextOpen := time.Date(local.Year(), local.Month(), local.Day(), 9, 15, 0, 0, loc)
	if local.After(nextOpen) {
		nextOpen = nextOpen.Add(24 * time.Hour)
	}

	// The calculated time should be approximately the same
	expectedDuration := nextOpen.Sub(now)
	diff := duration - expectedDuration
	if diff < 0 {
		diff = -diff
	}

	// Allow 1 second tolerance for test execution time
	if diff > time.Second {
		t.Errorf("duration %v differs from expected %v by more than 1 second", duration, expectedDuration)
	}
}
