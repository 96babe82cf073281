package mock

import (
	"testing"
	"time"
)

func TestMockClock(t *testing.T) {
	start := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	clock := NewMockClock(start)

	if !clock.Now().Equal(start) {
		t.Errorf("Expected %v, got %v", start, clock.Now())
	}

	clock.Advance(90 * time.Second)
	if want := start.Add(90 * time.Second); !clock.Now().Equal(want) {
		t.Errorf("Expected %v after Advance, got %v", want, clock.Now())
	}

	later := start.Add(24 * time.Hour)
	clock.Set(later)
	if !clock.Now().Equal(later) {
		t.Errorf("Expected %v after Set, got %v", later, clock.Now())
	}
}

func TestNewMockClock_ZeroUsesNow(t *testing.T) {
	before := time.Now()
	clock := NewMockClock(time.Time{})
	if clock.Now().Before(before) {
		t.Error("Expected zero start time to default to the current time")
	}
}

func TestMockClock_ExpirationIn(t *testing.T) {
	clock := NewMockClock(time.UnixMilli(1_700_000_000_000))

	if got := clock.ExpirationIn(time.Hour); got != 1_700_003_600_000 {
		t.Errorf("Expected 1700003600000, got %d", got)
	}

	clock.Advance(time.Minute)
	if got := clock.ExpirationIn(0); got != 1_700_000_060_000 {
		t.Errorf("Expected 1700000060000 after Advance, got %d", got)
	}
}
