package dal

import (
	"testing"
	"time"
)

func TestThrottleKey(t *testing.T) {
	morning := time.Date(2025, 3, 14, 8, 30, 0, 0, time.UTC)
	evening := time.Date(2025, 3, 14, 23, 59, 59, 0, time.UTC)
	nextDay := time.Date(2025, 3, 15, 0, 0, 1, 0, time.UTC)

	sameDay1 := throttleKey("203.0.113.7", morning)
	sameDay2 := throttleKey("203.0.113.7", evening)
	if sameDay1 != sameDay2 {
		t.Errorf("Same address and day should share a key: %s vs %s", sameDay1, sameDay2)
	}

	// Crossing the day boundary must land on a fresh counter
	afterMidnight := throttleKey("203.0.113.7", nextDay)
	if afterMidnight == sameDay1 {
		t.Errorf("Day boundary should change the key, both were %s", sameDay1)
	}

	otherAddress := throttleKey("198.51.100.1", morning)
	if otherAddress == sameDay1 {
		t.Errorf("Different addresses should not share a key")
	}

	if sameDay1 != "throttle/203.0.113.7/2025-03-14" {
		t.Errorf("Unexpected key format: %s", sameDay1)
	}
}
