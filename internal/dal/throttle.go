package dal

import (
	"context"
	"fmt"
	"time"

	"github.com/couchbase/gocb/v2"
	"github.com/rs/zerolog/log"
)

const (
	// ThrottleCollection holds one counter document per address and day
	ThrottleCollection = "review_throttle"

	// throttleDocExpiry keeps yesterday's counters around long enough to
	// debug, then lets the store prune them.
	throttleDocExpiry = 48 * time.Hour
)

// ThrottleModel is the per-address daily submission ledger. The calendar
// day is part of the document key, so the midnight reset needs no explicit
// bookkeeping and the increment is a single atomic store operation.
type ThrottleModel struct {
	conn *Connection
}

// NewThrottleModel creates a new throttle model
func NewThrottleModel(conn *Connection) *ThrottleModel {
	return &ThrottleModel{conn: conn}
}

// throttleKey builds the counter document key for an address on a given day
func throttleKey(address string, now time.Time) string {
	return fmt.Sprintf("throttle/%s/%s", address, now.Format("2006-01-02"))
}

// ReserveSubmission atomically increments the day's counter for the
// address and returns the post-increment count. The caller decides
// admission from the returned count; two concurrent submissions can never
// both observe the same value.
func (tm *ThrottleModel) ReserveSubmission(ctx context.Context, address string, now time.Time) (uint64, error) {
	key := throttleKey(address, now)
	collection := tm.conn.GetCollection(ThrottleCollection)

	result, err := collection.Binary().Increment(key, &gocb.IncrementOptions{
		Initial: 1,
		Delta:   1,
		Expiry:  throttleDocExpiry,
		Context: ctx,
	})
	if err != nil {
		log.Error().
			Err(err).
			Str("address", address).
			Msg("Throttle counter increment failed")
		return 0, fmt.Errorf("increment throttle counter: %w", err)
	}

	count := result.Content()
	log.Debug().
		Str("address", address).
		Uint64("count", count).
		Msg("Submission reserved against daily quota")

	return count, nil
}
