package store

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// marshalTime converts a time to INTEGER unix nanoseconds.
func marshalTime(t time.Time) int64 {
	return t.UTC().UnixNano()
}

// unmarshalTime converts INTEGER unix nanoseconds back to a UTC time.
func unmarshalTime(n int64) time.Time {
	return time.Unix(0, n).UTC()
}

// marshalTaskID converts an optional task reference to a nullable column.
func marshalTaskID(id *int64) sql.NullInt64 {
	if id == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: *id, Valid: true}
}

// unmarshalTaskID converts a nullable column back to an optional reference.
func unmarshalTaskID(n sql.NullInt64) *int64 {
	if !n.Valid {
		return nil
	}
	id := n.Int64
	return &id
}

// marshalAmount stores decimals as exact TEXT.
func marshalAmount(d decimal.Decimal) string {
	return d.String()
}

// unmarshalAmount parses decimal TEXT.
func unmarshalAmount(s string) (decimal.Decimal, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, fmt.Errorf("unmarshal amount %q: %w", s, err)
	}
	return d, nil
}
