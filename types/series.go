package types

import (
	"fmt"
	"time"
)

// Candle is one daily OHLCV observation.
type Candle struct {
	// Date is the trading day, normalized to midnight UTC.
	Date time.Time
	// Open is the opening price.
	Open float64
	// High is the session high. Must satisfy High >= max(Open, Close).
	High float64
	// Low is the session low. Must satisfy Low <= min(Open, Close).
	Low float64
	// Close is the closing price.
	Close float64
	// Volume is the traded share count.
	Volume int64
}

// Series is an ordered daily OHLCV sequence, oldest first.
type Series []Candle

// Empty reports whether the series has no observations.
func (s Series) Empty() bool { return len(s) == 0 }

// Validate checks per-candle price bounds and strict date ordering.
//
// Every candle must satisfy High >= max(Open, Close) and
// Low <= min(Open, Close). Dates must be strictly ascending.
func (s Series) Validate() error {
	for i, c := range s {
		if c.High < c.Open || c.High < c.Close {
			return fmt.Errorf("candle %d (%s): high %.4f below max(open, close)",
				i, c.Date.Format("2006-01-02"), c.High)
		}
		if c.Low > c.Open || c.Low > c.Close {
			return fmt.Errorf("candle %d (%s): low %.4f above min(open, close)",
				i, c.Date.Format("2006-01-02"), c.Low)
		}
		if c.Volume < 0 {
			return fmt.Errorf("candle %d (%s): negative volume %d",
				i, c.Date.Format("2006-01-02"), c.Volume)
		}
		if i > 0 && !s[i-1].Date.Before(c.Date) {
			return fmt.Errorf("candle %d (%s): date not after previous candle",
				i, c.Date.Format("2006-01-02"))
		}
	}
	return nil
}
