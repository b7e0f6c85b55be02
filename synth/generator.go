// Package synth generates deterministic synthetic fallback market data.
//
// When the upstream fetch exhausts its retries, the pipeline substitutes a
// generated series rather than blocking downstream jobs. The generator is
// seeded from the reference date, so repeated runs on the same day produce
// identical data. This is reproducibility, not randomness: the series only
// has to be statistically plausible and structurally valid.
package synth

import (
	"math/rand"
	"strconv"
	"time"

	"github.com/justapithecus/prospect/types"
)

const (
	// PointCount is the fixed series length in trading days.
	PointCount = 22
	// basePrice anchors the compounded price walk.
	basePrice = 150.0
	// returnMean and returnStddev parameterize the daily return draw.
	returnMean   = 0.0005
	returnStddev = 0.01
	// highLowOffset pads High above and Low below the open/close band.
	highLowOffset = 0.5
	// baseVolume and volumeJitter bound the volume draw.
	baseVolume   = 1_000_000
	volumeJitter = 100_000
)

// Seed derives the deterministic seed for a reference date: the numeric
// YYYYMMDD form modulo a large bound.
func Seed(ref time.Time) int64 {
	numeric, _ := strconv.ParseInt(ref.Format("20060102"), 10, 64)
	return numeric % (1<<32 - 1)
}

// Generate produces the synthetic series ending at ref.
//
// Close follows a multiplicative walk from basePrice with normal daily
// returns. Open is the previous Close (first Open equals first Close).
// High and Low are padded beyond the open/close band, so the generated
// series always passes types.Series.Validate.
func Generate(ref time.Time) types.Series {
	dates := businessDays(ref, PointCount)
	rng := rand.New(rand.NewSource(Seed(ref)))

	series := make(types.Series, len(dates))
	price := basePrice
	for i, date := range dates {
		price *= 1 + (rng.NormFloat64()*returnStddev + returnMean)
		c := types.Candle{Date: date, Close: price}
		if i == 0 {
			c.Open = c.Close
		} else {
			c.Open = series[i-1].Close
		}
		c.High = max(c.Open, c.Close) + highLowOffset
		c.Low = min(c.Open, c.Close) - highLowOffset
		c.Volume = baseVolume + rng.Int63n(2*volumeJitter) - volumeJitter
		series[i] = c
	}
	return series
}

// businessDays returns n weekday dates ending at the last weekday on or
// before ref, oldest first, normalized to midnight UTC.
func businessDays(ref time.Time, n int) []time.Time {
	day := time.Date(ref.Year(), ref.Month(), ref.Day(), 0, 0, 0, 0, time.UTC)
	for isWeekend(day) {
		day = day.AddDate(0, 0, -1)
	}

	dates := make([]time.Time, n)
	for i := n - 1; i >= 0; i-- {
		dates[i] = day
		day = day.AddDate(0, 0, -1)
		for isWeekend(day) {
			day = day.AddDate(0, 0, -1)
		}
	}
	return dates
}

func isWeekend(t time.Time) bool {
	return t.Weekday() == time.Saturday || t.Weekday() == time.Sunday
}
