package collector

import "EngulfSentinel/internal/model"

// Aggregate rolls bars up into buckets of tf, aligned with time.Truncate. Input must be oldest-first.
func Aggregate(bars []model.OHLCV, tf model.Timeframe) []model.OHLCV {
	step := tf.Duration()
	if len(bars) == 0 || step == 0 {
		return nil
	}
	var out []model.OHLCV
	var cur model.OHLCV
	var started bool

	for _, b := range bars {
		bucket := b.Time.Truncate(step)
		if !started || !bucket.Equal(cur.Time) {
			if started {
				out = append(out, cur)
			}
			cur = model.OHLCV{Time: bucket, Open: b.Open, High: b.High, Low: b.Low, Close: b.Close, Volume: b.Volume}
			started = true
			continue
		}
		if b.High > cur.High {
			cur.High = b.High
		}
		if b.Low < cur.Low {
			cur.Low = b.Low
		}
		cur.Close = b.Close
		cur.Volume += b.Volume
	}
	if started {
		out = append(out, cur)
	}
	return out
}

