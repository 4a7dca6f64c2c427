package instrument

import "time"

// TimeFrame is a bar size: M1, M5, M15, M30, H1, H4, D, W, M.
type TimeFrame string

const (
	M1  TimeFrame = "M1"
	M5  TimeFrame = "M5"
	M15 TimeFrame = "M15"
	M30 TimeFrame = "M30"
	H1  TimeFrame = "H1"
	H4  TimeFrame = "H4"
	D1  TimeFrame = "D"
	W1  TimeFrame = "W"
	MN1 TimeFrame = "M"
)

// Duration returns the bar's wall-clock span.
func (tf TimeFrame) Duration() time.Duration {
	switch tf {
	case M1:
		return time.Minute
	case M5:
		return 5 * time.Minute
	case M15:
		return 15 * time.Minute
	case M30:
		return 30 * time.Minute
	case H1:
		return time.Hour
	case H4:
		return 4 * time.Hour
	case D1:
		return 24 * time.Hour
	case W1:
		return 7 * 24 * time.Hour
	case MN1:
		return 30 * 24 * time.Hour
	default:
		return time.Minute
	}
}

// RoundDown buckets a timestamp to the start of its time-frame window,
// per spec §4.6's historical CSV rounding rule: M5/M15/M30 subtract the
// minute remainder, H1 zeroes minute/second/nanos, H4 floors the hour to
// a multiple of 4.
func (tf TimeFrame) RoundDown(ts time.Time) time.Time {
	ts = ts.UTC()
	switch tf {
	case M1:
		return ts.Truncate(time.Minute)
	case M5:
		return truncateMinutes(ts, 5)
	case M15:
		return truncateMinutes(ts, 15)
	case M30:
		return truncateMinutes(ts, 30)
	case H1:
		return time.Date(ts.Year(), ts.Month(), ts.Day(), ts.Hour(), 0, 0, 0, time.UTC)
	case H4:
		hour := (ts.Hour() / 4) * 4
		return time.Date(ts.Year(), ts.Month(), ts.Day(), hour, 0, 0, 0, time.UTC)
	case D1:
		return time.Date(ts.Year(), ts.Month(), ts.Day(), 0, 0, 0, 0, time.UTC)
	default:
		return ts.Truncate(time.Minute)
	}
}

func truncateMinutes(ts time.Time, step int) time.Time {
	minute := (ts.Minute() / step) * step
	return time.Date(ts.Year(), ts.Month(), ts.Day(), ts.Hour(), minute, 0, 0, time.UTC)
}

// Market is the asset class an Instrument trades in. It gates the
// Forex-only drawdown x10 convention (spec §4.4/§9).
type Market int

const (
	MarketForex Market = iota
	MarketCrypto
	MarketStock
)

func (m Market) String() string {
	switch m {
	case MarketForex:
		return "forex"
	case MarketCrypto:
		return "crypto"
	case MarketStock:
		return "stock"
	default:
		return "unknown"
	}
}
