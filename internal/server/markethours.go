package server

import (
	"strings"
	"time"

	"github.com/vireo-trade/tradecore/internal/instrument"
)

// MarketHours gates the heartbeat's dead-session rule (spec §4.5,
// scenario S3): "session.market_hours.is_open()" in the original
// heart_beat.rs decides whether a stale session is reconnected or left
// idle. Crypto trades continuously; forex/stock follow the standard
// week, closed from Friday 22:00 UTC through Sunday 22:00 UTC.
type MarketHours struct {
	Market instrument.Market
}

// IsOpen reports whether this session's market is trading at now.
func (m MarketHours) IsOpen(now time.Time) bool {
	if m.Market == instrument.MarketCrypto {
		return true
	}
	now = now.UTC()
	switch now.Weekday() {
	case time.Saturday:
		return false
	case time.Sunday:
		return now.Hour() >= 22
	case time.Friday:
		return now.Hour() < 22
	default:
		return true
	}
}

// marketHoursForSymbol infers the asset class from the wire symbol:
// the InitSession handshake (spec §6) does not carry an explicit
// market field, so crypto pairs are recognized by their quote/base
// tickers and everything else defaults to forex (the common case for
// both reference strategies).
func marketHoursForSymbol(symbol string) MarketHours {
	upper := strings.ToUpper(symbol)
	for _, ticker := range []string{"BTC", "ETH", "SOL", "USDT", "USDC"} {
		if strings.Contains(upper, ticker) {
			return MarketHours{Market: instrument.MarketCrypto}
		}
	}
	return MarketHours{Market: instrument.MarketForex}
}
