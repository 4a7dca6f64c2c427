// Package csvdata implements the historical CSV reader contract (spec
// §1 Non-goals names it as an external collaborator "specified only at
// its contract"; §4.6/§6 pin down the exact format and aggregation
// rule this package must follow).
package csvdata

import (
	"bufio"
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/vireo-trade/tradecore/internal/candle"
	"github.com/vireo-trade/tradecore/internal/instrument"
)

// row is one parsed CSV line: `date(YYYYMMDD HHMMSS); open; high; low;
// close; volume` (spec §6 "Historical CSV format").
type row struct {
	date   time.Time
	open   float64
	high   float64
	low    float64
	close  float64
	volume float64
}

const dateLayout = "20060102 150405"

// Read parses a `;`-delimited, headerless historical CSV stream and
// aggregates it into tf-sized candles per the round-down bucketing
// rule (spec §4.6/§6, round-trip property R3): within a bucket, open
// is the first row's open, close the last row's close, high/low the
// bucket extremes, volume the bucket sum.
func Read(r io.Reader, tf instrument.TimeFrame) ([]candle.Candle, error) {
	scanner := bufio.NewScanner(r)
	var rows []row
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		rw, err := parseRow(line)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", lineNo, err)
		}
		rows = append(rows, rw)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read csv: %w", err)
	}

	sort.Slice(rows, func(i, j int) bool { return rows[i].date.Before(rows[j].date) })
	return aggregate(rows, tf), nil
}

func parseRow(line string) (row, error) {
	fields := strings.Split(line, ";")
	if len(fields) != 6 {
		return row{}, fmt.Errorf("expected 6 fields, got %d", len(fields))
	}
	for i := range fields {
		fields[i] = strings.TrimSpace(fields[i])
	}

	date, err := time.Parse(dateLayout, fields[0])
	if err != nil {
		return row{}, fmt.Errorf("parse date %q: %w", fields[0], err)
	}
	values := make([]float64, 5)
	for i, f := range fields[1:] {
		v, err := strconv.ParseFloat(f, 64)
		if err != nil {
			return row{}, fmt.Errorf("parse field %d (%q): %w", i+1, f, err)
		}
		values[i] = v
	}
	return row{date: date.UTC(), open: values[0], high: values[1], low: values[2], close: values[3], volume: values[4]}, nil
}

// aggregate buckets rows by tf.RoundDown(date), producing one closed
// candle per bucket in chronological order (spec R3).
func aggregate(rows []row, tf instrument.TimeFrame) []candle.Candle {
	if len(rows) == 0 {
		return nil
	}

	var candles []candle.Candle
	var bucketStart time.Time
	var cur candle.Candle
	open := false

	flush := func() {
		if open {
			cur.IsClosed = true
			cur.CandleType = candle.Classify(cur, candles)
			candles = append(candles, cur)
		}
	}

	for _, r := range rows {
		b := tf.RoundDown(r.date)
		if !open || !b.Equal(bucketStart) {
			flush()
			bucketStart = b
			cur = candle.Candle{Date: b, Open: r.open, High: r.high, Low: r.low, Close: r.close, Volume: r.volume}
			open = true
			continue
		}
		if r.high > cur.High {
			cur.High = r.high
		}
		if r.low < cur.Low {
			cur.Low = r.low
		}
		cur.Close = r.close
		cur.Volume += r.volume
	}
	flush()
	return candles
}
