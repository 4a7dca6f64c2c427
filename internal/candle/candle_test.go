package candle

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestNextWidensHighLowAndAccumulatesVolume(t *testing.T) {
	c := New(time.Unix(0, 0), Tick{Close: 1.1000})
	closesAt := time.Unix(0, 0).Add(time.Minute)

	c.Next(Tick{High: 1.1050, Low: 1.0990, Close: 1.1020, Volume: 5}, closesAt)
	assert.Equal(t, 1.1050, c.High)
	assert.Equal(t, 1.0990, c.Low)
	assert.Equal(t, 1.1020, c.Close)
	assert.Equal(t, 5.0, c.Volume)
	assert.False(t, c.IsClosed)

	c.Next(Tick{High: 1.1010, Low: 1.1000, Close: 1.1005, Volume: 2, Timestamp: closesAt}, closesAt)
	assert.True(t, c.IsClosed, "candle must close once wall clock reaches the bar boundary")
	assert.Equal(t, 7.0, c.Volume)
}

func TestClassifyThreeInRow(t *testing.T) {
	bull := func(o, c float64) Candle { return Candle{Open: o, Close: c} }
	prev := []Candle{bull(1, 2), bull(2, 3)}
	got := Classify(bull(3, 4), prev)
	assert.Equal(t, TypeThreeInRow, got)

	bear := func(o, c float64) Candle { return Candle{Open: o, Close: c} }
	prevBear := []Candle{bear(3, 2), bear(2, 1)}
	gotBear := Classify(bear(1, 0), prevBear)
	assert.Equal(t, TypeBearishThreeInRow, gotBear)
}
