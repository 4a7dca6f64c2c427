package bot

import (
	"encoding/json"
	"time"

	"github.com/vireo-trade/tradecore/internal/candle"
	"github.com/vireo-trade/tradecore/internal/instrument"
	"github.com/vireo-trade/tradecore/internal/trade"
)

// CommandType enumerates the bot -> server command set (spec §6).
type CommandType string

const (
	CommandInitSession          CommandType = "InitSession"
	CommandGetInstrumentData    CommandType = "GetInstrumentData"
	CommandGetInstrumentPricing CommandType = "GetInstrumentPricing"
	CommandSubscribeStream      CommandType = "SubscribeStream"
	CommandExecutePosition      CommandType = "ExecutePosition"
	CommandUpdateBotData        CommandType = "UpdateBotData"
)

// Command is the bot -> server wire envelope (spec §6): {"command":
// <CommandType>, "data": <payload>}.
type Command struct {
	Command CommandType     `json:"command"`
	Data    json.RawMessage `json:"data,omitempty"`
}

// ResponseType enumerates the server -> bot response set (spec §6).
type ResponseType string

const (
	ResponseConnected       ResponseType = "Connected"
	ResponseInitSession     ResponseType = "InitSession"
	ResponseInstrumentData  ResponseType = "InstrumentData"
	ResponsePricingData     ResponseType = "PricingData"
	ResponseStreamResponse  ResponseType = "StreamResponse"
	ResponseExecuteTradeIn  ResponseType = "ExecuteTradeIn"
	ResponseExecuteTradeOut ResponseType = "ExecuteTradeOut"
	ResponseReconnect       ResponseType = "Reconnect"
	ResponseError           ResponseType = "Error"
)

// Response is the server -> bot wire envelope (spec §6): {"response":
// <ResponseType>, "payload": <data>}.
type Response struct {
	Response ResponseType    `json:"response"`
	Payload  json.RawMessage `json:"payload,omitempty"`
}

// InitSessionRequest carries the bot's identity so the server can hash
// it to a uuid and look up (or create) its persisted snapshot.
type InitSessionRequest struct {
	Symbol          string               `json:"symbol"`
	StrategyName    string               `json:"strategy_name"`
	TimeFrame       instrument.TimeFrame `json:"time_frame"`
	HigherTimeFrame instrument.TimeFrame `json:"higher_time_frame,omitempty"`
	StrategyType    string               `json:"strategy_type"`
}

// GetInstrumentDataRequest asks the server for historical candles of a
// given time-frame (base or higher).
type GetInstrumentDataRequest struct {
	Symbol    string               `json:"symbol"`
	TimeFrame instrument.TimeFrame `json:"time_frame"`
}

// InstrumentDataPayload is the server's response to
// GetInstrumentDataRequest.
type InstrumentDataPayload struct {
	TimeFrame instrument.TimeFrame `json:"time_frame"`
	Data      []candle.Candle      `json:"data"`
}

// PricingPayload mirrors spec §3 Pricing/Tick.
type PricingPayload struct {
	Ask       float64 `json:"ask"`
	Bid       float64 `json:"bid"`
	High      float64 `json:"high"`
	Low       float64 `json:"low"`
	Volume    float64 `json:"volume"`
	Spread    float64 `json:"spread"`
	Timestamp int64   `json:"timestamp"`
}

func (p PricingPayload) Tick() candle.Tick {
	return candle.Tick{
		Ask:       p.Ask,
		Bid:       p.Bid,
		High:      p.High,
		Low:       p.Low,
		Volume:    p.Volume,
		Timestamp: time.UnixMilli(p.Timestamp).UTC(),
	}
}

// SubscribeStreamRequest asks the server to add this session to the
// {symbol}_{time_frame} room (spec §4.5 room routing).
type SubscribeStreamRequest struct {
	Symbol    string               `json:"symbol"`
	TimeFrame instrument.TimeFrame `json:"time_frame"`
	Strategy  string               `json:"strategy"`
	StrategyType string            `json:"strategy_type"`
}

// StreamResponsePayload is one inbound market-data tick (spec §4.1).
type StreamResponsePayload struct {
	Ask       float64 `json:"ask"`
	Bid       float64 `json:"bid"`
	High      float64 `json:"high"`
	Low       float64 `json:"low"`
	Close     float64 `json:"close"`
	Volume    float64 `json:"volume"`
	Timestamp int64   `json:"timestamp"`
}

func (s StreamResponsePayload) Tick() candle.Tick {
	return candle.Tick{
		Ask: s.Ask, Bid: s.Bid, High: s.High, Low: s.Low, Close: s.Close, Volume: s.Volume,
		Timestamp: time.UnixMilli(s.Timestamp).UTC(),
	}
}

// ExecutePositionRequest is the bot's intent to execute a trade
// (spec §4.1: "Send ExecutePosition").
type ExecutePositionRequest struct {
	Kind     trade.PositionKind `json:"kind"`
	TradeIn  *trade.In          `json:"trade_in,omitempty"`
	TradeOut *trade.Out         `json:"trade_out,omitempty"`
	Orders   []trade.Order      `json:"orders,omitempty"`
}

// ReconnectPayload instructs the bot to re-run its startup handshake
// (spec §4.1 Failure semantics, S3).
type ReconnectPayload struct {
	CleanData bool `json:"clean_data"`
}

// ErrorPayload carries a server-side error message (spec §7).
type ErrorPayload struct {
	Message string `json:"message"`
}

func marshal(v any) json.RawMessage {
	b, err := json.Marshal(v)
	if err != nil {
		return json.RawMessage(`{}`)
	}
	return b
}
