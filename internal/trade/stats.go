package trade

import (
	"math"

	"github.com/vireo-trade/tradecore/internal/candle"
	"github.com/vireo-trade/tradecore/internal/instrument"
	"github.com/vireo-trade/tradecore/internal/mathutil"
)

// Stats is the aggregated performance snapshot (spec §3 StrategyStats).
type Stats struct {
	Trades           int     `json:"trades"`
	WiningTrades     int     `json:"wining_trades"`
	LosingTrades     int     `json:"losing_trades"`
	WonPerTradePer   float64 `json:"won_per_trade_per"`
	LostPerTradePer  float64 `json:"lost_per_trade_per"`
	StopLosses       int     `json:"stop_losses"`
	GrossProfit      float64 `json:"gross_profit"`
	Commissions      float64 `json:"commissions"`
	NetProfit        float64 `json:"net_profit"`
	NetProfitPer     float64 `json:"net_profit_per"`
	ProfitableTrades float64 `json:"profitable_trades"`
	ProfitFactor     float64 `json:"profit_factor"`
	MaxRunup         float64 `json:"max_runup"`
	MaxDrawdown      float64 `json:"max_drawdown"`
	BuyHold          float64 `json:"buy_hold"`
	AnnualReturn     float64 `json:"annual_return"`
}

// UpdateTradeStats recomputes the closing side of a trade once
// ExecuteTradeOut arrives (spec §4.4). It preserves the documented
// quirk that SpreadOut is copied from the entry's spread rather than
// recomputed, and run_up/draw_down scan the candle high/low series
// between IndexIn and IndexOut.
func UpdateTradeStats(tradeIn In, tradeOut Out, data []candle.Candle) Out {
	sign := tradeIn.TradeType.Sign()
	if sign == 0 {
		sign = 1
	}

	out := tradeOut
	out.IndexIn = tradeIn.IndexIn
	out.PriceIn = tradeIn.PriceIn
	out.DateIn = tradeIn.DateIn
	out.SpreadIn = tradeIn.Spread
	out.SpreadOut = tradeIn.Spread // documented quirk, spec §4.4/§9

	if out.PriceIn != 0 {
		out.Profit = (out.PriceOut - out.PriceIn) * tradeIn.Quantity * sign
		out.ProfitPer = 100 * (out.PriceOut/out.PriceIn - 1) * sign
	}

	runUp, runUpPer, drawDown, drawDownPer := excursion(data, out.IndexIn, out.IndexOut, out.PriceIn, sign)
	out.RunUp, out.RunUpPer = runUp, runUpPer
	out.DrawDown, out.DrawDownPer = drawDown, drawDownPer

	return out
}

func excursion(data []candle.Candle, indexIn, indexOut int, priceIn float64, sign float64) (runUp, runUpPer, drawDown, drawDownPer float64) {
	if indexIn < 0 || indexOut > len(data) || indexIn >= indexOut || priceIn == 0 {
		return 0, 0, 0, 0
	}
	maxFavorable, maxAdverse := 0.0, 0.0
	for i := indexIn; i < indexOut && i < len(data); i++ {
		favorable := (data[i].High - priceIn) * sign
		adverse := (priceIn - data[i].Low) * sign
		if favorable > maxFavorable {
			maxFavorable = favorable
		}
		if adverse > maxAdverse {
			maxAdverse = adverse
		}
	}
	runUp = maxFavorable
	drawDown = maxAdverse
	runUpPer = 100 * maxFavorable / priceIn
	drawDownPer = 100 * maxAdverse / priceIn
	return
}

// UpdateStats recomputes the full StrategyStats snapshot from the
// trade history (spec §4.4). Mirrors the original's quirks: drawdown
// is multiplied by 10 for Forex instruments only, and annual_return is
// a fixed constant rather than a computed figure — both carried over
// deliberately (spec §9 design notes).
func UpdateStats(in *instrument.Instrument, tradesIn []In, tradesOut []Out, equity, commission float64) Stats {
	if len(tradesOut) == 0 {
		return Stats{}
	}

	wins, losses := 0, 0
	stopLosses := 0
	grossProfit := 0.0
	wonSum, lostSum := 0.0, 0.0
	maxRunup, maxDrawdown := 0.0, 0.0

	for _, t := range tradesOut {
		if t.Profit >= 0 {
			wins++
			wonSum += t.ProfitPer
		} else {
			losses++
			lostSum += t.ProfitPer
		}
		if t.TradeType.IsStop() {
			stopLosses++
		}
		grossProfit += t.Profit
		if t.RunUp > maxRunup {
			maxRunup = t.RunUp
		}
		if t.DrawDown > maxDrawdown {
			maxDrawdown = t.DrawDown
		}
	}

	commissions := commission * float64(len(tradesOut))
	netProfit := grossProfit - commissions
	netProfitPer := 0.0
	if equity != 0 {
		netProfitPer = 100 * netProfit / equity
	}

	wonPerTradePer, lostPerTradePer := 0.0, 0.0
	if wins > 0 {
		wonPerTradePer = wonSum / float64(wins)
	}
	if losses > 0 {
		lostPerTradePer = lostSum / float64(losses)
	}

	profitFactor := 0.0
	if lostSum != 0 {
		profitFactor = math.Abs(wonSum / lostSum)
	}

	if in.Market == instrument.MarketForex {
		maxDrawdown *= 10
	}

	buyHold := 0.0
	if len(in.Data) > 0 && len(tradesIn) > 0 {
		firstCandle := in.Data[0]
		lastCandle := in.Data[len(in.Data)-1]
		firstTrade := tradesIn[0]
		buyHold = firstCandle.Open + math.Ceil(firstTrade.PriceIn*firstTrade.Quantity) + lastCandle.Close
	}

	return Stats{
		Trades:           len(tradesOut),
		WiningTrades:     wins,
		LosingTrades:     losses,
		WonPerTradePer:   mathutil.Round(wonPerTradePer, 2),
		LostPerTradePer:  mathutil.Round(lostPerTradePer, 2),
		StopLosses:       stopLosses,
		GrossProfit:      grossProfit,
		Commissions:      commissions,
		NetProfit:        netProfit,
		NetProfitPer:     mathutil.Round(netProfitPer, 2),
		ProfitableTrades: mathutil.Round(100*float64(wins)/float64(len(tradesOut)), 2),
		ProfitFactor:     mathutil.Round(profitFactor, 4),
		MaxRunup:         maxRunup,
		MaxDrawdown:      maxDrawdown,
		BuyHold:          buyHold,
		AnnualReturn:     100, // quirk carried over verbatim, spec §9
	}
}

// ThereAreFunds is the strategy-level circuit breaker (spec §4.2,
// "there_are_funds"): refuses new entries once cumulative realized
// return across closed trades drops below -90%.
func ThereAreFunds(tradesOut []Out) bool {
	profit := 0.0
	for _, t := range tradesOut {
		profit += t.ProfitPer
	}
	return profit > -90
}
