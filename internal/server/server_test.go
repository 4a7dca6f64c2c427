package server

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/require"
	"github.com/vireo-trade/tradecore/internal/bot"
	"github.com/vireo-trade/tradecore/internal/broker"
	"github.com/vireo-trade/tradecore/internal/instrument"
	"github.com/vireo-trade/tradecore/internal/logger"
	"github.com/vireo-trade/tradecore/internal/store"
	"github.com/vireo-trade/tradecore/internal/trade"
)

func TestSplitRoomRoundTripsRoomKey(t *testing.T) {
	room := roomKey("EURUSD", instrument.M5)
	symbol, tf := splitRoom(room)
	require.Equal(t, "EURUSD", symbol)
	require.Equal(t, instrument.M5, tf)
}

func TestRoomsSubscribeUnsubscribe(t *testing.T) {
	r := newRooms()
	id := uuid.New()
	r.subscribe("EURUSD_M5", id)
	require.Len(t, r.snapshot("EURUSD_M5"), 1)
	r.unsubscribe("EURUSD_M5", id)
	require.Empty(t, r.snapshot("EURUSD_M5"))
}

func TestToPositionCarriesTradeInOut(t *testing.T) {
	in := trade.In{ID: "t1"}
	req := bot.ExecutePositionRequest{Kind: trade.PositionMarketIn, TradeIn: &in}
	pos := toPosition(req)
	require.Equal(t, "t1", pos.TradeIn.ID)
}

func TestInitSessionRoundTripsOverWebsocket(t *testing.T) {
	srv := New(broker.NewPaper(1.1, 0.0002), store.NewMemStore(), logger.New(&logger.Config{Format: "text"}), 0)
	ts := httptest.NewServer(http.HandlerFunc(srv.HandleWS))
	defer ts.Close()

	wsURL := "ws" + strings.TrimPrefix(ts.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.NoError(t, err)
	defer conn.Close()

	var connected bot.Response
	require.NoError(t, conn.ReadJSON(&connected))
	require.Equal(t, bot.ResponseConnected, connected.Response)

	req := bot.InitSessionRequest{Symbol: "EURUSD", StrategyName: "NumBars", TimeFrame: instrument.M5, StrategyType: "OnlyLong"}
	data, err := json.Marshal(req)
	require.NoError(t, err)
	cmd := bot.Command{Command: bot.CommandInitSession, Data: data}
	require.NoError(t, conn.WriteJSON(cmd))

	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var resp bot.Response
	require.NoError(t, conn.ReadJSON(&resp))
	require.Equal(t, bot.ResponseInitSession, resp.Response)
}
