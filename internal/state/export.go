package state

import (
	"fmt"
	"os"
	"time"

	"github.com/gocarina/gocsv"
)

const (
	TradesParquetFile = "trades.parquet"
	OrdersParquetFile = "orders.parquet"
	TradesCSVFile     = "trades.csv"
)

// TradeRow is the csv shape of a trade.
type TradeRow struct {
	TradeID    string  `csv:"trade_id"`
	Symbol     string  `csv:"symbol"`
	Quantity   float64 `csv:"quantity"`
	EntryPrice float64 `csv:"entry_price"`
	ExitPrice  float64 `csv:"exit_price"`
	Commission float64 `csv:"commission"`
	OpenedAt   string  `csv:"opened_at"`
	ClosedAt   string  `csv:"closed_at"`
	PnL        float64 `csv:"pnl"`
	PnLComm    float64 `csv:"pnl_comm"`
	IsClosed   bool    `csv:"is_closed"`
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}

	return t.UTC().Format(time.RFC3339)
}

// WriteTradesCSV writes every trade to path as csv.
func (s *State) WriteTradesCSV(path string) error {
	trades, err := s.GetAllTrades()
	if err != nil {
		return err
	}

	rows := make([]*TradeRow, 0, len(trades))
	for _, trade := range trades {
		rows = append(rows, &TradeRow{
			TradeID:    trade.TradeID,
			Symbol:     trade.Symbol,
			Quantity:   trade.Quantity,
			EntryPrice: trade.EntryPrice,
			ExitPrice:  trade.ExitPrice,
			Commission: trade.Commission(),
			OpenedAt:   formatTime(trade.OpenedAt),
			ClosedAt:   formatTime(trade.ClosedAt),
			PnL:        trade.PnL,
			PnLComm:    trade.PnLComm,
			IsClosed:   trade.IsClosed,
		})
	}

	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	defer file.Close()

	if err := gocsv.MarshalFile(&rows, file); err != nil {
		return fmt.Errorf("failed to write trades csv: %w", err)
	}

	return nil
}
