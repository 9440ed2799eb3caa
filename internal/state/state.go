// Package state keeps the order and trade ledger of a run in an in-memory
// DuckDB database and exports it as parquet and csv.
package state

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	"github.com/Masterminds/squirrel"
	_ "github.com/marcboeker/go-duckdb"
	"github.com/moznion/go-optional"
	"github.com/rxtech-lab/argo-sma/internal/logger"
	"github.com/rxtech-lab/argo-sma/internal/types"
	"github.com/rxtech-lab/argo-sma/internal/utils"
	"github.com/rxtech-lab/argo-sma/pkg/errors"
	"go.uber.org/zap"
)

var orderColumns = []string{
	"order_id", "symbol", "side", "order_type", "quantity", "status", "reason", "strategy_name", "created_at",
	"executed_price", "executed_qty", "executed_value", "commission", "executed_at",
}

var tradeColumns = []string{
	"trade_id", "symbol", "quantity", "entry_price", "exit_price", "entry_commission", "exit_commission",
	"opened_at", "closed_at", "bar_open", "bar_close", "pnl", "pnl_comm", "is_closed",
}

// State is the order and trade ledger. Orders are keyed by id and hold their
// latest status; trades are keyed by id and hold their latest snapshot.
type State struct {
	db     *sql.DB
	logger *logger.Logger
	sq     squirrel.StatementBuilderType
}

func NewState(log *logger.Logger) (*State, error) {
	db, err := sql.Open("duckdb", ":memory:")
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeBacktestInitFailed, "failed to open database", err)
	}

	if log == nil {
		log = logger.NewNopLogger()
	}

	return &State{
		db:     db,
		logger: log,
		sq:     squirrel.StatementBuilder.PlaceholderFormat(squirrel.Question),
	}, nil
}

// Initialize creates the orders and trades tables.
func (s *State) Initialize() error {
	_, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS orders (
			order_id TEXT PRIMARY KEY,
			symbol TEXT,
			side TEXT,
			order_type TEXT,
			quantity DOUBLE,
			status TEXT,
			reason TEXT,
			strategy_name TEXT,
			created_at TIMESTAMP,
			executed_price DOUBLE,
			executed_qty DOUBLE,
			executed_value DOUBLE,
			commission DOUBLE,
			executed_at TIMESTAMP
		)
	`)
	if err != nil {
		return fmt.Errorf("failed to create orders table: %w", err)
	}

	_, err = s.db.Exec(`
		CREATE TABLE IF NOT EXISTS trades (
			trade_id TEXT PRIMARY KEY,
			symbol TEXT,
			quantity DOUBLE,
			entry_price DOUBLE,
			exit_price DOUBLE,
			entry_commission DOUBLE,
			exit_commission DOUBLE,
			opened_at TIMESTAMP,
			closed_at TIMESTAMP,
			bar_open INTEGER,
			bar_close INTEGER,
			pnl DOUBLE,
			pnl_comm DOUBLE,
			is_closed BOOLEAN
		)
	`)
	if err != nil {
		return fmt.Errorf("failed to create trades table: %w", err)
	}

	return nil
}

// Update records order and trade notifications in a single transaction.
func (s *State) Update(orders []types.Order, trades []types.Trade) error {
	if len(orders) == 0 && len(trades) == 0 {
		return nil
	}

	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	for _, order := range orders {
		_, err = s.sq.
			Insert("orders").
			Options("OR REPLACE").
			Columns(orderColumns...).
			Values(
				order.OrderID, order.Symbol, string(order.Side), string(order.OrderType), order.Quantity,
				string(order.Status), order.Reason, order.StrategyName, order.CreatedAt,
				order.Executed.Price, order.Executed.Quantity, order.Executed.Value, order.Executed.Commission,
				order.Executed.ExecutedAt,
			).
			RunWith(tx).
			Exec()
		if err != nil {
			_ = tx.Rollback()

			return errors.Wrapf(errors.ErrCodeQueryFailed, err, "failed to insert order %s", order.OrderID)
		}
	}

	for _, trade := range trades {
		_, err = s.sq.
			Insert("trades").
			Options("OR REPLACE").
			Columns(tradeColumns...).
			Values(
				trade.TradeID, trade.Symbol, trade.Quantity, trade.EntryPrice, trade.ExitPrice,
				trade.EntryCommission, trade.ExitCommission, trade.OpenedAt, trade.ClosedAt,
				trade.BarOpen, trade.BarClose, trade.PnL, trade.PnLComm, trade.IsClosed,
			).
			RunWith(tx).
			Exec()
		if err != nil {
			_ = tx.Rollback()

			return errors.Wrapf(errors.ErrCodeQueryFailed, err, "failed to insert trade %s", trade.TradeID)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	return nil
}

func scanOrder(rows squirrel.RowScanner) (types.Order, error) {
	var order types.Order

	err := rows.Scan(
		&order.OrderID, &order.Symbol, &order.Side, &order.OrderType, &order.Quantity,
		&order.Status, &order.Reason, &order.StrategyName, &order.CreatedAt,
		&order.Executed.Price, &order.Executed.Quantity, &order.Executed.Value, &order.Executed.Commission,
		&order.Executed.ExecutedAt,
	)

	return order, err
}

// GetAllOrders returns every order ordered by creation time.
func (s *State) GetAllOrders() ([]types.Order, error) {
	rows, err := s.sq.
		Select(orderColumns...).
		From("orders").
		OrderBy("created_at ASC", "order_id ASC").
		RunWith(s.db).
		Query()
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeQueryFailed, "failed to query orders", err)
	}
	defer rows.Close()

	orders := []types.Order{}

	for rows.Next() {
		order, err := scanOrder(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan order: %w", err)
		}

		orders = append(orders, order)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating orders: %w", err)
	}

	return orders, nil
}

// GetOrderByID returns the latest snapshot of the order, or None.
func (s *State) GetOrderByID(orderID string) (optional.Option[types.Order], error) {
	row := s.sq.
		Select(orderColumns...).
		From("orders").
		Where(squirrel.Eq{"order_id": orderID}).
		RunWith(s.db).
		QueryRow()

	order, err := scanOrder(row)
	if err == sql.ErrNoRows {
		return optional.None[types.Order](), nil
	}

	if err != nil {
		return optional.None[types.Order](), errors.Wrap(errors.ErrCodeQueryFailed, "failed to query order", err)
	}

	return optional.Some(order), nil
}

// GetAllTrades returns every trade ordered by open time.
func (s *State) GetAllTrades() ([]types.Trade, error) {
	rows, err := s.sq.
		Select(tradeColumns...).
		From("trades").
		OrderBy("opened_at ASC", "trade_id ASC").
		RunWith(s.db).
		Query()
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeQueryFailed, "failed to query trades", err)
	}
	defer rows.Close()

	trades := []types.Trade{}

	for rows.Next() {
		var trade types.Trade

		err := rows.Scan(
			&trade.TradeID, &trade.Symbol, &trade.Quantity, &trade.EntryPrice, &trade.ExitPrice,
			&trade.EntryCommission, &trade.ExitCommission, &trade.OpenedAt, &trade.ClosedAt,
			&trade.BarOpen, &trade.BarClose, &trade.PnL, &trade.PnLComm, &trade.IsClosed,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan trade: %w", err)
		}

		trades = append(trades, trade)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating trades: %w", err)
	}

	return trades, nil
}

// CountOrdersByStatus returns the number of orders whose latest status is status.
func (s *State) CountOrdersByStatus(status types.OrderStatus) (int, error) {
	var count int

	err := s.sq.
		Select("COUNT(*)").
		From("orders").
		Where(squirrel.Eq{"status": string(status)}).
		RunWith(s.db).
		QueryRow().
		Scan(&count)
	if err != nil {
		return 0, errors.Wrap(errors.ErrCodeQueryFailed, "failed to count orders", err)
	}

	return count, nil
}

// GetTotalFees returns the commission paid on completed orders.
func (s *State) GetTotalFees() (float64, error) {
	var total float64

	err := s.sq.
		Select("COALESCE(SUM(commission), 0)").
		From("orders").
		Where(squirrel.Eq{"status": string(types.OrderStatusCompleted)}).
		RunWith(s.db).
		QueryRow().
		Scan(&total)
	if err != nil {
		return 0, errors.Wrap(errors.ErrCodeQueryFailed, "failed to sum fees", err)
	}

	return total, nil
}

// Cleanup drops and recreates the tables.
func (s *State) Cleanup() error {
	_, err := s.db.Exec(`
		DROP TABLE IF EXISTS trades;
		DROP TABLE IF EXISTS orders;
	`)
	if err != nil {
		return fmt.Errorf("failed to cleanup tables: %w", err)
	}

	return s.Initialize()
}

// Write exports the ledger to trades.parquet, orders.parquet and trades.csv under path.
func (s *State) Write(path string) error {
	if err := os.MkdirAll(path, 0755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}

	tradesPath := filepath.Join(path, TradesParquetFile)

	_, err := s.db.Exec(fmt.Sprintf(`COPY trades TO %s (FORMAT PARQUET)`, utils.QuoteSQLString(tradesPath)))
	if err != nil {
		return fmt.Errorf("failed to export trades to Parquet: %w", err)
	}

	ordersPath := filepath.Join(path, OrdersParquetFile)

	_, err = s.db.Exec(fmt.Sprintf(`COPY orders TO %s (FORMAT PARQUET)`, utils.QuoteSQLString(ordersPath)))
	if err != nil {
		return fmt.Errorf("failed to export orders to Parquet: %w", err)
	}

	if err := s.WriteTradesCSV(filepath.Join(path, TradesCSVFile)); err != nil {
		return err
	}

	s.logger.Debug("exported run ledger",
		zap.String("trades", tradesPath),
		zap.String("orders", ordersPath),
	)

	return nil
}

func (s *State) Close() error {
	return s.db.Close()
}
