package report

import (
	"fmt"
	"io"
	"strconv"

	"github.com/rxtech-lab/argo-sma/internal/types"
)

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', 2, 64)
}

// PrintTradeAnalysis writes the trade counts, streaks and net pnl as two header/value row pairs.
func PrintTradeAnalysis(w io.Writer, analysis types.TradeAnalysis) error {
	if _, err := fmt.Fprintln(w, "Trade Analysis Results:"); err != nil {
		return err
	}

	return PrintTable(w,
		[]string{"Total Open", "Total Closed", "Total Won", "Total Lost"},
		[]string{
			strconv.Itoa(analysis.Open),
			strconv.Itoa(analysis.Closed),
			strconv.Itoa(analysis.Won),
			strconv.Itoa(analysis.Lost),
		},
		[]string{"Strike Rate", "Win Streak", "Losing Streak", "PnL Net"},
		[]string{
			formatFloat(analysis.StrikeRate()),
			strconv.Itoa(analysis.WinStreak.Longest),
			strconv.Itoa(analysis.LoseStreak.Longest),
			formatFloat(analysis.Net.Total),
		},
	)
}

func PrintSQN(w io.Writer, sqn float64) error {
	_, err := fmt.Fprintf(w, "SQN: %.2f\n", sqn)

	return err
}

func PrintDrawDown(w io.Writer, result types.DrawDownResult) error {
	if _, err := fmt.Fprintln(w, "Drawdown:"); err != nil {
		return err
	}

	return PrintTable(w,
		[]string{"Drawdown", "Moneydown", "Length"},
		[]string{formatFloat(result.DrawDown), formatFloat(result.MoneyDown), strconv.Itoa(result.Length)},
		[]string{"Max Drawdown", "Max Moneydown", "Max Length"},
		[]string{formatFloat(result.MaxDrawDown), formatFloat(result.MaxMoneyDown), strconv.Itoa(result.MaxLength)},
	)
}

// PrintStats writes the complete end-of-run report for one backtest.
func PrintStats(w io.Writer, stats types.TradeStats) error {
	if _, err := fmt.Fprintf(w, "Starting Portfolio Value: %.2f\n", stats.InitialCapital); err != nil {
		return err
	}

	if _, err := fmt.Fprintf(w, "Final Portfolio Value: %.2f\n", stats.FinalValue); err != nil {
		return err
	}

	if err := PrintTradeAnalysis(w, stats.TradeAnalysis); err != nil {
		return err
	}

	if err := PrintSQN(w, stats.SQN); err != nil {
		return err
	}

	return PrintDrawDown(w, stats.DrawDown)
}
