package analyzer

import (
	"math"

	"github.com/rxtech-lab/argo-sma/internal/types"
)

// SQN is the system quality number of the closed trades:
// sqrt(n) * mean(net pnl) / stddev(net pnl), using the population stddev.
type SQN struct {
	pnl []float64
}

func NewSQN() *SQN {
	return &SQN{pnl: []float64{}}
}

func (s *SQN) NotifyTrade(trade types.Trade) {
	if trade.IsClosed {
		s.pnl = append(s.pnl, trade.PnLComm)
	}
}

func (s *SQN) Next(_ float64) {}

func (s *SQN) Trades() int {
	return len(s.pnl)
}

// Value returns 0 with fewer than two trades or when every trade has the same pnl.
func (s *SQN) Value() float64 {
	n := len(s.pnl)
	if n < 2 {
		return 0
	}

	sum := 0.0
	for _, p := range s.pnl {
		sum += p
	}

	mean := sum / float64(n)

	variance := 0.0
	for _, p := range s.pnl {
		variance += (p - mean) * (p - mean)
	}

	stddev := math.Sqrt(variance / float64(n))
	if stddev == 0 {
		return 0
	}

	return math.Sqrt(float64(n)) * mean / stddev
}
