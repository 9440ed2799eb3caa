package types

// PositionState is the strategy's view of its market exposure. There is no short side.
type PositionState string

const (
	PositionFlat PositionState = "FLAT"
	PositionLong PositionState = "LONG"
)

// Position is the broker's holding for one symbol.
type Position struct {
	Symbol       string  `yaml:"symbol" json:"symbol"`
	Quantity     float64 `yaml:"quantity" json:"quantity"`
	AveragePrice float64 `yaml:"average_price" json:"average_price"`
}

func (p Position) IsFlat() bool {
	return p.Quantity == 0
}
