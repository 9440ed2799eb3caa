package types

import "time"

type IntentType string

const (
	// IntentEnterLong asks the order sink to buy while flat.
	IntentEnterLong IntentType = "ENTER_LONG"
	// IntentExitToFlat asks the order sink to sell the long position.
	IntentExitToFlat IntentType = "EXIT_TO_FLAT"
)

// Intent is the position change the signal engine emitted for a bar.
type Intent struct {
	Type    IntentType `yaml:"type" json:"type"`
	Symbol  string     `yaml:"symbol" json:"symbol"`
	Time    time.Time  `yaml:"time" json:"time"`
	Close   float64    `yaml:"close" json:"close"`
	Average float64    `yaml:"average" json:"average"`
	// OrderID is the id of the order submitted for this intent.
	OrderID string `yaml:"order_id" json:"order_id"`
}
