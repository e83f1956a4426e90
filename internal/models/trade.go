package models

import "gorm.io/gorm"

// Trade represents a simulated buy or sell of one metal.
type Trade struct {
	gorm.Model
	HistoryEntryID uint    `gorm:"index;not null" json:"-"`
	Symbol         string  `json:"symbol"`
	Type           string  `json:"type"`   // "BUY" or "SELL"
	Action         string  `json:"action"` // label of the action that caused the trade
	Price          float64 `json:"price"`
	Quantity       float64 `json:"quantity"`
	QuoteQuantity  float64 `json:"quote_quantity"`
}
