package models

import (
	"time"

	"gorm.io/gorm"
)

// SimulationRun is one persisted simulation with its headline figures.
type SimulationRun struct {
	gorm.Model
	Name              string    `gorm:"index" json:"name"`
	Currency          string    `json:"currency"`
	StartDate         time.Time `json:"start_date"`
	EndDate           time.Time `json:"end_date"`
	InitialAmount     float64   `json:"initial_amount"`
	InvestedCapital   float64   `json:"invested_capital"`
	MarketValue       float64   `json:"market_value"`
	RealValue         float64   `json:"real_value"`
	Purchases         int       `json:"purchases"`
	Rebalances        int       `json:"rebalances"`
	SkippedRebalances int       `json:"skipped_rebalances"`
	FeesRequested     float64   `json:"fees_requested"`
	FeesCollected     float64   `json:"fees_collected"`
	// Policy is the JSON encoded simulation configuration of the run.
	Policy  string         `json:"policy"`
	Entries []HistoryEntry `gorm:"constraint:OnDelete:CASCADE" json:"-"`
}

// HistoryEntry is one record of a run's sparse history.
type HistoryEntry struct {
	gorm.Model
	SimulationRunID uint      `gorm:"index;not null" json:"run_id"`
	Date            time.Time `gorm:"index" json:"date"`
	Label           string    `json:"label"`
	InvestedCapital float64   `json:"invested_capital"`
	GoldGrams       float64   `json:"gold_grams"`
	SilverGrams     float64   `json:"silver_grams"`
	PlatinumGrams   float64   `json:"platinum_grams"`
	PalladiumGrams  float64   `json:"palladium_grams"`
	MarketValue     float64   `json:"market_value"`
	RealValue       float64   `json:"real_value"`
	Trades          []Trade   `gorm:"constraint:OnDelete:CASCADE" json:"trades,omitempty"`
}
