package database

import (
	"encoding/json"
	"fmt"

	"github.com/MADMAX-9999/reb20app/internal/config"
	"github.com/MADMAX-9999/reb20app/internal/market"
	"github.com/MADMAX-9999/reb20app/internal/models"
	"github.com/MADMAX-9999/reb20app/internal/simulation"
	"gorm.io/gorm"
)

// NewRun converts a valued simulation history into a persistable run.
func NewRun(cfg config.Simulation, currency string, policy simulation.PolicyConfig, valued []simulation.ValuedRecord) (*models.SimulationRun, error) {
	encoded, err := json.Marshal(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to encode policy: %w", err)
	}

	summary := simulation.Summarize(valued)
	run := &models.SimulationRun{
		Name:              cfg.Name,
		Currency:          currency,
		StartDate:         policy.Start,
		EndDate:           policy.End,
		InitialAmount:     policy.InitialAmount,
		InvestedCapital:   summary.InvestedCapital,
		MarketValue:       summary.MarketValue,
		RealValue:         summary.RealValue,
		Purchases:         summary.Purchases,
		Rebalances:        summary.Rebalances,
		SkippedRebalances: summary.SkippedRebalances,
		FeesRequested:     summary.FeesRequested,
		FeesCollected:     summary.FeesCollected,
		Policy:            string(encoded),
		Entries:           make([]models.HistoryEntry, 0, len(valued)),
	}

	for _, rec := range valued {
		entry := models.HistoryEntry{
			Date:            rec.Date,
			Label:           rec.Label(),
			InvestedCapital: rec.InvestedCapital,
			GoldGrams:       rec.Holdings[market.Gold],
			SilverGrams:     rec.Holdings[market.Silver],
			PlatinumGrams:   rec.Holdings[market.Platinum],
			PalladiumGrams:  rec.Holdings[market.Palladium],
			MarketValue:     rec.MarketValue,
			RealValue:       rec.RealValue,
		}
		for _, a := range rec.Actions {
			trades := a.Trades
			if a.Fee != nil {
				trades = a.Fee.Sales
			}
			for _, t := range trades {
				entry.Trades = append(entry.Trades, newTrade(a.Label(), t))
			}
		}
		run.Entries = append(run.Entries, entry)
	}
	return run, nil
}

func newTrade(action string, t simulation.Trade) models.Trade {
	side, grams := "BUY", t.Grams
	if grams < 0 {
		side, grams = "SELL", -grams
	}
	return models.Trade{
		Symbol:        t.Metal.String(),
		Type:          side,
		Action:        action,
		Price:         t.Price,
		Quantity:      grams,
		QuoteQuantity: t.Amount,
	}
}

// SaveRun stores a run with its history and trades in one transaction.
func SaveRun(db *gorm.DB, run *models.SimulationRun) error {
	err := db.Transaction(func(tx *gorm.DB) error {
		return tx.Create(run).Error
	})
	if err != nil {
		return fmt.Errorf("failed to save run %q: %w", run.Name, err)
	}
	return nil
}

// ListRuns returns all runs, most recent first, without their history.
func ListRuns(db *gorm.DB) ([]models.SimulationRun, error) {
	var runs []models.SimulationRun
	if err := db.Order("created_at desc").Find(&runs).Error; err != nil {
		return nil, fmt.Errorf("failed to list runs: %w", err)
	}
	return runs, nil
}

// GetRun returns a single run without its history.
func GetRun(db *gorm.DB, id uint) (*models.SimulationRun, error) {
	var run models.SimulationRun
	if err := db.First(&run, id).Error; err != nil {
		return nil, fmt.Errorf("failed to get run %d: %w", id, err)
	}
	return &run, nil
}

// RunHistory returns the history entries of a run in date order, with trades.
func RunHistory(db *gorm.DB, runID uint) ([]models.HistoryEntry, error) {
	var entries []models.HistoryEntry
	err := db.Preload("Trades").
		Where("simulation_run_id = ?", runID).
		Order("date asc, id asc").
		Find(&entries).Error
	if err != nil {
		return nil, fmt.Errorf("failed to get history of run %d: %w", runID, err)
	}
	return entries, nil
}
