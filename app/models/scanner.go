// Package models defines scan run and scan result records.
package models

import "time"

type RunStatus string

const (
	RunRunning   RunStatus = "running"
	RunCompleted RunStatus = "completed"
	RunFailed    RunStatus = "failed"
	// RunMissing is never stored; it is reported when no record exists for a date.
	RunMissing RunStatus = "missing"
)

// ScanRun tracks one worker execution per trade date. The run_date column is
// unique, so there is at most one logical record per date.
type ScanRun struct {
	RunDate      string     `db:"run_date" json:"run_date"`
	Status       RunStatus  `db:"status" json:"status"`
	ErrorMessage *string    `db:"error_message" json:"error_message,omitempty"`
	StartedAt    time.Time  `db:"started_at" json:"started_at"`
	CompletedAt  *time.Time `db:"completed_at" json:"completed_at,omitempty"`
}

// ScanResult is one row per (trade date, symbol), produced entirely by the
// worker. A re-run for the same date overwrites that date's rows.
type ScanResult struct {
	TradeDate        string  `db:"trade_date" json:"trade_date"`
	Symbol           string  `db:"symbol" json:"symbol"`
	Close            float64 `db:"close" json:"close"`
	PriceChangePct   float64 `db:"price_change_pct" json:"price_change_pct"`
	Volume           int64   `db:"volume" json:"volume"`
	AvgVolume        float64 `db:"avg_volume" json:"avg_volume"`
	VolumeMultiplier float64 `db:"volume_multiplier" json:"volume_multiplier"`
	DeliveryPercent  float64 `db:"delivery_percent" json:"delivery_percent"`
	Score            float64 `db:"score" json:"score"`
	SignalTag        string  `db:"signal_tag" json:"signal_tag"`
	IsFnO            bool    `db:"is_fno" json:"is_fno"`
}

// ResultFilter holds the inclusive ranges applied by the results query.
// IsFnO is a tri-state: nil means no filter on that column.
type ResultFilter struct {
	MinDelivery float64
	MaxDelivery float64
	MinVolMult  float64
	MaxVolMult  float64
	MinPrice    float64
	MaxPrice    float64
	IsFnO       *bool
}

// DefaultResultFilter returns the widest filter the UI offers.
func DefaultResultFilter() ResultFilter {
	return ResultFilter{
		MinDelivery: 0,
		MaxDelivery: 100,
		MinVolMult:  0,
		MaxVolMult:  1000,
		MinPrice:    -100,
		MaxPrice:    100,
	}
}
