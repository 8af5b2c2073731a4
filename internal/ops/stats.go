package ops

import (
	"context"

	"github.com/hpungsan/mull/internal/db"
	"github.com/hpungsan/mull/internal/errors"
)

// StatsInput contains parameters for the Stats operation.
type StatsInput struct {
	// Recent is the number of recently read messages to include.
	Recent int
}

// StatsOutput summarizes the triage ledger.
type StatsOutput struct {
	Categories []db.CategoryCount `json:"categories"`
	Recent     []db.Triage        `json:"recent"`
	Total      int                `json:"total"`
}

// Stats reports how read messages were classified.
func Stats(ctx context.Context, deps *Deps, input StatsInput) (*StatsOutput, error) {
	if deps.DB == nil {
		return nil, errors.NewNotConfigured("triage ledger")
	}

	recent := input.Recent
	if recent <= 0 {
		recent = DefaultRecent
	}
	if recent > MaxRecentLedger {
		recent = MaxRecentLedger
	}

	counts, err := db.CategoryCounts(ctx, deps.DB)
	if err != nil {
		return nil, err
	}
	rows, err := db.RecentTriage(ctx, deps.DB, recent)
	if err != nil {
		return nil, err
	}

	out := &StatsOutput{Categories: counts, Recent: rows}
	if out.Recent == nil {
		out.Recent = []db.Triage{}
	}
	for _, c := range counts {
		out.Total += c.Messages
	}
	return out, nil
}
