package app

import (
	"context"

	"capsule/internal/domain"

	"go.uber.org/zap"
)

// BackfillReport summarises one unit backfill pass.
type BackfillReport struct {
	Scanned    int `json:"scanned"`
	Backfilled int `json:"backfilled"`
	Failed     int `json:"failed"`
	Remaining  int `json:"remaining"`
}

// BackfillUnits marks every unit with no recorded suitability flag as
// rentable, then re-reads the units to count any still missing it. Per-unit
// failures are logged and counted, never returned.
func BackfillUnits(ctx context.Context, units domain.UnitRepository, logger *zap.Logger) (BackfillReport, error) {
	var report BackfillReport
	all, err := units.GetUnits(ctx)
	if err != nil {
		return report, err
	}
	report.Scanned = len(all)

	rentable := true
	for _, u := range all {
		if u.ToRent != nil {
			continue
		}
		if _, err := units.UpdateUnit(ctx, u.Number, domain.UnitPatch{ToRent: &rentable}); err != nil {
			logger.Warn("backfill unit failed", zap.String("unit", u.Number), zap.Error(err))
			report.Failed++
			continue
		}
		report.Backfilled++
	}

	after, err := units.GetUnits(ctx)
	if err != nil {
		return report, err
	}
	for _, u := range after {
		if u.ToRent == nil {
			report.Remaining++
		}
	}
	if report.Remaining > 0 {
		logger.Warn("units still missing toRent after backfill", zap.Int("count", report.Remaining))
	}
	logger.Info("unit backfill complete",
		zap.Int("scanned", report.Scanned),
		zap.Int("backfilled", report.Backfilled),
		zap.Int("failed", report.Failed),
	)
	return report, nil
}
