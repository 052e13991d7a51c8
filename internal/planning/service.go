// Package planning serves purchase planning: what to buy for the menus of a
// date range, and registering those purchases.
package planning

import (
	"time"

	"catering-backend/internal/needs"

	"gorm.io/gorm"
)

// BuildPlan aggregates the menus dated in [from, to] per insumo and returns
// the purchase suggestions, optionally limited to one reason.
func BuildPlan(db *gorm.DB, from, to time.Time, reason needs.Reason) ([]needs.Suggestion, error) {
	lines, err := needs.LoadLines(db, from, to)
	if err != nil {
		return nil, err
	}
	cat, err := needs.LoadCatalog(db)
	if err != nil {
		return nil, err
	}
	agg, err := needs.Aggregate(lines, cat, needs.ByInsumo)
	if err != nil {
		return nil, err
	}
	return needs.Plan(agg, cat, reason), nil
}
