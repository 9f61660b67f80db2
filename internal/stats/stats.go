// Package stats aggregates spin activity across the code inventory.
package stats

import (
	"time"

	"github.com/dukerupert/foodwheel/internal/model"
)

const recentWindow = 24 * time.Hour

// Compute summarizes codes as of now. prizeCount is reported as TotalFoods.
// When several prizes share the highest win count, the one seen first while
// walking codes and their spins in order is reported.
func Compute(codes []model.RedemptionCode, prizeCount int, now time.Time) model.Stats {
	s := model.Stats{
		TotalCodes: len(codes),
		TotalFoods: prizeCount,
	}

	cutoff := now.Add(-recentWindow)
	counts := map[string]int{}
	var order []string

	for _, c := range codes {
		s.TotalSpins += c.UsedCount
		for _, spin := range c.Spins {
			if _, seen := counts[spin.WonItem]; !seen {
				order = append(order, spin.WonItem)
			}
			counts[spin.WonItem]++
			if spin.Timestamp.After(cutoff) {
				s.Last24Hours++
			}
		}
	}

	for _, name := range order {
		if s.MostWonItem == nil || counts[name] > s.MostWonItem.Count {
			s.MostWonItem = &model.WonItem{Name: name, Count: counts[name]}
		}
	}
	return s
}
