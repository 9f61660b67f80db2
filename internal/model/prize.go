package model

import "time"

// Prize is one weighted segment of the wheel.
type Prize struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Weight int    `json:"weight"`
	Color  string `json:"color"`
}

// PrizeDocument is the persisted prize catalog.
type PrizeDocument struct {
	Foods       []Prize   `json:"foods"`
	TotalWeight int       `json:"totalWeight"`
	LastUpdated time.Time `json:"lastUpdated"`
}

// TotalWeight sums the weights of prizes.
func TotalWeight(prizes []Prize) int {
	total := 0
	for _, p := range prizes {
		total += p.Weight
	}
	return total
}
