package model

type WonItem struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
}

type Stats struct {
	TotalCodes  int      `json:"totalCodes"`
	TotalSpins  int      `json:"totalSpins"`
	MostWonItem *WonItem `json:"mostWonItem"`
	Last24Hours int      `json:"last24Hours"`
	TotalFoods  int      `json:"totalFoods"`
}
