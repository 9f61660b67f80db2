package model

import "time"

// SpinRecord is appended to a code's history on every successful spin.
type SpinRecord struct {
	Timestamp time.Time `json:"timestamp"`
	WonItem   string    `json:"wonItem"`
	IPAddress string    `json:"ipAddress"`
	UserAgent string    `json:"userAgent"`
}

// RedemptionCode grants up to MaxSpins spins. UsedCount always equals
// len(Spins).
type RedemptionCode struct {
	Code      string       `json:"code"`
	Name      string       `json:"name"`
	CreatedAt time.Time    `json:"createdAt"`
	MaxSpins  int          `json:"maxSpins"`
	UsedCount int          `json:"usedCount"`
	Spins     []SpinRecord `json:"spins"`
}

// Exhausted reports whether the code has no spins left.
func (c *RedemptionCode) Exhausted() bool {
	return c.UsedCount >= c.MaxSpins
}

// FirstWin returns the prize name of the first recorded spin, if any.
func (c *RedemptionCode) FirstWin() (string, bool) {
	if len(c.Spins) == 0 {
		return "", false
	}
	return c.Spins[0].WonItem, true
}

// CodesDocument is the persisted code inventory.
type CodesDocument struct {
	Codes []RedemptionCode `json:"codes"`
}

// Find returns a pointer into d.Codes for the exact token, or nil.
func (d *CodesDocument) Find(code string) *RedemptionCode {
	for i := range d.Codes {
		if d.Codes[i].Code == code {
			return &d.Codes[i]
		}
	}
	return nil
}
