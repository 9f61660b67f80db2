package model

// Validation is the public answer to "can this code still spin".
type Validation struct {
	Valid    bool   `json:"valid"`
	Message  string `json:"message"`
	WonPrize string `json:"wonPrize,omitempty"`
}
