// Package optimization provides shared data structures for optimization results.
package optimization

// Summary captures the result of one down payment search.
type Summary struct {
	Field          string   `json:"field"`
	Original       float64  `json:"original"`
	Value          float64  `json:"value"`
	TargetPayment  float64  `json:"target_payment"`
	Payment        float64  `json:"payment"`
	Headroom       float64  `json:"headroom"`
	Iterations     int      `json:"iterations"`
	Converged      bool     `json:"converged"`
	Notes          []string `json:"notes,omitempty"`
	ValueDisplay   string   `json:"value_display,omitempty"`
	PaymentDisplay string   `json:"payment_display,omitempty"`
}
