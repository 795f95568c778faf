package domain

// FlagRule is an operator-defined underwriting flag. The expression is
// a CEL boolean over the scored parameter set; when it evaluates true,
// Label is appended to the score result's flags.
type FlagRule struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`

	// Expression is a CEL boolean, e.g.
	// "utilization > 50.0 && missed_payments >= 2".
	Expression string `json:"expression"`

	// Label is the flag text emitted when the expression fires.
	Label string `json:"label"`

	Enabled bool `json:"enabled"`
}
