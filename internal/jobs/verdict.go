package jobs

import "time"

// Verdict labels recognized from the model output. Anything else is recorded
// as VerdictUnknown with the raw response preserved.
const (
	VerdictYes     = "yes"
	VerdictNo      = "no"
	VerdictMaybe   = "maybe"
	VerdictUnknown = "unknown"
)

// Verdict is the model's suitability judgment for one posting.
type Verdict struct {
	Key           string    `json:"key"`
	Label         string    `json:"label"`
	YearsRequired string    `json:"years_required,omitempty"`
	Reasoning     string    `json:"reasoning,omitempty"`
	Raw           string    `json:"raw,omitempty"`
	EvaluatedAt   time.Time `json:"evaluated_at"`
}

// ValidLabel reports whether the label belongs to the fixed verdict
// vocabulary produced by the evaluator.
func ValidLabel(label string) bool {
	switch label {
	case VerdictYes, VerdictNo, VerdictMaybe, VerdictUnknown:
		return true
	}
	return false
}
