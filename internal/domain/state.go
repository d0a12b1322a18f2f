package domain

// State is a starbase fuelling state, ordered by increasing urgency.
type State string

const (
	// StateUnknown is only ever a previous-state placeholder for
	// starbases with no persisted record; the classifier never
	// produces it.
	StateUnknown State = "unknown"
	StateGood    State = "good"
	StateWarning State = "warning"
	StateDanger  State = "danger"
)

// Thresholds are the classification breakpoints in days of fuel left.
// DangerDays is expected to be <= WarningDays; config validates this.
type Thresholds struct {
	DangerDays  float64
	WarningDays float64
}

// Classify maps days of fuel remaining to a state. Both boundaries are
// inclusive: exactly DangerDays of fuel is still danger.
func (t Thresholds) Classify(daysRemaining float64) State {
	switch {
	case daysRemaining <= t.DangerDays:
		return StateDanger
	case daysRemaining <= t.WarningDays:
		return StateWarning
	default:
		return StateGood
	}
}
