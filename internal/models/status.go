package models

// ParameterStatus is derived from a value against its configured ranges; never stored.
type ParameterStatus string

const (
	StatusOK      ParameterStatus = "ok"
	StatusWarning ParameterStatus = "warning"
	StatusAlert   ParameterStatus = "alert"
)

// Severity orders statuses: ok < warning < alert.
func (s ParameterStatus) Severity() int {
	switch s {
	case StatusWarning:
		return 1
	case StatusAlert:
		return 2
	default:
		return 0
	}
}

// Classify maps value to ok/warning/alert using the optimal band and its 15% critical margin.
func Classify(value float64, r ParameterRange) ParameterStatus {
	if !r.Critical().Contains(value) {
		return StatusAlert
	}
	if !r.Optimal.Contains(value) {
		return StatusWarning
	}
	return StatusOK
}

// Worst returns the most severe status of the given map (ok when empty).
func Worst(statuses map[string]ParameterStatus) ParameterStatus {
	worst := StatusOK
	for _, s := range statuses {
		if s.Severity() > worst.Severity() {
			worst = s
		}
	}
	return worst
}
