package models

// Operating modes of the installation.
const (
	ModeDemo       = "demo"
	ModeProduction = "production"
)

// IsMode reports whether m is a known mode literal.
func IsMode(m string) bool {
	return m == ModeDemo || m == ModeProduction
}

// criticalMarginRatio widens the optimal band on each side to form the alert band.
const criticalMarginRatio = 0.15

// Range is a closed numeric interval.
type Range struct {
	Min float64 `json:"min"`
	Max float64 `json:"max"`
}

func (r Range) Width() float64    { return r.Max - r.Min }
func (r Range) Midpoint() float64 { return (r.Min + r.Max) / 2 }

// Contains reports whether v lies inside the interval (inclusive).
func (r Range) Contains(v float64) bool { return v >= r.Min && v <= r.Max }

// ParameterRange is the per-parameter section of the config document.
type ParameterRange struct {
	Unit         string `json:"unit"`
	Description  string `json:"description"`
	Configurable Range  `json:"configurable"`
	Optimal      Range  `json:"optimal"`
}

// Critical returns the optimal range expanded by 15% of its width on each side.
func (p ParameterRange) Critical() Range {
	margin := p.Optimal.Width() * criticalMarginRatio
	return Range{Min: p.Optimal.Min - margin, Max: p.Optimal.Max + margin}
}

// Target is the value the correction loop steers toward.
func (p ParameterRange) Target() float64 { return p.Optimal.Midpoint() }

// ModeSettings carries the cadences used while a mode is active.
type ModeSettings struct {
	SamplingIntervalMs          int `json:"samplingIntervalMs"`
	DegradationIntervalMs       int `json:"degradationIntervalMs"`
	FilterDegradationIntervalMs int `json:"filterDegradationIntervalMs"`
}

// AppConfig is the persisted configuration document.
type AppConfig struct {
	Mode       string                    `json:"mode"`
	Parameters map[string]ParameterRange `json:"parameters"`
	Modes      map[string]ModeSettings   `json:"modes,omitempty"`
}

// ModeSettings returns the cadences of the given mode.
func (c AppConfig) ModeSettings(mode string) (ModeSettings, bool) {
	s, ok := c.Modes[mode]
	return s, ok
}

// Targets returns the optimal midpoint of every configured parameter.
func (c AppConfig) Targets() map[string]float64 {
	out := make(map[string]float64, len(c.Parameters))
	for name, p := range c.Parameters {
		out[name] = p.Target()
	}
	return out
}
