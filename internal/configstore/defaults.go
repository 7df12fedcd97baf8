package configstore

import "aquarium_wot/internal/models"

// Default is the hard-coded document used when the file is unusable.
func Default() models.AppConfig {
	return models.AppConfig{
		Mode: models.ModeDemo,
		Parameters: map[string]models.ParameterRange{
			models.ParamPH: {
				Unit:         "pH",
				Description:  "Acidity of the aquarium water",
				Configurable: models.Range{Min: 6.0, Max: 8.5},
				Optimal:      models.Range{Min: 6.5, Max: 7.5},
			},
			models.ParamTemperature: {
				Unit:         "°C",
				Description:  "Water temperature",
				Configurable: models.Range{Min: 20, Max: 30},
				Optimal:      models.Range{Min: 24, Max: 27},
			},
			models.ParamOxygenLevel: {
				Unit:         "mg/L",
				Description:  "Dissolved oxygen",
				Configurable: models.Range{Min: 4, Max: 10},
				Optimal:      models.Range{Min: 6, Max: 8},
			},
		},
		Modes: defaultModes(),
	}
}

func defaultModes() map[string]models.ModeSettings {
	return map[string]models.ModeSettings{
		models.ModeDemo: {
			SamplingIntervalMs:          3000,
			DegradationIntervalMs:       1000,
			FilterDegradationIntervalMs: 1000,
		},
		models.ModeProduction: {
			SamplingIntervalMs:          1800000,
			DegradationIntervalMs:       60000,
			FilterDegradationIntervalMs: 3600000,
		},
	}
}
