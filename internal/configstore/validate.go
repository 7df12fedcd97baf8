package configstore

import (
	"encoding/json"
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/xeipuuv/gojsonschema"

	"aquarium_wot/internal/models"
)

// ValidationError lists every problem found in a rejected document.
type ValidationError struct {
	Problems []string
}

func (e *ValidationError) Error() string {
	return "invalid config: " + strings.Join(e.Problems, "; ")
}

// documentSchema is the structural contract of the persisted document.
const documentSchema = `{
  "$schema": "http://json-schema.org/draft-07/schema#",
  "type": "object",
  "required": ["mode", "parameters"],
  "properties": {
    "mode": {"type": "string", "enum": ["demo", "production"]},
    "parameters": {
      "type": "object",
      "required": ["pH", "temperature", "oxygenLevel"],
      "additionalProperties": {"$ref": "#/definitions/parameter"}
    },
    "modes": {
      "type": "object",
      "additionalProperties": {"$ref": "#/definitions/modeSettings"}
    }
  },
  "definitions": {
    "range": {
      "type": "object",
      "required": ["min", "max"],
      "properties": {
        "min": {"type": "number"},
        "max": {"type": "number"}
      }
    },
    "parameter": {
      "type": "object",
      "required": ["configurable", "optimal"],
      "properties": {
        "unit": {"type": "string"},
        "description": {"type": "string"},
        "configurable": {"$ref": "#/definitions/range"},
        "optimal": {"$ref": "#/definitions/range"}
      }
    },
    "modeSettings": {
      "type": "object",
      "required": ["samplingIntervalMs"],
      "properties": {
        "samplingIntervalMs": {"type": "integer", "minimum": 1},
        "degradationIntervalMs": {"type": "integer", "minimum": 0},
        "filterDegradationIntervalMs": {"type": "integer", "minimum": 0}
      }
    }
  }
}`

var compiledSchema = mustCompileSchema()

func mustCompileSchema() *gojsonschema.Schema {
	s, err := gojsonschema.NewSchema(gojsonschema.NewStringLoader(documentSchema))
	if err != nil {
		panic(fmt.Sprintf("configstore: compile document schema: %v", err))
	}
	return s
}

// Validate checks cfg structurally and semantically.
func Validate(cfg models.AppConfig) error {
	// NaN/Inf cannot be marshaled, so finiteness is checked first.
	if err := validateFinite(cfg); err != nil {
		return err
	}
	raw, err := json.Marshal(cfg)
	if err != nil {
		return &ValidationError{Problems: []string{err.Error()}}
	}
	if err := validateDocument(raw); err != nil {
		return err
	}
	return validateSemantics(cfg)
}

// validateDocument runs the JSON schema over a raw document.
func validateDocument(raw []byte) error {
	result, err := compiledSchema.Validate(gojsonschema.NewBytesLoader(raw))
	if err != nil {
		return &ValidationError{Problems: []string{fmt.Sprintf("malformed document: %v", err)}}
	}
	if result.Valid() {
		return nil
	}
	problems := make([]string, 0, len(result.Errors()))
	for _, desc := range result.Errors() {
		problems = append(problems, fmt.Sprintf("%s: %s", desc.Field(), desc.Description()))
	}
	return &ValidationError{Problems: problems}
}

func validateFinite(cfg models.AppConfig) error {
	var problems []string
	for _, name := range sortedKeys(cfg.Parameters) {
		p := cfg.Parameters[name]
		for label, v := range map[string]float64{
			"configurable.min": p.Configurable.Min,
			"configurable.max": p.Configurable.Max,
			"optimal.min":      p.Optimal.Min,
			"optimal.max":      p.Optimal.Max,
		} {
			if math.IsNaN(v) || math.IsInf(v, 0) {
				problems = append(problems, fmt.Sprintf("%s.%s must be finite", name, label))
			}
		}
	}
	if len(problems) > 0 {
		sort.Strings(problems)
		return &ValidationError{Problems: problems}
	}
	return nil
}

// validateSemantics checks ordering and nesting of the ranges.
func validateSemantics(cfg models.AppConfig) error {
	var problems []string
	if !models.IsMode(cfg.Mode) {
		problems = append(problems, fmt.Sprintf("mode %q is not demo or production", cfg.Mode))
	}
	for _, name := range models.Parameters {
		if _, ok := cfg.Parameters[name]; !ok {
			problems = append(problems, fmt.Sprintf("parameter %s is required", name))
		}
	}
	for _, name := range sortedKeys(cfg.Parameters) {
		p := cfg.Parameters[name]
		if !(p.Configurable.Min < p.Configurable.Max) {
			problems = append(problems, fmt.Sprintf("%s: configurable.min must be < configurable.max", name))
		}
		if !(p.Optimal.Min < p.Optimal.Max) {
			problems = append(problems, fmt.Sprintf("%s: optimal.min must be < optimal.max", name))
		}
		if p.Optimal.Min < p.Configurable.Min || p.Optimal.Max > p.Configurable.Max {
			problems = append(problems, fmt.Sprintf("%s: optimal range must lie within configurable range", name))
		}
	}
	if _, ok := cfg.Modes[cfg.Mode]; len(cfg.Modes) > 0 && !ok && models.IsMode(cfg.Mode) {
		problems = append(problems, fmt.Sprintf("modes: missing settings for active mode %s", cfg.Mode))
	}
	if len(problems) > 0 {
		return &ValidationError{Problems: problems}
	}
	return nil
}

func sortedKeys(m map[string]models.ParameterRange) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
