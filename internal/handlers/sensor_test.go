package handlers

import (
	"encoding/json"
	"net/http"
	"testing"
	"time"

	"aquarium_wot/internal/configstore"
	"aquarium_wot/internal/models"
	"aquarium_wot/internal/service"
)

func newMockSensor() *mockSensor {
	return &mockSensor{
		reading: models.SensorReading{
			Values: models.WaterParameterSet{PH: 8.9, Temperature: 25, OxygenLevel: 7},
			Statuses: map[string]models.ParameterStatus{
				models.ParamPH:          models.StatusAlert,
				models.ParamTemperature: models.StatusOK,
				models.ParamOxygenLevel: models.StatusOK,
			},
			OverallStatus: models.StatusAlert,
		},
		cfg:        configstore.Default(),
		intervalMs: 3000,
	}
}

func TestSensor_Properties(t *testing.T) {
	sensor := newMockSensor()
	r := newTestRouter(&service.Service{Sensor: sensor})

	cases := []struct {
		name string
		want interface{}
	}{
		{"pH", 8.9},
		{"pHStatus", string(models.StatusAlert)},
		{"temperatureStatus", string(models.StatusOK)},
		{"overallStatus", string(models.StatusAlert)},
		{"mode", models.ModeDemo},
		{"samplingIntervalMs", float64(3000)},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			w := doJSON(r, http.MethodGet, "/api/v1/sensor/properties/"+tc.name, "")
			if w.Code != http.StatusOK {
				t.Fatalf("status=%d", w.Code)
			}
			var out map[string]interface{}
			_ = json.Unmarshal(w.Body.Bytes(), &out)
			if out[tc.name] != tc.want {
				t.Fatalf("got %v (%T), want %v", out[tc.name], out[tc.name], tc.want)
			}
		})
	}

	w := doJSON(r, http.MethodGet, "/api/v1/sensor/properties/allParameters", "")
	var all struct {
		AllParameters models.SensorReading `json:"allParameters"`
	}
	_ = json.Unmarshal(w.Body.Bytes(), &all)
	if all.AllParameters.Values.PH != 8.9 || all.AllParameters.OverallStatus != models.StatusAlert {
		t.Fatalf("unexpected allParameters: %s", w.Body.String())
	}

	if w := doJSON(r, http.MethodGet, "/api/v1/sensor/properties/turbidity", ""); w.Code != http.StatusNotFound {
		t.Fatalf("unknown property status=%d", w.Code)
	}
}

func TestSensor_PutMode(t *testing.T) {
	cases := []struct {
		name    string
		body    string
		modeErr error
		code    int
	}{
		{"production", `{"value": "production"}`, nil, http.StatusOK},
		{"invalid mode", `{"value": "turbo"}`, configstore.ErrInvalidMode, http.StatusBadRequest},
		{"empty body", `{}`, nil, http.StatusBadRequest},
		{"store failure", `{"value": "demo"}`, errBoom, http.StatusInternalServerError},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			sensor := newMockSensor()
			sensor.modeErr = tc.modeErr
			r := newTestRouter(&service.Service{Sensor: sensor})
			w := doJSON(r, http.MethodPut, "/api/v1/sensor/properties/mode", tc.body)
			if w.Code != tc.code {
				t.Fatalf("status=%d, want %d, body=%s", w.Code, tc.code, w.Body.String())
			}
		})
	}
}

func TestSensor_PutConfig(t *testing.T) {
	t.Run("accepted", func(t *testing.T) {
		sensor := newMockSensor()
		r := newTestRouter(&service.Service{Sensor: sensor})
		cfg := configstore.Default()
		cfg.Mode = models.ModeProduction
		body, _ := json.Marshal(map[string]interface{}{"value": cfg})

		w := doJSON(r, http.MethodPut, "/api/v1/sensor/properties/config", string(body))
		if w.Code != http.StatusOK {
			t.Fatalf("status=%d body=%s", w.Code, w.Body.String())
		}
		if sensor.cfg.Mode != models.ModeProduction {
			t.Fatalf("config not forwarded: %+v", sensor.cfg)
		}
	})

	t.Run("rejected document", func(t *testing.T) {
		sensor := newMockSensor()
		sensor.configErr = &configstore.ValidationError{Problems: []string{"pH: optimal.min must be < optimal.max"}}
		r := newTestRouter(&service.Service{Sensor: sensor})

		w := doJSON(r, http.MethodPut, "/api/v1/sensor/properties/config", `{"value": {"mode": "demo"}}`)
		if w.Code != http.StatusUnprocessableEntity {
			t.Fatalf("status=%d", w.Code)
		}
		var out struct {
			Problems []string `json:"problems"`
		}
		_ = json.Unmarshal(w.Body.Bytes(), &out)
		if len(out.Problems) != 1 {
			t.Fatalf("problems not returned: %s", w.Body.String())
		}
	})

	t.Run("missing value", func(t *testing.T) {
		r := newTestRouter(&service.Service{Sensor: newMockSensor()})
		if w := doJSON(r, http.MethodPut, "/api/v1/sensor/properties/config", `{}`); w.Code != http.StatusBadRequest {
			t.Fatalf("status=%d", w.Code)
		}
	})
}

func TestSensor_PutSamplingInterval(t *testing.T) {
	cases := []struct {
		name        string
		body        string
		wantApplied int
		wantClamped bool
	}{
		{"accepted", `{"value": 60000}`, 60000, false},
		{"below floor", `{"value": 100}`, 3000, true},
		{"above ceiling", `{"value": 1800001}`, 3000, true},
		{"huge", `{"value": 1e20}`, 3000, true},
		{"fraction rounds up", `{"value": 3000.9}`, 3001, false},
		{"fraction rounds down", `{"value": 4500.4}`, 4500, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			sensor := newMockSensor()
			r := newTestRouter(&service.Service{Sensor: sensor})
			w := doJSON(r, http.MethodPut, "/api/v1/sensor/properties/samplingIntervalMs", tc.body)
			if w.Code != http.StatusOK {
				t.Fatalf("status=%d", w.Code)
			}
			var out struct {
				Applied int  `json:"samplingIntervalMs"`
				Clamped bool `json:"clamped"`
			}
			_ = json.Unmarshal(w.Body.Bytes(), &out)
			if out.Applied != tc.wantApplied || out.Clamped != tc.wantClamped {
				t.Fatalf("got %+v", out)
			}
		})
	}
}

func TestSensor_History(t *testing.T) {
	now := time.Now().UTC()
	sensor := newMockSensor()
	sensor.samples = []models.Sample{{ID: 2, SampledAt: now}, {ID: 1, SampledAt: now.Add(-time.Second)}}
	r := newTestRouter(&service.Service{Sensor: sensor})

	w := doJSON(r, http.MethodGet, "/api/v1/sensor/history", "")
	if w.Code != http.StatusOK || sensor.lastLimit != defaultHistoryLimit {
		t.Fatalf("status=%d limit=%d", w.Code, sensor.lastLimit)
	}
	var out struct {
		Count   int             `json:"count"`
		Samples []models.Sample `json:"samples"`
	}
	_ = json.Unmarshal(w.Body.Bytes(), &out)
	if out.Count != 2 || out.Samples[0].ID != 2 {
		t.Fatalf("unexpected response: %+v", out)
	}

	doJSON(r, http.MethodGet, "/api/v1/sensor/history?limit=5000", "")
	if sensor.lastLimit != maxHistoryLimit {
		t.Fatalf("limit not capped: %d", sensor.lastLimit)
	}

	if w := doJSON(r, http.MethodGet, "/api/v1/sensor/history?limit=-3", ""); w.Code != http.StatusBadRequest {
		t.Fatalf("negative limit status=%d", w.Code)
	}

	sensor.historyErr = errBoom
	if w := doJSON(r, http.MethodGet, "/api/v1/sensor/history", ""); w.Code != http.StatusInternalServerError {
		t.Fatalf("repo failure status=%d", w.Code)
	}
}
