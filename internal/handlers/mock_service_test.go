package handlers

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"

	"aquarium_wot/internal/models"
	"aquarium_wot/internal/service"
)

// ---- Service Mocks ----

type mockWater struct {
	state     models.WaterParameterSet
	readErr   error
	writeErr  error
	degrading bool

	lastWriteName  string
	lastWriteValue float64
	startCalls     int
	stopCalls      int
}

func (m *mockWater) Read(ctx context.Context) (models.WaterParameterSet, error) {
	return m.state, m.readErr
}
func (m *mockWater) Write(ctx context.Context, name string, v float64) (models.WriteResult, error) {
	m.lastWriteName = name
	m.lastWriteValue = v
	if m.writeErr != nil {
		return models.WriteResult{}, m.writeErr
	}
	if !models.IsParameter(name) {
		return models.WriteResult{}, service.ErrUnknownParameter
	}
	stored := models.ClampParameter(name, v)
	m.state.Set(name, stored)
	return models.WriteResult{Success: true, Value: stored}, nil
}
func (m *mockWater) StartDegradation(ctx context.Context) error {
	m.startCalls++
	m.degrading = true
	return nil
}
func (m *mockWater) StopDegradation(ctx context.Context) error {
	m.stopCalls++
	m.degrading = false
	return nil
}
func (m *mockWater) DegradationActive() bool { return m.degrading }

type mockPump struct {
	state       models.PumpState
	cleaningErr error
	cleaning    bool

	lastSpeed     int
	setSpeedCalls int
}

func (m *mockPump) State(ctx context.Context) (models.PumpState, error) { return m.state, nil }
func (m *mockPump) SetSpeed(ctx context.Context, percent int) models.PumpState {
	m.setSpeedCalls++
	m.lastSpeed = percent
	m.state.PumpSpeed = models.ClampSpeed(percent)
	return m.state
}
func (m *mockPump) TriggerCleaning(ctx context.Context) (bool, error) {
	if m.cleaningErr != nil {
		return false, m.cleaningErr
	}
	if m.cleaning {
		return false, nil
	}
	m.cleaning = true
	m.state.FilterStatus = models.FilterCleaning
	return true, nil
}

type mockActuator struct {
	state     models.ActuatorState
	lastSpeed int
}

func (m *mockActuator) State() models.ActuatorState { return m.state }
func (m *mockActuator) SetSpeed(ctx context.Context, percent int) models.ActuatorState {
	m.lastSpeed = percent
	m.state.PumpSpeed = models.ClampSpeed(percent)
	m.state.Running = m.state.PumpSpeed > 0
	return m.state
}

type mockSensor struct {
	reading    models.SensorReading
	cfg        models.AppConfig
	intervalMs int
	samples    []models.Sample
	historyErr error
	modeErr    error
	configErr  error

	lastLimit    int
	lastInterval int
}

func (m *mockSensor) Snapshot() models.SensorReading { return m.reading }
func (m *mockSensor) Config() models.AppConfig       { return m.cfg }
func (m *mockSensor) Mode() string                   { return m.cfg.Mode }
func (m *mockSensor) SamplingInterval() time.Duration {
	return time.Duration(m.intervalMs) * time.Millisecond
}
func (m *mockSensor) SetSamplingInterval(ctx context.Context, ms int) (int, bool) {
	m.lastInterval = ms
	if ms < service.MinSamplingIntervalMs || ms > service.MaxSamplingIntervalMs {
		m.intervalMs = service.MinSamplingIntervalMs
		return m.intervalMs, true
	}
	m.intervalMs = ms
	return ms, false
}
func (m *mockSensor) ApplyMode(ctx context.Context, mode string) error {
	if m.modeErr != nil {
		return m.modeErr
	}
	m.cfg.Mode = mode
	return nil
}
func (m *mockSensor) UpdateConfig(ctx context.Context, cfg models.AppConfig) error {
	if m.configErr != nil {
		return m.configErr
	}
	m.cfg = cfg
	return nil
}
func (m *mockSensor) History(ctx context.Context, limit int) ([]models.Sample, error) {
	m.lastLimit = limit
	return m.samples, m.historyErr
}

type mockEventLog struct {
	resp      []models.ThingEvent
	err       error
	lastFrom  time.Time
	lastTo    time.Time
	lastType  string
	lastThing string
}

func (m *mockEventLog) List(ctx context.Context, f service.LogFilter) ([]models.ThingEvent, error) {
	m.lastFrom = f.From
	m.lastTo = f.To
	m.lastType = f.Type
	m.lastThing = f.Thing
	return m.resp, m.err
}

// mockEvents hands out one channel per subscriber; publish fans out to all.
type mockEvents struct {
	mu   sync.Mutex
	subs []chan models.ThingEvent
}

func (m *mockEvents) Subscribe(buffer int) (<-chan models.ThingEvent, func()) {
	ch := make(chan models.ThingEvent, buffer)
	m.mu.Lock()
	m.subs = append(m.subs, ch)
	m.mu.Unlock()
	return ch, func() {}
}

func (m *mockEvents) subscribers() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.subs)
}

func (m *mockEvents) publish(e models.ThingEvent) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, ch := range m.subs {
		ch <- e
	}
}

type mockStatus struct {
	status service.SystemStatus
}

func (m *mockStatus) Status(ctx context.Context) service.SystemStatus { return m.status }

var errBoom = errors.New("boom")

// ---- Shared Test Helpers ----

func init() {
	gin.SetMode(gin.TestMode)
}

func newTestRouter(s *service.Service) *gin.Engine {
	return newTestRouterWithMetrics(s, nil)
}

func newTestRouterWithMetrics(s *service.Service, g prometheus.Gatherer) *gin.Engine {
	h := NewHandler(s, nil, g)
	return h.InitRoutes()
}

func doJSON(r http.Handler, method, path, body string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	r.ServeHTTP(w, req)
	return w
}
