package client

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"aquarium_wot/internal/models"
)

func TestWaterHTTP_ReadWriteActions(t *testing.T) {
	t.Parallel()

	var gotPaths []string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPaths = append(gotPaths, r.Method+" "+r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		switch {
		case r.Method == http.MethodGet && r.URL.Path == "/api/v1/water/properties":
			_ = json.NewEncoder(w).Encode(models.WaterParameterSet{PH: 7.4, Temperature: 25, OxygenLevel: 6.5})
		case r.Method == http.MethodPut && r.URL.Path == "/api/v1/water/properties/pH":
			var body struct {
				Value float64 `json:"value"`
			}
			_ = json.NewDecoder(r.Body).Decode(&body)
			_ = json.NewEncoder(w).Encode(models.WriteResult{Success: true, Value: body.Value})
		case r.Method == http.MethodPost:
			_, _ = w.Write([]byte(`{"status":"ok"}`))
		default:
			w.WriteHeader(http.StatusNotFound)
			_, _ = w.Write([]byte(`{"error":"not found"}`))
		}
	}))
	defer srv.Close()

	c := NewWaterHTTP(srv.URL+"/", time.Second)
	ctx := context.Background()

	ws, err := c.Read(ctx)
	require.NoError(t, err)
	assert.Equal(t, 7.4, ws.PH)

	res, err := c.Write(ctx, models.ParamPH, 7.1)
	require.NoError(t, err)
	assert.True(t, res.Success)
	assert.Equal(t, 7.1, res.Value)

	require.NoError(t, c.StartDegradation(ctx))
	require.NoError(t, c.StopDegradation(ctx))

	assert.Equal(t, []string{
		"GET /api/v1/water/properties",
		"PUT /api/v1/water/properties/pH",
		"POST /api/v1/water/actions/startDegradation",
		"POST /api/v1/water/actions/stopDegradation",
	}, gotPaths)
}

func TestWaterHTTP_ErrorStatus(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"error":"unknown parameter"}`))
	}))
	defer srv.Close()

	_, err := NewWaterHTTP(srv.URL, time.Second).Write(context.Background(), "salinity", 1)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrPeerStatus))
	assert.Contains(t, err.Error(), "unknown parameter")
}

func TestPumpHTTP_Unreachable(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	url := srv.URL
	srv.Close()

	_, err := NewPumpHTTP(url, 200*time.Millisecond).State(context.Background())
	assert.Error(t, err)
}

func TestPumpHTTP_State(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(models.PumpState{PumpSpeed: 40, FilterStatus: models.FilterRunning, FilterHealth: 90})
	}))
	defer srv.Close()

	st, err := NewPumpHTTP(srv.URL, time.Second).State(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 40, st.PumpSpeed)
	assert.Equal(t, models.FilterRunning, st.FilterStatus)
}
