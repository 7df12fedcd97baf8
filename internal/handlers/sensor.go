package handlers

import (
	"errors"
	"math"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"aquarium_wot/internal/configstore"
	"aquarium_wot/internal/models"
)

const (
	defaultHistoryLimit = 50
	maxHistoryLimit     = 1000

	propAllParameters      = "allParameters"
	propOverallStatus      = "overallStatus"
	propMode               = "mode"
	propConfig             = "config"
	propSamplingIntervalMs = "samplingIntervalMs"
)

type modeRequest struct {
	Value string `json:"value" binding:"required"`
}

type configRequest struct {
	Value *models.AppConfig `json:"value" binding:"required"`
}

// sensorProperties flattens the sensor surface into its readable properties.
func (h *Handler) sensorProperties() map[string]any {
	s := h.services.Sensor
	r := s.Snapshot()
	props := map[string]any{
		propAllParameters:      r,
		propOverallStatus:      r.OverallStatus,
		propMode:               s.Mode(),
		propConfig:             s.Config(),
		propSamplingIntervalMs: s.SamplingInterval().Milliseconds(),
	}
	for _, name := range models.Parameters {
		v, _ := r.Values.Get(name)
		props[name] = v
		props[name+"Status"] = r.Statuses[name]
	}
	return props
}

// @Summary      Sensor properties
// @Tags         sensor
// @Produce      json
// @Success      200  {object}  map[string]interface{}
// @Router       /api/v1/sensor/properties [get]
func (h *Handler) getSensorProperties(c *gin.Context) {
	c.JSON(http.StatusOK, h.sensorProperties())
}

// @Summary      Single sensor property
// @Tags         sensor
// @Produce      json
// @Param        name  path  string  true  "Property"  Enums(pH,temperature,oxygenLevel,pHStatus,temperatureStatus,oxygenLevelStatus,overallStatus,allParameters,mode,config,samplingIntervalMs)
// @Success      200  {object}  map[string]interface{}
// @Failure      404  {object}  map[string]string
// @Router       /api/v1/sensor/properties/{name} [get]
func (h *Handler) getSensorProperty(c *gin.Context) {
	respondProperty(c, h.sensorProperties())
}

// @Summary      Switch operating mode
// @Tags         sensor
// @Accept       json
// @Produce      json
// @Param        input  body  modeRequest  true  "demo or production"
// @Success      200  {object}  map[string]interface{}
// @Failure      400  {object}  map[string]string
// @Router       /api/v1/sensor/properties/mode [put]
func (h *Handler) putSensorMode(c *gin.Context) {
	var req modeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": errInvalidBodyPref + err.Error()})
		return
	}
	s := h.services.Sensor
	if err := s.ApplyMode(c.Request.Context(), req.Value); err != nil {
		if errors.Is(err, configstore.ErrInvalidMode) {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		h.logAndJSONError(c, http.StatusInternalServerError, "failed to apply mode", "mode_apply_failed", err, "mode", req.Value)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		propMode:               s.Mode(),
		propSamplingIntervalMs: s.SamplingInterval().Milliseconds(),
	})
}

// @Summary      Replace configuration document
// @Tags         sensor
// @Accept       json
// @Produce      json
// @Param        input  body  configRequest  true  "Configuration document"
// @Success      200  {object}  models.AppConfig
// @Failure      400  {object}  map[string]string
// @Failure      422  {object}  map[string]interface{}
// @Router       /api/v1/sensor/properties/config [put]
func (h *Handler) putSensorConfig(c *gin.Context) {
	var req configRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": errInvalidBodyPref + err.Error()})
		return
	}
	s := h.services.Sensor
	if err := s.UpdateConfig(c.Request.Context(), *req.Value); err != nil {
		var verr *configstore.ValidationError
		if errors.As(err, &verr) {
			c.JSON(http.StatusUnprocessableEntity, gin.H{"error": "invalid config", "problems": verr.Problems})
			return
		}
		h.logAndJSONError(c, http.StatusInternalServerError, "failed to save config", "config_save_failed", err)
		return
	}
	c.JSON(http.StatusOK, s.Config())
}

// @Summary      Set sampling interval
// @Description  Rounded to whole milliseconds. Values outside 3000..1800000 ms fall back to 3000 and are reported as clamped.
// @Tags         sensor
// @Accept       json
// @Produce      json
// @Param        input  body  ValueRequest  true  "Interval in milliseconds"
// @Success      200  {object}  map[string]interface{}
// @Failure      400  {object}  map[string]string
// @Router       /api/v1/sensor/properties/samplingIntervalMs [put]
func (h *Handler) putSamplingInterval(c *gin.Context) {
	value, ok := bindNumber(c)
	if !ok {
		return
	}
	rounded := math.Round(value)
	ms := int(rounded)
	if rounded > math.MaxInt32 || rounded < math.MinInt32 {
		ms = -1 // outside the accepted window either way
	}
	applied, clamped := h.services.Sensor.SetSamplingInterval(c.Request.Context(), ms)
	c.JSON(http.StatusOK, gin.H{propSamplingIntervalMs: applied, "clamped": clamped})
}

// @Summary      Recent samples
// @Tags         sensor
// @Produce      json
// @Param        limit  query  int  false  "Number of samples, newest first (max 1000)"  default(50)
// @Success      200  {object}  map[string]interface{}  "count, samples"
// @Failure      400  {object}  map[string]string
// @Failure      500  {object}  map[string]string
// @Router       /api/v1/sensor/history [get]
func (h *Handler) getSensorHistory(c *gin.Context) {
	limit := defaultHistoryLimit
	if qs := c.Query("limit"); qs != "" {
		v, err := strconv.Atoi(qs)
		if err != nil || v <= 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid 'limit'; use a positive integer"})
			return
		}
		limit = min(v, maxHistoryLimit)
	}
	samples, err := h.services.Sensor.History(c.Request.Context(), limit)
	if err != nil {
		h.logAndJSONError(c, http.StatusInternalServerError, "failed to load history", "history_list_failed", err, "limit", limit)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"count":   len(samples),
		"samples": samples,
	})
}
