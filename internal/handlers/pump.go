package handlers

import (
	"errors"
	"math"
	"net/http"

	"github.com/gin-gonic/gin"

	"aquarium_wot/internal/service"
)

// @Summary      Pump properties
// @Tags         pump
// @Produce      json
// @Success      200  {object}  models.PumpState
// @Router       /api/v1/pump/properties [get]
func (h *Handler) getPumpProperties(c *gin.Context) {
	st, err := h.services.Pump.State(c.Request.Context())
	if err != nil {
		h.logAndJSONError(c, http.StatusInternalServerError, "failed to read pump", "pump_state_failed", err)
		return
	}
	c.JSON(http.StatusOK, st)
}

// @Summary      Single pump property
// @Tags         pump
// @Produce      json
// @Param        name  path  string  true  "Property"  Enums(pumpSpeed,filterStatus,filterHealth,lastCleaningTime)
// @Success      200  {object}  map[string]interface{}
// @Failure      404  {object}  map[string]string
// @Router       /api/v1/pump/properties/{name} [get]
func (h *Handler) getPumpProperty(c *gin.Context) {
	st, err := h.services.Pump.State(c.Request.Context())
	if err != nil {
		h.logAndJSONError(c, http.StatusInternalServerError, "failed to read pump", "pump_state_failed", err)
		return
	}
	respondProperty(c, map[string]any{
		"pumpSpeed":        st.PumpSpeed,
		"filterStatus":     st.FilterStatus,
		"filterHealth":     st.FilterHealth,
		"lastCleaningTime": st.LastCleaningTime,
	})
}

// @Summary      Set pump speed
// @Description  Speed is rounded and clamped to 0..100 percent.
// @Tags         pump
// @Accept       json
// @Produce      json
// @Param        input  body  ValueRequest  true  "Speed in percent"
// @Success      200  {object}  models.PumpState
// @Failure      400  {object}  map[string]string
// @Router       /api/v1/pump/actions/setPumpSpeed [post]
func (h *Handler) setPumpSpeed(c *gin.Context) {
	value, ok := bindNumber(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, h.services.Pump.SetSpeed(c.Request.Context(), roundSpeed(value)))
}

// @Summary      Trigger cleaning cycle
// @Description  started=false when a cycle is already running.
// @Tags         pump
// @Produce      json
// @Success      200  {object}  map[string]interface{}
// @Failure      503  {object}  map[string]string
// @Router       /api/v1/pump/actions/cleaningCycle [post]
func (h *Handler) cleaningCycle(c *gin.Context) {
	ctx := c.Request.Context()
	started, err := h.services.Pump.TriggerCleaning(ctx)
	if err != nil {
		if errors.Is(err, service.ErrPumpShutdown) {
			c.JSON(http.StatusServiceUnavailable, gin.H{"error": err.Error()})
			return
		}
		h.logAndJSONError(c, http.StatusInternalServerError, "failed to start cleaning", "cleaning_failed", err)
		return
	}
	st, _ := h.services.Pump.State(ctx)
	c.JSON(http.StatusOK, gin.H{"started": started, "state": st})
}

// roundSpeed converts a JSON number to a speed, saturating outside the int range.
func roundSpeed(v float64) int {
	switch {
	case math.IsNaN(v):
		return 0
	case v > 100:
		return 100
	case v < 0:
		return 0
	}
	return int(math.Round(v))
}
