package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"aquarium_wot/internal/models"
	"aquarium_wot/internal/service"
)

const propDegradationActive = "degradationActive"

// @Summary      Water properties
// @Tags         water
// @Produce      json
// @Success      200  {object}  models.WaterParameterSet
// @Failure      500  {object}  map[string]string
// @Router       /api/v1/water/properties [get]
func (h *Handler) getWaterProperties(c *gin.Context) {
	w, err := h.services.Water.Read(c.Request.Context())
	if err != nil {
		h.logAndJSONError(c, http.StatusInternalServerError, "failed to read water", "water_read_failed", err)
		return
	}
	c.JSON(http.StatusOK, w)
}

// @Summary      Single water property
// @Tags         water
// @Produce      json
// @Param        name  path  string  true  "Property"  Enums(pH,temperature,oxygenLevel,degradationActive)
// @Success      200  {object}  map[string]interface{}
// @Failure      404  {object}  map[string]string
// @Router       /api/v1/water/properties/{name} [get]
func (h *Handler) getWaterProperty(c *gin.Context) {
	w, err := h.services.Water.Read(c.Request.Context())
	if err != nil {
		h.logAndJSONError(c, http.StatusInternalServerError, "failed to read water", "water_read_failed", err)
		return
	}
	props := map[string]any{
		models.ParamPH:          w.PH,
		models.ParamTemperature: w.Temperature,
		models.ParamOxygenLevel: w.OxygenLevel,
		propDegradationActive:   h.services.Water.DegradationActive(),
	}
	respondProperty(c, props)
}

// @Summary      Write water property
// @Description  The stored value is clamped to the physical range of the parameter.
// @Tags         water
// @Accept       json
// @Produce      json
// @Param        name   path  string        true  "Parameter"  Enums(pH,temperature,oxygenLevel)
// @Param        input  body  ValueRequest  true  "New value"
// @Success      200  {object}  models.WriteResult
// @Failure      400  {object}  map[string]string
// @Failure      404  {object}  map[string]string
// @Router       /api/v1/water/properties/{name} [put]
func (h *Handler) writeWaterProperty(c *gin.Context) {
	value, ok := bindNumber(c)
	if !ok {
		return
	}
	name := c.Param("name")
	res, err := h.services.Water.Write(c.Request.Context(), name, value)
	if err != nil {
		if errors.Is(err, service.ErrUnknownParameter) {
			c.JSON(http.StatusNotFound, gin.H{"error": errUnknownProperty, "property": name})
			return
		}
		h.logAndJSONError(c, http.StatusInternalServerError, "failed to write water", "water_write_failed", err, "parameter", name)
		return
	}
	c.JSON(http.StatusOK, res)
}

// @Summary      Start water degradation
// @Tags         water
// @Produce      json
// @Success      200  {object}  map[string]interface{}
// @Router       /api/v1/water/actions/startDegradation [post]
func (h *Handler) startDegradation(c *gin.Context) {
	if err := h.services.Water.StartDegradation(c.Request.Context()); err != nil {
		h.logAndJSONError(c, http.StatusInternalServerError, "failed to start degradation", "degradation_start_failed", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{propDegradationActive: h.services.Water.DegradationActive()})
}

// @Summary      Stop water degradation
// @Tags         water
// @Produce      json
// @Success      200  {object}  map[string]interface{}
// @Router       /api/v1/water/actions/stopDegradation [post]
func (h *Handler) stopDegradation(c *gin.Context) {
	if err := h.services.Water.StopDegradation(c.Request.Context()); err != nil {
		h.logAndJSONError(c, http.StatusInternalServerError, "failed to stop degradation", "degradation_stop_failed", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{propDegradationActive: h.services.Water.DegradationActive()})
}
