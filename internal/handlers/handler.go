package handlers

import (
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"aquarium_wot/internal/logger"
	"aquarium_wot/internal/service"

	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

// Handler wires HTTP layer to services and logging.
type Handler struct {
	services *service.Service
	log      *logger.Logger
	gatherer prometheus.Gatherer
}

// NewHandler constructs a new HTTP handler with dependencies.
// A nil gatherer leaves /metrics unregistered.
func NewHandler(services *service.Service, log *logger.Logger, gatherer prometheus.Gatherer) *Handler {
	return &Handler{services: services, log: log, gatherer: gatherer}
}

// InitRoutes builds and returns the Gin router. Only the Things hosted by
// this process get routes.
func (h *Handler) InitRoutes() *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery(), h.requestLogger)

	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	// Health endpoint
	router.GET("/health", h.health)

	if h.gatherer != nil {
		router.GET("/metrics", gin.WrapH(promhttp.HandlerFor(h.gatherer, promhttp.HandlerOpts{})))
	}

	h.registerAPIRoutes(router)

	// Event and state stream on the same port
	router.GET("/ws", h.wsConnect)

	return router
}

func (h *Handler) registerAPIRoutes(r *gin.Engine) {
	api := r.Group("/api/v1")
	{
		if h.services.Status != nil {
			api.GET("/status", h.getStatus)
		}
		if h.services.EventLog != nil {
			api.GET("/events", h.getEvents)
		}
		if h.services.Water != nil {
			h.registerWaterRoutes(api)
		}
		if h.services.Pump != nil {
			h.registerPumpRoutes(api)
		}
		if h.services.Sensor != nil {
			h.registerSensorRoutes(api)
		}
		if h.services.Actuator != nil {
			h.registerActuatorRoutes(api)
		}
	}
}

func (h *Handler) registerWaterRoutes(api *gin.RouterGroup) {
	water := api.Group("/water")
	{
		water.GET("/properties", h.getWaterProperties)
		water.GET("/properties/:name", h.getWaterProperty)
		// Body example: {"value": 7.2}
		water.PUT("/properties/:name", h.writeWaterProperty)
		water.POST("/actions/startDegradation", h.startDegradation)
		water.POST("/actions/stopDegradation", h.stopDegradation)
	}
}

func (h *Handler) registerPumpRoutes(api *gin.RouterGroup) {
	pump := api.Group("/pump")
	{
		pump.GET("/properties", h.getPumpProperties)
		pump.GET("/properties/:name", h.getPumpProperty)
		// Body example: {"value": 40}
		pump.POST("/actions/setPumpSpeed", h.setPumpSpeed)
		pump.POST("/actions/cleaningCycle", h.cleaningCycle)
	}
}

func (h *Handler) registerSensorRoutes(api *gin.RouterGroup) {
	sensor := api.Group("/sensor")
	{
		sensor.GET("/properties", h.getSensorProperties)
		sensor.GET("/properties/:name", h.getSensorProperty)
		sensor.PUT("/properties/mode", h.putSensorMode)
		sensor.PUT("/properties/config", h.putSensorConfig)
		sensor.PUT("/properties/samplingIntervalMs", h.putSamplingInterval)
		sensor.GET("/history", h.getSensorHistory)
	}
}

func (h *Handler) registerActuatorRoutes(api *gin.RouterGroup) {
	actuator := api.Group("/actuator")
	{
		actuator.GET("/properties", h.getActuatorProperties)
		actuator.POST("/actions/setPumpSpeed", h.setActuatorSpeed)
	}
}
