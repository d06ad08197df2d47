package simulator

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/greenhouse-agent/gha/internal/logger"
	"github.com/greenhouse-agent/gha/pkg/api"
)

// Handler wires the HTTP layer to the simulated agent.
type Handler struct {
	bank     *SwitchBank
	sensors  *Sensors
	registry *prometheus.Registry
	origins  []string
	log      logger.Logger
}

// InitRoutes builds and returns the Gin router with all routes registered.
func (h *Handler) InitRoutes() *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery(), h.requestLog, h.cors)

	router.GET(api.PathHealth, h.health)
	router.GET(api.PathSwitchesState, h.switchesState)
	router.GET(api.PathMetrics, gin.WrapH(promhttp.HandlerFor(h.registry, promhttp.HandlerOpts{})))

	pin := router.Group("/pin")
	{
		pin.GET("/output/:pin/:val", h.pinOutput)
		pin.GET("/override_auto/:pin/:val", h.overrideAuto)
	}

	router.NoRoute(func(c *gin.Context) {
		c.String(http.StatusNotFound, "%d %s", http.StatusNotFound, http.StatusText(http.StatusNotFound))
	})

	return router
}

func (h *Handler) health(c *gin.Context) {
	c.String(http.StatusOK, "ok")
}

func (h *Handler) switchesState(c *gin.Context) {
	c.JSON(http.StatusOK, h.bank.wire())
}

func (h *Handler) pinOutput(c *gin.Context) {
	pin, ok := pinParam(c)
	if !ok {
		return
	}
	raw := c.Param("val")
	val, err := strconv.Atoi(raw)
	if err != nil || (val != 0 && val != 1) {
		rejectPin(c, &PinError{Pin: pin, Value: raw})
		return
	}

	state, err := h.bank.UpdatePinState(pin, val)
	if err != nil {
		rejectPin(c, err)
		return
	}
	h.sensors.SetSwitch(pin, state.IsOn())
	h.log.Info("pin %d (%s) set to %d", pin, state.Name, val)
	c.JSON(http.StatusOK, state)
}

func (h *Handler) overrideAuto(c *gin.Context) {
	pin, ok := pinParam(c)
	if !ok {
		return
	}
	raw := c.Param("val")
	var val bool
	switch raw {
	case "0":
	case "1":
		val = true
	default:
		rejectPin(c, &PinError{Pin: pin, Value: raw})
		return
	}

	state, err := h.bank.UpdateOverrideAuto(pin, val)
	if err != nil {
		rejectPin(c, err)
		return
	}
	h.log.Info("pin %d (%s) override_auto set to %t", pin, state.Name, val)
	c.JSON(http.StatusOK, state)
}

// pinParam parses :pin. A non-numeric pin doesn't match any route on the
// real agent, so it answers 404 rather than 400.
func pinParam(c *gin.Context) (uint32, bool) {
	pin, err := strconv.ParseUint(c.Param("pin"), 10, 32)
	if err != nil {
		c.String(http.StatusNotFound, "%d %s", http.StatusNotFound, http.StatusText(http.StatusNotFound))
		return 0, false
	}
	return uint32(pin), true
}

func rejectPin(c *gin.Context, err error) {
	c.String(http.StatusBadRequest, "%d %s: %s", http.StatusBadRequest, http.StatusText(http.StatusBadRequest), err.Error())
}

// cors answers preflight requests and tags responses for allowed origins.
// An empty origin list allows none; "*" allows any.
func (h *Handler) cors(c *gin.Context) {
	origin := c.GetHeader("Origin")
	if origin == "" || !h.originAllowed(origin) {
		if c.Request.Method == http.MethodOptions && origin != "" {
			c.AbortWithStatus(http.StatusForbidden)
			return
		}
		c.Next()
		return
	}

	c.Header("Access-Control-Allow-Origin", origin)
	c.Header("Vary", "Origin")
	c.Header("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE")
	if c.Request.Method == http.MethodOptions {
		c.AbortWithStatus(http.StatusNoContent)
		return
	}
	c.Next()
}

func (h *Handler) originAllowed(origin string) bool {
	for _, o := range h.origins {
		if o == "*" || o == origin {
			return true
		}
	}
	return false
}

func (h *Handler) requestLog(c *gin.Context) {
	start := time.Now()
	c.Next()
	h.log.Debug("%s %s -> %d in %s", c.Request.Method, c.Request.URL.Path, c.Writer.Status(), time.Since(start).Round(time.Microsecond))
}
