package main

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"github.com/ghostop14/kraken-api-agent/pkg/agent"
	"github.com/ghostop14/kraken-api-agent/pkg/control"
	"github.com/ghostop14/kraken-api-agent/pkg/logging"
)

// queryFailure maps a query binding error to the envelope: a missing
// required key gets CodeMissingParameter with the expected form, anything
// else (unparseable number and the like) gets CodeInvalidParameter. Binding
// failures stay inside the envelope contract, never a bare 4xx.
func queryFailure(c *gin.Context, err error, required ...string) agent.Envelope {
	for _, name := range required {
		if _, ok := c.GetQuery(name); !ok {
			return agent.Failure(agent.CodeMissingParameter,
				fmt.Sprintf("correct key not specified in request, expecting %s=<value>", name))
		}
	}
	return agent.Failure(agent.CodeInvalidParameter, err.Error())
}

// handleGetConfig returns the appliance's current settings document
func (a *KrakenAgent) handleGetConfig(c *gin.Context) {
	c.JSON(http.StatusOK, a.coordinator.GetConfig())
}

// handleGetDOA returns a fresh DOA reading from the telemetry endpoint
func (a *KrakenAgent) handleGetDOA(c *gin.Context) {
	c.JSON(http.StatusOK, a.coordinator.GetDOA(c.Request.Context()))
}

// handleSetFrequency tunes the center frequency (MHz), optionally with a
// gain change in the same settings write
func (a *KrakenAgent) handleSetFrequency(c *gin.Context) {
	var req struct {
		Freq *float64 `form:"freq" binding:"required"`
		Gain *float64 `form:"gain"`
	}
	if err := c.ShouldBindQuery(&req); err != nil {
		c.JSON(http.StatusOK, queryFailure(c, err, "freq"))
		return
	}

	c.JSON(http.StatusOK, a.coordinator.SetFrequency(*req.Freq, req.Gain))
}

// handleSetFrequencyAndVFO retunes the center frequency and one VFO in a
// single settings write
func (a *KrakenAgent) handleSetFrequencyAndVFO(c *gin.Context) {
	var req struct {
		Freq     *float64 `form:"freq" binding:"required"`
		VFOIndex *int     `form:"vfo_index" binding:"required"`
		VFOFreq  *float64 `form:"vfo_freq" binding:"required"`
	}
	if err := c.ShouldBindQuery(&req); err != nil {
		c.JSON(http.StatusOK, queryFailure(c, err, "freq", "vfo_index", "vfo_freq"))
		return
	}

	c.JSON(http.StatusOK, a.coordinator.SetFrequencyAndVFO(*req.Freq, *req.VFOIndex, *req.VFOFreq))
}

// handleSetGain sets the uniform tuner gain
func (a *KrakenAgent) handleSetGain(c *gin.Context) {
	var req struct {
		Gain *float64 `form:"gain" binding:"required"`
	}
	if err := c.ShouldBindQuery(&req); err != nil {
		c.JSON(http.StatusOK, queryFailure(c, err, "gain"))
		return
	}

	c.JSON(http.StatusOK, a.coordinator.SetGain(*req.Gain))
}

// handleSetOutputVFO selects the VFO feeding the demodulated output
func (a *KrakenAgent) handleSetOutputVFO(c *gin.Context) {
	var req struct {
		VFOIndex *int `form:"vfo_index" binding:"required"`
	}
	if err := c.ShouldBindQuery(&req); err != nil {
		c.JSON(http.StatusOK, queryFailure(c, err, "vfo_index"))
		return
	}

	c.JSON(http.StatusOK, a.coordinator.SetOutputVFO(*req.VFOIndex))
}

// handleOptimizeShortBursts toggles the short-burst optimization flag
func (a *KrakenAgent) handleOptimizeShortBursts(c *gin.Context) {
	var req struct {
		State *string `form:"state" binding:"required"`
	}
	if err := c.ShouldBindQuery(&req); err != nil {
		c.JSON(http.StatusOK, queryFailure(c, err, "state"))
		return
	}

	state, err := control.ParseBool(*req.State)
	if err != nil {
		c.JSON(http.StatusOK, agent.FromError(err))
		return
	}

	c.JSON(http.StatusOK, a.coordinator.SetOptimizeShortBursts(state))
}

// handleSetVFOFrequency retunes a single VFO (Hz)
func (a *KrakenAgent) handleSetVFOFrequency(c *gin.Context) {
	var req struct {
		VFOIndex *int     `form:"vfo_index" binding:"required"`
		VFOFreq  *float64 `form:"vfo_freq" binding:"required"`
	}
	if err := c.ShouldBindQuery(&req); err != nil {
		c.JSON(http.StatusOK, queryFailure(c, err, "vfo_index", "vfo_freq"))
		return
	}

	c.JSON(http.StatusOK, a.coordinator.SetVFOFrequency(*req.VFOIndex, *req.VFOFreq))
}

// handleSetVFOBandwidth sets a single VFO's bandwidth (Hz)
func (a *KrakenAgent) handleSetVFOBandwidth(c *gin.Context) {
	var req struct {
		VFOIndex *int     `form:"vfo_index" binding:"required"`
		VFOBw    *float64 `form:"vfo_bw" binding:"required"`
	}
	if err := c.ShouldBindQuery(&req); err != nil {
		c.JSON(http.StatusOK, queryFailure(c, err, "vfo_index", "vfo_bw"))
		return
	}

	c.JSON(http.StatusOK, a.coordinator.SetVFOBandwidth(*req.VFOIndex, *req.VFOBw))
}

// handleSetCoordinates updates the station position and any explicitly
// supplied optional location fields
func (a *KrakenAgent) handleSetCoordinates(c *gin.Context) {
	var req struct {
		Latitude            *float64 `form:"latitude" binding:"required"`
		Longitude           *float64 `form:"longitude" binding:"required"`
		Heading             *float64 `form:"heading"`
		LocationSource      *string  `form:"location_source"`
		GPSFixedHeading     *string  `form:"gps_fixed_heading"`
		GPSMinSpeed         *int     `form:"gps_min_speed"`
		GPSMinSpeedDuration *int     `form:"gps_min_speed_duration"`
	}
	if err := c.ShouldBindQuery(&req); err != nil {
		c.JSON(http.StatusOK, queryFailure(c, err, "latitude", "longitude"))
		return
	}

	opts := control.CoordinateOptions{
		Heading:             req.Heading,
		LocationSource:      req.LocationSource,
		GPSMinSpeed:         req.GPSMinSpeed,
		GPSMinSpeedDuration: req.GPSMinSpeedDuration,
	}
	if req.GPSFixedHeading != nil {
		fixed, err := control.ParseBool(*req.GPSFixedHeading)
		if err != nil {
			c.JSON(http.StatusOK, agent.FromError(err))
			return
		}
		opts.GPSFixedHeading = &fixed
	}

	c.JSON(http.StatusOK, a.coordinator.SetCoordinates(*req.Latitude, *req.Longitude, opts))
}

// WebSocket upgrader
var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// handleStreamDOA pushes DOA readings over a websocket at a fixed interval.
// The loop lives only as long as the client connection; the agent itself
// never polls the appliance in the background.
func (a *KrakenAgent) handleStreamDOA(c *gin.Context) {
	var req struct {
		IntervalMs *int `form:"interval_ms"`
	}
	if err := c.ShouldBindQuery(&req); err != nil {
		c.JSON(http.StatusOK, queryFailure(c, err))
		return
	}

	interval := time.Duration(a.config.Telemetry.StreamIntervalMs) * time.Millisecond
	if req.IntervalMs != nil && *req.IntervalMs > 0 {
		interval = time.Duration(*req.IntervalMs) * time.Millisecond
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		logging.Errorf("web", "WebSocket upgrade failed: %v", err)
		return
	}
	defer conn.Close()

	logging.Debug("web", "DOA stream client connected")

	// Detect client disconnect
	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			envelope := a.coordinator.GetDOA(c.Request.Context())
			if err := conn.WriteJSON(envelope); err != nil {
				logging.Debugf("web", "DOA stream write error: %v", err)
				return
			}

		case <-done:
			logging.Debug("web", "DOA stream client disconnected")
			return

		case <-a.ctx.Done():
			return
		}
	}
}
