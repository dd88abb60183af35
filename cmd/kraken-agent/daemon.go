package main

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/ghostop14/kraken-api-agent/pkg/agent"
	"github.com/ghostop14/kraken-api-agent/pkg/config"
	"github.com/ghostop14/kraken-api-agent/pkg/doa"
	"github.com/ghostop14/kraken-api-agent/pkg/logging"
	"github.com/ghostop14/kraken-api-agent/pkg/settings"
)

// KrakenAgent bridges the HTTP API to the appliance's settings.json and DOA
// telemetry endpoint
type KrakenAgent struct {
	config *config.Config
	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	coordinator *agent.Coordinator
	webServer   *http.Server
}

// NewKrakenAgent creates a new agent instance
func NewKrakenAgent(cfg *config.Config) (*KrakenAgent, error) {
	ctx, cancel := context.WithCancel(context.Background())

	store := settings.NewStore(cfg.SettingsFile())
	telemetry := doa.NewBridge(cfg.Telemetry.URL, time.Duration(cfg.Telemetry.TimeoutMs)*time.Millisecond)

	daemon := &KrakenAgent{
		config:      cfg,
		ctx:         ctx,
		cancel:      cancel,
		coordinator: agent.NewCoordinator(store, telemetry),
	}

	if err := daemon.setupWebServer(); err != nil {
		cancel()
		return nil, fmt.Errorf("failed to setup web server: %w", err)
	}

	return daemon, nil
}

// Start starts the agent
func (a *KrakenAgent) Start() error {
	a.wg.Add(1)
	go func() {
		defer a.wg.Done()
		logging.Infof("web", "Starting web server on %s", a.webServer.Addr)
		if err := a.webServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logging.Errorf("web", "Web server error: %v", err)
		}
	}()

	return nil
}

// Stop stops the agent gracefully
func (a *KrakenAgent) Stop() error {
	a.cancel()

	if a.webServer != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := a.webServer.Shutdown(ctx); err != nil {
			logging.Errorf("web", "Web server shutdown error: %v", err)
		}
	}

	a.wg.Wait()
	return nil
}

// setupWebServer initializes the web server and routes
func (a *KrakenAgent) setupWebServer() error {
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())
	if a.config.Web.DebugHTTP {
		router.Use(gin.Logger())
	}
	if len(a.config.Security.AllowedIPs) > 0 {
		router.Use(a.allowedIPFilter())
	}
	if a.config.Web.AllowCORS {
		router.Use(corsHeader())
	}

	// Optional direct serving of the UI
	if a.config.Web.HTMLDir != "" {
		router.Static("/ui", a.config.Web.HTMLDir)
		router.GET("/", func(c *gin.Context) {
			c.Redirect(http.StatusFound, "/ui/index.html")
		})
	}

	api := router.Group("/api/krakensdr")
	{
		api.GET("/get_config", a.handleGetConfig)
		api.GET("/get_doa", a.handleGetDOA)
		api.GET("/stream_doa", a.handleStreamDOA)
		api.GET("/set_frequency", a.handleSetFrequency)
		api.GET("/set_frequency_and_vfo", a.handleSetFrequencyAndVFO)
		api.GET("/set_gain", a.handleSetGain)
		api.GET("/set_output_vfo", a.handleSetOutputVFO)
		api.GET("/en_optimize_short_bursts", a.handleOptimizeShortBursts)
		api.GET("/set_vfo_frequency", a.handleSetVFOFrequency)
		api.GET("/set_vfo_bandwidth", a.handleSetVFOBandwidth)
		api.GET("/set_coordinates", a.handleSetCoordinates)
	}

	router.NoRoute(func(c *gin.Context) {
		logging.Warnf("web", "Unknown request: %s", c.Request.URL.Path)
		c.JSON(http.StatusOK, agent.Failure(agent.CodeInvalidParameter, "unknown request"))
	})

	addr := fmt.Sprintf("%s:%d", a.config.Web.BindAddress, a.config.Web.Port)
	a.webServer = &http.Server{
		Addr:    addr,
		Handler: router,
	}

	return nil
}
