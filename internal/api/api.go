package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-logr/logr"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	"github.com/sliink/extloader/internal/api/docs"
	"github.com/sliink/extloader/internal/core"
	"github.com/sliink/extloader/internal/model"
)

// API represents the REST API of the extension loader
type API struct {
	core   *core.Core
	router *gin.Engine
	server *http.Server
	port   int
	host   string
	log    logr.Logger
}

// LoadRequest is the body of POST /apps/load
type LoadRequest struct {
	PluginIDs []string `json:"plugin_ids" binding:"required,min=1"`
}

// LoadResponse reports the loader state right after a load was requested
type LoadResponse struct {
	IsLoading bool `json:"is_loading"`
}

// LoaderStatus describes the plugin loader
type LoaderStatus struct {
	State     model.LoaderState `json:"state"`
	IsLoading bool              `json:"is_loading"`
	InFlight  int               `json:"in_flight"`
	Plugins   []string          `json:"plugins"`
}

// ErrorResponse is returned for failed requests
type ErrorResponse struct {
	Error string `json:"error"`
}

// NewAPI creates a new API instance
// @title           Extension Loader API
// @version         1.0
// @description     API for preloading app plugins and inspecting their extensions

// @contact.name   API Support
// @contact.url    http://www.example.com/support

// @license.name  Apache 2.0
// @license.url   http://www.apache.org/licenses/LICENSE-2.0.html

// @host      localhost:8080
// @BasePath  /
func NewAPI(c *core.Core, port int, host string) *API {
	docs.SwaggerInfo.Host = fmt.Sprintf("%s:%d", host, port)
	docs.SwaggerInfo.BasePath = "/"
	docs.SwaggerInfo.Schemes = []string{"http"}

	router := gin.New()

	api := &API{
		core:   c,
		router: router,
		port:   port,
		host:   host,
		log:    c.Logger().WithName("api"),
	}

	router.Use(gin.Recovery(), api.requestLogger(), api.loaderContext())
	api.setupRoutes()

	return api
}

// setupRoutes configures all the API routes
func (a *API) setupRoutes() {
	a.router.GET("/health", a.healthCheck)
	a.router.GET("/status", a.getStatus)

	apps := a.router.Group("/apps")
	{
		apps.GET("", a.getApps)
		apps.GET("/:id", a.getApp)
		apps.POST("/load", a.loadApps)
	}

	a.router.GET("/loader", a.getLoader)

	extensions := a.router.Group("/extensions")
	{
		extensions.GET("", a.getExtensions)
		extensions.GET("/links", a.getLinks)
		extensions.GET("/components", a.getComponents)
		extensions.GET("/functions", a.getFunctions)
		extensions.GET("/exposed", a.getExposedComponent)
	}

	a.router.GET("/config", a.getConfig)
	a.router.PUT("/config", a.updateConfig)

	a.router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
}

// Handler returns the HTTP handler serving the API
func (a *API) Handler() http.Handler {
	return a.router
}

// Start starts the API server
func (a *API) Start() error {
	addr := fmt.Sprintf("%s:%d", a.host, a.port)
	a.server = &http.Server{
		Addr:              addr,
		Handler:           a.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	a.log.Info("Starting API server", "addr", addr)
	err := a.server.ListenAndServe()
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

// Stop stops the API server
func (a *API) Stop(ctx context.Context) error {
	if a.server == nil {
		return nil
	}
	return a.server.Shutdown(ctx)
}

// loaderContext attaches the plugin loader to every request context
func (a *API) loaderContext() gin.HandlerFunc {
	return func(c *gin.Context) {
		if loader := a.core.Loader(); loader != nil {
			c.Request = c.Request.WithContext(core.WithLoader(c.Request.Context(), loader))
		}
		c.Next()
	}
}

func (a *API) requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		a.log.V(1).Info("Handled request",
			"method", c.Request.Method,
			"path", c.FullPath(),
			"status", c.Writer.Status(),
			"duration", time.Since(start))
	}
}

// healthCheck handles GET /health
// @Summary      Health check
// @Description  Check if the API is running
// @Tags         system
// @Produce      json
// @Success      200  {object}  map[string]interface{}
// @Router       /health [get]
func (a *API) healthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":    "ok",
		"timestamp": time.Now(),
	})
}

// getStatus handles GET /status
// @Summary      Get system status
// @Description  Get the health of the core and all its components
// @Tags         system
// @Produce      json
// @Success      200  {object}  model.HealthStatus
// @Router       /status [get]
func (a *API) getStatus(c *gin.Context) {
	c.JSON(http.StatusOK, a.core.GetHealthStatus())
}

// getApps handles GET /apps
// @Summary      List apps
// @Description  Get every configured app plugin
// @Tags         apps
// @Produce      json
// @Success      200  {array}   model.AppConfig
// @Failure      503  {object}  ErrorResponse
// @Router       /apps [get]
func (a *API) getApps(c *gin.Context) {
	registry := a.core.GetAppRegistry()
	if registry == nil {
		c.JSON(http.StatusServiceUnavailable, ErrorResponse{Error: "core is not initialized"})
		return
	}
	c.JSON(http.StatusOK, registry.GetAllApps())
}

// getApp handles GET /apps/:id
// @Summary      Get app
// @Description  Get a single app plugin configuration
// @Tags         apps
// @Produce      json
// @Param        id   path      string  true  "App ID"
// @Success      200  {object}  model.AppConfig
// @Failure      404  {object}  ErrorResponse
// @Router       /apps/{id} [get]
func (a *API) getApp(c *gin.Context) {
	registry := a.core.GetAppRegistry()
	if registry == nil {
		c.JSON(http.StatusServiceUnavailable, ErrorResponse{Error: "core is not initialized"})
		return
	}

	app, exists := registry.GetApp(c.Param("id"))
	if !exists {
		c.JSON(http.StatusNotFound, ErrorResponse{Error: core.ErrAppNotFound.Error()})
		return
	}
	c.JSON(http.StatusOK, app)
}

// loadApps handles POST /apps/load
// @Summary      Preload apps
// @Description  Preload app plugins in the background. Unknown IDs are ignored.
// @Tags         apps
// @Accept       json
// @Produce      json
// @Param        request  body      LoadRequest  true  "Apps to preload"
// @Success      202      {object}  LoadResponse
// @Failure      400      {object}  ErrorResponse
// @Router       /apps/load [post]
func (a *API) loadApps(c *gin.Context) {
	var req LoadRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "plugin_ids must list at least one app"})
		return
	}

	loader := core.LoaderFrom(c.Request.Context())
	loader.LoadAppPlugins(req.PluginIDs)
	c.JSON(http.StatusAccepted, LoadResponse{IsLoading: loader.IsLoading()})
}

// getLoader handles GET /loader
// @Summary      Loader status
// @Description  Get the state of the plugin loader
// @Tags         apps
// @Produce      json
// @Success      200  {object}  LoaderStatus
// @Failure      503  {object}  ErrorResponse
// @Router       /loader [get]
func (a *API) getLoader(c *gin.Context) {
	loader := a.core.Loader()
	if loader == nil {
		c.JSON(http.StatusServiceUnavailable, ErrorResponse{Error: "core is not initialized"})
		return
	}

	c.JSON(http.StatusOK, LoaderStatus{
		State:     loader.State(),
		IsLoading: loader.IsLoading(),
		InFlight:  loader.InFlight(),
		Plugins:   a.core.Registries().PluginIDs(),
	})
}

// getExtensions handles GET /extensions
// @Summary      Get registries
// @Description  Get a snapshot of every registered extension
// @Tags         extensions
// @Produce      json
// @Success      200  {object}  model.RegistriesSnapshot
// @Failure      503  {object}  ErrorResponse
// @Router       /extensions [get]
func (a *API) getExtensions(c *gin.Context) {
	registries, ok := a.registries(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, registries.Snapshot())
}

// getLinks handles GET /extensions/links
// @Summary      Get links
// @Description  Get the links added to an extension point
// @Tags         extensions
// @Produce      json
// @Param        extension_point_id  query     string  true  "Extension point ID"
// @Success      200                 {array}   model.AddedLink
// @Failure      400                 {object}  ErrorResponse
// @Router       /extensions/links [get]
func (a *API) getLinks(c *gin.Context) {
	registries, ok := a.registries(c)
	if !ok {
		return
	}
	if id, ok := extensionPoint(c); ok {
		c.JSON(http.StatusOK, registries.AddedLinks(id))
	}
}

// getComponents handles GET /extensions/components
// @Summary      Get components
// @Description  Get the components added to an extension point
// @Tags         extensions
// @Produce      json
// @Param        extension_point_id  query     string  true  "Extension point ID"
// @Success      200                 {array}   model.AddedComponent
// @Failure      400                 {object}  ErrorResponse
// @Router       /extensions/components [get]
func (a *API) getComponents(c *gin.Context) {
	registries, ok := a.registries(c)
	if !ok {
		return
	}
	if id, ok := extensionPoint(c); ok {
		c.JSON(http.StatusOK, registries.AddedComponents(id))
	}
}

// getFunctions handles GET /extensions/functions
// @Summary      Get functions
// @Description  Get the functions added to an extension point
// @Tags         extensions
// @Produce      json
// @Param        extension_point_id  query     string  true  "Extension point ID"
// @Success      200                 {array}   model.AddedFunction
// @Failure      400                 {object}  ErrorResponse
// @Router       /extensions/functions [get]
func (a *API) getFunctions(c *gin.Context) {
	registries, ok := a.registries(c)
	if !ok {
		return
	}
	if id, ok := extensionPoint(c); ok {
		c.JSON(http.StatusOK, registries.AddedFunctions(id))
	}
}

// getExposedComponent handles GET /extensions/exposed
// @Summary      Get exposed component
// @Description  Get an exposed component by ID
// @Tags         extensions
// @Produce      json
// @Param        id   query     string  true  "Exposed component ID"
// @Success      200  {object}  model.ExposedComponent
// @Failure      400  {object}  ErrorResponse
// @Failure      404  {object}  ErrorResponse
// @Router       /extensions/exposed [get]
func (a *API) getExposedComponent(c *gin.Context) {
	registries, ok := a.registries(c)
	if !ok {
		return
	}

	id := c.Query("id")
	if id == "" {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "id is required"})
		return
	}

	component, exists := registries.ExposedComponent(id)
	if !exists {
		c.JSON(http.StatusNotFound, ErrorResponse{Error: "exposed component not found"})
		return
	}
	c.JSON(http.StatusOK, component)
}

// getConfig handles GET /config
// @Summary      Get configuration
// @Description  Get the current configuration
// @Tags         config
// @Produce      json
// @Success      200  {object}  map[string]interface{}
// @Router       /config [get]
func (a *API) getConfig(c *gin.Context) {
	c.JSON(http.StatusOK, a.core.GetConfigManager().GetConfig("", nil))
}

// updateConfig handles PUT /config
// @Summary      Update configuration
// @Description  Replace the configuration and reload the configured apps
// @Tags         config
// @Accept       json
// @Produce      json
// @Param        config  body      map[string]interface{}  true  "New configuration"
// @Success      200     {object}  map[string]string
// @Failure      400     {object}  ErrorResponse
// @Failure      500     {object}  ErrorResponse
// @Router       /config [put]
func (a *API) updateConfig(c *gin.Context) {
	var newConfig map[string]interface{}
	if err := c.ShouldBindJSON(&newConfig); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Invalid configuration format"})
		return
	}

	if err := a.core.GetConfigManager().SetConfig("", newConfig); err != nil {
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: err.Error()})
		return
	}
	if err := a.core.ReloadApps(); err != nil {
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: err.Error()})
		return
	}
	a.core.PublishEvent(model.EventConfigChange, "api", "")

	c.JSON(http.StatusOK, gin.H{"status": "Configuration updated"})
}

func (a *API) registries(c *gin.Context) (*core.ExtensionRegistries, bool) {
	registries := a.core.Registries()
	if registries == nil {
		c.JSON(http.StatusServiceUnavailable, ErrorResponse{Error: "core is not initialized"})
		return nil, false
	}
	return registries, true
}

func extensionPoint(c *gin.Context) (string, bool) {
	id := c.Query("extension_point_id")
	if id == "" {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "extension_point_id is required"})
		return "", false
	}
	return id, true
}
