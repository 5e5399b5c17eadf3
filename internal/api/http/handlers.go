package http

import (
	"errors"
	"net/http"

	"github.com/GriffinCanCode/dicthub/internal/domain/model"
	"github.com/GriffinCanCode/dicthub/internal/domain/preference"
	"github.com/GriffinCanCode/dicthub/internal/infrastructure/monitoring"
	"github.com/GriffinCanCode/dicthub/internal/lang"
	"github.com/GriffinCanCode/dicthub/internal/plugin"
	"github.com/GriffinCanCode/dicthub/internal/shared/failure"
	"github.com/GriffinCanCode/dicthub/internal/shared/utils"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Deps are the components the REST handlers read and mutate.
type Deps struct {
	Preference *preference.Preference
	Manager    *plugin.Manager
	Updates    *plugin.UpdateChecker
	Versions   *plugin.VersionChecker
	Detector   lang.Detector
	Metrics    *monitoring.Metrics
	Logger     *zap.Logger
	Version    string
}

// Handlers contains all HTTP handlers
type Handlers struct {
	pref     *preference.Preference
	manager  *plugin.Manager
	updates  *plugin.UpdateChecker
	versions *plugin.VersionChecker
	detector lang.Detector
	metrics  *monitoring.Metrics
	logger   *zap.Logger
	version  string
}

// NewHandlers creates a new handler set
func NewHandlers(deps Deps) *Handlers {
	if deps.Logger == nil {
		deps.Logger = zap.NewNop()
	}
	if deps.Detector == nil {
		deps.Detector = lang.Null{}
	}
	return &Handlers{
		pref:     deps.Preference,
		manager:  deps.Manager,
		updates:  deps.Updates,
		versions: deps.Versions,
		detector: deps.Detector,
		metrics:  deps.Metrics,
		logger:   deps.Logger,
		version:  deps.Version,
	}
}

// Register mounts every route on r.
func (h *Handlers) Register(r gin.IRouter) {
	r.GET("/", h.Root)
	r.GET("/health", h.Health)

	r.GET("/preference", h.GetPreference)
	r.PUT("/preference", h.UpdatePreference)

	r.GET("/plugins", h.ListPlugins)
	r.POST("/plugins/check", h.CheckUpdates)
	r.POST("/plugins/:id/enable", h.EnablePlugin)
	r.DELETE("/plugins/:id", h.DisablePlugin)
	r.GET("/plugins/:id/options", h.GetPluginOptions)
	r.PUT("/plugins/:id/options", h.SavePluginOption)

	r.POST("/detect", h.Detect)
	r.GET("/version", h.CheckVersion)
	r.GET("/metrics", h.Prometheus)
	r.GET("/metrics/json", h.Status)
}

// Root handles health check
func (h *Handlers) Root(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "online",
		"service": "DictHub",
		"version": h.version,
	})
}

// Health reports the plugin set the sandbox will load.
func (h *Handlers) Health(c *gin.Context) {
	pref := h.pref.Snapshot()
	c.JSON(http.StatusOK, gin.H{
		"status":          "healthy",
		"enabled_plugins": pref.EnabledPlugins.Len(),
		"detector":        h.detector.Name(),
	})
}

func (h *Handlers) GetPreference(c *gin.Context) {
	c.JSON(http.StatusOK, h.pref.Snapshot())
}

// preferencePatch holds the user-editable fields; nil means unchanged.
type preferencePatch struct {
	PrimaryLang          *string  `json:"primaryLang"`
	MaxTranslationResult *int     `json:"maxTranslationResult"`
	PluginRepository     []string `json:"pluginRepository"`
	PluginPriority       []string `json:"pluginPriority"`
	SendAnalysisInfo     *bool    `json:"sendAnalysisInfo"`
	AutoDetectLang       *bool    `json:"autoDetectLang"`
	AutoUpdatePlugin     *bool    `json:"autoUpdatePlugin"`
}

// UpdatePreference validates the whole patch before writing any field.
func (h *Handlers) UpdatePreference(c *gin.Context) {
	var patch preferencePatch
	if err := c.ShouldBindJSON(&patch); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	var primary lang.Lang
	if patch.PrimaryLang != nil {
		l, err := lang.FromCode(*patch.PrimaryLang)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		primary = l
	}
	if patch.MaxTranslationResult != nil && *patch.MaxTranslationResult < 1 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "maxTranslationResult must be positive"})
		return
	}
	for _, u := range patch.PluginRepository {
		if err := utils.ValidateRepositoryURL(u); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
	}

	err := h.pref.Update(c.Request.Context(), func(u *preference.UserPreference) {
		if patch.PrimaryLang != nil {
			u.PrimaryLang = primary
		}
		if patch.MaxTranslationResult != nil {
			u.MaxTranslationResult = *patch.MaxTranslationResult
		}
		if patch.PluginRepository != nil {
			u.PluginRepository = append([]string(nil), patch.PluginRepository...)
			if len(u.PluginRepository) == 0 {
				u.PluginRepository = []string{preference.DefaultPluginRepository}
			}
		}
		if patch.PluginPriority != nil {
			u.PluginPriority = append([]string{}, patch.PluginPriority...)
		}
		if patch.SendAnalysisInfo != nil {
			u.SendAnalysisInfo = *patch.SendAnalysisInfo
		}
		if patch.AutoDetectLang != nil {
			u.AutoDetectLang = *patch.AutoDetectLang
		}
		if patch.AutoUpdatePlugin != nil {
			u.AutoUpdatePlugin = *patch.AutoUpdatePlugin
		}
	})
	if err != nil {
		h.fail(c, "update preference", err)
		return
	}
	c.JSON(http.StatusOK, h.pref.Snapshot())
}

// pluginView is a catalog entry annotated with the local state.
type pluginView struct {
	model.PluginInfo
	Enabled          bool   `json:"enabled"`
	InstalledVersion string `json:"installedVersion,omitempty"`
}

// ListPlugins merges the repository catalog with the enabled set.
func (h *Handlers) ListPlugins(c *gin.Context) {
	catalog, err := h.manager.Catalog(c.Request.Context(), h.pref)
	if err != nil {
		h.fail(c, "load catalog", err)
		return
	}

	enabled := h.pref.EnabledPlugins()
	views := make([]pluginView, len(catalog))
	for n, info := range catalog {
		views[n] = pluginView{PluginInfo: info}
		if local, ok := enabled.Get(info.ID); ok {
			views[n].Enabled = true
			views[n].InstalledVersion = local.Version
		}
	}
	c.JSON(http.StatusOK, gin.H{
		"plugins": views,
		"enabled": enabled.IDs(),
	})
}

func (h *Handlers) EnablePlugin(c *gin.Context) {
	pluginID := c.Param("id")
	if err := utils.ValidatePluginID(pluginID); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	info, err := h.manager.Enable(c.Request.Context(), h.pref, pluginID)
	if err != nil {
		h.fail(c, "enable plugin", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "plugin": info})
}

func (h *Handlers) DisablePlugin(c *gin.Context) {
	pluginID := c.Param("id")
	if err := utils.ValidatePluginID(pluginID); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := h.manager.Disable(c.Request.Context(), h.pref, pluginID); err != nil {
		h.fail(c, "disable plugin", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "plugin_id": pluginID})
}

func (h *Handlers) GetPluginOptions(c *gin.Context) {
	pluginID := c.Param("id")
	if err := utils.ValidatePluginID(pluginID); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	opts, err := h.manager.Options().Load(c.Request.Context(), []string{pluginID})
	if err != nil {
		h.fail(c, "load options", err)
		return
	}
	values := opts[pluginID]
	if values == nil {
		values = model.PluginOptions{}
	}
	c.JSON(http.StatusOK, gin.H{"plugin_id": pluginID, "options": values})
}

type optionRequest struct {
	Name  string `json:"name" binding:"required"`
	Value string `json:"value"`
}

// SavePluginOption stores one option value, keeping the others.
func (h *Handlers) SavePluginOption(c *gin.Context) {
	pluginID := c.Param("id")
	var req optionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	if err := h.manager.Options().SaveValue(c.Request.Context(), pluginID, req.Name, req.Value); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

// CheckUpdates runs the plugin update check now.
func (h *Handlers) CheckUpdates(c *gin.Context) {
	res, err := h.updates.Check(c.Request.Context())
	if err != nil {
		h.fail(c, "check plugin updates", err)
		return
	}
	c.JSON(http.StatusOK, res)
}

// CheckVersion compares the running version with the published one.
func (h *Handlers) CheckVersion(c *gin.Context) {
	if h.versions == nil {
		c.JSON(http.StatusOK, gin.H{"current": h.version})
		return
	}
	status, err := h.versions.Check(c.Request.Context())
	if err != nil {
		h.fail(c, "check version", err)
		return
	}
	c.JSON(http.StatusOK, status)
}

type detectRequest struct {
	Text string `json:"text" binding:"required"`
}

func (h *Handlers) Detect(c *gin.Context) {
	var req detectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	if err := utils.ValidateQueryText(req.Text); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	l, err := h.detector.DetectLanguage(c.Request.Context(), req.Text)
	if err != nil {
		h.fail(c, "detect language", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"lang": l.Code(), "name": l.String(), "detector": h.detector.Name()})
}

func (h *Handlers) fail(c *gin.Context, op string, err error) {
	status := errorStatus(err)
	if status >= http.StatusInternalServerError {
		h.logger.Warn("Request failed", zap.String("op", op), zap.Error(err))
	}
	c.JSON(status, gin.H{"error": err.Error()})
}

func errorStatus(err error) int {
	switch {
	case errors.Is(err, plugin.ErrNotInCatalog):
		return http.StatusNotFound
	case errors.Is(err, failure.ErrFetch),
		errors.Is(err, failure.ErrParse),
		errors.Is(err, failure.ErrToken),
		errors.Is(err, failure.ErrDetection):
		return http.StatusBadGateway
	case errors.Is(err, failure.ErrUnknownLang):
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}
