package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/AI2HU/bulletcalc/internal/models"
)

// healthCheck handles GET /api/v1/health
func (s *Server) healthCheck(c *gin.Context) {
	resp := models.HealthResponse{
		Status:           "healthy",
		SQLite:           "ok",
		MongoDBConnected: s.db.NoSQLConnected(),
		Version:          s.version,
	}

	if err := s.db.Ping(c.Request.Context()); err != nil {
		resp.Status = "unhealthy"
		resp.SQLite = err.Error()
		c.JSON(http.StatusServiceUnavailable, resp)
		return
	}
	if !resp.MongoDBConnected {
		resp.Status = "degraded"
	}

	c.JSON(http.StatusOK, resp)
}

// getSettings handles GET /api/v1/settings
func (s *Server) getSettings(c *gin.Context) {
	cfg := s.cfg
	s.successResponse(c, models.SettingsResponse{
		Debug:         cfg.Debug,
		AllowedHosts:  cfg.AllowedHosts,
		InstalledApps: cfg.InstalledApps,
		Middleware:    cfg.Middleware,
		REST: map[string]any{
			"default_permission_classes": []string{cfg.REST.Permission},
			"default_renderer_classes":   []string{cfg.REST.Renderer},
			"default_pagination_class":   cfg.REST.Pagination,
			"page_size":                  cfg.REST.PageSize,
		},
		CORS: map[string]any{
			"allow_all_origins": cfg.CORS.AllowAllOrigins,
			"allowed_origins":   cfg.CORS.AllowedOrigins,
			"allow_credentials": cfg.CORS.AllowCredentials,
		},
		Databases: map[string]string{
			"default": cfg.SQLDatabase.Provider,
			"mongodb": cfg.NoSQLDatabase.Database,
		},
		StaticURL:    cfg.Static.URL,
		MediaURL:     cfg.Media.URL,
		LanguageCode: cfg.LanguageCode,
		TimeZone:     cfg.TimeZone,
	})
}
