package httpapi

import (
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	"github.com/epanner/shipfast-hack-25/internal/ai"
	"github.com/epanner/shipfast-hack-25/internal/clock"
	"github.com/epanner/shipfast-hack-25/internal/config"
	"github.com/epanner/shipfast-hack-25/internal/db"
	"github.com/epanner/shipfast-hack-25/internal/http/handlers"
	"github.com/epanner/shipfast-hack-25/internal/http/middleware"
	"github.com/epanner/shipfast-hack-25/internal/ingest"
	"github.com/epanner/shipfast-hack-25/internal/session"
	"github.com/epanner/shipfast-hack-25/internal/ws"

	_ "github.com/epanner/shipfast-hack-25/docs"
)

func Router(cfg config.Config, registry *session.Registry, store *db.Store, adapter ai.Adapter, hub *ws.Hub, logger zerolog.Logger) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.RequestID())
	r.Use(middleware.Logger(logger))
	r.MaxMultipartMemory = cfg.MaxUploadSizeMB << 20

	corsCfg := cors.Config{
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization", "X-Admin-Key", "X-Request-Id"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}
	if cfg.CORSAllowed == "*" {
		corsCfg.AllowAllOrigins = true
	} else {
		corsCfg.AllowOrigins = []string{cfg.CORSAllowed}
	}
	r.Use(cors.New(corsCfg))

	h := &handlers.Handler{
		Registry:     registry,
		Store:        store,
		AI:           adapter,
		Ingest:       ingest.Client{AI: adapter, DefaultLanguage: cfg.TargetLanguage},
		Hub:          hub,
		Clock:        clock.System{},
		Validator:    validator.New(),
		Logger:       logger,
		HistoryLimit: cfg.HistoryLimit,
	}

	r.GET("/healthz", h.Healthz)

	api := r.Group("/api")
	{
		api.POST("/calls", h.StartCall)
		api.GET("/calls", h.HistoryList)
		api.GET("/calls/:id/feed", h.Feed)
		api.POST("/calls/:id/answer", h.Answer)
		api.POST("/calls/:id/hangup", h.Hangup)
		api.POST("/calls/:id/dispatch", h.Dispatch)
		api.POST("/calls/:id/priority", h.SetPriority)
		api.POST("/calls/:id/messages", h.PostMessage)
		api.POST("/calls/:id/audio", h.ProcessAudio)
		api.POST("/calls/:id/suggestions/:sid/ack", h.AckSuggestion)
		api.POST("/calls/:id/suggestions/:sid/apply", h.ApplySuggestion)
		api.POST("/calls/:id/questions/:qid/ack", h.AckQuestion)
		api.PUT("/calls/:id/summary", h.UpdateSummary)
	}

	admin := api.Group("/admin")
	admin.Use(middleware.AdminKey(cfg.AdminKey))
	{
		admin.GET("/export", h.ExportHistory)
	}

	r.GET("/ws/calls/:id", h.WatchCall)

	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	return r
}
