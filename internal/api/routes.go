package api

import (
	"github.com/gin-gonic/gin"
)

func SetupRoutes(router *gin.Engine, handler *Handler) {
	api := router.Group("/api")
	{
		api.GET("/changes", handler.GetRecentChanges)
		api.GET("/properties/:id/summary", handler.GetPropertySummary)
		api.GET("/stats", handler.GetLedgerStats)
		api.POST("/run", handler.TriggerRun)
	}
}
