package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/intellexhq/intellex-backend/internal/db"
)

type HealthcheckHandler struct {
	database *db.DatabaseService
}

func NewHealthcheckHandler(database *db.DatabaseService) *HealthcheckHandler {
	return &HealthcheckHandler{database: database}
}

func (hh *HealthcheckHandler) Healthcheck(c *gin.Context) {
	if err := hh.database.Ping(); err != nil {
		RespondError(c, http.StatusServiceUnavailable, "db_unavailable", err)
		return
	}
	RespondOK(c, gin.H{"status": "ok", "driver": hh.database.Driver()})
}
