package main

import (
	"errors"
	"net/http"

	"github.com/bombersbar/backend/config"
	"github.com/bombersbar/backend/middlewares"
	"github.com/bombersbar/backend/models"
	"github.com/bombersbar/backend/workflow"
	"github.com/gin-gonic/gin"
)

// requireServiceClaim gates /internal routes on a valid JWT with the Admin
// role. These are called by cron jobs and ops scripts, not browsers.
func requireServiceClaim(c *gin.Context) bool {
	claim := middlewares.CtxValue(c.Request.Context())
	if claim == nil || claim.Role != string(models.UserRoleAdmin) {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return false
	}
	return true
}

func internalSweepHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !requireServiceClaim(c) {
			return
		}
		if err := workflow.RefreshFleetStatuses(c.Request.Context()); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{"success": true})
	}
}

func internalProcessMailsHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !requireServiceClaim(c) {
			return
		}
		summary, err := workflow.RunSrpMailIntake(c.Request.Context(), config.GetLogger())
		if err != nil {
			if errors.Is(err, workflow.ErrIntakeAlreadyRunning) {
				c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
				return
			}
			c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, summary)
	}
}
