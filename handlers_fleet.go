package main

import (
	"net/http"
	"time"

	"github.com/bombersbar/backend/config"
	"github.com/bombersbar/backend/models"
	"github.com/bombersbar/backend/workflow"
	"github.com/gin-gonic/gin"
)

// Fleet statuses are derived from the clock. Reads refresh them first so a
// stale sweep never shows a past fleet as scheduled.
func refreshFleetStatuses(c *gin.Context) {
	if err := workflow.RefreshFleetStatuses(c.Request.Context()); err != nil {
		config.LogError(config.GetLogger(), "handlers_fleet.go", "refreshFleetStatuses", "RefreshFleetStatuses", nil, err)
	}
}

func listFleetsHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		refreshFleetStatuses(c)

		filter := models.FleetFilter{
			Status:      c.Query("status"),
			FleetTypeId: queryInt(c, "fleet_type_id"),
			FcId:        queryInt(c, "fc_id"),
			Limit:       queryInt(c, "limit"),
			Offset:      queryInt(c, "offset"),
		}
		if v := c.Query("from"); v != "" {
			t, err := time.Parse(time.RFC3339, v)
			if err != nil {
				c.JSON(http.StatusBadRequest, gin.H{"error": "from must be RFC3339"})
				return
			}
			filter.From = &t
		}
		if v := c.Query("to"); v != "" {
			t, err := time.Parse(time.RFC3339, v)
			if err != nil {
				c.JSON(http.StatusBadRequest, gin.H{"error": "to must be RFC3339"})
				return
			}
			filter.To = &t
		}

		fleets, err := models.ListFleets(c.Request.Context(), filter)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, fleets)
	}
}

func getFleetHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := idParam(c)
		if !ok {
			return
		}
		refreshFleetStatuses(c)

		fleet, err := models.GetFleet(c.Request.Context(), id)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, fleet)
	}
}

func createFleetHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		var input models.NewFleet
		if err := c.ShouldBindJSON(&input); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		fleet, err := models.CreateFleet(c.Request.Context(), &input)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusCreated, fleet)
	}
}

func updateFleetHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := idParam(c)
		if !ok {
			return
		}
		var input models.NewFleet
		if err := c.ShouldBindJSON(&input); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		fleet, err := models.UpdateFleet(c.Request.Context(), id, &input)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, fleet)
	}
}

func cancelFleetHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := idParam(c)
		if !ok {
			return
		}
		fleet, err := models.CancelFleet(c.Request.Context(), id)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, fleet)
	}
}

type participantsRequest struct {
	ParticipantCount *int `json:"participant_count" binding:"required"`
}

func setFleetParticipantsHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := idParam(c)
		if !ok {
			return
		}
		var req participantsRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "participant_count is required"})
			return
		}
		fleet, err := models.SetFleetParticipantCount(c.Request.Context(), id, *req.ParticipantCount)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, fleet)
	}
}

func listFleetTypesHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		activeOnly := c.Query("include_inactive") != "true"
		fleetTypes, err := models.ListFleetTypes(c.Request.Context(), activeOnly)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, fleetTypes)
	}
}

func createFleetTypeHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		var input models.NewFleetType
		if err := c.ShouldBindJSON(&input); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		fleetType, err := models.CreateFleetType(c.Request.Context(), &input)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusCreated, fleetType)
	}
}

func updateFleetTypeHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := idParam(c)
		if !ok {
			return
		}
		var input models.NewFleetType
		if err := c.ShouldBindJSON(&input); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		fleetType, err := models.UpdateFleetType(c.Request.Context(), id, &input)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, fleetType)
	}
}

func toggleFleetTypeHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := idParam(c)
		if !ok {
			return
		}
		var req toggleActiveRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "is_active is required"})
			return
		}
		fleetType, err := models.ToggleActiveFleetType(c.Request.Context(), id, *req.IsActive)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, fleetType)
	}
}

func listFleetCommandersHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		fcs, err := models.ListFleetCommanders(c.Request.Context(), c.Query("status"), c.Query("rank"))
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, fcs)
	}
}

func createFleetCommanderHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		var input models.NewFleetCommander
		if err := c.ShouldBindJSON(&input); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		fc, err := models.CreateFleetCommander(c.Request.Context(), &input)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusCreated, fc)
	}
}

func updateFleetCommanderHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := idParam(c)
		if !ok {
			return
		}
		var input models.NewFleetCommander
		if err := c.ShouldBindJSON(&input); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		fc, err := models.UpdateFleetCommander(c.Request.Context(), id, &input)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, fc)
	}
}

type fcStatusRequest struct {
	Status string `json:"status" binding:"required"`
}

func setFleetCommanderStatusHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := idParam(c)
		if !ok {
			return
		}
		var req fcStatusRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "status is required"})
			return
		}
		fc, err := models.SetFleetCommanderStatus(c.Request.Context(), id, req.Status)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, fc)
	}
}

func listDoctrinesHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		activeOnly := c.Query("include_inactive") != "true"
		doctrines, err := models.ListDoctrines(c.Request.Context(), queryInt(c, "fleet_type_id"), activeOnly)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, doctrines)
	}
}

func getDoctrineHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := idParam(c)
		if !ok {
			return
		}
		doctrine, err := models.GetDoctrine(c.Request.Context(), id)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, doctrine)
	}
}

func createDoctrineHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		var input models.NewDoctrine
		if err := c.ShouldBindJSON(&input); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		doctrine, err := models.CreateDoctrine(c.Request.Context(), &input)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusCreated, doctrine)
	}
}

func updateDoctrineHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := idParam(c)
		if !ok {
			return
		}
		var input models.NewDoctrine
		if err := c.ShouldBindJSON(&input); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		doctrine, err := models.UpdateDoctrine(c.Request.Context(), id, &input)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, doctrine)
	}
}

func toggleDoctrineHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := idParam(c)
		if !ok {
			return
		}
		var req toggleActiveRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "is_active is required"})
			return
		}
		doctrine, err := models.ToggleActiveDoctrine(c.Request.Context(), id, *req.IsActive)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, doctrine)
	}
}

func deleteDoctrineHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := idParam(c)
		if !ok {
			return
		}
		doctrine, err := models.DeleteDoctrine(c.Request.Context(), id)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, doctrine)
	}
}
