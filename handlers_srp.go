package main

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/bombersbar/backend/config"
	"github.com/bombersbar/backend/models"
	"github.com/bombersbar/backend/models/reports"
	"github.com/bombersbar/backend/utils"
	"github.com/bombersbar/backend/workflow"
	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
)

type submitSRPRequest struct {
	KillmailId   int    `json:"killmail_id" binding:"required"`
	KillmailHash string `json:"killmail_hash" binding:"required"`
	FleetId      *int   `json:"fleet_id"`
}

// submitSRPHandler is the manual claim path: the pilot hands over a
// killmail id + hash, the victim and ship come from ESI.
func submitSRPHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		var req submitSRPRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		ctx := c.Request.Context()

		km, err := utils.GetEsiKillmail(ctx, req.KillmailId, req.KillmailHash)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "killmail not found on ESI"})
			return
		}
		input := models.NewSRPRequest{
			KillmailId:   km.KillmailId,
			KillmailHash: req.KillmailHash,
			CharacterId:  km.Victim.CharacterId,
			ShipTypeId:   km.Victim.ShipTypeId,
			FleetId:      req.FleetId,
			LossTime:     &km.KillmailTime,
		}
		if name, err := utils.GetEsiCharacterName(ctx, km.Victim.CharacterId); err == nil {
			input.CharacterName = name
		}
		if name, err := utils.GetEsiTypeName(ctx, km.Victim.ShipTypeId); err == nil {
			input.ShipTypeName = name
		}

		request, err := models.CreateSRPRequest(ctx, &input)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusCreated, request)
	}
}

func listSRPHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		filter := models.SRPFilter{
			Status:      c.Query("status"),
			CharacterId: queryInt(c, "character_id"),
			FleetId:     queryInt(c, "fleet_id"),
			Limit:       queryInt(c, "limit"),
			Offset:      queryInt(c, "offset"),
		}
		requests, err := models.ListSRPRequests(c.Request.Context(), filter)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, requests)
	}
}

func getSRPHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := idParam(c)
		if !ok {
			return
		}
		request, err := models.GetSRPRequest(c.Request.Context(), id)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, request)
	}
}

func srpAuditHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := idParam(c)
		if !ok {
			return
		}
		entries, err := models.ListSRPAuditLog(c.Request.Context(), id)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, entries)
	}
}

type approveSRPBody struct {
	FinalPayoutAmount *decimal.Decimal `json:"final_payout_amount"`
}

func approveSRPHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := idParam(c)
		if !ok {
			return
		}
		var body approveSRPBody
		if c.Request.ContentLength > 0 {
			if err := c.ShouldBindJSON(&body); err != nil {
				c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
		}
		request, err := models.ApproveSRPRequest(c.Request.Context(), id, body.FinalPayoutAmount)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, request)
	}
}

type denySRPBody struct {
	Reason string `json:"reason" binding:"required"`
}

func denySRPHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := idParam(c)
		if !ok {
			return
		}
		var body denySRPBody
		if err := c.ShouldBindJSON(&body); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "reason is required"})
			return
		}
		request, err := models.DenySRPRequest(c.Request.Context(), id, body.Reason)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, request)
	}
}

func paySRPHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := idParam(c)
		if !ok {
			return
		}
		request, err := models.MarkSRPRequestPaid(c.Request.Context(), id)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, request)
	}
}

func cancelSRPHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := idParam(c)
		if !ok {
			return
		}
		request, err := models.CancelSRPRequest(c.Request.Context(), id)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, request)
	}
}

type importKillsRequest struct {
	Items []models.KillImportItem `json:"items" binding:"required"`
}

func importKillsHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		var req importKillsRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		summary, err := models.ImportKills(c.Request.Context(), req.Items)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, summary)
	}
}

func processMailsHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
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

// payoutReportHandler streams the approved/paid payout summary for a date
// window as an xlsx workbook.
func payoutReportHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		from, err := time.Parse(time.RFC3339, c.Query("from"))
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "from must be RFC3339"})
			return
		}
		to, err := time.Parse(time.RFC3339, c.Query("to"))
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "to must be RFC3339"})
			return
		}

		summary, err := reports.GetSRPPayoutReport(c.Request.Context(), from, to)
		if err != nil {
			respondError(c, err)
			return
		}
		if c.Query("format") == "json" {
			c.JSON(http.StatusOK, summary)
			return
		}

		filename := fmt.Sprintf("srp-payouts-%s-%s.xlsx", from.UTC().Format("20060102"), to.UTC().Format("20060102"))
		c.Header("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
		c.Header("Content-Disposition", "attachment; filename="+filename)
		if err := reports.WritePayoutReportExcel(c.Writer, summary); err != nil {
			config.LogError(config.GetLogger(), "handlers_srp.go", "payoutReportHandler", "WritePayoutReportExcel", nil, err)
		}
	}
}
