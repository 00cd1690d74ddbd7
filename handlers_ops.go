package main

import (
	"net/http"
	"strings"

	"github.com/bombersbar/backend/config"
	"github.com/bombersbar/backend/models"
	"github.com/bombersbar/backend/utils"
	"github.com/gin-gonic/gin"
)

func listMailQueueHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		mails, err := models.ListMailQueue(c.Request.Context(), c.Query("status"), queryInt(c, "limit"), queryInt(c, "offset"))
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, mails)
	}
}

// replayMailHandler re-queues a FAILED/DEAD mail for immediate delivery.
func replayMailHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := idParam(c)
		if !ok {
			return
		}
		mail, err := models.ReplayMail(c.Request.Context(), id)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, mail)
	}
}

type contactRequest struct {
	Name    string `json:"name" binding:"required"`
	Contact string `json:"contact"`
	Message string `json:"message" binding:"required"`
}

// contactHandler forwards the public contact form to the Discord webhook.
func contactHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		var req contactRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		if strings.TrimSpace(req.Message) == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "message is required"})
			return
		}

		contact := strings.TrimSpace(req.Contact)
		if contact == "" {
			contact = "-"
		}
		payload := utils.DiscordWebhookPayload{
			Username: "Bombers Bar Contact",
			Embeds: []utils.DiscordEmbed{{
				Title:       "New contact message",
				Description: req.Message,
				Fields: []utils.DiscordEmbedField{
					{Name: "From", Value: req.Name, Inline: true},
					{Name: "Contact", Value: contact, Inline: true},
				},
			}},
		}

		if err := utils.PostDiscordWebhook(c.Request.Context(), payload); err != nil {
			config.LogError(config.GetLogger(), "handlers_ops.go", "contactHandler", "PostDiscordWebhook", req.Name, err)
			c.JSON(http.StatusBadGateway, gin.H{"error": "could not deliver message"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"success": true})
	}
}
