// controllers/campaign.go
package controllers

import (
	"context"
	"net/http"
	"strconv"

	"stayhub-backend/models"
	"stayhub-backend/services"
	"stayhub-backend/utils"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type CampaignHistory interface {
	List(ctx context.Context, scheduleID *uuid.UUID, limit, offset int) ([]models.CampaignLog, int64, error)
	GetByID(ctx context.Context, id uuid.UUID) (*models.CampaignLog, error)
	ListDeliveries(ctx context.Context, campaignID uuid.UUID) ([]models.DeliveryLog, error)
}

type CampaignController struct {
	Campaigns  CampaignHistory
	Dispatcher *services.Dispatcher
}

func (cc *CampaignController) ListCampaigns(c *gin.Context) {
	limit, err := strconv.Atoi(c.DefaultQuery("limit", "50"))
	if err != nil || limit < 1 || limit > 500 {
		utils.RespondWithError(c, http.StatusBadRequest, "Invalid limit parameter")
		return
	}
	offset, err := strconv.Atoi(c.DefaultQuery("offset", "0"))
	if err != nil || offset < 0 {
		utils.RespondWithError(c, http.StatusBadRequest, "Invalid offset parameter")
		return
	}

	var scheduleID *uuid.UUID
	if raw := c.Query("scheduleId"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			utils.RespondWithError(c, http.StatusBadRequest, "Invalid scheduleId parameter")
			return
		}
		scheduleID = &id
	}

	campaigns, total, err := cc.Campaigns.List(c.Request.Context(), scheduleID, limit, offset)
	if err != nil {
		respondError(c, err, "Failed to retrieve campaigns")
		return
	}
	c.JSON(http.StatusOK, gin.H{"items": campaigns, "total": total, "limit": limit, "offset": offset})
}

func (cc *CampaignController) GetCampaign(c *gin.Context) {
	id, ok := parseIDParam(c)
	if !ok {
		return
	}

	campaign, err := cc.Campaigns.GetByID(c.Request.Context(), id)
	if err != nil {
		respondError(c, err, "Failed to retrieve campaign")
		return
	}

	deliveries, err := cc.Campaigns.ListDeliveries(c.Request.Context(), id)
	if err != nil {
		respondError(c, err, "Failed to retrieve deliveries")
		return
	}
	c.JSON(http.StatusOK, gin.H{"campaign": campaign, "deliveries": deliveries})
}

// SendTagCampaign runs an ad-hoc campaign for one tag and waits for it.
func (cc *CampaignController) SendTagCampaign(c *gin.Context) {
	var input services.TagCampaignRequest
	if err := c.ShouldBindJSON(&input); err != nil {
		utils.RespondWithError(c, http.StatusBadRequest, "Invalid input: "+err.Error())
		return
	}

	result, err := cc.Dispatcher.RunTagCampaign(c.Request.Context(), input)
	if err != nil {
		respondError(c, err, "Failed to send campaign")
		return
	}
	c.JSON(http.StatusOK, result)
}
