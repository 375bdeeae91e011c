package api

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"laundry-bot/internal/laundry"
	"laundry-bot/internal/model"
)

// statusResponse is the JSON shape for GET /api/status.
type statusResponse struct {
	Status          string     `json:"status"`
	StatusLine      string     `json:"statusLine"`
	EstimatedFreeBy string     `json:"estimatedFreeBy"`
	EstimatedFreeAt *time.Time `json:"estimatedFreeAt"`
	CurrentUserName *string    `json:"currentUserName"`
	LastUpdated     string     `json:"lastUpdated"`
	LastUpdatedAt   *time.Time `json:"lastUpdatedAt"`
	UpdatedByName   string     `json:"updatedByName"`

	HelpRequests []helpRequestResponse `json:"helpRequests"`
}

type helpRequestResponse struct {
	ID        int64     `json:"id"`
	UserName  string    `json:"userName"`
	Type      string    `json:"type"`
	Label     string    `json:"label"`
	CreatedAt time.Time `json:"createdAt"`
}

// GetStatus handles GET /api/status.
func (h *Handler) GetStatus(c *gin.Context) {
	ctx := c.Request.Context()

	row, err := h.store.GetStatus(ctx)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve status"})
		return
	}
	helpRequests, err := h.store.ActiveHelpRequests(ctx)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve help requests"})
		return
	}

	sum := laundry.Summarize(row, h.loc)
	resp := statusResponse{
		Status:          string(sum.Key),
		StatusLine:      sum.StatusLine,
		EstimatedFreeBy: sum.EstimatedFreeBy,
		EstimatedFreeAt: sum.EstimatedFreeAt,
		LastUpdated:     sum.LastUpdated,
		LastUpdatedAt:   sum.LastUpdatedAt,
		UpdatedByName:   sum.UpdatedByName,
		HelpRequests:    make([]helpRequestResponse, 0, len(helpRequests)),
	}
	if row != nil {
		resp.CurrentUserName = row.CurrentUserName
	}
	for _, request := range helpRequests {
		resp.HelpRequests = append(resp.HelpRequests, helpRequestResponse{
			ID:        request.ID,
			UserName:  request.UserName,
			Type:      request.RequestType,
			Label:     laundry.HelpLabel(request.RequestType),
			CreatedAt: request.CreatedAt,
		})
	}

	c.JSON(http.StatusOK, resp)
}

// GetHistory handles GET /api/history?limit=N, newest first.
func (h *Handler) GetHistory(c *gin.Context) {
	limit := 50
	if raw := c.Query("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 || parsed > 500 {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "Invalid limit"})
			return
		}
		limit = parsed
	}

	var entries []model.LaundryStatusHistory
	err := h.store.DB().WithContext(c.Request.Context()).
		Where("machine_type = ?", model.MachineTypeLaundry).
		Order("updated_at DESC").
		Limit(limit).
		Find(&entries).Error
	if err != nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve history"})
		return
	}

	c.JSON(http.StatusOK, entries)
}
