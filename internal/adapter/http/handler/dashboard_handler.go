package handler

import (
	"math"
	"strconv"

	"invite-escrow-ledger/internal/adapter/http/dto"
	"invite-escrow-ledger/internal/core/domain"
	"invite-escrow-ledger/internal/core/ports"
	"invite-escrow-ledger/pkg/apperror"
	"invite-escrow-ledger/pkg/response"

	"github.com/ethereum/go-ethereum/common"
	"github.com/gin-gonic/gin"
)

// DashboardHandler handles the operator dashboard: journal listing and stats.
type DashboardHandler struct {
	reportingSvc ports.ReportingService
}

// NewDashboardHandler creates a new DashboardHandler.
func NewDashboardHandler(reportingSvc ports.ReportingService) *DashboardHandler {
	return &DashboardHandler{reportingSvc: reportingSvc}
}

// GetStats handles GET /api/v1/dashboard/stats.
func (h *DashboardHandler) GetStats(c *gin.Context) {
	stats, err := h.reportingSvc.GetStats(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, dto.NewStatsResponse(stats))
}

// ListEvents handles GET /api/v1/events.
func (h *DashboardHandler) ListEvents(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "20"))
	if page < 1 {
		page = 1
	}
	if pageSize < 1 || pageSize > 100 {
		pageSize = 20
	}

	params := ports.EventListParams{
		Page:     page,
		PageSize: pageSize,
	}

	if p := c.Query("party"); p != "" {
		if !common.IsHexAddress(p) {
			response.Error(c, apperror.Validation("party is not a valid address"))
			return
		}
		addr := common.HexToAddress(p)
		params.Party = &addr
	}
	if k := c.Query("kind"); k != "" {
		kind := domain.EscrowEventKind(k)
		params.Kind = &kind
	}

	events, total, err := h.reportingSvc.ListEvents(c.Request.Context(), params)
	if err != nil {
		response.Error(c, err)
		return
	}

	items := make([]dto.EscrowEventResponse, 0, len(events))
	for i := range events {
		items = append(items, dto.NewEscrowEventResponse(&events[i]))
	}

	totalPages := int(math.Ceil(float64(total) / float64(pageSize)))

	response.OK(c, dto.EventListResponse{
		Items:      items,
		Total:      total,
		Page:       page,
		PageSize:   pageSize,
		TotalPages: totalPages,
	})
}
