package handlers

import (
	"errors"
	"net/http"

	"github.com/NTEKIMJOHN/Genesis-WMS-DIY-sub000/internal/services"
	"github.com/NTEKIMJOHN/Genesis-WMS-DIY-sub000/pkg/utils"

	"github.com/gin-gonic/gin"
)

// AllocationHandler exposes the manual FEFO allocation endpoint.
type AllocationHandler struct {
	allocationService services.AllocationService
}

// NewAllocationHandler creates a new instance of AllocationHandler.
func NewAllocationHandler(allocationService services.AllocationService) *AllocationHandler {
	return &AllocationHandler{allocationService: allocationService}
}

// AllocateFEFO plans an allocation for one SKU/warehouse pair. A shortfall or
// an empty plan is still a 200: the result carries fully_allocated and the
// warnings.
func (h *AllocationHandler) AllocateFEFO(c *gin.Context) {
	var req services.AllocateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeBadRequest,
			"Invalid request payload", err.Error()))
		return
	}

	result, err := h.allocationService.Allocate(c.Request.Context(), req)
	if err != nil {
		if errors.Is(err, services.ErrAllocationValidation) {
			utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeValidationFailed,
				"Allocation request validation failed", err.Error()))
			return
		}
		utils.RespondWithError(c, utils.NewAPIError(http.StatusInternalServerError, utils.ErrCodeInternalServerError,
			"Failed to plan allocation", err.Error()))
		return
	}

	c.JSON(http.StatusOK, result)
}
