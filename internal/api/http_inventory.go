package api

import (
	"net/http"

	"bloodbank/internal/entity"

	"github.com/gin-gonic/gin"
)

func (h *HTTPHandler) ListInventory(c *gin.Context) {
	ctx, cancel := requestContext(c)
	defer cancel()

	view, err := h.inventory.List(ctx)
	if err != nil {
		RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, view)
}

// UpdateStock 管理员手动增减库存
func (h *HTTPHandler) UpdateStock(c *gin.Context) {
	var req entity.StockUpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		InvalidPayload(c)
		return
	}
	ctx, cancel := requestContext(c)
	defer cancel()

	resp, err := h.inventory.AdjustStock(ctx, req)
	if err != nil {
		RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}
