package api

import (
	"net/http"

	"bloodbank/internal/entity"

	"github.com/gin-gonic/gin"
)

func (h *HTTPHandler) CreateDonation(c *gin.Context) {
	var req entity.DonationCreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		InvalidPayload(c)
		return
	}
	ctx, cancel := requestContext(c)
	defer cancel()

	donation, err := h.donations.Record(ctx, req)
	if err != nil {
		RespondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, donation)
}

func (h *HTTPHandler) ListDonations(c *gin.Context) {
	var query entity.DonationQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		BadRequest(c, ErrCodeInvalidRequest, "invalid query parameters")
		return
	}
	ctx, cancel := requestContext(c)
	defer cancel()

	response, err := h.donations.List(ctx, &query)
	if err != nil {
		RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, response)
}

// UpdateDonation 仅允许修改检测结果和备注
func (h *HTTPHandler) UpdateDonation(c *gin.Context) {
	var req entity.DonationUpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		InvalidPayload(c)
		return
	}
	ctx, cancel := requestContext(c)
	defer cancel()

	donation, err := h.donations.UpdateTestResult(ctx, c.Param("id"), req)
	if err != nil {
		RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, donation)
}
