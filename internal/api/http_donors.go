package api

import (
	"net/http"

	"bloodbank/internal/entity"

	"github.com/gin-gonic/gin"
)

func (h *HTTPHandler) ListDonors(c *gin.Context) {
	var query entity.DonorQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		BadRequest(c, ErrCodeInvalidRequest, "invalid query parameters")
		return
	}
	ctx, cancel := requestContext(c)
	defer cancel()

	response, err := h.donors.Search(ctx, &query)
	if err != nil {
		RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, response)
}

// CreateDonor 登记献血者，可同时记录首次献血
func (h *HTTPHandler) CreateDonor(c *gin.Context) {
	var req entity.DonorCreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		InvalidPayload(c)
		return
	}
	ctx, cancel := requestContext(c)
	defer cancel()

	registration, err := h.donors.Register(ctx, req)
	if err != nil {
		RespondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, registration)
}

func (h *HTTPHandler) GetDonor(c *gin.Context) {
	ctx, cancel := requestContext(c)
	defer cancel()

	detail, err := h.donors.Get(ctx, c.Param("id"))
	if err != nil {
		RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, detail)
}

func (h *HTTPHandler) UpdateDonor(c *gin.Context) {
	var req entity.DonorUpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		InvalidPayload(c)
		return
	}
	ctx, cancel := requestContext(c)
	defer cancel()

	donor, err := h.donors.Update(ctx, c.Param("id"), req)
	if err != nil {
		RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, donor)
}

// EligibleDonors 按血型查找可献血者，最久未献血者优先
func (h *HTTPHandler) EligibleDonors(c *gin.Context) {
	var query entity.EligibleDonorQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		BadRequest(c, ErrCodeInvalidRequest, "invalid query parameters")
		return
	}
	ctx, cancel := requestContext(c)
	defer cancel()

	donors, err := h.donors.Eligible(ctx, query)
	if err != nil {
		RespondError(c, err)
		return
	}
	if donors == nil {
		donors = []entity.DbDonor{}
	}
	c.JSON(http.StatusOK, gin.H{"donors": donors})
}
