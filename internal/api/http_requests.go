package api

import (
	"context"
	"net/http"

	"bloodbank/internal/entity"

	"github.com/gin-gonic/gin"
)

func (h *HTTPHandler) ListRequests(c *gin.Context) {
	var query entity.BloodRequestQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		BadRequest(c, ErrCodeInvalidRequest, "invalid query parameters")
		return
	}
	ctx, cancel := requestContext(c)
	defer cancel()

	response, err := h.requests.List(ctx, &query)
	if err != nil {
		RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, response)
}

func (h *HTTPHandler) CreateRequest(c *gin.Context) {
	var req entity.BloodRequestCreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		InvalidPayload(c)
		return
	}
	ctx, cancel := requestContext(c)
	defer cancel()

	request, err := h.requests.Create(ctx, req)
	if err != nil {
		RespondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, request)
}

type requestAction func(ctx context.Context, requestID string, decision entity.BloodRequestDecision) (*entity.DbBloodRequest, error)

// decide 执行状态变更，请求体可为空
func (h *HTTPHandler) decide(c *gin.Context, action requestAction) {
	var decision entity.BloodRequestDecision
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&decision); err != nil {
			InvalidPayload(c)
			return
		}
	}
	ctx, cancel := requestContext(c)
	defer cancel()

	request, err := action(ctx, c.Param("id"), decision)
	if err != nil {
		RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, request)
}

func (h *HTTPHandler) ApproveRequest(c *gin.Context) { h.decide(c, h.requests.Approve) }
func (h *HTTPHandler) RejectRequest(c *gin.Context)  { h.decide(c, h.requests.Reject) }
func (h *HTTPHandler) CancelRequest(c *gin.Context)  { h.decide(c, h.requests.Cancel) }
func (h *HTTPHandler) FulfillRequest(c *gin.Context) { h.decide(c, h.requests.Fulfill) }
